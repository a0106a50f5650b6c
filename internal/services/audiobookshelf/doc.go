// Package audiobookshelf provides typed clients for the Audiobookshelf API:
// a Source client for the triage server (collections, book snapshots, file
// and cover downloads) and a Destination client for the main server (scan
// trigger and polling, path-based item lookup, metadata updates). Both share
// one HTTP access layer with sentinel-error classification and no retries;
// retry policy belongs to the caller.
package audiobookshelf
