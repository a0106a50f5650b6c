// Package media holds the domain model for audiobook sync: the immutable
// per-run Book snapshot, collections, destination items, and the metadata
// payload copied from source to destination.
package media
