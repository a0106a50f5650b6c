// Package reconcile implements the sync pipeline core. One run enumerates
// the source "Download" collection, stages each book that is not already on
// disk, triggers a single destination library scan, then matches, updates,
// and promotes each book to the "Synced" collection. Every book ends the run
// with exactly one terminal outcome.
package reconcile
