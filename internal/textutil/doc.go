// Package textutil provides small text helpers shared across the pipeline,
// most importantly the deterministic path-segment sanitizer used both when
// staging books to disk and when matching scanned items by folder path.
package textutil
