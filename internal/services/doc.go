// Package services defines shared utilities consumed by the sync pipeline and
// the Audiobookshelf integrations.
//
// Key responsibilities:
//   - Context helpers that stamp book IDs, phase names, and run identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper so call sites classify
//     failures consistently (auth vs not-found vs unavailable).
package services
