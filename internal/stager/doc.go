// Package stager materializes a book's audio files and cover on disk. It is
// the only component that writes inside a book's target directory, and it
// guarantees a directory either holds the complete download or does not
// exist at all.
package stager
