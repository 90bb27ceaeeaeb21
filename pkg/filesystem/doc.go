// Package filesystem provides filesystem implementations for reshader.
//
// This package contains the FS interface used by every component that writes
// into a game directory or the data directory, with the standard OS
// implementation and an afero-backed implementation for tests.
package filesystem
