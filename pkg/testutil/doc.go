// Package testutil provides utilities for testing reshader components.
//
// Key components:
//   - TestEnvironment: isolated XDG directories plus a fake game directory
//   - BuildZip / BuildInstaller: in-memory zip archives and fake vendor installers
//   - BuildPE: minimal PE executables with a chosen machine and import table
//   - WriteTree / SnapshotTree / MemTree: declarative file trees and byte-level snapshots
//
// Usage guidelines:
//   - Merger and filesystem tests use afero memory filesystems via MemTree
//   - Planner, lock and record tests use the real filesystem under t.TempDir()
//   - All test data should be defined inline, not in external files
package testutil
