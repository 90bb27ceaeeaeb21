// pkg/testutil/environment.go
// DEPENDENCIES: paths
// PURPOSE: Isolated XDG directories and a fake game directory per test

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/reshader/pkg/paths"
)

// TestEnvironment provides isolated reshader directories and a game directory
type TestEnvironment struct {
	Root    string
	GameDir string
	Paths   paths.Paths

	t testing.TB
}

// NewTestEnvironment points every RESHADER_*_DIR override into a temp dir
// and creates an empty game directory.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	root := t.TempDir()
	t.Setenv(paths.EnvDataDir, filepath.Join(root, "data"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(root, "config"))
	t.Setenv(paths.EnvCacheDir, filepath.Join(root, "cache"))
	t.Setenv(paths.EnvStateDir, filepath.Join(root, "state"))

	p, err := paths.New()
	if err != nil {
		t.Fatalf("paths: %v", err)
	}

	game := filepath.Join(root, "games", "TestGame")
	if err := os.MkdirAll(game, 0755); err != nil {
		t.Fatalf("mkdir game: %v", err)
	}

	return &TestEnvironment{Root: root, GameDir: game, Paths: p, t: t}
}

// WithGameFiles writes files into the game directory
func (e *TestEnvironment) WithGameFiles(files map[string]string) *TestEnvironment {
	e.t.Helper()
	WriteTree(e.t, e.GameDir, files)
	return e
}

// NewGame creates an additional game directory
func (e *TestEnvironment) NewGame(name string, files map[string]string) string {
	e.t.Helper()
	dir := filepath.Join(e.Root, "games", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.t.Fatalf("mkdir game: %v", err)
	}
	WriteTree(e.t, dir, files)
	return dir
}

// GameSnapshot returns SnapshotTree of the game directory
func (e *TestEnvironment) GameSnapshot() map[string]string {
	e.t.Helper()
	return SnapshotTree(e.t, e.GameDir)
}
