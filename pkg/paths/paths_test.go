// pkg/paths/paths_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (temp dirs only)
// PURPOSE: Test XDG overrides, game keys and per-game file locations

package paths_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPaths(t *testing.T) (paths.Paths, string) {
	t.Helper()

	root := t.TempDir()
	t.Setenv(paths.EnvDataDir, filepath.Join(root, "data"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(root, "config"))
	t.Setenv(paths.EnvCacheDir, filepath.Join(root, "cache"))
	t.Setenv(paths.EnvStateDir, filepath.Join(root, "state"))

	p, err := paths.New()
	require.NoError(t, err)
	return p, root
}

func TestNew_EnvironmentOverrides(t *testing.T) {
	p, root := setupPaths(t)

	assert.Equal(t, filepath.Join(root, "data"), p.DataDir())
	assert.Equal(t, filepath.Join(root, "config"), p.ConfigDir())
	assert.Equal(t, filepath.Join(root, "cache"), p.CacheDir())
	assert.Equal(t, filepath.Join(root, "state"), p.StateDir())

	assert.Equal(t, filepath.Join(root, "config", "config.toml"), p.ConfigFile())
	assert.Equal(t, filepath.Join(root, "data", "records"), p.RecordsDir())
	assert.Equal(t, filepath.Join(root, "state", "locks"), p.LocksDir())
	assert.Equal(t, filepath.Join(root, "data", "downloads"), p.DownloadsDir())
	assert.Equal(t, filepath.Join(root, "state", "reshader.log"), p.LogFilePath())
}

func TestNew_DefaultsUseAppDir(t *testing.T) {
	t.Setenv(paths.EnvDataDir, "")
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvCacheDir, "")
	t.Setenv(paths.EnvStateDir, "")

	p, err := paths.New()
	require.NoError(t, err)

	for _, dir := range []string{p.DataDir(), p.ConfigDir(), p.CacheDir(), p.StateDir()} {
		assert.True(t, filepath.IsAbs(dir), "%s should be absolute", dir)
		assert.Equal(t, paths.AppDirName, filepath.Base(dir))
	}
}

func TestGameKey(t *testing.T) {
	game := t.TempDir()

	t.Run("stable_for_same_path", func(t *testing.T) {
		k1, err := paths.GameKey(game)
		require.NoError(t, err)
		k2, err := paths.GameKey(game + string(filepath.Separator))
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
		assert.Len(t, k1, 16)
	})

	t.Run("resolves_symlinked_directory", func(t *testing.T) {
		link := filepath.Join(t.TempDir(), "link")
		require.NoError(t, os.Symlink(game, link))

		direct, err := paths.GameKey(game)
		require.NoError(t, err)
		viaLink, err := paths.GameKey(link)
		require.NoError(t, err)
		assert.Equal(t, direct, viaLink)
	})

	t.Run("different_games_differ", func(t *testing.T) {
		other := t.TempDir()
		k1, err := paths.GameKey(game)
		require.NoError(t, err)
		k2, err := paths.GameKey(other)
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("empty_path_rejected", func(t *testing.T) {
		_, err := paths.GameKey("  ")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})
}

func TestRecordAndLockPaths(t *testing.T) {
	p, _ := setupPaths(t)
	game := t.TempDir()

	key, err := paths.GameKey(game)
	require.NoError(t, err)

	recordPath, err := p.RecordPath(game)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.RecordsDir(), key+".toml"), recordPath)

	lockPath, err := p.LockPath(game)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.LocksDir(), key+".lock"), lockPath)

	backupDir, err := p.BackupDir(game)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.DataDir(), "backups", key), backupDir)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/Games/witcher3", filepath.Join(home, "Games", "witcher3")},
		{"~other/x", "~other/x"},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.ExpandHome(tt.in))
		})
	}
}

func TestGitCacheDir_SanitizesNames(t *testing.T) {
	p, _ := setupPaths(t)

	dir := p.GitCacheDir("crosire/reshade-shaders (slim)")
	assert.Equal(t, filepath.Join(p.CacheDir(), "git"), filepath.Dir(dir))
	assert.False(t, strings.ContainsAny(filepath.Base(dir), "/ ()"))

	assert.Equal(t, "_", paths.SanitizeName(".."))
	assert.Equal(t, "quint-master", paths.SanitizeName("quint-master"))
}
