// pkg/install/journal_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (temp dirs)
// PURPOSE: Test the commit journal: replace, remove and reverse rollback

package install

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_RollbackRestoresEverything(t *testing.T) {
	root := t.TempDir()
	live := filepath.Join(root, "live")
	staging := filepath.Join(root, "staging")

	testutil.WriteTree(t, live, map[string]string{
		"d3d11.dll":               "old-binary",
		"old.txt":                 "remove me",
		"reshade-shaders/keep.fx": "user",
	})
	testutil.WriteTree(t, staging, map[string]string{
		"d3d11.dll":   "new-binary",
		"Deep/A/b.fx": "new shader",
	})
	before := testutil.SnapshotTree(t, live)

	j := newJournal(filesystem.NewOS(), filepath.Join(staging, "backup"))
	require.NoError(t, j.Replace(filepath.Join(staging, "d3d11.dll"), filepath.Join(live, "d3d11.dll")))
	require.NoError(t, j.Replace(filepath.Join(staging, "Deep/A/b.fx"), filepath.Join(live, "reshade-shaders/Deep/A/b.fx")))
	require.NoError(t, j.Remove(filepath.Join(live, "old.txt")))
	require.NoError(t, j.Remove(filepath.Join(live, "never-existed.txt")), "missing file is a no-op")
	assert.Equal(t, 3, j.Len())

	after := testutil.SnapshotTree(t, live)
	assert.Equal(t, "new-binary", after["d3d11.dll"])
	assert.Equal(t, "new shader", after["reshade-shaders/Deep/A/b.fx"])
	assert.NotContains(t, after, "old.txt")

	require.NoError(t, j.Rollback())
	assert.Equal(t, before, testutil.SnapshotTree(t, live))
	assert.Equal(t, 0, j.Len())
}

func TestJournal_CommitKeepsChanges(t *testing.T) {
	root := t.TempDir()
	live := filepath.Join(root, "live")
	staging := filepath.Join(root, "staging")
	testutil.WriteTree(t, live, map[string]string{"dxgi.dll": "old"})
	testutil.WriteTree(t, staging, map[string]string{"dxgi.dll": "new"})

	j := newJournal(filesystem.NewOS(), filepath.Join(staging, "backup"))
	require.NoError(t, j.Replace(filepath.Join(staging, "dxgi.dll"), filepath.Join(live, "dxgi.dll")))
	j.Commit()
	require.NoError(t, j.Rollback(), "nothing left to undo")

	content, err := os.ReadFile(filepath.Join(live, "dxgi.dll"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestJournal_ReplaceOverDirectoryFails(t *testing.T) {
	root := t.TempDir()
	live := filepath.Join(root, "live")
	staging := filepath.Join(root, "staging")
	testutil.WriteTree(t, live, map[string]string{"Shaders/Bloom.fx/inner.txt": "dir in the way"})
	testutil.WriteTree(t, staging, map[string]string{"Bloom.fx": "shader"})

	j := newJournal(filesystem.NewOS(), filepath.Join(staging, "backup"))
	err := j.Replace(filepath.Join(staging, "Bloom.fx"), filepath.Join(live, "Shaders/Bloom.fx"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrWriteFailure))
	assert.Equal(t, 0, j.Len())
	assert.FileExists(t, filepath.Join(staging, "Bloom.fx"), "staged file untouched")
}

func TestJournal_PreserveRollback(t *testing.T) {
	root := t.TempDir()
	live := filepath.Join(root, "live")
	kept := filepath.Join(root, "data", "backups")
	testutil.WriteTree(t, live, map[string]string{"d3d9.dll": "game loader", "dxgi.dll": "game dxgi"})
	testutil.WriteTree(t, kept, map[string]string{"dxgi.dll": "stale copy"})

	j := newJournal(filesystem.NewOS(), filepath.Join(root, "staging", "backup"))
	require.NoError(t, j.Preserve(filepath.Join(live, "d3d9.dll"), filepath.Join(kept, "game", "d3d9.dll")))
	require.NoError(t, j.Preserve(filepath.Join(live, "dxgi.dll"), filepath.Join(kept, "dxgi.dll")))

	data, err := os.ReadFile(filepath.Join(kept, "game", "d3d9.dll"))
	require.NoError(t, err)
	assert.Equal(t, "game loader", string(data))
	assert.Equal(t, "game loader", testutil.SnapshotTree(t, live)["d3d9.dll"], "the target itself is untouched")

	require.NoError(t, j.Rollback())
	assert.NoDirExists(t, filepath.Join(kept, "game"))
	data, err = os.ReadFile(filepath.Join(kept, "dxgi.dll"))
	require.NoError(t, err)
	assert.Equal(t, "stale copy", string(data))
}
