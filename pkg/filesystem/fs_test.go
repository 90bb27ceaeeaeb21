package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]struct {
	fs   FS
	root string
} {
	t.Helper()
	return map[string]struct {
		fs   FS
		root string
	}{
		"os":     {fs: NewOS(), root: t.TempDir()},
		"memory": {fs: NewMemory(), root: "/virtual"},
	}
}

func TestFS_BasicOperations(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fsys := b.fs
			dir := filepath.Join(b.root, "game", "reshade-shaders")
			require.NoError(t, fsys.MkdirAll(dir, 0755))

			file := filepath.Join(dir, "Bloom.fx")
			require.NoError(t, fsys.WriteFile(file, []byte("bloom"), 0644))

			info, err := fsys.Stat(file)
			require.NoError(t, err)
			assert.Equal(t, int64(5), info.Size())
			assert.True(t, Exists(fsys, file))
			assert.True(t, IsDir(fsys, dir))
			assert.False(t, IsDir(fsys, file))

			content, err := fsys.ReadFile(file)
			require.NoError(t, err)
			assert.Equal(t, []byte("bloom"), content)

			_, err = fsys.ReadFile(dir)
			assert.Error(t, err, "reading a directory must fail")

			entries, err := fsys.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "Bloom.fx", entries[0].Name())

			renamed := filepath.Join(dir, "Bloom.fx.old")
			require.NoError(t, fsys.Rename(file, renamed))
			assert.False(t, Exists(fsys, file))
			assert.True(t, Exists(fsys, renamed))

			require.NoError(t, fsys.Remove(renamed))
			assert.False(t, Exists(fsys, renamed))

			require.NoError(t, fsys.RemoveAll(filepath.Join(b.root, "game")))
			assert.False(t, Exists(fsys, dir))
		})
	}
}

func TestFS_CreateStreams(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.fs.MkdirAll(b.root, 0755))
			path := filepath.Join(b.root, "d3d11.dll")

			w, err := b.fs.Create(path, 0644)
			require.NoError(t, err)
			_, err = w.Write([]byte("MZ"))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			got, err := b.fs.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []byte("MZ"), got)
		})
	}
}

func TestFS_MkdirTemp(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.fs.MkdirAll(b.root, 0755))

			dir1, err := b.fs.MkdirTemp(b.root, ".staging-")
			require.NoError(t, err)
			dir2, err := b.fs.MkdirTemp(b.root, ".staging-")
			require.NoError(t, err)

			assert.NotEqual(t, dir1, dir2)
			assert.True(t, IsDir(b.fs, dir1))
			assert.Equal(t, b.root, filepath.Dir(dir1))
		})
	}
}

func TestLstat_DetectsSymlinkOnOS(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	link := filepath.Join(root, "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.Symlink(target, link))

	info, err := NewOS().Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&fs.ModeSymlink)

	info, err = NewAferoFS(afero.NewOsFs()).Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&fs.ModeSymlink, "afero OsFs implements Lstater")
}

func TestFS_OpenReaderAt(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.fs.MkdirAll(b.root, 0755))
			path := filepath.Join(b.root, "game.exe")
			require.NoError(t, b.fs.WriteFile(path, []byte("MZ-header"), 0644))

			f, err := b.fs.Open(path)
			require.NoError(t, err)
			defer func() { _ = f.Close() }()

			buf := make([]byte, 6)
			_, err = f.ReadAt(buf, 3)
			require.NoError(t, err)
			assert.Equal(t, "header", string(buf))
		})
	}
}
