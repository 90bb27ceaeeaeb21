package shaders

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/spf13/afero"
)

// DirSource serves the files below a directory
type DirSource struct {
	name string
	fs   afero.Fs
	root string
	opts Options
}

// NewDirSource creates a source over root inside fs. Use afero.NewOsFs()
// for directories on disk.
func NewDirSource(name string, fs afero.Fs, root string, opts ...Option) *DirSource {
	return &DirSource{name: name, fs: fs, root: root, opts: buildOptions(opts)}
}

// Name implements Source
func (d *DirSource) Name() string { return d.name }

// Options implements Source
func (d *DirSource) Options() Options { return d.opts }

// Root is the directory the source reads from
func (d *DirSource) Root() string { return d.root }

// Describe implements Describer
func (d *DirSource) Describe() Description {
	return Description{Kind: record.KindDir, Location: d.root}
}

// Entries implements Source. Symlinks are reported as such where the
// backing filesystem can tell them apart.
func (d *DirSource) Entries(ctx context.Context) ([]RawEntry, error) {
	info, err := d.fs.Stat(d.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceAccess, "shader source %s: cannot read %s", d.name, d.root).
			WithDetail("source", d.name).WithDetail("path", d.root)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrSourceAccess, "shader source %s: %s is not a directory", d.name, d.root).
			WithDetail("source", d.name).WithDetail("path", d.root)
	}

	var entries []RawEntry
	err = afero.Walk(d.fs, d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == d.root {
			return nil
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		p := path
		entries = append(entries, RawEntry{
			Name: filepath.ToSlash(rel),
			Mode: info.Mode(),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return d.fs.Open(p) },
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrCancelled, "shader source walk cancelled")
		}
		return nil, errors.Wrapf(err, errors.ErrSourceAccess, "shader source %s: walk failed", d.name).
			WithDetail("source", d.name)
	}
	return entries, nil
}
