package shaders

import (
	"context"
	"io"

	"github.com/arthur-debert/reshader/pkg/archive"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/record"
)

// ArchiveSource serves the entries of a zip package, such as a downloaded
// shader collection.
type ArchiveSource struct {
	name     string
	pkg      *archive.Package
	location string
	opts     Options
}

// NewArchiveSource creates a source over an opened package
func NewArchiveSource(name string, pkg *archive.Package, opts ...Option) *ArchiveSource {
	return &ArchiveSource{name: name, pkg: pkg, opts: buildOptions(opts)}
}

// NewArchiveSourceFile opens the zip at path and serves its entries
func NewArchiveSourceFile(name, path string, opts ...Option) (*ArchiveSource, error) {
	pkg, err := archive.OpenFile(path)
	if err != nil {
		return nil, err
	}
	src := NewArchiveSource(name, pkg, opts...)
	src.location = path
	return src, nil
}

// Name implements Source
func (a *ArchiveSource) Name() string { return a.name }

// Options implements Source
func (a *ArchiveSource) Options() Options { return a.opts }

// Describe implements Describer
func (a *ArchiveSource) Describe() Description {
	return Description{Kind: record.KindArchive, Location: a.location}
}

// Entries implements Source. Names are passed on raw.
func (a *ArchiveSource) Entries(ctx context.Context) ([]RawEntry, error) {
	var entries []RawEntry
	err := a.pkg.Walk(func(e archive.Entry) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "archive walk cancelled")
		}
		entry := e
		entries = append(entries, RawEntry{
			Name: entry.Name,
			Mode: entry.Mode,
			Size: entry.Size,
			Open: func() (io.ReadCloser, error) { return entry.Open() },
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
