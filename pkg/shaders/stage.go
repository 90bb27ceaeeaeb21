package shaders

import (
	"context"
	"io"
	"path/filepath"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/logging"
)

// Stage writes every file of tree below dir and returns the written paths
// (slash form, relative to dir) in sorted order. Cancellation is checked
// before each file; a file that has started is always finished.
func Stage(ctx context.Context, tree *Tree, fsys filesystem.FS, dir string) ([]string, error) {
	logger := logging.GetLogger("shaders")

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrWriteFailure, "cannot create staging directory %s", dir).
			WithDetail("path", dir)
	}

	paths := tree.Paths()
	written := make([]string, 0, len(paths))
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return written, errors.Wrap(err, errors.ErrCancelled, "shader staging cancelled").
				WithDetail("staged", len(written))
		}

		f, _ := tree.Get(rel)
		dest := filepath.Join(dir, filepath.FromSlash(rel))
		if err := stageFile(fsys, f, dest); err != nil {
			return written, err
		}
		written = append(written, rel)
	}

	logger.Debug().Int("files", len(written)).Str("dir", dir).Msg("Staged shader tree")
	return written, nil
}

func stageFile(fsys filesystem.FS, f File, dest string) error {
	if err := fsys.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot create directory for %s", f.Path).
			WithDetail("path", dest)
	}

	src, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceAccess, "cannot read %s from %s", f.Path, f.Source).
			WithDetail("source", f.Source).WithDetail("path", f.Path)
	}
	defer func() { _ = src.Close() }()

	w, err := fsys.Create(dest, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot create %s", dest).WithDetail("path", dest)
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot write %s", dest).WithDetail("path", dest)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot write %s", dest).WithDetail("path", dest)
	}
	return nil
}
