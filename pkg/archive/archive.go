// Package archive reads the vendor's self-extracting installer as a plain
// zip archive. Nothing in the package is ever executed; entries are only
// listed, read and copied out.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/logging"
)

// localHeaderSig starts every zip local file header
var localHeaderSig = []byte("PK\x03\x04")

// Entry describes one file stored in a Package
type Entry struct {
	Name string
	Size int64
	Mode fs.FileMode

	file *zip.File
}

// Open returns a reader for the entry content
func (e Entry) Open() (io.ReadCloser, error) {
	rc, err := e.file.Open()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorruptArchive, "cannot open entry %s", e.Name).
			WithDetail("entry", e.Name)
	}
	return rc, nil
}

// Package is an opened installer: the raw bytes plus its ordered entries
type Package struct {
	data    []byte
	offset  int64
	reader  *zip.Reader
	entries []Entry
}

// Open parses installer bytes. The zip payload may be preceded by an
// arbitrary executable stub.
func Open(data []byte) (*Package, error) {
	logger := logging.GetLogger("archive")

	if len(data) == 0 {
		return nil, errors.New(errors.ErrCorruptArchive, "installer package is empty")
	}

	// archive/zip finds the end of central directory from the tail and
	// copes with prepended data when offsets were written relative to it.
	if r, err := newReader(data); err == nil {
		return newPackage(data, 0, r), nil
	}

	// Otherwise retry from each local header signature, first one first.
	for off := 0; off < len(data); {
		idx := bytes.Index(data[off:], localHeaderSig)
		if idx < 0 {
			break
		}
		start := off + idx
		if r, err := newReader(data[start:]); err == nil {
			logger.Debug().Int("offset", start).Msg("Found zip payload after scanning")
			return newPackage(data, int64(start), r), nil
		}
		off = start + len(localHeaderSig)
	}

	return nil, errors.New(errors.ErrCorruptArchive, "no readable zip payload in installer package").
		WithDetail("size", len(data))
}

// OpenFile reads an installer from disk and opens it
func OpenFile(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrNotFound, "installer %s does not exist", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrCorruptArchive, "cannot read installer %s", path).
			WithDetail("path", path)
	}
	return Open(data)
}

func newReader(data []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && stderrors.Is(err, zip.ErrInsecurePath) && r != nil {
		// Insecure names are for the merger to reject, not the reader.
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if len(r.File) == 0 {
		return nil, stderrors.New("empty archive")
	}
	return r, nil
}

func newPackage(data []byte, offset int64, r *zip.Reader) *Package {
	p := &Package{data: data, offset: offset, reader: r}
	for _, f := range r.File {
		info := f.FileInfo()
		if info.IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		p.entries = append(p.entries, Entry{
			Name: f.Name,
			Size: int64(f.UncompressedSize64),
			Mode: f.Mode(),
			file: f,
		})
	}
	return p
}

// Offset is the position of the zip payload inside the installer bytes
func (p *Package) Offset() int64 {
	return p.offset
}

// Size is the size of the installer bytes
func (p *Package) Size() int64 {
	return int64(len(p.data))
}

// Entries returns the file entries in archive order
func (p *Package) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Lookup finds an entry by exact name, then case-insensitively
func (p *Package) Lookup(name string) (Entry, bool) {
	for _, e := range p.entries {
		if e.Name == name {
			return e, true
		}
	}
	for _, e := range p.entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// ReadEntry returns the content of an entry
func (p *Package) ReadEntry(name string) ([]byte, error) {
	entry, ok := p.Lookup(name)
	if !ok {
		return nil, entryNotFound(name)
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorruptArchive, "cannot read entry %s", entry.Name).
			WithDetail("entry", entry.Name)
	}
	return data, nil
}

// Walk calls fn for every file entry in archive order with its raw name.
// Returning an error from fn stops the walk.
func (p *Package) Walk(fn func(Entry) error) error {
	for _, e := range p.entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Extract writes entry name to dest. The content goes to a temporary file
// next to dest which is renamed over it once fully written, so dest is
// either untouched or complete.
func (p *Package) Extract(ctx context.Context, fsys filesystem.FS, name, dest string) error {
	logger := logging.GetLogger("archive")

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCancelled, "extraction cancelled")
	}

	entry, ok := p.Lookup(name)
	if !ok {
		return entryNotFound(name)
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	dir := filepath.Dir(dest)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return writeFailure(err, dest)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(dest)+".part-"+randomSuffix())
	w, err := fsys.Create(tmp, 0644)
	if err != nil {
		return writeFailure(err, dest)
	}

	_, copyErr := io.Copy(w, rc)
	closeErr := w.Close()
	if copyErr != nil || closeErr != nil {
		_ = fsys.Remove(tmp)
		if copyErr != nil {
			// zip reports checksum mismatches from Read
			if stderrors.Is(copyErr, zip.ErrChecksum) || stderrors.Is(copyErr, zip.ErrFormat) {
				return errors.Wrapf(copyErr, errors.ErrCorruptArchive, "entry %s is damaged", entry.Name).
					WithDetail("entry", entry.Name)
			}
			return writeFailure(copyErr, dest)
		}
		return writeFailure(closeErr, dest)
	}

	if err := fsys.Rename(tmp, dest); err != nil {
		_ = fsys.Remove(tmp)
		return writeFailure(err, dest)
	}

	logger.Debug().Str("entry", entry.Name).Str("dest", dest).Int64("size", entry.Size).Msg("Extracted entry")
	return nil
}

func entryNotFound(name string) error {
	return errors.Newf(errors.ErrEntryNotFound, "installer package has no entry %s", name).
		WithDetail("entry", name)
}

func writeFailure(err error, dest string) error {
	return errors.Wrapf(err, errors.ErrWriteFailure, "cannot write %s", dest).WithDetail("path", dest)
}

func randomSuffix() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
