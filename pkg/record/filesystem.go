package record

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/pelletier/go-toml/v2"
)

type filesystemStore struct {
	fs    filesystem.FS
	paths paths.Paths
}

// New creates a Store keeping records under the data directory.
func New(fs filesystem.FS, paths paths.Paths) Store {
	return &filesystemStore{
		fs:    fs,
		paths: paths,
	}
}

func (s *filesystemStore) Load(gamePath string) (*Record, error) {
	recPath, err := s.paths.RecordPath(gamePath)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(recPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "no installation recorded for %s", gamePath).
				WithDetail("game", gamePath)
		}
		return nil, errors.Wrapf(err, errors.ErrRecordRead, "cannot read record %s", recPath).
			WithDetail("path", recPath)
	}
	return decode(data, recPath)
}

func decode(data []byte, recPath string) (*Record, error) {
	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, errors.ErrRecordRead, "record %s is not valid", recPath).
			WithDetail("path", recPath)
	}
	if rec.Schema > SchemaVersion {
		return nil, errors.Newf(errors.ErrRecordRead, "record %s has schema %d, newer than supported %d",
			recPath, rec.Schema, SchemaVersion).WithDetail("path", recPath)
	}
	return &rec, nil
}

// Save writes the record to a temporary file and renames it into place so
// a crash never leaves a truncated record behind.
func (s *filesystemStore) Save(rec *Record) error {
	normalized, err := paths.NormalizeGamePath(rec.GamePath)
	if err != nil {
		return err
	}
	rec.GamePath = normalized
	rec.Schema = SchemaVersion

	recPath, err := s.paths.RecordPath(normalized)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.ErrRecordWrite, "cannot encode record")
	}

	if err := s.fs.MkdirAll(filepath.Dir(recPath), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrRecordWrite, "cannot create records directory").
			WithDetail("path", filepath.Dir(recPath))
	}

	tmp := recPath + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrRecordWrite, "cannot write record %s", recPath).
			WithDetail("path", recPath)
	}
	if err := s.fs.Rename(tmp, recPath); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrRecordWrite, "cannot replace record %s", recPath).
			WithDetail("path", recPath)
	}

	logger := logging.GetLogger("record")
	logger.Debug().Str("game", normalized).Str("path", recPath).Msg("Saved installation record")
	return nil
}

func (s *filesystemStore) Delete(gamePath string) error {
	recPath, err := s.paths.RecordPath(gamePath)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(recPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrRecordWrite, "cannot delete record %s", recPath).
			WithDetail("path", recPath)
	}
	return nil
}

func (s *filesystemStore) List() ([]Record, error) {
	logger := logging.GetLogger("record")
	dir := s.paths.RecordsDir()

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrRecordRead, "cannot list records in %s", dir).
			WithDetail("path", dir)
	}

	records := []Record{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), paths.RecordExt) {
			continue
		}
		recPath := filepath.Join(dir, entry.Name())
		data, err := s.fs.ReadFile(recPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", recPath).Msg("Skipping unreadable record")
			continue
		}
		rec, err := decode(data, recPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", recPath).Msg("Skipping invalid record")
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].GamePath < records[j].GamePath
	})
	return records, nil
}
