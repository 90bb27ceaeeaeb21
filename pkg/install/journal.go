package install

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/logging"
)

// journalEntry is one applied change to the live directory
type journalEntry struct {
	target string
	// backup holds the previous content of target, empty when there was none
	backup string
	// placed is set when a new file was renamed or written to target
	placed bool
	// previous is written back to target on rollback
	previous []byte
	// dirs were created for target, outermost first
	dirs []string
}

// journal applies renames to a live directory and can undo them. Every
// replaced or removed file is first moved into backupDir, which must be on
// the same filesystem as the targets.
type journal struct {
	fs        filesystem.FS
	backupDir string
	entries   []journalEntry
}

func newJournal(fsys filesystem.FS, backupDir string) *journal {
	return &journal{fs: fsys, backupDir: backupDir}
}

// Len is the number of applied changes
func (j *journal) Len() int { return len(j.entries) }

// Replace moves staged to target, backing up whatever target held.
func (j *journal) Replace(staged, target string) error {
	dirs, err := j.ensureDir(filepath.Dir(target))
	if err != nil {
		return err
	}
	entry := journalEntry{target: target, dirs: dirs}

	backup, err := j.backup(target)
	if err != nil {
		j.removeDirs(dirs)
		return err
	}
	entry.backup = backup

	if err := j.fs.Rename(staged, target); err != nil {
		if backup != "" {
			_ = j.fs.Rename(backup, target)
		}
		j.removeDirs(dirs)
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot install %s", target).
			WithDetail("path", target)
	}
	entry.placed = true
	j.entries = append(j.entries, entry)
	return nil
}

// Preserve copies target to dest, which may be on another filesystem. A
// file already at dest is overwritten and written back on rollback.
func (j *journal) Preserve(target, dest string) error {
	data, err := j.fs.ReadFile(target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot read %s", target).
			WithDetail("path", target)
	}
	dirs, err := j.ensureDir(filepath.Dir(dest))
	if err != nil {
		return err
	}
	entry := journalEntry{target: dest, dirs: dirs}
	if old, err := j.fs.ReadFile(dest); err == nil {
		entry.previous = old
	}
	if err := j.fs.WriteFile(dest, data, 0644); err != nil {
		_ = j.fs.Remove(dest)
		j.removeDirs(dirs)
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot keep a copy of %s", target).
			WithDetail("path", dest)
	}
	entry.placed = true
	j.entries = append(j.entries, entry)
	return nil
}

// Remove moves target into the backup area. A missing target is a no-op.
func (j *journal) Remove(target string) error {
	backup, err := j.backup(target)
	if err != nil {
		return err
	}
	if backup == "" {
		return nil
	}
	j.entries = append(j.entries, journalEntry{target: target, backup: backup})
	return nil
}

// Rollback undoes every change in reverse order. It keeps going after a
// failure and returns the first error.
func (j *journal) Rollback() error {
	logger := logging.GetLogger("install")
	var first error

	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if e.placed {
			if err := j.fs.Remove(e.target); err != nil && !os.IsNotExist(err) {
				logger.Error().Err(err).Str("path", e.target).Msg("Rollback cannot remove installed file")
				if first == nil {
					first = err
				}
				continue
			}
		}
		if e.previous != nil {
			if err := j.fs.WriteFile(e.target, e.previous, 0644); err != nil {
				logger.Error().Err(err).Str("path", e.target).Msg("Rollback cannot restore file")
				if first == nil {
					first = err
				}
				continue
			}
		}
		if e.backup != "" {
			if err := j.fs.Rename(e.backup, e.target); err != nil {
				logger.Error().Err(err).Str("path", e.target).Str("backup", e.backup).
					Msg("Rollback cannot restore file")
				if first == nil {
					first = err
				}
				continue
			}
		}
		j.removeDirs(e.dirs)
	}

	if len(j.entries) > 0 {
		logger.Info().Int("changes", len(j.entries)).Msg("Rolled back install changes")
	}
	j.entries = nil
	if first != nil {
		return errors.Wrap(first, errors.ErrWriteFailure, "rollback incomplete")
	}
	return nil
}

// Commit forgets the applied changes; the backups are dropped with the
// staging area.
func (j *journal) Commit() {
	j.entries = nil
}

func (j *journal) backup(target string) (string, error) {
	info, err := j.fs.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, errors.ErrWriteFailure, "cannot inspect %s", target).
			WithDetail("path", target)
	}
	if info.IsDir() {
		return "", errors.Newf(errors.ErrWriteFailure, "%s is a directory", target).
			WithDetail("path", target)
	}

	if err := j.fs.MkdirAll(j.backupDir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrWriteFailure, "cannot create backup directory").
			WithDetail("path", j.backupDir)
	}
	backup := filepath.Join(j.backupDir, strconv.Itoa(len(j.entries))+"-"+filepath.Base(target))
	if err := j.fs.Rename(target, backup); err != nil {
		return "", errors.Wrapf(err, errors.ErrWriteFailure, "cannot back up %s", target).
			WithDetail("path", target)
	}
	return backup, nil
}

// ensureDir creates dir and returns the directories that did not exist,
// outermost first.
func (j *journal) ensureDir(dir string) ([]string, error) {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := j.fs.Stat(d); err == nil {
			break
		}
		missing = append([]string{d}, missing...)
		if filepath.Dir(d) == d {
			break
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	if err := j.fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrWriteFailure, "cannot create directory %s", dir).
			WithDetail("path", dir)
	}
	return missing, nil
}

// removeDirs removes created directories innermost first, leaving any that
// are not empty.
func (j *journal) removeDirs(dirs []string) {
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = j.fs.Remove(dirs[i])
	}
}
