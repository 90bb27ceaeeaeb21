package install

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/lock"
	"github.com/arthur-debert/reshader/pkg/logging"
)

// Uninstall removes everything the record of gamePath lists: the renderer
// binary, companions and shader files. Directories left empty in the shader
// directory are pruned. Game files reshader replaced get their original
// back. ReShade.ini, presets and other files reshader did not install are
// kept. A game without a record is ErrNotFound.
func (p *Planner) Uninstall(ctx context.Context, gamePath string) error {
	logger := logging.GetLogger("install")

	game, err := p.checkGame(gamePath)
	if err != nil {
		return err
	}

	held, err := lock.ForGame(p.paths, game)
	if err != nil {
		return err
	}
	defer func() { _ = held.Release() }()

	rec, err := p.store.Load(game)
	if err != nil {
		return err
	}
	logger = logger.With().Str("game", game).Logger()
	done := logging.LogOperationStart(logger, "uninstall")
	defer done()

	staging, err := p.fs.MkdirTemp(game, StagingPrefix)
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot create staging area in %s", game).
			WithDetail("path", game)
	}
	defer func() { _ = p.fs.RemoveAll(staging) }()

	j := newJournal(p.fs, filepath.Join(staging, "backup"))
	committed := false
	defer func() {
		if !committed {
			if err := j.Rollback(); err != nil {
				logger.Error().Err(err).Msg("Game directory could not be fully restored")
			}
		}
	}()

	backupDir, err := p.paths.BackupDir(game)
	if err != nil {
		return err
	}
	restored := 0
	for _, name := range rec.GameFiles() {
		if err := checkpoint(ctx, "removing files"); err != nil {
			return err
		}
		back, err := p.dropGameFile(j, rec, game, backupDir, staging, name)
		if err != nil {
			return err
		}
		if back {
			restored++
		}
	}
	for _, rel := range rec.InstalledShaderPaths() {
		if err := checkpoint(ctx, "removing files"); err != nil {
			return err
		}
		if err := j.Remove(filepath.Join(game, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}

	if err := p.store.Delete(game); err != nil {
		return err
	}
	j.Commit()
	committed = true

	if err := p.fs.RemoveAll(backupDir); err != nil {
		logger.Warn().Err(err).Str("path", backupDir).Msg("Cannot remove backups of the game")
	}

	// the shader directory itself goes too when nothing else lives there
	shaderFiles := rec.InstalledShaderPaths()
	if len(shaderFiles) > 0 {
		pruneEmptyDirs(p.fs, game, shaderFiles)
	}

	logger.Info().Int("files", len(rec.AllFiles())).Int("restored", restored).Msg("Uninstalled")
	return nil
}
