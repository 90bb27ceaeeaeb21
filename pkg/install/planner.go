// Package install turns an installer package, a game directory and a list
// of shader sources into a working ReShade installation. Every change to the
// game directory goes through a commit journal so a failed or cancelled
// attempt leaves the directory exactly as it found it.
package install

import (
	"context"
	stderrors "errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/reshader/pkg/archive"
	"github.com/arthur-debert/reshader/pkg/config"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/lock"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/arthur-debert/reshader/pkg/shaders"
	"github.com/arthur-debert/reshader/pkg/variant"
)

// StagingPrefix starts the name of the per-attempt staging directory
const StagingPrefix = ".reshader-staging-"

// Companion is an extra file installed next to the renderer binary
type Companion struct {
	Name string
	Data []byte
}

// Request describes one install
type Request struct {
	GamePath string
	// Installer is the opened ReShade setup package
	Installer *archive.Package
	Version   string
	Flavor    string
	// Sources are merged in order; later sources win unless ranked
	Sources      []shaders.Source
	APIOverride  graphics.API
	ArchOverride variant.Arch
	Companions   []Companion
	// Observer is told about every state the attempt enters
	Observer func(State)
}

// Planner performs installs. It holds no per-install state, so one Planner
// can serve installs into different games concurrently.
type Planner struct {
	fs       filesystem.FS
	paths    paths.Paths
	store    record.Store
	settings config.InstallConfig
	now      func() time.Time
}

// Option configures a Planner
type Option func(*Planner)

// WithClock replaces time.Now for installation timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// NewPlanner creates a Planner writing through fsys and keeping records in
// store. Staging happens inside each game directory, so fsys must be the
// filesystem the games live on.
func NewPlanner(fsys filesystem.FS, p paths.Paths, store record.Store, settings config.InstallConfig, opts ...Option) *Planner {
	if settings.ShaderDir == "" {
		settings.ShaderDir = "reshade-shaders"
	}
	planner := &Planner{
		fs:       fsys,
		paths:    p,
		store:    store,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(planner)
	}
	return planner
}

// Plan runs an install attempt to completion or rolls it back. On success the
// new record, which replaced any previous one, is returned.
func (p *Planner) Plan(ctx context.Context, req Request) (*record.Record, error) {
	logger := logging.GetLogger("install")

	attempt := NewAttempt(req.GamePath, req.Observer)
	game, err := p.checkGame(req.GamePath)
	if err != nil {
		return nil, attempt.Fail(err)
	}
	if req.Installer == nil {
		return nil, attempt.Fail(errors.New(errors.ErrInvalidInput, "no installer package given"))
	}
	for _, c := range req.Companions {
		if err := checkCompanion(c.Name); err != nil {
			return nil, attempt.Fail(err)
		}
	}

	held, err := lock.ForGame(p.paths, game)
	if err != nil {
		return nil, attempt.Fail(err)
	}
	defer func() { _ = held.Release() }()

	logger = logger.With().Str("game", game).Logger()
	done := logging.LogOperationStart(logger, "install")
	defer done()
	logger.Info().Str("version", req.Version).Int("sources", len(req.Sources)).Msg("Install started")

	prior := p.loadPrior(game)

	// API and variant
	detector := graphics.NewDetector(p.fs, graphics.WithIgnored(prior.GameFiles()...))
	detection, err := detector.Inspect(game)
	if err != nil {
		return nil, attempt.Fail(err)
	}
	detected := detection.API
	if detected == graphics.Unknown && prior.API != graphics.Unknown {
		// the game's own loader may have been the only evidence, and it is
		// now kept aside
		logger.Info().Str("api", prior.API.String()).Msg("No API evidence left, keeping the API of the previous install")
		detected = prior.API
	}
	arch := req.ArchOverride
	if arch == "" {
		arch = variant.DetectArch(p.fs, game)
	}
	spec, api, err := variant.Resolve(detected, req.APIOverride, arch)
	if api == graphics.Unknown {
		return nil, attempt.Fail(err)
	}
	logger.Debug().Str("detected", detection.API.String()).Str("evidence", detection.Evidence).
		Str("api", api.String()).Msg("Graphics API resolved")
	if err := attempt.Advance(APIResolved); err != nil {
		return nil, attempt.Fail(err)
	}
	if err != nil {
		return nil, attempt.Fail(err)
	}
	if err := attempt.Advance(VariantResolved); err != nil {
		return nil, attempt.Fail(err)
	}
	if err := checkpoint(ctx, "variant resolved"); err != nil {
		return nil, attempt.Fail(err)
	}

	staging, err := p.fs.MkdirTemp(game, StagingPrefix)
	if err != nil {
		return nil, attempt.Fail(errors.Wrapf(err, errors.ErrWriteFailure, "cannot create staging area in %s", game).
			WithDetail("path", game))
	}
	defer func() {
		if err := p.fs.RemoveAll(staging); err != nil {
			logger.Warn().Err(err).Str("staging", staging).Msg("Cannot remove staging area")
		}
	}()

	j := newJournal(p.fs, filepath.Join(staging, "backup"))
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := j.Rollback(); err != nil {
			logger.Error().Err(err).Msg("Game directory could not be fully restored")
		}
	}()

	// Binary into staging
	binDir := filepath.Join(staging, "bin")
	if err := req.Installer.Extract(ctx, p.fs, spec.SourceEntry, filepath.Join(binDir, spec.InstalledFile)); err != nil {
		return nil, attempt.Fail(err)
	}
	for _, c := range req.Companions {
		if err := p.fs.MkdirAll(binDir, 0755); err != nil {
			return nil, attempt.Fail(errors.Wrap(err, errors.ErrWriteFailure, "cannot stage companion files"))
		}
		if err := p.fs.WriteFile(filepath.Join(binDir, c.Name), c.Data, 0644); err != nil {
			return nil, attempt.Fail(errors.Wrapf(err, errors.ErrWriteFailure, "cannot stage %s", c.Name).
				WithDetail("path", c.Name))
		}
	}
	if err := attempt.Advance(BinaryStaged); err != nil {
		return nil, attempt.Fail(err)
	}
	if err := checkpoint(ctx, "binary staged"); err != nil {
		return nil, attempt.Fail(err)
	}

	// Binary into the game
	backupDir, err := p.paths.BackupDir(game)
	if err != nil {
		return nil, attempt.Fail(err)
	}
	var preserved []string
	for _, name := range append([]string{spec.InstalledFile}, companionNames(req.Companions)...) {
		kept, err := p.preserveOriginal(j, prior, game, backupDir, name)
		if err != nil {
			return nil, attempt.Fail(err)
		}
		if kept {
			logger.Info().Str("file", name).Msg("Keeping the game's own copy for uninstall")
			preserved = append(preserved, name)
		}
	}
	if err := j.Replace(filepath.Join(binDir, spec.InstalledFile), filepath.Join(game, spec.InstalledFile)); err != nil {
		return nil, attempt.Fail(err)
	}
	var restored []string
	if prior.Binary != "" && !strings.EqualFold(prior.Binary, spec.InstalledFile) {
		logger.Info().Str("old", prior.Binary).Str("new", spec.InstalledFile).Msg("Renderer file changes name")
		back, err := p.dropGameFile(j, prior, game, backupDir, staging, prior.Binary)
		if err != nil {
			return nil, attempt.Fail(err)
		}
		if back {
			restored = append(restored, prior.Binary)
		}
	}
	companions := make([]string, 0, len(req.Companions))
	for _, c := range req.Companions {
		if err := j.Replace(filepath.Join(binDir, c.Name), filepath.Join(game, c.Name)); err != nil {
			return nil, attempt.Fail(err)
		}
		companions = append(companions, c.Name)
	}
	companions = keepPriorCompanions(companions, prior.Companions, spec.InstalledFile)
	if err := attempt.Advance(BinaryInstalled); err != nil {
		return nil, attempt.Fail(err)
	}
	if err := checkpoint(ctx, "binary installed"); err != nil {
		return nil, attempt.Fail(err)
	}

	// Shaders into staging
	tree, err := shaders.Merge(ctx, req.Sources)
	if err != nil {
		return nil, attempt.Fail(err)
	}
	stagedShaders := filepath.Join(staging, "shaders")
	written, err := shaders.Stage(ctx, tree, p.fs, stagedShaders)
	if err != nil {
		return nil, attempt.Fail(err)
	}
	if err := attempt.Advance(ShadersStaged); err != nil {
		return nil, attempt.Fail(err)
	}
	if err := checkpoint(ctx, "shaders staged"); err != nil {
		return nil, attempt.Fail(err)
	}

	// Shaders into the game
	shaderRoot := filepath.Join(game, p.settings.ShaderDir)
	for _, rel := range written {
		if err := checkpoint(ctx, "installing shaders"); err != nil {
			return nil, attempt.Fail(err)
		}
		src := filepath.Join(stagedShaders, filepath.FromSlash(rel))
		if err := j.Replace(src, filepath.Join(shaderRoot, filepath.FromSlash(rel))); err != nil {
			return nil, attempt.Fail(err)
		}
	}
	stale := staleShaderFiles(prior, p.settings.ShaderDir, written)
	for _, rel := range stale {
		if err := j.Remove(filepath.Join(game, filepath.FromSlash(rel))); err != nil {
			return nil, attempt.Fail(err)
		}
	}

	configCreated := prior.ConfigCreated
	if p.settings.WriteDefaultIni {
		created, err := p.writeDefaultIni(j, game, staging)
		if err != nil {
			return nil, attempt.Fail(err)
		}
		configCreated = configCreated || created
	}
	if err := attempt.Advance(ShadersInstalled); err != nil {
		return nil, attempt.Fail(err)
	}
	if err := checkpoint(ctx, "shaders installed"); err != nil {
		return nil, attempt.Fail(err)
	}

	// Record
	rec := &record.Record{
		GamePath:      game,
		InstalledAt:   p.now().UTC(),
		Version:       req.Version,
		Flavor:        req.Flavor,
		API:           api,
		Arch:          spec.Arch,
		SourceEntry:   spec.SourceEntry,
		Binary:        spec.InstalledFile,
		Companions:    companions,
		Replaced:      replacedFiles(prior.Replaced, preserved, append([]string{spec.InstalledFile}, companions...)),
		ShaderDir:     p.settings.ShaderDir,
		Sources:       describeSources(req.Sources),
		ShaderFiles:   written,
		ConfigCreated: configCreated,
	}
	if err := p.store.Save(rec); err != nil {
		return nil, attempt.Fail(err)
	}
	if err := attempt.Advance(Recorded); err != nil {
		return nil, attempt.Fail(err)
	}

	j.Commit()
	committed = true

	pruneEmptyDirs(p.fs, game, stale)
	for _, name := range restored {
		if err := p.fs.Remove(filepath.Join(backupDir, name)); err != nil && !os.IsNotExist(err) {
			logger.Debug().Err(err).Str("file", name).Msg("Cannot drop restored backup")
		}
	}

	logger.Info().Str("api", api.String()).Str("binary", spec.InstalledFile).
		Int("shader_files", len(written)).Int("removed", len(stale)).Msg("Install finished")
	return rec, nil
}

// Status returns the record of a game
func (p *Planner) Status(gamePath string) (*record.Record, error) {
	return p.store.Load(gamePath)
}

// List returns the records of every installed game
func (p *Planner) List() ([]record.Record, error) {
	return p.store.List()
}

func (p *Planner) checkGame(gamePath string) (string, error) {
	game, err := paths.NormalizeGamePath(gamePath)
	if err != nil {
		return "", err
	}
	info, err := p.fs.Stat(game)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf(errors.ErrNotFound, "game directory %s does not exist", game).
				WithDetail("path", game)
		}
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "cannot read game directory %s", game).
			WithDetail("path", game)
	}
	if !info.IsDir() {
		return "", errors.Newf(errors.ErrInvalidInput, "%s is not a directory", game).WithDetail("path", game)
	}
	return game, nil
}

// loadPrior returns the previous record of game or an empty one. A record
// that cannot be read is treated as absent.
func (p *Planner) loadPrior(game string) *record.Record {
	prior, err := p.store.Load(game)
	if err == nil {
		return prior
	}
	if !errors.IsErrorCode(err, errors.ErrNotFound) {
		logger := logging.GetLogger("install")
		logger.Warn().Err(err).Str("game", game).
			Msg("Ignoring unreadable installation record")
	}
	return &record.Record{}
}

// writeDefaultIni installs ReShade.ini when the game has none
func (p *Planner) writeDefaultIni(j *journal, game, staging string) (bool, error) {
	target := filepath.Join(game, ConfigFileName)
	if _, err := p.fs.Lstat(target); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, errors.ErrWriteFailure, "cannot inspect %s", target).
			WithDetail("path", target)
	}

	content, err := DefaultIni(p.settings.ShaderDir)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrInternal, "cannot render default configuration")
	}
	staged := filepath.Join(staging, ConfigFileName)
	if err := p.fs.WriteFile(staged, content, 0644); err != nil {
		return false, errors.Wrapf(err, errors.ErrWriteFailure, "cannot stage %s", ConfigFileName).
			WithDetail("path", staged)
	}
	if err := j.Replace(staged, target); err != nil {
		return false, err
	}
	return true, nil
}

// preserveOriginal keeps a copy of the game's own file name in backupDir
// before reshader replaces it. Files a previous install owns are not the
// game's.
func (p *Planner) preserveOriginal(j *journal, prior *record.Record, game, backupDir, name string) (bool, error) {
	if prior.Owns(name) {
		return false, nil
	}
	target := filepath.Join(game, name)
	info, err := p.fs.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrWriteFailure, "cannot inspect %s", target).
			WithDetail("path", target)
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	if err := j.Preserve(target, filepath.Join(backupDir, name)); err != nil {
		return false, err
	}
	return true, nil
}

// dropGameFile removes an owned game file, putting the game's original back
// when one was kept. restored reports the latter.
func (p *Planner) dropGameFile(j *journal, rec *record.Record, game, backupDir, staging, name string) (restored bool, err error) {
	if rec.HasOriginal(name) {
		restored, err := p.restoreOriginal(j, game, backupDir, staging, name)
		if err != nil || restored {
			return restored, err
		}
	}
	return false, j.Remove(filepath.Join(game, name))
}

func (p *Planner) restoreOriginal(j *journal, game, backupDir, staging, name string) (bool, error) {
	original := filepath.Join(backupDir, name)
	data, err := p.fs.ReadFile(original)
	if err != nil {
		if os.IsNotExist(err) {
			logger := logging.GetLogger("install")
			logger.Warn().Str("game", game).Str("file", name).Msg("Original game file is missing from the backups")
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrWriteFailure, "cannot read the original %s", name).
			WithDetail("path", original)
	}
	staged := filepath.Join(staging, "originals", name)
	if err := p.fs.MkdirAll(filepath.Dir(staged), 0755); err != nil {
		return false, errors.Wrap(err, errors.ErrWriteFailure, "cannot stage original game files")
	}
	if err := p.fs.WriteFile(staged, data, 0644); err != nil {
		return false, errors.Wrapf(err, errors.ErrWriteFailure, "cannot stage the original %s", name).
			WithDetail("path", staged)
	}
	if err := j.Replace(staged, filepath.Join(game, name)); err != nil {
		return false, err
	}
	return true, nil
}

func companionNames(companions []Companion) []string {
	names := make([]string, 0, len(companions))
	for _, c := range companions {
		names = append(names, c.Name)
	}
	return names
}

// replacedFiles is prior plus preserved, limited to the files still owned
func replacedFiles(prior, preserved, owned []string) []string {
	own := make(map[string]bool, len(owned))
	for _, f := range owned {
		own[strings.ToLower(f)] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, f := range append(append([]string{}, prior...), preserved...) {
		key := strings.ToLower(f)
		if !own[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func checkpoint(ctx context.Context, step string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrCancelled, "install cancelled after %s", step)
	}
	return nil
}

func checkCompanion(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.Newf(errors.ErrInvalidInput, "companion file name %q must be a plain file name", name).
			WithDetail("path", name)
	}
	if variant.IsRendererFile(name) || strings.EqualFold(name, ConfigFileName) {
		return errors.Newf(errors.ErrInvalidInput, "companion file %s would replace a file reshader manages", name).
			WithDetail("path", name)
	}
	return nil
}

// keepPriorCompanions adds the companions of a previous install that were
// not supplied again; they stay in the game directory and remain owned.
func keepPriorCompanions(current, prior []string, binary string) []string {
	seen := make(map[string]bool, len(current))
	for _, c := range current {
		seen[strings.ToLower(c)] = true
	}
	for _, c := range prior {
		key := strings.ToLower(c)
		if seen[key] || strings.EqualFold(c, binary) {
			continue
		}
		seen[key] = true
		current = append(current, c)
	}
	sort.Strings(current)
	return current
}

// staleShaderFiles returns the previously installed shader files (relative
// to the game, slash form) that the new tree does not contain.
func staleShaderFiles(prior *record.Record, shaderDir string, written []string) []string {
	keep := make(map[string]bool, len(written))
	for _, rel := range written {
		keep[strings.ToLower(path.Join(shaderDir, rel))] = true
	}
	var stale []string
	for _, p := range prior.InstalledShaderPaths() {
		if !keep[strings.ToLower(p)] {
			stale = append(stale, p)
		}
	}
	return stale
}

func describeSources(sources []shaders.Source) []record.SourceRef {
	ordered := shaders.Order(sources)
	refs := make([]record.SourceRef, 0, len(ordered))
	for i, src := range ordered {
		d := shaders.Describe(src)
		rank := i
		if opts := src.Options(); opts.Ranked {
			rank = opts.Rank
		}
		refs = append(refs, record.SourceRef{
			Name:     src.Name(),
			Kind:     d.Kind,
			Location: d.Location,
			Rank:     rank,
			Commit:   d.Revision,
		})
	}
	return refs
}

// pruneEmptyDirs removes the directories of removed files that are left
// empty, walking up but never above root.
func pruneEmptyDirs(fsys filesystem.FS, root string, removed []string) {
	dirs := map[string]bool{}
	for _, rel := range removed {
		for d := path.Dir(rel); d != "." && d != "/"; d = path.Dir(d) {
			dirs[d] = true
		}
	}
	ordered := make([]string, 0, len(dirs))
	for d := range dirs {
		ordered = append(ordered, d)
	}
	// deepest first
	sort.Slice(ordered, func(i, j int) bool {
		di, dj := strings.Count(ordered[i], "/"), strings.Count(ordered[j], "/")
		if di != dj {
			return di > dj
		}
		return ordered[i] < ordered[j]
	})

	for _, d := range ordered {
		abs := filepath.Join(root, filepath.FromSlash(d))
		entries, err := fsys.ReadDir(abs)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := fsys.Remove(abs); err != nil && !stderrors.Is(err, os.ErrNotExist) {
			logger := logging.GetLogger("install")
			logger.Debug().Err(err).Str("dir", abs).Msg("Cannot prune directory")
		}
	}
}
