package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/reshader/pkg/errors"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for reshader
	EnvDataDir = "RESHADER_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for reshader
	EnvConfigDir = "RESHADER_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for reshader
	EnvCacheDir = "RESHADER_CACHE_DIR"

	// EnvStateDir overrides the XDG state directory for reshader
	EnvStateDir = "RESHADER_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
// IMPORTANT: These constants define reshader's on-disk layout and are NOT
// user-configurable. Records written by one version must be found by the
// next. User-configurable names belong in pkg/config.
const (
	// AppDirName is the directory name used under every XDG base dir
	AppDirName = "reshader"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "config.toml"

	// RecordsDir is the data subdirectory holding installation records
	RecordsDir = "records"

	// RecordExt is the file extension of installation records
	RecordExt = ".toml"

	// LocksDir is the state subdirectory holding per-game lock files
	LocksDir = "locks"

	// GitDir is the cache subdirectory holding shader repository checkouts
	GitDir = "git"

	// DownloadsDir is the data subdirectory holding fetched installers
	DownloadsDir = "downloads"

	// BackupsDir is the data subdirectory holding game files reshader replaced
	BackupsDir = "backups"

	// LogFileName is the name of the log file
	LogFileName = "reshader.log"

	// gameKeyLen is the number of hex characters kept from the game path hash
	gameKeyLen = 16
)

// Paths provides centralized path management for reshader
type Paths interface {
	DataDir() string
	ConfigDir() string
	CacheDir() string
	StateDir() string
	ConfigFile() string
	RecordsDir() string
	RecordPath(gamePath string) (string, error)
	LocksDir() string
	LockPath(gamePath string) (string, error)
	BackupDir(gamePath string) (string, error)
	GitCacheDir(name string) string
	DownloadsDir() string
	LogFilePath() string
}

type paths struct {
	xdgData   string
	xdgConfig string
	xdgCache  string
	xdgState  string
}

// New creates a new Paths instance, respecting the RESHADER_* overrides.
func New() (Paths, error) {
	p := &paths{
		xdgData:   dirFromEnv(EnvDataDir, xdg.DataHome),
		xdgConfig: dirFromEnv(EnvConfigDir, xdg.ConfigHome),
		xdgCache:  dirFromEnv(EnvCacheDir, xdg.CacheHome),
		xdgState:  dirFromEnv(EnvStateDir, xdg.StateHome),
	}

	for _, dir := range []*string{&p.xdgData, &p.xdgConfig, &p.xdgCache, &p.xdgState} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for %s", *dir)
		}
		*dir = abs
	}

	return p, nil
}

// dirFromEnv returns the expanded override from env, or base/reshader.
func dirFromEnv(env, base string) string {
	if dir := os.Getenv(env); dir != "" {
		return ExpandHome(dir)
	}
	return filepath.Join(base, AppDirName)
}

// ExpandHome expands a leading ~ to the home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~someone is not the user's home
	return path
}

// NormalizeGamePath returns the absolute, cleaned form of a game path with
// symlinks resolved when the directory exists.
func NormalizeGamePath(gamePath string) (string, error) {
	if strings.TrimSpace(gamePath) == "" {
		return "", errors.New(errors.ErrInvalidInput, "game path is empty")
	}

	abs, err := filepath.Abs(ExpandHome(gamePath))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for %s", gamePath)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	return filepath.Clean(abs), nil
}

// GameKey returns the stable identifier used to name per-game files.
func GameKey(gamePath string) (string, error) {
	normalized, err := NormalizeGamePath(gamePath)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:gameKeyLen], nil
}

// DataDir returns the XDG data directory for reshader
func (p *paths) DataDir() string {
	return p.xdgData
}

// ConfigDir returns the XDG config directory for reshader
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// CacheDir returns the XDG cache directory for reshader
func (p *paths) CacheDir() string {
	return p.xdgCache
}

// StateDir returns the XDG state directory for reshader
func (p *paths) StateDir() string {
	return p.xdgState
}

// ConfigFile returns the user configuration file path
func (p *paths) ConfigFile() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

// RecordsDir returns the directory holding installation records
func (p *paths) RecordsDir() string {
	return filepath.Join(p.xdgData, RecordsDir)
}

// RecordPath returns the installation record file for a game
func (p *paths) RecordPath(gamePath string) (string, error) {
	key, err := GameKey(gamePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.RecordsDir(), key+RecordExt), nil
}

// LocksDir returns the directory holding per-game lock files
func (p *paths) LocksDir() string {
	return filepath.Join(p.xdgState, LocksDir)
}

// LockPath returns the advisory lock file for a game
func (p *paths) LockPath(gamePath string) (string, error) {
	key, err := GameKey(gamePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.LocksDir(), key+".lock"), nil
}

// BackupDir returns the directory keeping the original game files an
// install replaced
func (p *paths) BackupDir(gamePath string) (string, error) {
	key, err := GameKey(gamePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.xdgData, BackupsDir, key), nil
}

// GitCacheDir returns the checkout directory of a git shader source
func (p *paths) GitCacheDir(name string) string {
	return filepath.Join(p.xdgCache, GitDir, SanitizeName(name))
}

// DownloadsDir returns the directory holding fetched installers and archives
func (p *paths) DownloadsDir() string {
	return filepath.Join(p.xdgData, DownloadsDir)
}

// LogFilePath returns the log file path
func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// SanitizeName maps a free-form name onto a single safe path element.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return "_"
	}
	return s
}
