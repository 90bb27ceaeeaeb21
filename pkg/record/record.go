// Package record persists what reshader installed into each game directory,
// one TOML document per game, so installs can be updated, reconciled and
// removed later.
package record

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/variant"
)

// SchemaVersion is written into every record
const SchemaVersion = 1

// Source kinds
const (
	KindDir     = "dir"
	KindArchive = "archive"
	KindGit     = "git"
	KindCatalog = "catalog"
)

// SourceRef identifies a shader source used by an install
type SourceRef struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Location string `toml:"location,omitempty"`
	Rank     int    `toml:"rank"`
	Commit   string `toml:"commit,omitempty"`
}

// Record describes one installation into a game directory
type Record struct {
	Schema      int       `toml:"schema"`
	GamePath    string    `toml:"game_path"`
	InstalledAt time.Time `toml:"installed_at"`
	Version     string    `toml:"version"`
	Flavor      string    `toml:"flavor,omitempty"`

	// API is informational; it is detected again on every install
	API         graphics.API `toml:"api"`
	Arch        variant.Arch `toml:"arch"`
	SourceEntry string       `toml:"source_entry"`
	Binary      string       `toml:"binary"`
	Companions  []string     `toml:"companions,omitempty"`

	// Replaced lists the game files that existed before reshader overwrote
	// them. The originals live in the backup directory of the game.
	Replaced []string `toml:"replaced,omitempty"`

	ShaderDir   string      `toml:"shader_dir"`
	Sources     []SourceRef `toml:"sources,omitempty"`
	ShaderFiles []string    `toml:"shader_files,omitempty"`

	// ConfigCreated is set when reshader wrote ReShade.ini
	ConfigCreated bool `toml:"config_created,omitempty"`
}

// GameFiles returns the top-level files reshader owns in the game
// directory: the renderer binary and the companions.
func (r *Record) GameFiles() []string {
	files := make([]string, 0, 1+len(r.Companions))
	if r.Binary != "" {
		files = append(files, r.Binary)
	}
	return append(files, r.Companions...)
}

// Owns reports whether name is one of GameFiles, ignoring case
func (r *Record) Owns(name string) bool {
	for _, f := range r.GameFiles() {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// HasOriginal reports whether the game's own copy of name was kept aside
func (r *Record) HasOriginal(name string) bool {
	for _, f := range r.Replaced {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// InstalledShaderPaths returns the recorded shader files as slash paths
// relative to the game directory, sorted.
func (r *Record) InstalledShaderPaths() []string {
	out := make([]string, 0, len(r.ShaderFiles))
	for _, f := range r.ShaderFiles {
		out = append(out, path.Join(r.ShaderDir, f))
	}
	sort.Strings(out)
	return out
}

// AllFiles is GameFiles plus InstalledShaderPaths
func (r *Record) AllFiles() []string {
	return append(r.GameFiles(), r.InstalledShaderPaths()...)
}

// Store loads and saves records
type Store interface {
	// Load returns the record of a game, ErrNotFound when there is none.
	Load(gamePath string) (*Record, error)
	// Save replaces the record of rec.GamePath.
	Save(rec *Record) error
	// Delete removes the record of a game; a missing record is not an error.
	Delete(gamePath string) error
	// List returns all readable records sorted by game path.
	List() ([]Record, error)
}
