// Package display holds the view models commands hand to renderers. They
// are plain data with JSON tags so the JSON renderer can emit them as is.
package display

import (
	"strings"
	"time"

	"github.com/arthur-debert/reshader/pkg/catalog"
	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/record"
)

// SourceView is one shader source of an installation
type SourceView struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Location string `json:"location,omitempty"`
	Rank     int    `json:"rank"`
	Commit   string `json:"commit,omitempty"`
}

// Installation describes what is installed in one game
type Installation struct {
	Game          string       `json:"game"`
	Version       string       `json:"version"`
	Flavor        string       `json:"flavor,omitempty"`
	API           string       `json:"api"`
	Arch          string       `json:"arch"`
	Binary        string       `json:"binary"`
	Companions    []string     `json:"companions,omitempty"`
	ShaderDir     string       `json:"shader_dir"`
	ShaderFiles   int          `json:"shader_files"`
	Sources       []SourceView `json:"sources,omitempty"`
	InstalledAt   time.Time    `json:"installed_at"`
	ConfigCreated bool         `json:"config_created"`

	// Latest is set when a newer release than Version is known
	Latest string `json:"latest,omitempty"`
}

// InstallResult is the output of install
type InstallResult struct {
	Message      string       `json:"message,omitempty"`
	Installation Installation `json:"installation"`

	// WineOverride is the WINEDLLOVERRIDES value the game needs
	WineOverride string `json:"wine_override,omitempty"`
}

// GameList is the output of list
type GameList struct {
	Games []Installation `json:"games"`
}

// StatusResult is the output of status
type StatusResult struct {
	Installation Installation `json:"installation"`
}

// UninstallResult is the output of uninstall
type UninstallResult struct {
	Game  string   `json:"game"`
	Files []string `json:"files"`
}

// Detection is the output of detect
type Detection struct {
	Game        string `json:"game"`
	API         string `json:"api"`
	DisplayName string `json:"display_name"`
	Evidence    string `json:"evidence,omitempty"`
	Arch        string `json:"arch"`

	// Binary is the file an install would create, empty for unknown APIs
	Binary string `json:"binary,omitempty"`
}

// Collection is one catalog entry
type Collection struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository"`
	Branch      string `json:"branch,omitempty"`
	InstallPath string `json:"install_path"`
	Enabled     bool   `json:"enabled"`
	Required    bool   `json:"required"`
}

// CatalogList is the output of catalog
type CatalogList struct {
	Collections []Collection `json:"collections"`
}

// WineOverride returns the DLL override that makes Wine load binary, or ""
// when none applies
func WineOverride(binary string) string {
	name := strings.TrimSuffix(strings.ToLower(binary), ".dll")
	if name == "" || name == "vulkan-1" {
		return ""
	}
	return name + "=n,b"
}

// FromRecord converts an installation record
func FromRecord(rec *record.Record) Installation {
	sources := make([]SourceView, 0, len(rec.Sources))
	for _, s := range rec.Sources {
		sources = append(sources, SourceView(s))
	}
	return Installation{
		Game:          rec.GamePath,
		Version:       rec.Version,
		Flavor:        rec.Flavor,
		API:           rec.API.String(),
		Arch:          string(rec.Arch),
		Binary:        rec.Binary,
		Companions:    rec.Companions,
		ShaderDir:     rec.ShaderDir,
		ShaderFiles:   len(rec.ShaderFiles),
		Sources:       sources,
		InstalledAt:   rec.InstalledAt,
		ConfigCreated: rec.ConfigCreated,
	}
}

// FromRecords converts a list of records
func FromRecords(recs []record.Record) *GameList {
	games := make([]Installation, 0, len(recs))
	for i := range recs {
		games = append(games, FromRecord(&recs[i]))
	}
	return &GameList{Games: games}
}

// FromDetection converts a detection result
func FromDetection(game string, det graphics.Detection, arch, binary string) *Detection {
	return &Detection{
		Game:        game,
		API:         det.API.String(),
		DisplayName: det.API.DisplayName(),
		Evidence:    det.Evidence,
		Arch:        arch,
		Binary:      binary,
	}
}

// FromCatalog converts a catalog
func FromCatalog(c *catalog.Catalog) *CatalogList {
	cols := make([]Collection, 0, len(c.Collections))
	for _, col := range c.Collections {
		cols = append(cols, Collection{
			Name:        col.Name,
			Description: col.Description,
			Repository:  col.Repository,
			Branch:      col.Branch,
			InstallPath: col.InstallPath,
			Enabled:     col.Enabled,
			Required:    col.Required,
		})
	}
	return &CatalogList{Collections: cols}
}
