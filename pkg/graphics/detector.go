package graphics

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/bmatcuk/doublestar/v4"
)

// Signature ties an API to lower-case file name patterns (doublestar
// syntax, relative to the game directory).
type Signature struct {
	API      API
	Patterns []string
}

// Signatures is the priority-ordered list used by Detect. The first match
// wins, so newer APIs shipped next to legacy loaders take precedence.
var Signatures = []Signature{
	{API: DirectX12, Patterns: []string{"d3d12.dll", "d3d12/d3d12core.dll"}},
	{API: Vulkan, Patterns: []string{"vulkan-1.dll"}},
	{API: DirectX10_11, Patterns: []string{"d3d11.dll", "d3d10.dll", "d3d10_1.dll", "d3d10core.dll"}},
	{API: DirectX9, Patterns: []string{"d3d9.dll", "d3dx9_*.dll"}},
	{API: OpenGL, Patterns: []string{"opengl32.dll"}},
}

// Detection is the outcome of inspecting a game directory
type Detection struct {
	API API
	// Evidence is the file or "exe:dll" import that decided the API
	Evidence string
}

// Detector classifies game directories
type Detector struct {
	fs      filesystem.FS
	ignored map[string]bool
}

// Option configures a Detector
type Option func(*Detector)

// WithIgnored excludes files (relative to the game directory) from
// detection, typically the files of a previous reshader install.
func WithIgnored(names ...string) Option {
	return func(d *Detector) {
		for _, n := range names {
			d.ignored[normalize(n)] = true
		}
	}
}

// NewDetector creates a Detector reading through fsys
func NewDetector(fsys filesystem.FS, opts ...Option) *Detector {
	d := &Detector{fs: fsys, ignored: make(map[string]bool)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the API of the game at gamePath, or Unknown when nothing
// matches. An error means the directory could not be read.
func (d *Detector) Detect(gamePath string) (API, error) {
	det, err := d.Inspect(gamePath)
	return det.API, err
}

// Inspect is Detect with the evidence that decided the result
func (d *Detector) Inspect(gamePath string) (Detection, error) {
	logger := logging.GetLogger("graphics").With().Str("game", gamePath).Logger()

	info, err := d.fs.Stat(gamePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Detection{}, errors.Wrapf(err, errors.ErrNotFound, "game directory %s does not exist", gamePath).
				WithDetail("path", gamePath)
		}
		return Detection{}, errors.Wrapf(err, errors.ErrDetect, "cannot read game directory %s", gamePath).
			WithDetail("path", gamePath)
	}
	if !info.IsDir() {
		return Detection{}, errors.Newf(errors.ErrInvalidInput, "%s is not a directory", gamePath).
			WithDetail("path", gamePath)
	}

	files, err := d.listFiles(gamePath)
	if err != nil {
		return Detection{}, errors.Wrapf(err, errors.ErrDetect, "cannot list game directory %s", gamePath).
			WithDetail("path", gamePath)
	}

	for _, sig := range Signatures {
		for _, pattern := range sig.Patterns {
			for _, f := range files {
				if ok, _ := doublestar.Match(pattern, f); ok {
					logger.Debug().Str("api", sig.API.String()).Str("file", f).Msg("Matched file signature")
					return Detection{API: sig.API, Evidence: f}, nil
				}
			}
		}
	}

	exes, err := ScanExecutables(d.fs, gamePath)
	if err != nil {
		return Detection{}, errors.Wrapf(err, errors.ErrDetect, "cannot scan executables in %s", gamePath).
			WithDetail("path", gamePath)
	}
	for _, sig := range Signatures {
		for _, pattern := range sig.Patterns {
			for _, exe := range exes {
				for _, dll := range exe.Imports {
					if ok, _ := doublestar.Match(pattern, dll); ok {
						evidence := exe.Name + ":" + dll
						logger.Debug().Str("api", sig.API.String()).Str("import", evidence).Msg("Matched import signature")
						return Detection{API: sig.API, Evidence: evidence}, nil
					}
				}
			}
		}
	}

	logger.Info().Msg("No graphics API signature matched")
	return Detection{API: Unknown}, nil
}

// listFiles returns lower-cased slash paths of the top-level files and of
// the files inside top-level directories that signatures look into.
func (d *Detector) listFiles(gamePath string) ([]string, error) {
	entries, err := d.fs.ReadDir(gamePath)
	if err != nil {
		return nil, err
	}

	subdirs := signatureDirs()
	var files []string
	for _, entry := range entries {
		name := strings.ToLower(entry.Name())
		if entry.IsDir() {
			if !subdirs[name] {
				continue
			}
			children, err := d.fs.ReadDir(filepath.Join(gamePath, entry.Name()))
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if child.IsDir() {
					continue
				}
				rel := name + "/" + strings.ToLower(child.Name())
				if !d.ignored[rel] {
					files = append(files, rel)
				}
			}
			continue
		}
		if !d.ignored[name] {
			files = append(files, name)
		}
	}
	return files, nil
}

// signatureDirs returns the directories named by nested patterns
func signatureDirs() map[string]bool {
	dirs := make(map[string]bool)
	for _, sig := range Signatures {
		for _, p := range sig.Patterns {
			if dir := path.Dir(p); dir != "." {
				dirs[dir] = true
			}
		}
	}
	return dirs
}

func normalize(name string) string {
	return strings.ToLower(path.Clean(strings.ReplaceAll(name, `\`, "/")))
}
