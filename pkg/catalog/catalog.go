// Package catalog lists the shader collections reshader knows about and
// turns the chosen ones into shader sources.
//
// A collection is a git repository laid out the way ReShade expects, with
// Shaders/ and Textures/ at its root. Each collection declares where those
// two directories land inside the merged shader tree, so collections that
// share file names do not overwrite each other.
package catalog

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/logging"
	"gopkg.in/yaml.v3"
)

//go:embed embedded/collections.yaml
var embeddedCollections []byte

// FileName is the user catalog file inside the config directory
const FileName = "collections.yaml"

// Collection is one installable shader collection
type Collection struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Repository  string `yaml:"repository"`
	// Branch is empty for the repository default branch
	Branch string `yaml:"branch,omitempty"`
	// Enabled collections are installed unless the user picks collections
	Enabled bool `yaml:"enabled"`
	// Required collections are always installed
	Required           bool   `yaml:"required"`
	InstallPath        string `yaml:"install_path"`
	TextureInstallPath string `yaml:"texture_install_path"`
}

// Catalog is an ordered list of collections
type Catalog struct {
	Collections []Collection `yaml:"collections"`
}

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return Parse(embeddedCollections)
}

// Load reads a catalog file. Collections it defines replace built-in ones of
// the same name; new ones are appended.
func Load(path string) (*Catalog, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read collection catalog %s", path).
			WithDetail("path", path)
	}

	user, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "collection catalog %s", path).
			WithDetail("path", path)
	}
	logger := logging.GetLogger("catalog")
	logger.Debug().Str("path", path).Int("collections", len(user.Collections)).
		Msg("Loaded user collections")
	return base.Merge(user), nil
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid collection catalog")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names are unique and every collection is complete
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Collections))
	for i, col := range c.Collections {
		if col.Name == "" {
			return errors.Newf(errors.ErrConfigValid, "collection #%d has no name", i+1)
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return errors.Newf(errors.ErrConfigValid, "collection %s is listed twice", col.Name).
				WithDetail("collection", col.Name)
		}
		seen[key] = true
		if col.Repository == "" {
			return errors.Newf(errors.ErrConfigValid, "collection %s has no repository", col.Name).
				WithDetail("collection", col.Name)
		}
		if col.InstallPath == "" {
			return errors.Newf(errors.ErrConfigValid, "collection %s has no install_path", col.Name).
				WithDetail("collection", col.Name)
		}
	}
	return nil
}

// Merge returns a catalog with the collections of other replacing or
// extending those of c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{Collections: append([]Collection{}, c.Collections...)}
	for _, col := range other.Collections {
		replaced := false
		for i := range out.Collections {
			if strings.EqualFold(out.Collections[i].Name, col.Name) {
				out.Collections[i] = col
				replaced = true
				break
			}
		}
		if !replaced {
			out.Collections = append(out.Collections, col)
		}
	}
	return out
}

// Find returns the collection with name, ignoring case
func (c *Catalog) Find(name string) (Collection, bool) {
	for _, col := range c.Collections {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return Collection{}, false
}

// Select returns the collections to install in catalog order: required ones,
// the named ones, and the enabled ones when defaults is set. Naming an
// unknown collection is ErrNotFound.
func (c *Catalog) Select(names []string, defaults bool) ([]Collection, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := c.Find(name); !ok {
			return nil, errors.Newf(errors.ErrNotFound, "unknown shader collection %q", name).
				WithDetail("collection", name).
				WithDetail("available", c.Names())
		}
		wanted[strings.ToLower(name)] = true
	}

	var out []Collection
	for _, col := range c.Collections {
		if col.Required || wanted[strings.ToLower(col.Name)] || (defaults && col.Enabled) {
			out = append(out, col)
		}
	}
	return out, nil
}

// Names lists the collection names, sorted
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Collections))
	for _, col := range c.Collections {
		names = append(names, col.Name)
	}
	sort.Strings(names)
	return names
}
