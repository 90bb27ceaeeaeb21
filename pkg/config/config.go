package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	rserrors "github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "RESHADER_"

// Installer flavours
const (
	FlavorAddon   = "addon"
	FlavorVanilla = "vanilla"
)

// Config is reshader's resolved configuration
type Config struct {
	Install InstallConfig `koanf:"install"`
	Shaders ShadersConfig `koanf:"shaders"`
	Fetch   FetchConfig   `koanf:"fetch"`
	UI      UIConfig      `koanf:"ui"`
}

// InstallConfig controls where and how files land in a game directory
type InstallConfig struct {
	ShaderDir       string `koanf:"shader_dir"`
	WriteDefaultIni bool   `koanf:"write_default_ini"`
	Flavor          string `koanf:"flavor"`
}

// ShadersConfig controls shader source handling
type ShadersConfig struct {
	Exclude            []string `koanf:"exclude"`
	DefaultCollections bool     `koanf:"default_collections"`
}

// FetchConfig configures the download collaborator
type FetchConfig struct {
	TagsURL      string        `koanf:"tags_url"`
	InstallerURL string        `koanf:"installer_url"`
	CompilerURL  string        `koanf:"compiler_url"`
	UserAgent    string        `koanf:"user_agent"`
	Timeout      time.Duration `koanf:"timeout"`
}

// UIConfig controls terminal output
type UIConfig struct {
	Color bool `koanf:"color"`
}

var log = logging.GetLogger("config")

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// DefaultContent returns the embedded default configuration file
func DefaultContent() string {
	return string(defaultConfig)
}

// Default returns the configuration built from the embedded defaults only
func Default() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, rserrors.Wrap(err, rserrors.ErrConfigParse, "failed to load defaults")
	}
	return unmarshal(k)
}

// Load builds the configuration from defaults, the file at configPath (if
// it exists) and RESHADER_* environment variables.
func Load(configPath string) (*Config, error) {
	return LoadWithOverrides(configPath, nil)
}

// LoadWithOverrides is Load with a last layer of dotted keys, typically
// set from command line flags ("install.flavor" = "vanilla").
func LoadWithOverrides(configPath string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, rserrors.Wrap(err, rserrors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User config file
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, rserrors.Wrapf(err, rserrors.ErrConfigParse,
					"failed to load config from %s", configPath).WithDetail("path", configPath)
			}
			log.Debug().Str("path", configPath).Msg("Loaded user config")
		} else if !os.IsNotExist(err) {
			return nil, rserrors.Wrapf(err, rserrors.ErrConfigLoad, "cannot stat config %s", configPath)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, rserrors.Wrap(err, rserrors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Flags
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, rserrors.Wrap(err, rserrors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	return unmarshal(k)
}

// envKey maps RESHADER_INSTALL_SHADER_DIR to install.shader_dir: the first
// underscore separates the section, the rest belong to the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, rserrors.Wrap(err, rserrors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would make an install write outside the game
// directory or pick an installer that does not exist.
func (c *Config) Validate() error {
	dir := c.Install.ShaderDir
	if dir == "" || filepath.IsAbs(dir) || dir == "." || dir == ".." ||
		strings.ContainsAny(dir, `/\`) {
		return rserrors.Newf(rserrors.ErrConfigValid,
			"install.shader_dir must be a single directory name, got %q", dir)
	}

	switch c.Install.Flavor {
	case FlavorAddon, FlavorVanilla:
	default:
		return rserrors.Newf(rserrors.ErrConfigValid,
			"install.flavor must be %q or %q, got %q", FlavorAddon, FlavorVanilla, c.Install.Flavor)
	}

	if c.Fetch.Timeout <= 0 {
		return rserrors.Newf(rserrors.ErrConfigValid, "fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}

	return nil
}

// InstallerURL expands the installer URL template for a version and flavour
func (c *Config) InstallerURL(version, flavor string) string {
	suffix := "_Addon"
	if flavor == FlavorVanilla {
		suffix = ""
	}
	return strings.NewReplacer("{version}", strings.TrimPrefix(version, "v"), "{suffix}", suffix).
		Replace(c.Fetch.InstallerURL)
}

// String renders the config for debugging
func (c *Config) String() string {
	return fmt.Sprintf("install=%+v shaders=%+v fetch=%+v ui=%+v", c.Install, c.Shaders, c.Fetch, c.UI)
}
