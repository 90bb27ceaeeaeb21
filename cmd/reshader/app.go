package reshader

import (
	"io"
	"os"
	"path/filepath"

	"github.com/arthur-debert/reshader/pkg/catalog"
	"github.com/arthur-debert/reshader/pkg/config"
	"github.com/arthur-debert/reshader/pkg/fetch"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/install"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/arthur-debert/reshader/pkg/ui"
	"github.com/arthur-debert/reshader/pkg/ui/prompt"
	"github.com/spf13/cobra"
)

// app is what a command needs once flags are parsed
type app struct {
	paths    paths.Paths
	cfg      *config.Config
	fs       filesystem.FS
	store    record.Store
	format   ui.Format
	renderer ui.Renderer
	out      io.Writer
	errOut   io.Writer
}

// newApp resolves paths, loads the config with overrides as the last layer
// and picks the renderer.
func newApp(cmd *cobra.Command, opts *globalOptions, overrides map[string]interface{}) (*app, error) {
	p, err := paths.New()
	if err != nil {
		return nil, err
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = p.ConfigFile()
	}
	cfg, err := config.LoadWithOverrides(paths.ExpandHome(configPath), overrides)
	if err != nil {
		return nil, err
	}

	format, err := ui.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	format = resolveFormat(format, out, opts.noColor || !cfg.UI.Color)

	renderer, err := ui.NewRenderer(format, out)
	if err != nil {
		return nil, err
	}

	fsys := filesystem.NewOS()
	logger := logging.GetLogger("cmd")
	logger.Debug().Str("config", configPath).Str("format", format.String()).Msg("Resolved settings")
	return &app{
		paths:    p,
		cfg:      cfg,
		fs:       fsys,
		store:    record.New(fsys, p),
		format:   format,
		renderer: renderer,
		out:      out,
		errOut:   cmd.ErrOrStderr(),
	}, nil
}

// resolveFormat settles FormatAuto so progress output and renderers agree
func resolveFormat(format ui.Format, out io.Writer, noColor bool) ui.Format {
	if format != ui.FormatAuto {
		return format
	}
	if noColor {
		return ui.FormatText
	}
	if f, ok := out.(*os.File); ok {
		return ui.DetectFormat(f)
	}
	return ui.FormatText
}

func (a *app) planner() *install.Planner {
	return install.NewPlanner(a.fs, a.paths, a.store, a.cfg.Install)
}

func (a *app) catalog() (*catalog.Catalog, error) {
	return catalog.Load(filepath.Join(a.paths.ConfigDir(), catalog.FileName))
}

func (a *app) fetcher() *fetch.Client {
	return fetch.New(*a.cfg, a.paths.DownloadsDir())
}

// prompter only asks questions on an interactive terminal and never in
// JSON mode
func (a *app) prompter() prompt.Prompter {
	return prompt.New(a.format != ui.FormatJSON && ui.IsInteractive(os.Stdin) && ui.IsInteractive(os.Stdout))
}

func (a *app) progress() *ui.Progress {
	return ui.NewProgress(a.errOut, a.format)
}
