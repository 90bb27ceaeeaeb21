package reshader

import (
	"fmt"
	"os"

	"github.com/arthur-debert/reshader/pkg/config"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/fetch"
	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/install"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/shaders"
	"github.com/arthur-debert/reshader/pkg/ui/display"
	"github.com/arthur-debert/reshader/pkg/variant"
	"github.com/spf13/cobra"
)

type installOptions struct {
	installer   string
	version     string
	flavor      string
	api         string
	arch        string
	shaders     []string
	collections []string
	noDefaults  bool
	snapshot    bool
	noCompiler  bool
	shaderDir   string
	noIni       bool
	yes         bool
}

// overrides maps flags onto config keys; unset flags leave the config alone
func (o *installOptions) overrides(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	if cmd.Flags().Changed("flavor") {
		out["install.flavor"] = o.flavor
	}
	if cmd.Flags().Changed("shader-dir") {
		out["install.shader_dir"] = o.shaderDir
	}
	if o.noIni {
		out["install.write_default_ini"] = false
	}
	if o.noDefaults {
		out["shaders.default_collections"] = false
	}
	return out
}

func newInstallCmd(g *globalOptions) *cobra.Command {
	o := &installOptions{}
	cmd := &cobra.Command{
		Use:     "install GAME_DIR",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, g, o, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.installer, "installer", "", MsgFlagInstaller)
	f.StringVar(&o.version, "reshade-version", "", MsgFlagVersion)
	f.StringVar(&o.flavor, "flavor", config.FlavorAddon, MsgFlagFlavor)
	f.StringVar(&o.api, "api", "", MsgFlagAPI)
	f.StringVar(&o.arch, "arch", "", MsgFlagArch)
	f.StringArrayVar(&o.shaders, "shaders", nil, MsgFlagShaders)
	f.StringArrayVarP(&o.collections, "collection", "c", nil, MsgFlagCollection)
	f.BoolVar(&o.noDefaults, "no-default-collections", false, MsgFlagNoDefaults)
	f.BoolVar(&o.snapshot, "snapshot", false, MsgFlagSnapshot)
	f.BoolVar(&o.noCompiler, "no-compiler", false, MsgFlagNoCompiler)
	f.StringVar(&o.shaderDir, "shader-dir", "", MsgFlagShaderDir)
	f.BoolVar(&o.noIni, "no-ini", false, MsgFlagNoIni)
	f.BoolVarP(&o.yes, "yes", "y", false, MsgFlagYes)

	_ = cmd.RegisterFlagCompletionFunc("api", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(graphics.Supported()))
		for _, api := range graphics.Supported() {
			names = append(names, api.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("arch", cobra.FixedCompletions(
		[]string{string(variant.X64), string(variant.X86)}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("flavor", cobra.FixedCompletions(
		[]string{config.FlavorAddon, config.FlavorVanilla}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("collection", collectionNamesCompletion())

	return cmd
}

func runInstall(cmd *cobra.Command, g *globalOptions, o *installOptions, game string) error {
	logger := logging.GetLogger("cmd.install")
	ctx := cmd.Context()

	a, err := newApp(cmd, g, o.overrides(cmd))
	if err != nil {
		return err
	}

	apiOverride, err := graphics.ParseAPI(o.api)
	if err != nil {
		return err
	}
	var archOverride variant.Arch
	if o.arch != "" {
		if archOverride, err = variant.ParseArch(o.arch); err != nil {
			return err
		}
	}

	cat, err := a.catalog()
	if err != nil {
		return err
	}
	cols, err := cat.Select(o.collections, a.cfg.Shaders.DefaultCollections)
	if err != nil {
		return err
	}

	fetcher := a.fetcher()
	pkg, version, err := a.openInstaller(ctx, fetcher, o.installer, o.version)
	if err != nil {
		return err
	}

	planner := a.planner()
	if prior, err := planner.Status(game); err == nil && fetch.Newer(prior.Version, version) && !o.yes {
		ok, err := a.prompter().Confirm(fmt.Sprintf(MsgConfirmDowngrade, game, prior.Version, version), false)
		if err != nil {
			return err
		}
		if !ok {
			return a.renderer.RenderMessage(MsgAborted)
		}
	}

	sources, err := a.collectionSources(ctx, fetcher, cols, o.snapshot)
	if err != nil {
		return err
	}
	for _, spec := range o.shaders {
		src, err := a.parseShaderSource(spec)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	var companions []install.Companion
	if !o.noCompiler {
		if c, err := compilerCompanion(cmd, fetcher); err != nil {
			logger.Warn().Err(err).Msg("Installing without d3dcompiler_47.dll")
		} else {
			companions = append(companions, c)
		}
	}

	logger.Info().Str("version", version).Strs("sources", shaderSourceNames(sources)).
		Int("companions", len(companions)).Msg("Installing")

	progress := a.progress()
	req := install.Request{
		GamePath:     game,
		Installer:    pkg,
		Version:      version,
		Flavor:       a.cfg.Install.Flavor,
		Sources:      sources,
		APIOverride:  apiOverride,
		ArchOverride: archOverride,
		Companions:   companions,
		Observer:     func(s install.State) { progress.Step(s.String()) },
	}

	rec, err := planner.Plan(ctx, req)
	if errors.IsErrorCode(err, errors.ErrUnsupportedAPI) && apiOverride == graphics.Unknown {
		api, promptErr := a.prompter().SelectAPI(game)
		if promptErr != nil {
			return err
		}
		req.APIOverride = api
		rec, err = planner.Plan(ctx, req)
	}
	if err != nil {
		return err
	}

	return a.renderer.RenderResult(&display.InstallResult{
		Message:      fmt.Sprintf("Installed ReShade %s", rec.Version),
		Installation: display.FromRecord(rec),
		WineOverride: display.WineOverride(rec.Binary),
	})
}

func compilerCompanion(cmd *cobra.Command, fetcher *fetch.Client) (install.Companion, error) {
	file, err := fetcher.Compiler(cmd.Context())
	if err != nil {
		return install.Companion{}, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return install.Companion{}, errors.Wrapf(err, errors.ErrFetch, "cannot read %s", file)
	}
	return install.Companion{Name: fetch.CompilerFileName, Data: data}, nil
}

func shaderSourceNames(sources []shaders.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}
