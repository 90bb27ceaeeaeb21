package reshader

import (
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/arthur-debert/reshader/pkg/ui/display"
	"github.com/arthur-debert/reshader/pkg/variant"
	"github.com/spf13/cobra"
)

func newDetectCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "detect GAME_DIR",
		Short:   MsgDetectShort,
		Long:    MsgDetectLong,
		GroupID: "info",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, nil)
			if err != nil {
				return err
			}
			game, err := paths.NormalizeGamePath(args[0])
			if err != nil {
				return err
			}
			info, err := a.fs.Stat(game)
			if err != nil || !info.IsDir() {
				return errors.Newf(errors.ErrNotFound, "game directory %s does not exist", game).
					WithDetail("path", game)
			}

			// files of an earlier install are not evidence
			var opts []graphics.Option
			prior, priorErr := a.store.Load(game)
			if priorErr == nil {
				opts = append(opts, graphics.WithIgnored(prior.GameFiles()...))
			}
			det, err := graphics.NewDetector(a.fs, opts...).Inspect(game)
			if err != nil {
				return err
			}
			if det.API == graphics.Unknown && priorErr == nil && prior.API != graphics.Unknown {
				det = graphics.Detection{API: prior.API, Evidence: "previous install"}
			}

			arch := variant.DetectArch(a.fs, game)
			binary := ""
			if spec, err := variant.Select(det.API, arch); err == nil {
				binary = spec.InstalledFile
			}
			return a.renderer.RenderResult(display.FromDetection(game, det, string(arch), binary))
		},
	}
}
