package reshader

import (
	"github.com/arthur-debert/reshader/pkg/ui/display"
	"github.com/spf13/cobra"
)

func newUninstallCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "uninstall GAME_DIR",
		Short:             MsgUninstallShort,
		Long:              MsgUninstallLong,
		GroupID:           "core",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: installedGamesCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, nil)
			if err != nil {
				return err
			}
			planner := a.planner()

			rec, err := planner.Status(args[0])
			if err != nil {
				return err
			}
			if err := planner.Uninstall(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.renderer.RenderResult(&display.UninstallResult{
				Game:  rec.GamePath,
				Files: rec.AllFiles(),
			})
		},
	}
}
