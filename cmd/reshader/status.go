package reshader

import (
	"github.com/arthur-debert/reshader/pkg/fetch"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/ui/display"
	"github.com/spf13/cobra"
)

func newStatusCmd(g *globalOptions) *cobra.Command {
	var checkUpdates bool
	cmd := &cobra.Command{
		Use:               "status GAME_DIR",
		Short:             MsgStatusShort,
		Long:              MsgStatusLong,
		GroupID:           "info",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: installedGamesCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, nil)
			if err != nil {
				return err
			}
			rec, err := a.planner().Status(args[0])
			if err != nil {
				return err
			}
			in := display.FromRecord(rec)
			if checkUpdates {
				in.Latest = a.latestNewerThan(cmd, rec.Version)
			}
			return a.renderer.RenderResult(&display.StatusResult{Installation: in})
		},
	}
	cmd.Flags().BoolVar(&checkUpdates, "check-updates", false, MsgFlagCheckUpdates)
	return cmd
}

func newListCmd(g *globalOptions) *cobra.Command {
	var checkUpdates bool
	cmd := &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		Long:    MsgListLong,
		GroupID: "info",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, nil)
			if err != nil {
				return err
			}
			recs, err := a.planner().List()
			if err != nil {
				return err
			}
			list := display.FromRecords(recs)
			if checkUpdates && len(recs) > 0 {
				latest := a.latestNewerThan(cmd, "")
				for i := range list.Games {
					if latest != "" && fetch.Newer(latest, list.Games[i].Version) {
						list.Games[i].Latest = latest
					}
				}
			}
			return a.renderer.RenderResult(list)
		},
	}
	cmd.Flags().BoolVar(&checkUpdates, "check-updates", false, MsgFlagCheckUpdates)
	return cmd
}

// latestNewerThan returns the latest release when it is newer than current,
// or any latest release when current is empty. Lookup failures are logged
// and yield "".
func (a *app) latestNewerThan(cmd *cobra.Command, current string) string {
	latest, err := a.fetcher().LatestVersion(cmd.Context())
	if err != nil {
		logger := logging.GetLogger("cmd")
		logger.Warn().Err(err).Msg("Could not look up the latest release")
		return ""
	}
	if current != "" && !fetch.Newer(latest, current) {
		return ""
	}
	return fetch.Display(latest)
}
