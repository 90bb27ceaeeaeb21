package reshader

import (
	"github.com/arthur-debert/reshader/pkg/ui/display"
	"github.com/spf13/cobra"
)

func newCatalogCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "catalog",
		Short:   MsgCatalogShort,
		Long:    MsgCatalogLong,
		GroupID: "info",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, nil)
			if err != nil {
				return err
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			return a.renderer.RenderResult(display.FromCatalog(cat))
		},
	}
}
