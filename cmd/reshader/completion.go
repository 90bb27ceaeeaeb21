package reshader

import (
	"path/filepath"

	"github.com/arthur-debert/reshader/pkg/catalog"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/spf13/cobra"
)

type completionFunc = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// installedGamesCompletion completes game directories with a record
func installedGamesCompletion() completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		p, err := paths.New()
		if err != nil {
			return nil, cobra.ShellCompDirectiveDefault
		}
		recs, err := record.New(filesystem.NewOS(), p).List()
		if err != nil || len(recs) == 0 {
			return nil, cobra.ShellCompDirectiveFilterDirs
		}
		games := make([]string, 0, len(recs))
		for _, r := range recs {
			games = append(games, r.GamePath)
		}
		return games, cobra.ShellCompDirectiveNoFileComp
	}
}

// collectionNamesCompletion completes catalog collection names
func collectionNamesCompletion() completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, err := paths.New()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		cat, err := catalog.Load(filepath.Join(p.ConfigDir(), catalog.FileName))
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return cat.Names(), cobra.ShellCompDirectiveNoFileComp
	}
}
