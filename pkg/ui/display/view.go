package display

import (
	"fmt"
	"strings"
	"time"
)

// Field kinds steer styling in rich renderers
const (
	KindPlain = ""
	KindPath  = "path"
	KindAPI   = "api"
	KindNote  = "note"
)

// Field is one label/value line
type Field struct {
	Label string
	Value string
	Kind  string
}

// Table is a header plus rows
type Table struct {
	Header []string
	Rows   [][]string
}

// View is the renderer independent layout of a result. Text renderers
// print it as is; rich renderers style it.
type View struct {
	Title  string
	Fields []Field
	Table  *Table
	Empty  string // shown instead of a table without rows
	Notes  []string
}

// Views lays out a result. ok is false for types it does not know.
func Views(result interface{}) (views []View, ok bool) {
	switch v := result.(type) {
	case *InstallResult:
		view := installationView(v.Installation)
		if v.Message != "" {
			view.Title = v.Message
		}
		if v.WineOverride != "" {
			view.Notes = append(view.Notes, fmt.Sprintf("launch the game with WINEDLLOVERRIDES=%q", v.WineOverride))
		}
		return []View{view}, true
	case *StatusResult:
		return []View{installationView(v.Installation)}, true
	case *GameList:
		return []View{gameListView(v)}, true
	case *UninstallResult:
		view := View{
			Title: "Removed ReShade from " + v.Game,
			Fields: []Field{
				{Label: "Files removed", Value: fmt.Sprint(len(v.Files))},
			},
		}
		return []View{view}, true
	case *Detection:
		return []View{detectionView(v)}, true
	case *CatalogList:
		return []View{catalogView(v)}, true
	}
	return nil, false
}

func installationView(in Installation) View {
	version := in.Version
	if in.Flavor != "" {
		version += " (" + in.Flavor + ")"
	}
	view := View{
		Title: "ReShade in " + in.Game,
		Fields: []Field{
			{Label: "Version", Value: version},
			{Label: "API", Value: in.API, Kind: KindAPI},
			{Label: "Architecture", Value: in.Arch},
			{Label: "Renderer", Value: in.Binary, Kind: KindPath},
		},
	}
	if len(in.Companions) > 0 {
		view.Fields = append(view.Fields, Field{Label: "Companions", Value: strings.Join(in.Companions, ", "), Kind: KindPath})
	}
	view.Fields = append(view.Fields,
		Field{Label: "Shaders", Value: fmt.Sprintf("%d files in %s", in.ShaderFiles, in.ShaderDir), Kind: KindPath},
		Field{Label: "Installed", Value: in.InstalledAt.Local().Format(time.DateTime)},
	)
	if in.Latest != "" {
		view.Fields = append(view.Fields, Field{Label: "Update", Value: in.Latest + " is available", Kind: KindNote})
	}
	if len(in.Sources) > 0 {
		table := &Table{Header: []string{"Rank", "Source", "Kind", "Location"}}
		for _, s := range in.Sources {
			loc := s.Location
			if s.Commit != "" {
				loc += "@" + shortCommit(s.Commit)
			}
			table.Rows = append(table.Rows, []string{fmt.Sprint(s.Rank), s.Name, s.Kind, loc})
		}
		view.Table = table
	}
	return view
}

func gameListView(list *GameList) View {
	table := &Table{Header: []string{"Game", "Version", "API", "Arch", "Shaders"}}
	for _, g := range list.Games {
		version := g.Version
		if g.Latest != "" {
			version += " -> " + g.Latest
		}
		table.Rows = append(table.Rows, []string{g.Game, version, g.API, g.Arch, fmt.Sprint(g.ShaderFiles)})
	}
	return View{
		Title: "Installed games",
		Table: table,
		Empty: "No games have ReShade installed by reshader",
	}
}

func detectionView(d *Detection) View {
	view := View{
		Title: d.Game,
		Fields: []Field{
			{Label: "API", Value: d.API, Kind: KindAPI},
			{Label: "Architecture", Value: d.Arch},
		},
	}
	if d.Evidence != "" {
		view.Fields = append(view.Fields, Field{Label: "Evidence", Value: d.Evidence, Kind: KindPath})
	}
	if d.Binary != "" {
		view.Fields = append(view.Fields, Field{Label: "Would install", Value: d.Binary, Kind: KindPath})
	} else {
		view.Notes = append(view.Notes, "no graphics API detected; pass --api to choose one")
	}
	return view
}

func catalogView(c *CatalogList) View {
	table := &Table{Header: []string{"Name", "Default", "Repository", "Description"}}
	for _, col := range c.Collections {
		flag := ""
		switch {
		case col.Required:
			flag = "required"
		case col.Enabled:
			flag = "yes"
		}
		repo := col.Repository
		if col.Branch != "" {
			repo += "#" + col.Branch
		}
		table.Rows = append(table.Rows, []string{col.Name, flag, repo, col.Description})
	}
	return View{
		Title: "Shader collections",
		Table: table,
		Empty: "The catalog is empty",
	}
}

func shortCommit(c string) string {
	if len(c) > 10 {
		return c[:10]
	}
	return c
}
