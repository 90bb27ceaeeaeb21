// pkg/ui/display/view_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test conversion of domain results into renderer views

package display_test

import (
	"testing"
	"time"

	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/arthur-debert/reshader/pkg/ui/display"
	"github.com/arthur-debert/reshader/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWineOverride(t *testing.T) {
	tests := []struct {
		binary   string
		expected string
	}{
		{"d3d9.dll", "d3d9=n,b"},
		{"DXGI.dll", "dxgi=n,b"},
		{"opengl32.dll", "opengl32=n,b"},
		{"vulkan-1.dll", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.binary, func(t *testing.T) {
			assert.Equal(t, tt.expected, display.WineOverride(tt.binary))
		})
	}
}

func TestFromRecord(t *testing.T) {
	rec := &record.Record{
		GamePath:    "/games/x",
		InstalledAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Version:     "6.3.0",
		Flavor:      "addon",
		API:         graphics.DirectX12,
		Arch:        variant.X64,
		Binary:      "dxgi.dll",
		ShaderDir:   "reshade-shaders",
		Sources:     []record.SourceRef{{Name: "slim", Kind: record.KindGit, Location: "https://example.com/s", Commit: "0123456789abcdef"}},
		ShaderFiles: []string{"Shaders/A.fx", "Shaders/B.fx"},
	}

	inst := display.FromRecord(rec)
	assert.Equal(t, "d3d12", inst.API)
	assert.Equal(t, "x64", inst.Arch)
	assert.Equal(t, 2, inst.ShaderFiles)
	require.Len(t, inst.Sources, 1)
	assert.Equal(t, "slim", inst.Sources[0].Name)

	views, ok := display.Views(&display.InstallResult{Message: "Installed", Installation: inst, WineOverride: "dxgi=n,b"})
	require.True(t, ok)
	require.Len(t, views, 1)
	view := views[0]
	assert.Equal(t, "Installed", view.Title)
	assert.Equal(t, "6.3.0 (addon)", view.Fields[0].Value)
	require.NotNil(t, view.Table)
	assert.Equal(t, []string{"0", "slim", "git", "https://example.com/s@0123456789"}, view.Table.Rows[0])
	require.Len(t, view.Notes, 1)
	assert.Contains(t, view.Notes[0], `WINEDLLOVERRIDES="dxgi=n,b"`)
}

func TestViews(t *testing.T) {
	t.Run("empty game list", func(t *testing.T) {
		views, ok := display.Views(display.FromRecords(nil))
		require.True(t, ok)
		assert.Empty(t, views[0].Table.Rows)
		assert.NotEmpty(t, views[0].Empty)
	})

	t.Run("detection without binary", func(t *testing.T) {
		det := display.FromDetection("/games/x", graphics.Detection{API: graphics.Unknown}, "x64", "")
		views, ok := display.Views(det)
		require.True(t, ok)
		assert.Equal(t, "unknown", det.API)
		require.Len(t, views[0].Notes, 1)
		assert.Contains(t, views[0].Notes[0], "--api")
	})

	t.Run("catalog flags", func(t *testing.T) {
		list := &display.CatalogList{Collections: []display.Collection{
			{Name: "base", Repository: "r", Required: true, Enabled: true},
			{Name: "extra", Repository: "r", Branch: "slim", Enabled: true},
			{Name: "off", Repository: "r"},
		}}
		views, ok := display.Views(list)
		require.True(t, ok)
		rows := views[0].Table.Rows
		assert.Equal(t, "required", rows[0][1])
		assert.Equal(t, "yes", rows[1][1])
		assert.Equal(t, "r#slim", rows[1][2])
		assert.Equal(t, "", rows[2][1])
	})

	t.Run("unknown type", func(t *testing.T) {
		_, ok := display.Views("plain")
		assert.False(t, ok)
	})
}
