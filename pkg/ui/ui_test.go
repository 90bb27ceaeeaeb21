// pkg/ui/ui_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test format parsing, renderer selection and the renderers' output

package ui

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/arthur-debert/reshader/pkg/ui/display"
	uijson "github.com/arthur-debert/reshader/pkg/ui/json"
	"github.com/arthur-debert/reshader/pkg/ui/terminal"
	"github.com/arthur-debert/reshader/pkg/ui/text"
	"github.com/arthur-debert/reshader/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInstall() *display.InstallResult {
	rec := &record.Record{
		GamePath:    "/games/Witcher",
		InstalledAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Version:     "6.3.0",
		Flavor:      "addon",
		API:         graphics.DirectX9,
		Arch:        variant.X86,
		Binary:      "d3d9.dll",
		Companions:  []string{"d3dcompiler_47.dll"},
		ShaderDir:   "reshade-shaders",
		Sources: []record.SourceRef{
			{Name: "standard", Kind: record.KindCatalog, Location: "https://github.com/crosire/reshade-shaders", Rank: 0, Commit: "0123456789abcdef"},
		},
		ShaderFiles: []string{"Shaders/Bloom.fx", "Shaders/LUT.fx"},
	}
	in := display.FromRecord(rec)
	in.Latest = "6.4.1"
	return &display.InstallResult{Message: "Installed ReShade 6.3.0", Installation: in}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"", FormatAuto},
		{"auto", FormatAuto},
		{"term", FormatTerminal},
		{"Terminal", FormatTerminal},
		{"text", FormatText},
		{"plain", FormatText},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}

	_, err := ParseFormat("yaml")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "auto", FormatAuto.String())
	assert.Equal(t, "term", FormatTerminal.String())
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "unknown", Format(42).String())
}

func TestNewRenderer(t *testing.T) {
	var buf bytes.Buffer

	r, err := NewRenderer(FormatAuto, &buf)
	require.NoError(t, err)
	assert.IsType(t, &terminal.Renderer{}, r, "non-file writers default to terminal")

	r, err = NewRenderer(FormatText, &buf)
	require.NoError(t, err)
	assert.IsType(t, &text.Renderer{}, r)

	r, err = NewRenderer(FormatJSON, &buf)
	require.NoError(t, err)
	assert.IsType(t, &uijson.Renderer{}, r)

	_, err = NewRenderer(Format(42), &buf)
	assert.Error(t, err)
}

func TestDetectFormat_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, FormatText, DetectFormat(os.Stdout))
}

func TestDetectFormat_Redirected(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, FormatText, DetectFormat(f))
	assert.False(t, IsInteractive(f))
}

func TestTextRenderer_Install(t *testing.T) {
	var buf bytes.Buffer
	r := text.New(&buf)
	require.NoError(t, r.RenderResult(sampleInstall()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Installed ReShade 6.3.0\n"))
	assert.Contains(t, out, "6.3.0 (addon)")
	assert.Contains(t, out, "d3d9")
	assert.Contains(t, out, "x86")
	assert.Contains(t, out, "2 files in reshade-shaders")
	assert.Contains(t, out, "6.4.1 is available")
	assert.Contains(t, out, "@0123456789")
	assert.NotContains(t, out, "\x1b[", "text output has no escape codes")
}

func TestTextRenderer_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, text.New(&buf).RenderResult(display.FromRecords(nil)))
	assert.Contains(t, buf.String(), "No games have ReShade installed")
}

func TestTextRenderer_Detection(t *testing.T) {
	var buf bytes.Buffer
	det := display.FromDetection("/games/x", graphics.Detection{API: graphics.Unknown}, "x64", "")
	require.NoError(t, text.New(&buf).RenderResult(det))
	assert.Contains(t, buf.String(), "unknown")
	assert.Contains(t, buf.String(), "note: no graphics API detected")
}

func TestTextRenderer_MessagesAndErrors(t *testing.T) {
	var buf bytes.Buffer
	r := text.New(&buf)
	require.NoError(t, r.RenderMessage("[success]Done[/success] in [path]/games/x[/path]"))
	assert.Equal(t, "Done in /games/x\n", buf.String())

	buf.Reset()
	require.NoError(t, r.RenderError(errors.New(errors.ErrLockContention, "busy")))
	assert.Equal(t, "Error: [LOCK_CONTENTION] busy\n", buf.String())
}

func TestTerminalRenderer_Install(t *testing.T) {
	var buf bytes.Buffer
	r := terminal.New(&buf)
	require.NoError(t, r.RenderResult(sampleInstall()))

	out := buf.String()
	assert.Contains(t, out, "Installed ReShade 6.3.0")
	assert.Contains(t, out, "d3d9.dll")
	assert.Contains(t, out, "standard")
}

func TestTerminalRenderer_ErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrNotFound, "no such game").WithDetail("game", "/games/x")
	require.NoError(t, terminal.New(&buf).RenderError(err))
	assert.Contains(t, buf.String(), "no such game")
	assert.Contains(t, buf.String(), "/games/x")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := uijson.New(&buf)
	require.NoError(t, r.RenderResult(sampleInstall()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	inst := decoded["installation"].(map[string]interface{})
	assert.Equal(t, "d3d9", inst["api"])
	assert.Equal(t, "x86", inst["arch"])
	assert.Equal(t, float64(2), inst["shader_files"])
	assert.Equal(t, "6.4.1", inst["latest"])

	buf.Reset()
	err := errors.New(errors.ErrUnsupportedAPI, "unknown api").WithDetail("game", "/games/x")
	require.NoError(t, r.RenderError(err))
	decoded = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "UNSUPPORTED_API", decoded["code"])
	assert.Equal(t, "/games/x", decoded["details"].(map[string]interface{})["game"])

	buf.Reset()
	require.NoError(t, r.RenderMessage("[bold]hi[/bold]"))
	assert.JSONEq(t, `{"message":"hi"}`, buf.String())
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, FormatText)
	p.Step("api_resolved")
	p.Step("recorded")
	assert.Equal(t, "  Detected graphics API\n  Saved installation record\n", buf.String())

	buf.Reset()
	NewProgress(&buf, FormatJSON).Step("recorded")
	assert.Empty(t, buf.String())

	buf.Reset()
	NewProgress(&buf, FormatTerminal).Step("failed")
	assert.Contains(t, buf.String(), "Install failed")
}
