// pkg/fetch/fetch_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: httptest servers, real filesystem (temp dirs)
// PURPOSE: Test release resolution, cached downloads and failure handling

package fetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/arthur-debert/reshader/pkg/config"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, base string) config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Fetch.TagsURL = base + "/tags"
	cfg.Fetch.InstallerURL = base + "/downloads/ReShade_Setup_{version}{suffix}.exe"
	cfg.Fetch.CompilerURL = base + "/tools/d3dcompiler_47.dll"
	cfg.Fetch.UserAgent = "reshader-test"
	return *cfg
}

func TestLatestVersion(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "reshader-test", r.Header.Get("User-Agent"))
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/tags?page=2>; rel="next"`, srv.URL))
			fmt.Fprint(w, `[{"name":"v5.9.2"},{"name":"v6.0.0-rc1"},{"name":"nightly"}]`)
		case "2":
			fmt.Fprint(w, `[{"name":"v6.3.0"},{"name":"v6.2.1"},{"name":"v4.9.1"}]`)
		}
	}))
	defer srv.Close()

	c := fetch.New(testConfig(t, srv.URL), t.TempDir())
	v, err := c.LatestVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v6.3.0", v)
}

func TestLatestVersion_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"no semver tags", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `[{"name":"latest"}]`) }},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `{`) }},
		{"rate limited", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := fetch.New(testConfig(t, srv.URL), t.TempDir()).LatestVersion(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrFetch), "got %v", err)
		})
	}
}

func TestInstaller_DownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/downloads/ReShade_Setup_6.3.0_Addon.exe" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "installer-bytes")
	}))
	defer srv.Close()

	cache := t.TempDir()
	c := fetch.New(testConfig(t, srv.URL), cache)

	p, err := c.Installer(context.Background(), "v6.3.0", config.FlavorAddon)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "ReShade_Setup_6.3.0_Addon.exe"), p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "installer-bytes", string(data))

	_, err = c.Installer(context.Background(), "v6.3.0", config.FlavorAddon)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second call is served from the cache")

	_, err = c.Installer(context.Background(), "v6.3.0", config.FlavorVanilla)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFetch))
	assert.Equal(t, http.StatusNotFound, errors.GetErrorDetails(err)["status"])
	assert.NoFileExists(t, filepath.Join(cache, "ReShade_Setup_6.3.0.exe"))
}

func TestCompiler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "compiler")
	}))
	defer srv.Close()

	p, err := fetch.New(testConfig(t, srv.URL), t.TempDir()).Compiler(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetch.CompilerFileName, filepath.Base(p))
}

func TestDownload_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "never read")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := filepath.Join(t.TempDir(), "file.zip")
	err := fetch.New(testConfig(t, srv.URL), t.TempDir()).Download(ctx, srv.URL+"/file.zip", dest)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	assert.NoFileExists(t, dest)
}

func TestVersionHelpers(t *testing.T) {
	assert.Equal(t, "v6.3.0", fetch.Canonical("6.3.0"))
	assert.Equal(t, "v6.3.0", fetch.Canonical("v6.3.0"))
	assert.Equal(t, "", fetch.Canonical(""))
	assert.Equal(t, "6.3.0", fetch.Display("v6.3.0"))

	assert.True(t, fetch.Newer("6.4.0", "v6.3.9"))
	assert.False(t, fetch.Newer("6.3.0", "6.3.0"))
	assert.False(t, fetch.Newer("garbage", "6.3.0"))
	assert.True(t, fetch.Newer("6.3.0", "garbage"))
}
