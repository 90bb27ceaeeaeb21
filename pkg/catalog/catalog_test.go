// pkg/catalog/catalog_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Embedded catalog, in-memory zip packages
// PURPOSE: Test collection catalog parsing, selection and source mounting

package catalog_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/reshader/pkg/archive"
	"github.com/arthur-debert/reshader/pkg/catalog"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/arthur-debert/reshader/pkg/shaders"
	"github.com/arthur-debert/reshader/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
collections:
  - name: base
    repository: https://github.com/example/base
    required: true
    install_path: Shaders
    texture_install_path: Textures
  - name: extra
    repository: https://github.com/example/extra
    branch: main
    enabled: true
    install_path: Shaders/Extra
  - name: optional
    repository: https://gitlab.com/example/optional.git
    install_path: Shaders/Optional
`

func TestDefault(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	require.NotEmpty(t, c.Collections)

	std, ok := c.Find("Standard")
	require.True(t, ok, "lookup ignores case")
	assert.True(t, std.Required)
	assert.Equal(t, "slim", std.Branch)

	for _, col := range c.Collections {
		assert.NotEmpty(t, col.Description, col.Name)
		assert.NotEmpty(t, col.ArchiveURL(), col.Name)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{"syntax", "collections: [", errors.ErrConfigParse},
		{"no name", "collections:\n  - repository: x\n    install_path: Shaders\n", errors.ErrConfigValid},
		{"no repository", "collections:\n  - name: a\n    install_path: Shaders\n", errors.ErrConfigValid},
		{"no install path", "collections:\n  - name: a\n    repository: x\n", errors.ErrConfigValid},
		{"duplicate", "collections:\n  - {name: a, repository: x, install_path: S}\n  - {name: A, repository: y, install_path: T}\n", errors.ErrConfigValid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSelect(t *testing.T) {
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)

	names := func(cols []catalog.Collection) []string {
		var out []string
		for _, col := range cols {
			out = append(out, col.Name)
		}
		return out
	}

	defaults, err := c.Select(nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "extra"}, names(defaults))

	picked, err := c.Select([]string{"OPTIONAL"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "optional"}, names(picked), "required collections always come along")

	_, err = c.Select([]string{"missing"}, true)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.Equal(t, []string{"base", "extra", "optional"}, errors.GetErrorDetails(err)["available"])
}

func TestLoad_MergesUserCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")

	c, err := catalog.Load(path)
	require.NoError(t, err, "missing file means built-in catalog")
	builtin := len(c.Collections)

	user := `
collections:
  - name: sweetfx
    repository: https://github.com/me/SweetFX-fork
    install_path: Shaders/SweetFX
  - name: mine
    repository: https://github.com/me/mine
    install_path: Shaders/Mine
`
	require.NoError(t, os.WriteFile(path, []byte(user), 0644))
	c, err = catalog.Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Collections, builtin+1)

	fork, ok := c.Find("sweetfx")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/me/SweetFX-fork", fork.Repository)
	_, ok = c.Find("mine")
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("collections:\n  - name: broken\n"), 0644))
	_, err = catalog.Load(path)
	require.Error(t, err)
	assert.Equal(t, path, errors.GetErrorDetails(err)["path"])
}

func TestArchiveURL(t *testing.T) {
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)

	base, _ := c.Find("base")
	assert.Equal(t, "https://github.com/example/base/archive/HEAD.zip", base.ArchiveURL())
	extra, _ := c.Find("extra")
	assert.Equal(t, "https://github.com/example/extra/archive/refs/heads/main.zip", extra.ArchiveURL())
	optional, _ := c.Find("optional")
	assert.Empty(t, optional.ArchiveURL())
}

func TestArchiveSource_MountsCollectionLayout(t *testing.T) {
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	extra, _ := c.Find("extra")

	pkg, err := archive.Open(testutil.BuildZip(t,
		testutil.File("extra-main/Shaders/Glow.fx", "glow"),
		testutil.File("extra-main/Textures/noise.png", "noise"),
		testutil.File("extra-main/README.md", "readme"),
	))
	require.NoError(t, err)

	src := extra.ArchiveSource(pkg)
	tree, err := shaders.Merge(context.Background(), []shaders.Source{src})
	require.NoError(t, err)
	assert.Equal(t, []string{"Shaders/Extra/Glow.fx"}, tree.Paths(), "textures have no mount, readme is outside Shaders")

	f, ok := tree.Get("Shaders/Extra/Glow.fx")
	require.True(t, ok)
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "glow", string(data))

	d := shaders.Describe(src)
	assert.Equal(t, record.KindCatalog, d.Kind)
	assert.Equal(t, extra.ArchiveURL(), d.Location)
}

func TestSource_UsesCacheDirectory(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	extra, _ := c.Find("extra")

	src := extra.Source(env.Paths, shaders.WithRank(3))
	assert.Equal(t, "extra", src.Name())
	assert.Equal(t, "https://github.com/example/extra", src.URL())
	assert.Equal(t, 3, src.Options().Rank)
	require.Len(t, src.Options().Mounts, 1)
	assert.Equal(t, shaders.Mount{From: "Shaders", To: "Shaders/Extra"}, src.Options().Mounts[0])
	assert.Equal(t, record.KindCatalog, shaders.Describe(src).Kind)
}
