// cmd/reshader/commands_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (temp dirs), in-memory installer packages
// PURPOSE: Test the commands end to end through cobra, offline

package reshader

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/reshader/pkg/catalog"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	return doc
}

// installer writes the default fake setup package under a versioned name
func installer(t *testing.T, env *testutil.TestEnvironment) string {
	t.Helper()
	path := filepath.Join(env.Root, "ReShade_Setup_6.3.0_Addon.exe")
	require.NoError(t, os.WriteFile(path, testutil.DefaultInstaller(t), 0644))
	return path
}

// offlineCatalog makes the built-in required collection optional so installs
// never reach the network
func offlineCatalog(t *testing.T, env *testutil.TestEnvironment) {
	t.Helper()
	testutil.WriteTree(t, env.Paths.ConfigDir(), map[string]string{
		catalog.FileName: `collections:
  - name: standard
    repository: https://github.com/crosire/reshade-shaders
    install_path: Shaders
`,
	})
}

func offlineInstall(t *testing.T, env *testutil.TestEnvironment, extra ...string) (string, error) {
	t.Helper()
	offlineCatalog(t, env)
	args := []string{"install", "--format", "json", "--installer", installer(t, env),
		"--no-compiler", "--no-default-collections"}
	args = append(args, extra...)
	return run(t, append(args, env.GameDir)...)
}

func TestInstallStatusUninstall(t *testing.T) {
	env := testutil.NewTestEnvironment(t).WithGameFiles(map[string]string{
		"Game.exe":  "not really",
		"d3d11.dll": "system copy",
	})
	shaderDir := filepath.Join(env.Root, "mine")
	testutil.WriteTree(t, shaderDir, map[string]string{"Shaders/Mine.fx": "mine"})

	out, err := offlineInstall(t, env, "--shaders", shaderDir)
	require.NoError(t, err)

	doc := decode(t, out)
	inst := doc["installation"].(map[string]interface{})
	assert.Equal(t, "6.3.0", inst["version"])
	assert.Equal(t, "d3d10_11", inst["api"])
	assert.Equal(t, "d3d11.dll", inst["binary"])
	assert.Equal(t, float64(1), inst["shader_files"])
	assert.Equal(t, "d3d11=n,b", doc["wine_override"])

	data, err := os.ReadFile(filepath.Join(env.GameDir, "d3d11.dll"))
	require.NoError(t, err)
	assert.Equal(t, "reshade-x64-binary", string(data))
	_, err = os.Stat(filepath.Join(env.GameDir, "reshade-shaders", "Shaders", "Mine.fx"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.GameDir, "ReShade.ini"))
	require.NoError(t, err)

	out, err = run(t, "status", "--format", "json", env.GameDir)
	require.NoError(t, err)
	assert.Equal(t, "d3d11.dll", decode(t, out)["installation"].(map[string]interface{})["binary"])

	// the game's own d3d11.dll was the only evidence and is now replaced
	out, err = run(t, "detect", "--format", "json", env.GameDir)
	require.NoError(t, err)
	det := decode(t, out)
	assert.Equal(t, "d3d10_11", det["api"])
	assert.Equal(t, "previous install", det["evidence"])

	_, err = offlineInstall(t, env, "--shaders", shaderDir)
	require.NoError(t, err, "reinstalling keeps the detected API")

	out, err = run(t, "list", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "TestGame")
	assert.Contains(t, out, "6.3.0")

	out, err = run(t, "uninstall", "--format", "json", env.GameDir)
	require.NoError(t, err)
	assert.Len(t, decode(t, out)["files"], 2)

	data, err = os.ReadFile(filepath.Join(env.GameDir, "d3d11.dll"))
	require.NoError(t, err)
	assert.Equal(t, "system copy", string(data), "the game's own file comes back")
	_, err = os.Stat(filepath.Join(env.GameDir, "ReShade.ini"))
	assert.NoError(t, err, "ReShade.ini is kept")

	_, err = run(t, "status", env.GameDir)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestInstall_ZipSourceAndOverrides(t *testing.T) {
	env := testutil.NewTestEnvironment(t).WithGameFiles(map[string]string{"d3d9.dll": "x"})
	zipPath := filepath.Join(env.Root, "pack.zip")
	require.NoError(t, os.WriteFile(zipPath, testutil.BuildZip(t,
		testutil.File("Shaders/Zip.fx", "zip"),
		testutil.File("../escape.fx", "nope"),
	), 0644))

	out, err := offlineInstall(t, env,
		"--shaders", zipPath, "--arch", "x86", "--shader-dir", "fx", "--no-ini", "--flavor", "vanilla")
	require.NoError(t, err)

	inst := decode(t, out)["installation"].(map[string]interface{})
	assert.Equal(t, "d3d9", inst["api"])
	assert.Equal(t, "x86", inst["arch"])
	assert.Equal(t, "vanilla", inst["flavor"])
	assert.Equal(t, "fx", inst["shader_dir"])

	data, err := os.ReadFile(filepath.Join(env.GameDir, "d3d9.dll"))
	require.NoError(t, err)
	assert.Equal(t, "reshade-x86-binary", string(data))
	_, err = os.Stat(filepath.Join(env.GameDir, "fx", "Shaders", "Zip.fx"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.GameDir, "ReShade.ini"))
	assert.True(t, os.IsNotExist(err))
}

func TestInstall_APIOverride(t *testing.T) {
	env := testutil.NewTestEnvironment(t)

	out, err := offlineInstall(t, env, "--api", "opengl")
	require.NoError(t, err)
	assert.Equal(t, "opengl32.dll", decode(t, out)["installation"].(map[string]interface{})["binary"])
}

func TestInstall_Errors(t *testing.T) {
	t.Run("unknown API without a terminal", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t)
		_, err := offlineInstall(t, env)
		assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupportedAPI))
	})

	t.Run("invalid api flag", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t)
		_, err := offlineInstall(t, env, "--api", "glide")
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})

	t.Run("unknown collection", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t)
		_, err := offlineInstall(t, env, "--collection", "nope")
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("missing shader source", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t).WithGameFiles(map[string]string{"d3d9.dll": "x"})
		_, err := offlineInstall(t, env, "--shaders", filepath.Join(env.Root, "missing"))
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("corrupt installer", func(t *testing.T) {
		env := testutil.NewTestEnvironment(t).WithGameFiles(map[string]string{"d3d9.dll": "x"})
		bad := filepath.Join(env.Root, "bad.exe")
		require.NoError(t, os.WriteFile(bad, []byte("MZ not a zip"), 0644))
		offlineCatalog(t, env)
		_, err := run(t, "install", "--installer", bad, "--no-compiler", "--no-default-collections", env.GameDir)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCorruptArchive))
	})
}

func TestDetect(t *testing.T) {
	env := testutil.NewTestEnvironment(t).WithGameFiles(map[string]string{"d3d9.dll": "x"})

	out, err := run(t, "detect", "--format", "json", env.GameDir)
	require.NoError(t, err)
	doc := decode(t, out)
	assert.Equal(t, "d3d9", doc["api"])
	assert.Equal(t, "d3d9.dll", doc["evidence"])
	assert.Equal(t, "d3d9.dll", doc["binary"])
	assert.Equal(t, "x64", doc["arch"])

	_, err = run(t, "detect", filepath.Join(env.Root, "nowhere"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestCatalog(t *testing.T) {
	testutil.NewTestEnvironment(t)

	out, err := run(t, "catalog", "--format", "json")
	require.NoError(t, err)
	cols := decode(t, out)["collections"].([]interface{})
	require.NotEmpty(t, cols)
	assert.Equal(t, "standard", cols[0].(map[string]interface{})["name"])
}

func TestGuide(t *testing.T) {
	testutil.NewTestEnvironment(t)

	out, err := run(t, "guide")
	require.NoError(t, err)
	assert.Contains(t, out, "WINEDLLOVERRIDES")

	out, err = run(t, "guide", "wine")
	require.NoError(t, err)
	assert.Contains(t, out, "Proton")

	_, err = run(t, "guide", "nope")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	out, err = run(t, "help", "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "shaders")
	assert.Contains(t, out, "--api")
}

func TestMiscCommands(t *testing.T) {
	testutil.NewTestEnvironment(t)

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reshader version dev")

	out, err = run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "reshader")

	_, err = run(t, "completion", "tcsh")
	assert.Error(t, err)

	dir := filepath.Join(t.TempDir(), "man")
	_, err = run(t, "man", "--dir", dir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "reshader-install.1"))
	assert.NoError(t, err)

	_, err = run(t)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestIsGitURL(t *testing.T) {
	tests := []struct {
		spec     string
		expected bool
	}{
		{"https://github.com/crosire/reshade-shaders", true},
		{"https://github.com/crosire/reshade-shaders#slim", true},
		{"git@github.com:user/shaders.git", true},
		{"/srv/mirror/shaders.git", true},
		{"~/shaders", false},
		{"pack.zip", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.expected, isGitURL(tt.spec))
		})
	}
}

func TestInstallerVersionFromName(t *testing.T) {
	assert.Equal(t, "6.3.0", installerVersion.FindString("ReShade_Setup_6.3.0_Addon.exe"))
	assert.Equal(t, "", installerVersion.FindString("setup.exe"))
}
