package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/taglog/internal/manifest"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.PackageFile), []byte(content), 0o644))
}

func TestRunManifestShow(t *testing.T) {
	tests := map[string]struct {
		content  string
		useArg   bool
		want     string
		wantCode int
	}{
		"from manifest_path": {
			content: `{"name":"demo","version":"1.0.0"}`,
			want:    "demo@1.0.0\n",
		},
		"explicit path": {
			content: `{"name":"demo","version":"v2.0.0"}`,
			useArg:  true,
			want:    "demo@2.0.0\n",
		},
		"missing version": {
			content: `{"name":"demo"}`,
			want:    "demo@" + manifest.DefaultVersion + "\n",
		},
		"invalid json": {
			content:  `{"name":`,
			wantCode: ExitFailure,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)

			cfg := testConfig(dir)
			var args []string
			if tt.useArg {
				cfg.ManifestPath = t.TempDir()
				args = []string{filepath.Join(dir, manifest.PackageFile)}
			}

			cmd, stdout, _ := testCmd()
			err := runManifestShow(cmd, cfg, args)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, ExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestRunManifestShow_NotFound(t *testing.T) {
	cmd, _, _ := testCmd()
	err := runManifestShow(cmd, testConfig(t.TempDir()), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package.json not found")
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
}

func TestRunManifestSet(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name":"demo","version":"1.0.0","private":true}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.BowerFile), []byte(`{"name":"demo","version":"1.0.0"}`), 0o644))

	cmd, stdout, _ := testCmd()
	require.NoError(t, runManifestSet(cmd, testConfig(dir), "v1.2.0", nil))
	assert.Equal(t, "demo@1.2.0\n", stdout.String())

	pkg, err := os.ReadFile(filepath.Join(dir, manifest.PackageFile))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"demo\",\n  \"version\": \"1.2.0\",\n  \"private\": true\n}\n", string(pkg))

	bower, err := os.ReadFile(filepath.Join(dir, manifest.BowerFile))
	require.NoError(t, err)
	assert.Contains(t, string(bower), `"version": "1.2.0"`)

	assert.NoFileExists(t, filepath.Join(dir, manifest.BlipFile))
}

func TestRunManifestSet_UpdatesBlip(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name":"demo","version":"1.0.0","optionalDependencies":{"sl-blip":"*"}}`)

	cmd, _, _ := testCmd()
	require.NoError(t, runManifestSet(cmd, testConfig(dir), "1.0.1", []string{dir}))

	m, err := manifest.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", m.Version())
	assert.Empty(t, m.OptionalDep(manifest.BlipDependency))
	assert.Equal(t, manifest.BlipScript, m.Script("preinstall"))
	assert.FileExists(t, filepath.Join(dir, manifest.BlipFile))
}

func TestRunManifestSet_NoBlipSlot(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name":"demo","optionalDependencies":{"sl-blip":"*"},`+
		`"scripts":{"preinstall":"a","postinstall":"b","install":"c"}}`)

	cmd, _, _ := testCmd()
	err := runManifestSet(cmd, testConfig(dir), "1.0.1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, manifest.ErrNoBlipSlot)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestRunManifestSet_BlankVersion(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name":"demo","version":"1.0.0"}`)

	cmd, _, _ := testCmd()
	err := runManifestSet(cmd, testConfig(dir), "  ", nil)
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
}
