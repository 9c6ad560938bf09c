package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoimport/internal/project"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, project.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 10, cfg.Build.MaxAttempts)
	assert.Equal(t, "--error-format=json", cfg.Build.FormatFlag)
	assert.Equal(t, "--error-format=", cfg.Build.FormatFlagPrefix)
	assert.Equal(t, "autoimport::magic", cfg.Marker.Path)
	assert.Equal(t, 256, cfg.Diagnostics.CacheSize)
	assert.Zero(t, cfg.Disambiguate.Seed)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	loaded, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Empty(t, loaded.File)
	assert.Equal(t, dir, loaded.Root)
	assert.Equal(t, Default().Build, loaded.Build)
	assert.Equal(t, Default().Units, loaded.Units)
	assert.Equal(t, Default().Diagnostics, loaded.Diagnostics)
}

func TestLoadMergesFileWithDefaults(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `
[build]
max_attempts = 4
write_back = true

[units]
include = ["crates/**/*.rs"]

[disambiguate]
prefer = ["my::Range"]
seed = 9
`)
	nested := filepath.Join(root, "crates", "a")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	loaded, err := LoadFromDir(nested)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.File)
	assert.Equal(t, root, loaded.Root)

	assert.Equal(t, 4, loaded.Build.MaxAttempts)
	assert.True(t, loaded.Build.WriteBack)
	assert.Equal(t, []string{"crates/**/*.rs"}, loaded.Units.Include)
	assert.Equal(t, []string{"my::Range"}, loaded.Disambiguate.Prefer)
	assert.Equal(t, uint64(9), loaded.Disambiguate.Seed)
	// untouched keys keep their defaults
	assert.Equal(t, "autoimport::magic", loaded.Marker.Path)
	assert.Equal(t, 256, loaded.Diagnostics.CacheSize)
}

func TestEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[build]\nmax_attempts = 4\n")
	t.Setenv("AUTOIMPORT_BUILD_MAX_ATTEMPTS", "2")
	t.Setenv("AUTOIMPORT_MARKER_PATH", "fixme::here")

	loaded, err := LoadFromDir(root)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Build.MaxAttempts)
	assert.Equal(t, "fixme::here", loaded.Marker.Path)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[build\nmax_attempts = ")
	_, err := LoadFromDir(root)
	require.Error(t, err)
}

func TestLoadRejectsRaisedCap(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[build]\nmax_attempts = 11\n")
	_, err := LoadFromDir(root)
	require.ErrorIs(t, err, ErrInvalidAttempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero attempts", func(c *Config) { c.Build.MaxAttempts = 0 }, ErrInvalidAttempts},
		{"too many attempts", func(c *Config) { c.Build.MaxAttempts = 11 }, ErrInvalidAttempts},
		{"negative jobs", func(c *Config) { c.Build.Jobs = -1 }, ErrInvalidJobs},
		{"empty marker", func(c *Config) { c.Marker.Path = "  " }, ErrEmptyMarker},
		{"zero cache", func(c *Config) { c.Diagnostics.CacheSize = 0 }, ErrInvalidCacheSize},
		{"flag without prefix", func(c *Config) { c.Build.FormatFlag = "--json" }, ErrInvalidFormatFlag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Build.MaxAttempts = 0
	cfg.Build.Jobs = -3
	cfg.Diagnostics.CacheSize = -1

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrInvalidAttempts)
	require.ErrorIs(t, err, ErrInvalidJobs)
	require.ErrorIs(t, err, ErrInvalidCacheSize)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, project.ConfigFileName), path)

	loaded, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.File)
	assert.Equal(t, Default().Build, loaded.Build)
	assert.Equal(t, Default().Marker, loaded.Marker)
	assert.Equal(t, Default().Units, loaded.Units)

	_, err = WriteDefault(dir)
	require.ErrorIs(t, err, ErrConfigExists)
}
