package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"autoimport/internal/project"
)

// EnvPrefix prefixes every environment override (AUTOIMPORT_BUILD_MAX_ATTEMPTS).
const EnvPrefix = "AUTOIMPORT"

// keys bound to environment variables.
var envKeys = []string{
	"build.max_attempts",
	"build.format_flag",
	"build.format_flag_prefix",
	"build.env_file",
	"build.write_back",
	"build.jobs",
	"marker.path",
	"units.include",
	"disambiguate.prefer",
	"disambiguate.seed",
	"diagnostics.cache_size",
}

// Loaded is a validated configuration together with where it came from.
type Loaded struct {
	*Config
	// File is the config file that was read, empty when only defaults and
	// environment were used.
	File string
	// Root is the directory holding File, or the start directory.
	Root string
}

// Loader provides configuration loading.
type Loader interface {
	// Load applies defaults, then the config file, then AUTOIMPORT_* variables.
	Load() (*Loaded, error)
}

type loader struct {
	startDir string
}

// NewLoader returns a loader that searches for autoimport.toml upward from startDir.
func NewLoader(startDir string) Loader {
	return &loader{startDir: startDir}
}

func (l *loader) Load() (*Loaded, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	out := &Loaded{Root: l.startDir}
	path, ok, err := project.FindConfig(l.startDir)
	if err != nil {
		return nil, err
	}
	if ok {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		out.File = path
		out.Root = filepath.Dir(path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		if out.File != "" {
			return nil, fmt.Errorf("invalid configuration in %s: %w", out.File, err)
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	out.Config = cfg
	return out, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("build.max_attempts", d.Build.MaxAttempts)
	v.SetDefault("build.format_flag", d.Build.FormatFlag)
	v.SetDefault("build.format_flag_prefix", d.Build.FormatFlagPrefix)
	v.SetDefault("build.env_file", d.Build.EnvFile)
	v.SetDefault("build.write_back", d.Build.WriteBack)
	v.SetDefault("build.jobs", d.Build.Jobs)

	v.SetDefault("marker.path", d.Marker.Path)

	v.SetDefault("units.include", d.Units.Include)

	v.SetDefault("disambiguate.prefer", d.Disambiguate.Prefer)
	v.SetDefault("disambiguate.seed", d.Disambiguate.Seed)

	v.SetDefault("diagnostics.cache_size", d.Diagnostics.CacheSize)
}

// Load loads configuration starting from the working directory.
func Load() (*Loaded, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadFromDir loads configuration starting from dir.
func LoadFromDir(dir string) (*Loaded, error) {
	return NewLoader(dir).Load()
}
