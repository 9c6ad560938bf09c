// Package config loads autoimport.toml and AUTOIMPORT_* overrides.
package config

import (
	"autoimport/internal/driver"
	"autoimport/internal/inject"
	"autoimport/internal/relay"
)

// Config is the full project configuration.
type Config struct {
	Build        BuildConfig        `mapstructure:"build" toml:"build"`
	Marker       MarkerConfig       `mapstructure:"marker" toml:"marker"`
	Units        UnitsConfig        `mapstructure:"units" toml:"units"`
	Disambiguate DisambiguateConfig `mapstructure:"disambiguate" toml:"disambiguate"`
	Diagnostics  DiagnosticsConfig  `mapstructure:"diagnostics" toml:"diagnostics"`
}

// BuildConfig controls the fix loop and the wrapped compiler.
type BuildConfig struct {
	// MaxAttempts may lower the attempt cap but never raise it.
	MaxAttempts      int    `mapstructure:"max_attempts" toml:"max_attempts"`
	FormatFlag       string `mapstructure:"format_flag" toml:"format_flag"`
	FormatFlagPrefix string `mapstructure:"format_flag_prefix" toml:"format_flag_prefix"`
	// EnvFile is a dotenv file merged into the compiler environment.
	EnvFile   string `mapstructure:"env_file" toml:"env_file"`
	WriteBack bool   `mapstructure:"write_back" toml:"write_back"`
	// Jobs bounds patch preparation; 0 means GOMAXPROCS.
	Jobs int `mapstructure:"jobs" toml:"jobs"`
}

type MarkerConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// UnitsConfig lists glob patterns used when no --unit flag is given.
type UnitsConfig struct {
	Include []string `mapstructure:"include" toml:"include"`
}

type DisambiguateConfig struct {
	// Prefer extends the built-in preference table.
	Prefer []string `mapstructure:"prefer" toml:"prefer"`
	// Seed fixes the tie breaker; 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed" toml:"seed"`
}

type DiagnosticsConfig struct {
	CacheSize int `mapstructure:"cache_size" toml:"cache_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			MaxAttempts:      int(driver.MaxAttempts),
			FormatFlag:       relay.DefaultFormatFlag,
			FormatFlagPrefix: relay.DefaultFormatFlagPrefix,
		},
		Marker: MarkerConfig{Path: inject.DefaultMarker},
		Units: UnitsConfig{
			Include: []string{"**/*.rs"},
		},
		Disambiguate: DisambiguateConfig{
			Prefer: []string{},
		},
		Diagnostics: DiagnosticsConfig{CacheSize: 256},
	}
}
