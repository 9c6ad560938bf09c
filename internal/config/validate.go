package config

import (
	"errors"
	"fmt"
	"strings"

	"autoimport/internal/driver"
)

var (
	// ErrInvalidAttempts indicates max_attempts outside 1..MaxAttempts.
	ErrInvalidAttempts = errors.New("invalid max_attempts")

	// ErrInvalidJobs indicates a negative job count.
	ErrInvalidJobs = errors.New("invalid jobs")

	// ErrInvalidCacheSize indicates a non-positive diagnostic cache size.
	ErrInvalidCacheSize = errors.New("invalid diagnostics cache size")

	// ErrEmptyMarker indicates a missing marker path.
	ErrEmptyMarker = errors.New("empty marker path")

	// ErrInvalidFormatFlag indicates a format flag that does not start with its prefix.
	ErrInvalidFormatFlag = errors.New("invalid format flag")
)

// Validate checks that the configuration is usable. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Build.MaxAttempts < 1 || cfg.Build.MaxAttempts > int(driver.MaxAttempts) {
		errs = append(errs, fmt.Errorf("%w: must be between 1 and %d, got %d",
			ErrInvalidAttempts, driver.MaxAttempts, cfg.Build.MaxAttempts))
	}
	if cfg.Build.Jobs < 0 {
		errs = append(errs, fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidJobs, cfg.Build.Jobs))
	}
	if cfg.Build.FormatFlagPrefix != "" && !strings.HasPrefix(cfg.Build.FormatFlag, cfg.Build.FormatFlagPrefix) {
		errs = append(errs, fmt.Errorf("%w: %q does not start with %q",
			ErrInvalidFormatFlag, cfg.Build.FormatFlag, cfg.Build.FormatFlagPrefix))
	}
	if strings.TrimSpace(cfg.Marker.Path) == "" {
		errs = append(errs, ErrEmptyMarker)
	}
	if cfg.Diagnostics.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be > 0, got %d", ErrInvalidCacheSize, cfg.Diagnostics.CacheSize))
	}

	return errors.Join(errs...)
}
