// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

var (
	errNegativeTTL      = errors.New("remote TTL must not be negative")
	errInvalidCacheSize = errors.New("interpolation cache size must be positive")
	errInvalidLogLevel  = errors.New("invalid log level")
	errInvalidLogFormat = errors.New("invalid log format")
)

// Validate checks the configuration for values the engine cannot run with.
func (cfg *Config) Validate() error {
	if _, err := language.Parse(cfg.Localization.BaseLanguage); err != nil {
		return fmt.Errorf("invalid base language %q: %w", cfg.Localization.BaseLanguage, err)
	}

	if _, err := language.Parse(cfg.Localization.Language); err != nil {
		return fmt.Errorf("invalid language %q: %w", cfg.Localization.Language, err)
	}

	if cfg.Remote.TTL < 0 {
		return fmt.Errorf("%w: %s", errNegativeTTL, cfg.Remote.TTL)
	}

	if cfg.Cache.InterpolationSize <= 0 {
		return fmt.Errorf("%w: %d", errInvalidCacheSize, cfg.Cache.InterpolationSize)
	}

	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}
