// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package config loads the localization engine's configuration from defaults,
an optional YAML file, and OPENKICK_* environment variables, in that order of
increasing precedence.
*/
package config

import (
	"time"

	"codeberg.org/openkick/localize/core/audit"
	"codeberg.org/openkick/localize/core/loader"
	"codeberg.org/openkick/localize/core/sanitize"
)

// Config holds the engine configuration for hosts and the cmd tools.
type Config struct {
	Localization struct {
		BaseLanguage      string   `env:"OPENKICK_BASE_LANGUAGE,overwrite"      yaml:"baseLanguage"`
		Language          string   `env:"OPENKICK_LANGUAGE,overwrite"           yaml:"language"`
		AllowedNamespaces []string `env:"OPENKICK_ALLOWED_NAMESPACES,overwrite" yaml:"allowedNamespaces"`
	} `yaml:"localization"`

	Remote struct {
		BaseLocation string        `env:"OPENKICK_REMOTE_BASE_LOCATION,overwrite" yaml:"baseLocation"`
		TTL          time.Duration `env:"OPENKICK_REMOTE_TTL,overwrite"           yaml:"ttl"`
	} `yaml:"remote"`

	Cache struct {
		InterpolationSize int  `env:"OPENKICK_INTERPOLATION_CACHE_SIZE,overwrite" yaml:"interpolationSize"`
		Compression       bool `env:"OPENKICK_CACHE_COMPRESSION,overwrite"        yaml:"compression"`
	} `yaml:"cache"`

	Sanitize struct {
		// EscapeHTML switches the sanitizer from stripping tags to escaping them.
		EscapeHTML bool `env:"OPENKICK_SANITIZE_ESCAPE_HTML,overwrite" yaml:"escapeHtml"`
	} `yaml:"sanitize"`

	Log struct {
		Level  string `env:"OPENKICK_LOG_LEVEL,overwrite"  yaml:"logLevel"`
		Format string `env:"OPENKICK_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`
}

// Load builds a Config from defaults, the YAML file at configFilePath when
// one is given, and the environment.
func Load(configFilePath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if err := cfg.readYAML(configFilePath); err != nil {
		return nil, err
	}

	if err := readEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetupLogging applies the configured log level and format.
func (cfg *Config) SetupLogging() {
	audit.Setup(cfg.Log.Level, cfg.Log.Format)
}

// LoaderOptions converts the configuration into loader options. Storage and
// Fetcher stay at the loader's defaults unless the host overrides them.
func (cfg *Config) LoaderOptions() loader.Options {
	mode := sanitize.ModeStrip
	if cfg.Sanitize.EscapeHTML {
		mode = sanitize.ModeEscape
	}

	return loader.Options{
		Language:               cfg.Localization.Language,
		BaseLanguage:           cfg.Localization.BaseLanguage,
		RemoteBaseLocation:     cfg.Remote.BaseLocation,
		RemoteTTL:              cfg.Remote.TTL,
		AllowedNamespaces:      cfg.Localization.AllowedNamespaces,
		InterpolationCacheSize: cfg.Cache.InterpolationSize,
		SanitizeMode:           mode,
	}
}
