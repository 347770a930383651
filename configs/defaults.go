// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"codeberg.org/openkick/localize/core/interp"
	"codeberg.org/openkick/localize/core/loader"
)

// SetDefaults populates the configuration with default values.
func (cfg *Config) SetDefaults() {
	cfg.Localization.BaseLanguage = loader.DefaultBaseLanguage
	cfg.Localization.Language = loader.DefaultBaseLanguage
	cfg.Localization.AllowedNamespaces = nil // loader falls back to the built-in allow-list

	cfg.Remote.BaseLocation = ""
	cfg.Remote.TTL = loader.DefaultRemoteTTL

	cfg.Cache.InterpolationSize = interp.DefaultCacheSize
	cfg.Cache.Compression = false

	cfg.Sanitize.EscapeHTML = false

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
}
