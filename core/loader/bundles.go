// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package loader

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"codeberg.org/openkick/localize/core/tree"
)

// RegisterBundle installs the shipped translation tree for one language.
// Bundles are trusted baseline content and are not sanitized or
// namespace-filtered. Registering the same language again replaces the
// previous bundle.
func (l *Loader) RegisterBundle(lang string, t tree.Tree) error {
	canonical, err := canonicalLanguage(lang)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.bundles[canonical] = t
	l.mu.Unlock()

	l.logger.Info().
		Str("language", canonical).
		Int("leaves", t.LeafCount()).
		Msg("Registered bundle")

	return nil
}

// RegisterBundleYAML decodes a YAML catalog into a tree and registers it as
// the bundle for lang. The expected layout is nested mappings with string
// leaves, the same shape bundles ship in under data/locales/<lang>.yaml.
func (l *Loader) RegisterBundleYAML(lang string, data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding bundle catalog for %s: %w", lang, err)
	}

	return l.RegisterBundle(lang, tree.FromMap(raw))
}

// bundle returns the registered bundle for lang.
func (l *Loader) bundle(lang string) (tree.Tree, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.bundles[lang]

	return t, ok
}
