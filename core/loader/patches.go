// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"codeberg.org/openkick/localize/core/patch"
	"codeberg.org/openkick/localize/core/tree"
)

// ApplyUniversalPatch validates doc and persists it into the single
// universal-patch slot. On validation failure nothing is persisted and the
// result carries the errors; the error return is reserved for storage
// failures. The previous universal patch, if any, is replaced.
func (l *Loader) ApplyUniversalPatch(ctx context.Context, doc *patch.Document) (patch.Result, error) {
	res := l.validator.Validate(doc)
	if !res.Valid {
		l.logger.Info().
			Int("errors", len(res.Errors)).
			Msg("Rejected universal patch")

		return res, nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return res, fmt.Errorf("encoding universal patch: %w", err)
	}

	if err := l.storage.Set(ctx, keyUniversalPatch, string(data)); err != nil {
		return res, fmt.Errorf("persisting universal patch: %w", err)
	}

	l.interp.InvalidateCache()

	l.logger.Info().
		Str("name", doc.Metadata.Name).
		Str("version", doc.Metadata.Version).
		Msg("Applied universal patch")

	return res, nil
}

// ApplyLanguagePatch wraps a bare tree into a minimal patch document for
// lang, validates it, and persists it into the per-language patch slot.
// Semantics otherwise match [Loader.ApplyUniversalPatch].
func (l *Loader) ApplyLanguagePatch(ctx context.Context, lang string, t tree.Tree) (patch.Result, error) {
	canonical, err := canonicalLanguage(lang)
	if err != nil {
		return patch.Result{
			Errors: []patch.Error{{
				Path:    "languages." + lang,
				Message: err.Error(),
				Code:    patch.CodeInvalidMetadata,
			}},
		}, nil
	}

	doc := patch.WrapTree("language patch: "+canonical, canonical, t)

	res := l.validator.Validate(doc)
	if !res.Valid {
		l.logger.Info().
			Str("language", canonical).
			Int("errors", len(res.Errors)).
			Msg("Rejected language patch")

		return res, nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return res, fmt.Errorf("encoding language patch: %w", err)
	}

	if err := l.storage.Set(ctx, languagePatchKey(canonical), string(data)); err != nil {
		return res, fmt.Errorf("persisting language patch: %w", err)
	}

	l.interp.InvalidateCache()

	l.logger.Info().
		Str("language", canonical).
		Msg("Applied language patch")

	return res, nil
}

// ClearPatches removes the universal patch and the active language's patch.
// The two removes are separate writes; a failure in between leaves the
// language patch in place, which the error surfaces.
func (l *Loader) ClearPatches(ctx context.Context) error {
	if err := l.storage.Remove(ctx, keyUniversalPatch); err != nil {
		return fmt.Errorf("removing universal patch: %w", err)
	}

	if err := l.storage.Remove(ctx, languagePatchKey(l.Language())); err != nil {
		return fmt.Errorf("removing language patch: %w", err)
	}

	l.interp.InvalidateCache()

	return nil
}

// loadUniversalPatch resolves layers 4a and 4b: the universal document's
// universal section, then its section for the active language. An invalid or
// unparsable document is skipped whole; patches apply atomically or not at
// all.
func (l *Loader) loadUniversalPatch(ctx context.Context, lang string) []layer {
	raw, ok, err := l.storage.Get(ctx, keyUniversalPatch)
	if err != nil || !ok {
		if err != nil {
			l.logger.Warn().Err(err).Msg("Reading universal patch failed")
		}

		return nil
	}

	doc, err := patch.ParseDocument([]byte(raw))
	if err != nil {
		l.logger.Warn().Err(err).Msg("Persisted universal patch is malformed; skipping")

		return nil
	}

	res := l.validator.Validate(doc)
	if !res.Valid {
		l.logger.Warn().
			Int("errors", len(res.Errors)).
			Msg("Persisted universal patch no longer validates; skipping")

		return nil
	}

	var layers []layer

	if cleaned, ok := l.cleanPatchTree(doc.Universal); ok {
		layers = append(layers, layer{
			tree: cleaned,
			source: Source{
				Origin:  OriginPatch,
				Name:    doc.Metadata.Name,
				Version: doc.Metadata.Version,
			},
		})
	}

	if cleaned, ok := l.cleanPatchTree(languageSection(doc, lang)); ok {
		layers = append(layers, layer{
			tree: cleaned,
			source: Source{
				Origin:  OriginPatch,
				Name:    doc.Metadata.Name + " (" + lang + ")",
				Version: doc.Metadata.Version,
			},
		})
	}

	return layers
}

// languageSection returns the document's tree for lang, matching keys by
// their canonical form so an author who writes "pt-br" still addresses the
// active "pt-BR".
func languageSection(doc *patch.Document, lang string) tree.Tree {
	if t, ok := doc.Languages[lang]; ok {
		return t
	}

	for key, t := range doc.Languages {
		if canonical, err := canonicalLanguage(key); err == nil && canonical == lang {
			return t
		}
	}

	return nil
}

// loadLanguagePatch resolves layer 5, the standalone per-language patch.
func (l *Loader) loadLanguagePatch(ctx context.Context, lang string) (tree.Tree, *Source, bool) {
	raw, ok, err := l.storage.Get(ctx, languagePatchKey(lang))
	if err != nil || !ok {
		if err != nil {
			l.logger.Warn().Err(err).Str("language", lang).Msg("Reading language patch failed")
		}

		return nil, nil, false
	}

	doc, err := patch.ParseDocument([]byte(raw))
	if err != nil {
		l.logger.Warn().Err(err).Str("language", lang).Msg("Persisted language patch is malformed; skipping")

		return nil, nil, false
	}

	res := l.validator.Validate(doc)
	if !res.Valid {
		l.logger.Warn().
			Str("language", lang).
			Int("errors", len(res.Errors)).
			Msg("Persisted language patch no longer validates; skipping")

		return nil, nil, false
	}

	cleaned, ok := l.cleanPatchTree(languageSection(doc, lang))
	if !ok {
		return nil, nil, false
	}

	return cleaned, &Source{
		Origin:  OriginPatch,
		Name:    doc.Metadata.Name,
		Version: doc.Metadata.Version,
	}, true
}

// cleanPatchTree sanitizes and namespace-filters one patch sub-tree.
func (l *Loader) cleanPatchTree(t tree.Tree) (tree.Tree, bool) {
	if t.IsEmpty() {
		return nil, false
	}

	cleaned, ok := l.sanitizer.SanitizeTree(t)
	if !ok {
		return nil, false
	}

	cleaned = l.sanitizer.FilterNamespaces(cleaned)
	if cleaned.IsEmpty() {
		return nil, false
	}

	return cleaned, true
}
