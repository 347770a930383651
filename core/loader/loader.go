// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"codeberg.org/openkick/localize/core/interp"
	"codeberg.org/openkick/localize/core/patch"
	"codeberg.org/openkick/localize/core/sanitize"
	"codeberg.org/openkick/localize/core/tree"
)

// DefaultRemoteTTL bounds reuse of a persisted remote-content snapshot.
const DefaultRemoteTTL = 24 * time.Hour

// DefaultBaseLanguage is assumed when no base language is configured.
const DefaultBaseLanguage = "en"

var errInvalidLanguage = errors.New("invalid language code")

// Origin identifies the kind of layer a source contributed.
type Origin string

// Layer origins, in ascending default priority.
const (
	OriginBundle Origin = "bundle"
	OriginRemote Origin = "remote"
	OriginPatch  Origin = "patch"
)

// Source describes one layer that contributed to a merged tree.
type Source struct {
	Origin   Origin    `json:"origin"`
	Name     string    `json:"name"`
	Priority int       `json:"priority"`
	Time     time.Time `json:"timestamp,omitempty"`
	Version  string    `json:"version,omitempty"`
}

// Result is the outcome of one load: the merged tree plus the layers that
// produced it. The tree is derived state owned by the loader; treat it as
// read-only.
type Result struct {
	Data     tree.Tree `json:"data"`
	Sources  []Source  `json:"sources"`
	Language string    `json:"language"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Options configures a [Loader].
type Options struct {
	// Language is the active target language. Defaults to BaseLanguage.
	Language string

	// BaseLanguage is the always-loaded fallback language. Defaults to "en".
	BaseLanguage string

	// RemoteBaseLocation enables the remote layer when non-empty; content is
	// fetched from {RemoteBaseLocation}/{language}/content.json.
	RemoteBaseLocation string

	// RemoteTTL bounds snapshot reuse. 0 means DefaultRemoteTTL.
	RemoteTTL time.Duration

	// Storage persists patches and remote snapshots. Defaults to an
	// in-process MemoryStorage.
	Storage Storage

	// Fetcher retrieves remote content. Defaults to an HTTPFetcher.
	Fetcher Fetcher

	// AllowedNamespaces overrides the patchable-namespace allow-list.
	AllowedNamespaces []string

	// InterpolationCacheSize bounds the resolved-string cache.
	InterpolationCacheSize int

	// SanitizeMode selects tag stripping (default) or escaping.
	SanitizeMode sanitize.Mode
}

// Loader resolves layered translations for one active language. Construct
// with [New]; the zero value is not ready for use.
type Loader struct {
	baseLanguage string
	remoteBase   string
	remoteTTL    time.Duration
	storage      Storage
	fetcher      Fetcher
	validator    *patch.Validator
	sanitizer    *sanitize.Sanitizer
	interp       *interp.Interpolator
	logger       zerolog.Logger

	mu       sync.RWMutex
	language string
	bundles  map[string]tree.Tree
	current  tree.Tree

	// loads collapses concurrent LoadTranslations calls for the same
	// language into one in-flight resolution.
	loads singleflight.Group
}

// New constructs a Loader. It returns an error only for unusable language
// codes; every other option has a working default.
func New(opts Options) (*Loader, error) {
	base := opts.BaseLanguage
	if base == "" {
		base = DefaultBaseLanguage
	}

	baseCanonical, err := canonicalLanguage(base)
	if err != nil {
		return nil, fmt.Errorf("base language: %w", err)
	}

	lang := baseCanonical

	if opts.Language != "" {
		lang, err = canonicalLanguage(opts.Language)
		if err != nil {
			return nil, fmt.Errorf("language: %w", err)
		}
	}

	storage := opts.Storage
	if storage == nil {
		storage = NewMemoryStorage()
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}

	validator := patch.NewValidator(patch.ValidatorOptions{
		AllowedNamespaces: opts.AllowedNamespaces,
	})

	sanitizer := sanitize.New(sanitize.Options{
		Mode:              opts.SanitizeMode,
		AllowedNamespaces: validator.AllowedNamespaces(),
	})

	ttl := opts.RemoteTTL
	if ttl <= 0 {
		ttl = DefaultRemoteTTL
	}

	return &Loader{
		baseLanguage: baseCanonical,
		remoteBase:   opts.RemoteBaseLocation,
		remoteTTL:    ttl,
		storage:      storage,
		fetcher:      fetcher,
		validator:    validator,
		sanitizer:    sanitizer,
		interp:       interp.New(interp.Options{CacheSize: opts.InterpolationCacheSize}),
		logger:       log.With().Str("sys", "loader").Logger(),
		language:     lang,
		bundles:      make(map[string]tree.Tree),
	}, nil
}

// canonicalLanguage normalises a language code to its canonical BCP 47 string.
func canonicalLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errInvalidLanguage, code)
	}

	return tag.String(), nil
}

// Language returns the active target language.
func (l *Loader) Language() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.language
}

// SetLanguage switches the active target language. The merged tree is stale
// afterwards until the next LoadTranslations call.
func (l *Loader) SetLanguage(code string) error {
	canonical, err := canonicalLanguage(code)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.language = canonical
	l.mu.Unlock()

	l.interp.InvalidateCache()

	return nil
}

// LoadTranslations resolves every available layer for the active language
// and returns the merged tree together with the sources that produced it.
//
// Concurrent calls for the same language share one in-flight load. A missing
// optional layer never fails the load; the error return is reserved for
// context cancellation.
func (l *Loader) LoadTranslations(ctx context.Context) (*Result, error) {
	lang := l.Language()

	value, err, _ := l.loads.Do(lang, func() (any, error) {
		return l.load(ctx, lang)
	})
	if err != nil {
		return nil, err
	}

	return value.(*Result), nil
}

// layer is one resolved content layer awaiting merge.
type layer struct {
	tree   tree.Tree
	source Source
}

func (l *Loader) load(ctx context.Context, lang string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var layers []layer

	// Layer 1: base-language bundle, always attempted first.
	if base, ok := l.bundle(l.baseLanguage); ok {
		layers = append(layers, layer{
			tree:   base,
			source: Source{Origin: OriginBundle, Name: l.baseLanguage},
		})
	} else {
		l.logger.Warn().
			Str("language", l.baseLanguage).
			Msg("No base-language bundle registered")
	}

	// Layer 2: target-language bundle, skipped when it equals the base.
	if lang != l.baseLanguage {
		if target, ok := l.bundle(lang); ok {
			layers = append(layers, layer{
				tree:   target,
				source: Source{Origin: OriginBundle, Name: lang},
			})
		} else {
			l.logger.Warn().
				Str("language", lang).
				Msg("No bundle registered for target language")
		}
	}

	// Layer 3: remote content, only when a base location is configured.
	if l.remoteBase != "" {
		if remote, src, ok := l.loadRemote(ctx, lang); ok {
			layers = append(layers, layer{tree: remote, source: *src})
		}
	}

	// Layers 4 and 5: universal patch document, then the standalone
	// language-specific patch.
	layers = append(layers, l.loadUniversalPatch(ctx, lang)...)

	if langPatch, src, ok := l.loadLanguagePatch(ctx, lang); ok {
		layers = append(layers, layer{tree: langPatch, source: *src})
	}

	merged := tree.Tree{}
	sources := make([]Source, 0, len(layers))

	for i, lay := range layers {
		merged = tree.Merge(merged, lay.tree)

		lay.source.Priority = i
		sources = append(sources, lay.source)
	}

	l.mu.Lock()
	l.current = merged
	l.mu.Unlock()

	// Cached interpolations may embed reference-resolved text from the
	// previous tree.
	l.interp.InvalidateCache()

	l.logger.Debug().
		Str("language", lang).
		Int("layers", len(layers)).
		Int("leaves", merged.LeafCount()).
		Msg("Loaded translations")

	return &Result{
		Data:     merged,
		Sources:  sources,
		Language: lang,
		LoadedAt: time.Now(),
	}, nil
}

// HasTranslation reports whether the dotted key resolves to a leaf in the
// most recently merged tree.
func (l *Loader) HasTranslation(dottedKey string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := tree.GetString(l.current, dottedKey)

	return ok
}

// Translate returns the leaf text at the dotted key in the most recently
// merged tree.
func (l *Loader) Translate(dottedKey string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return tree.GetString(l.current, dottedKey)
}

// Interpolate resolves a template against the most recently merged tree.
func (l *Loader) Interpolate(template string, ctx interp.Context) string {
	l.mu.RLock()
	merged := l.current
	l.mu.RUnlock()

	return l.interp.Interpolate(template, ctx, merged)
}

// Interpolator exposes the loader's interpolation engine, for callers that
// need batch resolution or a bound interpolator.
func (l *Loader) Interpolator() *interp.Interpolator {
	return l.interp
}

// Validator exposes the loader's patch validator, for hosts that surface
// validation results in authoring tools.
func (l *Loader) Validator() *patch.Validator {
	return l.validator
}
