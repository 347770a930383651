// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package interp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/openkick/localize/core/lrucache"
	"codeberg.org/openkick/localize/core/tree"
)

// DefaultCacheSize bounds the resolved-string cache when no size is configured.
const DefaultCacheSize = 500

// Context carries the ambient variables a template is resolved against:
// plural counts and `{name}` substitutions.
type Context map[string]any

// Options configures an [Interpolator].
type Options struct {
	// CacheSize bounds the resolved-string cache. 0 means DefaultCacheSize.
	CacheSize int

	// CacheCompression stores large resolved strings zstd-compressed.
	CacheCompression bool
}

// Interpolator resolves placeholder syntax in leaf strings. Compiled patterns
// and the resolved-string cache are instance fields, so independent
// interpolators never interfere with each other.
//
// Construct with [New]; the zero value is not ready for use.
type Interpolator struct {
	cache  *lrucache.LRUCache
	logger zerolog.Logger

	refRE    *regexp.Regexp
	pluralRE *regexp.Regexp
	varRE    *regexp.Regexp

	// missingOnce deduplicates WARN logs for unresolved references.
	// Reset together with the cache, since both derive from the same tree.
	missingOnce sync.Map
}

// New constructs an Interpolator.
func New(opts Options) *Interpolator {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}

	// Size is validated above, so the only constructor error is unreachable.
	cache, err := lrucache.NewLRUCache(size, opts.CacheCompression)
	if err != nil {
		panic(fmt.Sprintf("interp: creating cache: %v", err))
	}

	return &Interpolator{
		cache:    cache,
		logger:   log.With().Str("sys", "interp").Logger(),
		refRE:    regexp.MustCompile(`\{\{ref:\s*([\w.-]+)\s*\}\}`),
		pluralRE: regexp.MustCompile(`\{\{plural:\s*(\w+)\s*\|([^|}]*)\|([^}]*)\}\}`),
		varRE:    regexp.MustCompile(`\{([A-Za-z_]\w*)\}`),
	}
}

// Interpolate resolves template against ctx and the merged tree, consulting
// the resolved-string cache. Non-string concerns are out of scope here: empty
// templates and templates without placeholders pass through unchanged.
func (ip *Interpolator) Interpolate(template string, ctx Context, merged tree.Tree) string {
	if template == "" || !strings.Contains(template, "{") {
		return template
	}

	key := cacheKey(template, ctx)
	if resolved, ok := ip.cache.Get(key); ok {
		return resolved
	}

	resolved := ip.resolve(template, ctx, merged)
	ip.cache.Add(key, resolved)

	return resolved
}

// InterpolateUncached resolves template without reading or writing the cache.
func (ip *Interpolator) InterpolateUncached(template string, ctx Context, merged tree.Tree) string {
	if template == "" || !strings.Contains(template, "{") {
		return template
	}

	return ip.resolve(template, ctx, merged)
}

// InterpolateAll resolves each template against one shared context and tree.
func (ip *Interpolator) InterpolateAll(templates []string, ctx Context, merged tree.Tree) []string {
	out := make([]string, len(templates))
	for i, tmpl := range templates {
		out[i] = ip.Interpolate(tmpl, ctx, merged)
	}

	return out
}

// Bind captures the merged tree once and returns a two-argument resolver for
// repeated use by a single language or screen.
func (ip *Interpolator) Bind(merged tree.Tree) func(template string, ctx Context) string {
	return func(template string, ctx Context) string {
		return ip.Interpolate(template, ctx, merged)
	}
}

// InvalidateCache discards every cached resolution and the missing-reference
// log dedup state. Owners call this whenever the merged tree changes, since
// cached results may embed reference-resolved text from the old tree.
func (ip *Interpolator) InvalidateCache() {
	ip.cache.Purge()
	ip.missingOnce = sync.Map{}
}

// CacheLen returns the number of cached resolutions.
func (ip *Interpolator) CacheLen() int {
	return ip.cache.Len()
}

// resolve runs the three passes in their fixed order.
func (ip *Interpolator) resolve(template string, ctx Context, merged tree.Tree) string {
	out := ip.ResolveReferences(template, merged)
	out = ip.ResolvePlurals(out, ctx)
	out = ip.ResolveVariables(out, ctx)

	return out
}

// ResolveReferences replaces {{ref:dotted.path}} placeholders with the leaf
// found at that path in the merged tree. A missing path or a non-string
// target renders as the path wrapped in brackets, and a warning is logged
// once per path.
func (ip *Interpolator) ResolveReferences(template string, merged tree.Tree) string {
	return ip.refRE.ReplaceAllStringFunc(template, func(match string) string {
		path := ip.refRE.FindStringSubmatch(match)[1]

		text, ok := tree.GetString(merged, path)
		if !ok {
			ip.warnMissingRef(path)

			return "[" + path + "]"
		}

		return text
	})
}

// ResolvePlurals replaces {{plural:countKey|singular|plural}} placeholders.
// The count is read from ctx; a missing or non-numeric count defaults to the
// singular form, and a count numerically equal to 1 selects singular,
// anything else plural. No locale plural-rule tables; the choice is binary.
func (ip *Interpolator) ResolvePlurals(template string, ctx Context) string {
	return ip.pluralRE.ReplaceAllStringFunc(template, func(match string) string {
		parts := ip.pluralRE.FindStringSubmatch(match)
		countKey, singular, plural := parts[1], parts[2], parts[3]

		count, ok := toNumber(ctx[countKey])
		if !ok || count == 1 {
			return singular
		}

		return plural
	})
}

// ResolveVariables replaces {name} placeholders with the stringified context
// value under the exact key. Missing variables keep their literal placeholder
// text, so omissions stay visible instead of being silently blanked.
func (ip *Interpolator) ResolveVariables(template string, ctx Context) string {
	return ip.varRE.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]

		value, ok := ctx[name]
		if !ok {
			return match
		}

		return fmt.Sprint(value)
	})
}

func (ip *Interpolator) warnMissingRef(path string) {
	if _, loaded := ip.missingOnce.LoadOrStore(path, struct{}{}); !loaded {
		ip.logger.Warn().Str("path", path).Msg("Unresolved translation reference")
	}
}

// cacheKey canonicalizes the context: keys sorted lexicographically, values
// stringified. The merged tree is deliberately not part of the key.
func cacheKey(template string, ctx Context) string {
	if len(ctx) == 0 {
		return template
	}

	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString(template)

	for _, k := range keys {
		b.WriteByte('\x1f')
		b.WriteString(k)
		b.WriteByte('=')
		fmt.Fprint(&b, ctx[k])
	}

	return b.String()
}

// toNumber reports v as a float64 when it carries any numeric type.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
