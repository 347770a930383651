// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package interp

import (
	"testing"

	"codeberg.org/openkick/localize/core/tree"
)

func testTree() tree.Tree {
	return tree.Tree{
		"competitions": tree.Tree{
			"championsLeague": tree.Leaf("UEFA CL"),
		},
		"trophies": tree.Tree{
			"section": tree.Tree{"ballonDor": tree.Leaf("Ballon d'Or")},
		},
	}
}

func TestResolveReferences(t *testing.T) {
	t.Parallel()

	ip := New(Options{})
	merged := testTree()

	got := ip.Interpolate("Win the {{ref:competitions.championsLeague}}!", Context{}, merged)
	if got != "Win the UEFA CL!" {
		t.Errorf("reference resolution: %q", got)
	}

	// Unknown paths render as the bracketed path.
	got = ip.Interpolate("Win the {{ref:competitions.unknownCup}}!", Context{}, merged)
	if got != "Win the [competitions.unknownCup]!" {
		t.Errorf("missing reference fallback: %q", got)
	}

	// A path ending at a subtree is not a string target.
	got = ip.Interpolate("{{ref:trophies.section}}", Context{}, merged)
	if got != "[trophies.section]" {
		t.Errorf("non-string reference fallback: %q", got)
	}
}

func TestResolvePlurals(t *testing.T) {
	t.Parallel()

	ip := New(Options{})

	cases := []struct {
		name string
		ctx  Context
		want string
	}{
		{"One", Context{"count": 1}, "goal"},
		{"Many", Context{"count": 5}, "goals"},
		{"Zero", Context{"count": 0}, "goals"},
		{"FloatOne", Context{"count": 1.0}, "goal"},
		{"NonNumeric", Context{"count": "lots"}, "goal"},
		{"Missing", Context{}, "goal"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ip.ResolvePlurals("{{plural:count|goal|goals}}", tc.ctx)
			if got != tc.want {
				t.Errorf("ResolvePlurals with ctx %v = %q, want %q", tc.ctx, got, tc.want)
			}
		})
	}
}

func TestResolveVariables(t *testing.T) {
	t.Parallel()

	ip := New(Options{})

	got := ip.ResolveVariables("{player} scored {count} against {opponent}", Context{
		"player": "Kane",
		"count":  3,
	})

	// Present variables substitute; the missing one keeps its literal text.
	if got != "Kane scored 3 against {opponent}" {
		t.Errorf("variable resolution: %q", got)
	}
}

func TestPassOrdering(t *testing.T) {
	t.Parallel()

	ip := New(Options{})

	// The referenced leaf itself contains plural and variable placeholders,
	// which must be resolved by the later passes.
	merged := tree.Tree{
		"news": tree.Tree{
			"headline": tree.Leaf("{team} scored {count} {{plural:count|goal|goals}}"),
		},
	}

	got := ip.Interpolate("Breaking: {{ref:news.headline}}", Context{
		"team":  "Arsenal",
		"count": 2,
	}, merged)

	if got != "Breaking: Arsenal scored 2 goals" {
		t.Errorf("pass ordering: %q", got)
	}
}

func TestCacheHitSkipsResolution(t *testing.T) {
	t.Parallel()

	ip := New(Options{})
	merged := testTree()
	ctx := Context{"count": 2}

	first := ip.Interpolate("{{ref:competitions.championsLeague}} x{count}", ctx, merged)

	if ip.CacheLen() != 1 {
		t.Fatalf("expected one cached entry, got %d", ip.CacheLen())
	}

	// Mutating the tree must not affect the cached result, and the repeat
	// call must not grow the cache.
	merged["competitions"].(tree.Tree)["championsLeague"] = tree.Leaf("changed")

	second := ip.Interpolate("{{ref:competitions.championsLeague}} x{count}", ctx, merged)

	if second != first {
		t.Errorf("expected cached value %q, got %q", first, second)
	}

	if ip.CacheLen() != 1 {
		t.Errorf("cache grew on a hit: %d entries", ip.CacheLen())
	}

	// After invalidation the fresh tree is consulted again.
	ip.InvalidateCache()

	third := ip.Interpolate("{{ref:competitions.championsLeague}} x{count}", ctx, merged)
	if third != "changed x2" {
		t.Errorf("expected fresh resolution after invalidation, got %q", third)
	}
}

func TestCacheKeyDistinguishesContexts(t *testing.T) {
	t.Parallel()

	ip := New(Options{})
	merged := testTree()

	one := ip.Interpolate("{{plural:count|goal|goals}}", Context{"count": 1}, merged)
	many := ip.Interpolate("{{plural:count|goal|goals}}", Context{"count": 7}, merged)

	if one != "goal" || many != "goals" {
		t.Errorf("contexts collided in cache: %q / %q", one, many)
	}

	if ip.CacheLen() != 2 {
		t.Errorf("expected two cache entries, got %d", ip.CacheLen())
	}
}

func TestUncachedBypass(t *testing.T) {
	t.Parallel()

	ip := New(Options{})
	merged := testTree()

	_ = ip.InterpolateUncached("{{ref:competitions.championsLeague}}", Context{}, merged)

	if ip.CacheLen() != 0 {
		t.Errorf("uncached call populated the cache: %d entries", ip.CacheLen())
	}
}

func TestPassThrough(t *testing.T) {
	t.Parallel()

	ip := New(Options{})

	for _, template := range []string{"", "plain text", "no placeholders here"} {
		if got := ip.Interpolate(template, Context{"x": 1}, nil); got != template {
			t.Errorf("expected %q to pass through, got %q", template, got)
		}
	}

	if ip.CacheLen() != 0 {
		t.Errorf("placeholder-free templates should not be cached: %d", ip.CacheLen())
	}
}

func TestBindAndBatch(t *testing.T) {
	t.Parallel()

	ip := New(Options{})
	resolve := ip.Bind(testTree())

	if got := resolve("{{ref:competitions.championsLeague}}", Context{}); got != "UEFA CL" {
		t.Errorf("bound interpolator: %q", got)
	}

	out := ip.InterpolateAll([]string{
		"{{ref:competitions.championsLeague}}",
		"{count} matches",
	}, Context{"count": 3}, testTree())

	if out[0] != "UEFA CL" || out[1] != "3 matches" {
		t.Errorf("batch resolution: %v", out)
	}
}

func TestCacheEviction(t *testing.T) {
	t.Parallel()

	ip := New(Options{CacheSize: 2})
	merged := testTree()

	ip.Interpolate("a {x}", Context{"x": 1}, merged)
	ip.Interpolate("b {x}", Context{"x": 1}, merged)
	ip.Interpolate("c {x}", Context{"x": 1}, merged)

	if ip.CacheLen() != 2 {
		t.Errorf("expected bounded cache of 2, got %d", ip.CacheLen())
	}
}
