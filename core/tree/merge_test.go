// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package tree

import (
	"reflect"
	"testing"
)

func TestMergeLeafBias(t *testing.T) {
	t.Parallel()

	base := Tree{
		"competitions": Tree{
			"championsLeague": Leaf("Champions League"),
			"premierLeague":   Leaf("Premier League"),
		},
	}
	patch := Tree{
		"competitions": Tree{
			"championsLeague": Leaf("UEFA CL"),
		},
	}

	merged := Merge(base, patch)

	got, ok := GetString(merged, "competitions.championsLeague")
	if !ok || got != "UEFA CL" {
		t.Errorf("expected patched leaf %q, got %q (ok=%v)", "UEFA CL", got, ok)
	}

	// Untouched siblings survive.
	got, ok = GetString(merged, "competitions.premierLeague")
	if !ok || got != "Premier League" {
		t.Errorf("expected base leaf to survive, got %q (ok=%v)", got, ok)
	}

	// Inputs are not mutated.
	if v, _ := GetString(base, "competitions.championsLeague"); v != "Champions League" {
		t.Errorf("Merge mutated its base input: %q", v)
	}
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	a := Tree{
		"countries": Tree{
			"england": Leaf("England"),
			"nested":  Tree{"deep": Leaf("value")},
		},
	}

	if got := Merge(a, a); !reflect.DeepEqual(got, a) {
		t.Errorf("Merge(A, A) != A: %#v", got)
	}
}

func TestMergeAssociativeAtLeaves(t *testing.T) {
	t.Parallel()

	a := Tree{"x": Tree{"k": Leaf("a"), "only": Leaf("base")}}
	b := Tree{"x": Tree{"k": Leaf("b"), "extra": Leaf("b2")}}
	c := Tree{"x": Tree{"k": Leaf("c")}}

	left := Merge(Merge(a, b), c)
	flat := Merge(a, b, c)

	if !reflect.DeepEqual(left, flat) {
		t.Errorf("Merge(Merge(a,b),c) = %#v, Merge(a,b,c) = %#v", left, flat)
	}

	if got, _ := GetString(flat, "x.k"); got != "c" {
		t.Errorf("last source should dominate, got %q", got)
	}
}

func TestMergeReplacesArraysWholesale(t *testing.T) {
	t.Parallel()

	base := Tree{"news": Tree{"items": Opaque(`["a","b"]`)}}
	src := Tree{"news": Tree{"items": Opaque(`["c"]`)}}

	merged := Merge(base, src)

	node, ok := Get(merged, "news.items")
	if !ok {
		t.Fatal("expected news.items to resolve")
	}

	if string(node.(Opaque)) != `["c"]` {
		t.Errorf("arrays must be replaced, not merged: %s", node.(Opaque))
	}
}

func TestMergeTreeReplacesLeaf(t *testing.T) {
	t.Parallel()

	base := Tree{"trophies": Leaf("flat")}
	src := Tree{"trophies": Tree{"cup": Leaf("Cup")}}

	merged := Merge(base, src)

	if got, ok := GetString(merged, "trophies.cup"); !ok || got != "Cup" {
		t.Errorf("incoming subtree should replace leaf, got %q (ok=%v)", got, ok)
	}

	// And the other direction: a leaf replaces a subtree.
	back := Merge(merged, Tree{"trophies": Leaf("flat again")})
	if got, ok := GetString(back, "trophies"); !ok || got != "flat again" {
		t.Errorf("incoming leaf should replace subtree, got %q (ok=%v)", got, ok)
	}
}

func TestSetCopyOnWrite(t *testing.T) {
	t.Parallel()

	base := Tree{"awards": Tree{"golden": Leaf("Golden Boot")}}

	updated := Set(base, "awards.silver", Leaf("Silver Boot"))

	if _, ok := GetString(updated, "awards.silver"); !ok {
		t.Fatal("expected awards.silver in updated tree")
	}

	if _, ok := GetString(base, "awards.silver"); ok {
		t.Error("Set mutated its input tree")
	}

	if got, _ := GetString(updated, "awards.golden"); got != "Golden Boot" {
		t.Errorf("existing leaf lost during Set: %q", got)
	}
}

func TestGetMissingAndNonTreeSegments(t *testing.T) {
	t.Parallel()

	tr := Tree{"countries": Tree{"england": Leaf("England")}}

	if _, ok := Get(tr, "countries.spain"); ok {
		t.Error("missing key should not resolve")
	}

	if _, ok := Get(tr, "countries.england.deeper"); ok {
		t.Error("path through a leaf should not resolve")
	}

	if _, ok := Get(tr, ""); ok {
		t.Error("empty path should not resolve")
	}
}
