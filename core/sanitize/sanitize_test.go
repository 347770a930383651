// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package sanitize

import (
	"strings"
	"testing"

	"codeberg.org/openkick/localize/core/tree"
)

func TestSanitizeStringDangerousContent(t *testing.T) {
	t.Parallel()

	s := New(Options{})

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"ScriptBlock", "<script>alert(1)</script>hello", "hello"},
		{"ScriptBlockMixedCase", "<ScRiPt>alert(1)</sCrIpT>hello", "hello"},
		{"UnclosedScript", "<script src=evil.js>trailing", "trailing"},
		{"Iframe", `<iframe src="http://evil"></iframe>Lineup`, "Lineup"},
		{"StyleBlock", "<style>body{}</style>Kick-off", "Kick-off"},
		{"MetaTag", `<meta http-equiv="refresh">Result`, "Result"},
		{"EventHandler", `<b onclick="steal()">Final</b>`, "Final"},
		{"JavascriptURI", "javascript:alert(1) Derby", "alert(1) Derby"},
		{"VbscriptURI", "VBScript: do() Cup", "do() Cup"},
		{"DataHTMLURI", "data:text/html,x Trophy", ",x Trophy"},
		{"CSSExpression", "width: expression(alert(1)); Club", "width: alert(1)); Club"},
		{"HTMLComment", "before<!-- hidden -->after", "beforeafter"},
		{"PlainTagStripped", "<b>Golden Boot</b>", "Golden Boot"},
		{"NoMarkup", "Top scorer", "Top scorer"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := s.SanitizeString(tc.in); got != tc.want {
				t.Errorf("SanitizeString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeStringControlAndWhitespace(t *testing.T) {
	t.Parallel()

	s := New(Options{})

	if got := s.SanitizeString("  padded \x00\x07 text \n"); got != "padded  text" {
		t.Errorf("control/trim pass: %q", got)
	}

	// Newline and tab survive inside the string.
	if got := s.SanitizeString("line1\n\tline2"); got != "line1\n\tline2" {
		t.Errorf("newline/tab should survive: %q", got)
	}
}

func TestSanitizeStringTruncation(t *testing.T) {
	t.Parallel()

	s := New(Options{MaxStringLen: 10})

	long := strings.Repeat("a", 50)
	if got := s.SanitizeString(long); len(got) != 10 {
		t.Errorf("expected truncation to 10 chars, got %d", len(got))
	}

	// Multi-byte characters are never split.
	multi := strings.Repeat("ü", 50)
	got := s.SanitizeString(multi)

	if got != strings.Repeat("ü", 10) {
		t.Errorf("rune-safe truncation failed: %q", got)
	}
}

func TestEscapeMode(t *testing.T) {
	t.Parallel()

	s := New(Options{Mode: ModeEscape})

	got := s.SanitizeString("<b>bold</b>")
	if got != "&lt;b&gt;bold&lt;/b&gt;" {
		t.Errorf("escape mode: %q", got)
	}
}

func TestSanitizeTree(t *testing.T) {
	t.Parallel()

	s := New(Options{})

	in := tree.Tree{
		"countries": tree.Tree{
			"england":           tree.Leaf("<script>x()</script>England"),
			"<script></script>": tree.Leaf("dropped key"),
			"codes":             tree.Opaque(`["EN"]`),
		},
	}

	out, ok := s.SanitizeTree(in)
	if !ok {
		t.Fatal("expected tree to survive sanitization")
	}

	if got, _ := tree.GetString(out, "countries.england"); got != "England" {
		t.Errorf("leaf not cleaned: %q", got)
	}

	sub := out["countries"].(tree.Tree)
	if len(sub) != 1 {
		t.Errorf("expected empty key and opaque leaf to be dropped, got keys %v", sub.Keys())
	}

	// Input untouched.
	if got, _ := tree.GetString(in, "countries.england"); !strings.Contains(got, "<script>") {
		t.Error("SanitizeTree mutated its input")
	}
}

func TestSanitizeTreeRejectsEmptyResult(t *testing.T) {
	t.Parallel()

	s := New(Options{})

	if _, ok := s.SanitizeTree(nil); ok {
		t.Error("nil tree must be rejected")
	}

	in := tree.Tree{"": tree.Leaf("only an empty key")}
	if _, ok := s.SanitizeTree(in); ok {
		t.Error("tree that cleans to empty must be rejected")
	}
}

func TestSanitizeTreeDepthCap(t *testing.T) {
	t.Parallel()

	s := New(Options{MaxDepth: 3})

	deep := tree.Tree{
		"a": tree.Tree{
			"b": tree.Tree{
				"leaf": tree.Leaf("kept"),
				"c": tree.Tree{
					"d": tree.Leaf("too deep"),
				},
			},
		},
	}

	out, ok := s.SanitizeTree(deep)
	if !ok {
		t.Fatal("expected tree to survive")
	}

	if got, ok := tree.GetString(out, "a.b.leaf"); !ok || got != "kept" {
		t.Errorf("leaf at cap should survive: %q (ok=%v)", got, ok)
	}

	if _, ok := tree.Get(out, "a.b.c"); ok {
		t.Error("subtree past the depth cap should be dropped")
	}
}

func TestFilterNamespaces(t *testing.T) {
	t.Parallel()

	s := New(Options{AllowedNamespaces: []string{"countries", "competitions"}})

	in := tree.Tree{
		"countries": tree.Tree{"england": tree.Leaf("England")},
		"ui":        tree.Tree{"menu": tree.Leaf("injected")},
	}

	out := s.FilterNamespaces(in)

	if _, ok := out["countries"]; !ok {
		t.Error("allow-listed namespace dropped")
	}

	if _, ok := out["ui"]; ok {
		t.Error("protected namespace survived filtering")
	}

	// No allow-list means no filtering.
	open := New(Options{})
	if got := open.FilterNamespaces(in); len(got) != 2 {
		t.Errorf("unconfigured filter should pass everything, got %d namespaces", len(got))
	}
}
