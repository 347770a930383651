// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package sanitize

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// Mode selects how residual HTML markup is neutralised after the dangerous
// patterns have been removed.
type Mode int

const (
	// ModeStrip removes remaining HTML tags, keeping only their text. Default.
	ModeStrip Mode = iota

	// ModeEscape HTML-escapes the remaining markup instead of removing it.
	ModeEscape
)

// Default limits for externally supplied content.
const (
	DefaultMaxStringLen = 2000
	DefaultMaxKeyLen    = 100
	DefaultMaxDepth     = 10
)

// Options configures a [Sanitizer].
type Options struct {
	// Mode selects tag stripping (default) or escaping.
	Mode Mode

	// MaxStringLen caps leaf values after cleaning. 0 means DefaultMaxStringLen.
	MaxStringLen int

	// MaxKeyLen caps object keys after cleaning. 0 means DefaultMaxKeyLen.
	MaxKeyLen int

	// MaxDepth caps tree recursion. Subtrees past the cap are dropped.
	// 0 means DefaultMaxDepth.
	MaxDepth int

	// AllowedNamespaces lists the top-level keys that survive
	// [Sanitizer.FilterNamespaces]. Empty means no namespace filtering.
	AllowedNamespaces []string
}

// Sanitizer strips or escapes dangerous content in translation trees and
// enforces size and shape limits. Compiled patterns are held per instance, so
// independent sanitizers never interfere with each other.
//
// Construct with [New]; the zero value is not ready for use.
type Sanitizer struct {
	opts      Options
	allowed   map[string]struct{}
	dangerous []*regexp.Regexp
	logger    zerolog.Logger
}

// dangerousPatterns returns freshly compiled patterns for content that is
// removed outright before any tag stripping happens.
func dangerousPatterns() []*regexp.Regexp {
	patterns := []string{
		// Container tags whose entire content is hostile.
		`(?is)<script\b[^>]*>.*?</script\s*>`,
		`(?is)<iframe\b[^>]*>.*?</iframe\s*>`,
		`(?is)<object\b[^>]*>.*?</object\s*>`,
		`(?is)<embed\b[^>]*>.*?</embed\s*>`,
		`(?is)<style\b[^>]*>.*?</style\s*>`,
		// Unclosed variants of the same tags.
		`(?i)<(?:script|iframe|object|embed|style)\b[^>]*>`,
		// Void tags that can pull in external resources.
		`(?i)<(?:link|meta)\b[^>]*>`,
		// Inline event handlers: onclick=, onerror=, ...
		`(?i)\bon\w+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`,
		// Scriptable URI schemes.
		`(?i)(?:javascript|vbscript)\s*:`,
		`(?i)data\s*:\s*text/html`,
		// Legacy IE CSS expressions.
		`(?i)\bexpression\s*\(`,
		// HTML comments, including conditional ones.
		`(?s)<!--.*?-->`,
	}

	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}

	return compiled
}

// New constructs a Sanitizer with the given options, applying defaults for
// any zero limit.
func New(opts Options) *Sanitizer {
	if opts.MaxStringLen <= 0 {
		opts.MaxStringLen = DefaultMaxStringLen
	}

	if opts.MaxKeyLen <= 0 {
		opts.MaxKeyLen = DefaultMaxKeyLen
	}

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	allowed := make(map[string]struct{}, len(opts.AllowedNamespaces))
	for _, ns := range opts.AllowedNamespaces {
		allowed[ns] = struct{}{}
	}

	return &Sanitizer{
		opts:      opts,
		allowed:   allowed,
		dangerous: dangerousPatterns(),
		logger:    log.With().Str("sys", "sanitize").Logger(),
	}
}

// SanitizeString cleans a single leaf value. Passes run in a fixed order:
// dangerous-pattern removal, tag stripping or escaping, control-character
// removal (newline and tab survive), whitespace trimming, and truncation to
// the configured maximum length.
func (s *Sanitizer) SanitizeString(in string) string {
	return s.cleanString(in, s.opts.MaxStringLen)
}

func (s *Sanitizer) cleanString(in string, maxLen int) string {
	out := in

	for _, re := range s.dangerous {
		out = re.ReplaceAllString(out, "")
	}

	if strings.ContainsAny(out, "<>&") {
		if s.opts.Mode == ModeEscape {
			out = html.EscapeString(out)
		} else {
			out = s.stripTags(out)
		}
	}

	out = stripControl(out)
	out = strings.TrimSpace(out)
	out = truncateRunes(out, maxLen)

	return out
}

// stripTags removes HTML markup, keeping only text content. The tokenizer
// also decodes entities in the surviving text.
func (s *Sanitizer) stripTags(in string) string {
	if !strings.Contains(in, "<") {
		return in
	}

	tokenizer := html.NewTokenizer(strings.NewReader(in))

	var b strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF terminates cleanly; any other tokenizer error also ends
			// the scan, keeping whatever text was recovered.
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
		}
	}
}

// stripControl removes non-printable control characters except newline and tab.
func stripControl(in string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}

		if r < 0x20 || r == 0x7f {
			return -1
		}

		return r
	}, in)
}

// truncateRunes caps s at maxLen runes, never splitting a multi-byte character.
func truncateRunes(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	count := 0
	for i := range s {
		if count == maxLen {
			return s[:i]
		}

		count++
	}

	return s
}
