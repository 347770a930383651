// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package patch

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"codeberg.org/openkick/localize/core/tree"
)

// Validation error codes.
const (
	CodeInvalidMetadata    = "INVALID_METADATA"
	CodeInvalidVersion     = "INVALID_VERSION"
	CodeInvalidName        = "INVALID_NAME"
	CodeNoContent          = "NO_CONTENT"
	CodeProtectedNamespace = "PROTECTED_NAMESPACE"
	CodeStringTooLong      = "STRING_TOO_LONG"
	CodeInvalidValueType   = "INVALID_VALUE_TYPE"
	CodeDocumentTooLarge   = "DOCUMENT_TOO_LARGE"
)

// MaxNameLen caps metadata.name; MaxLeafLen caps every leaf string.
const (
	MaxNameLen = 100
	MaxLeafLen = 2000
)

// DefaultAllowedNamespaces is the authoritative list of patchable namespaces.
// Everything else, ui and game mechanics in particular, is protected.
var DefaultAllowedNamespaces = []string{
	"awards",
	"competitions",
	"countries",
	"news",
	"trophies",
}

// Error is one path-qualified validation failure.
type Error struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is the outcome of validating one document. Valid requires zero
// errors; warnings never block acceptance.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []Error  `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *Result) addError(path, code, message string) {
	r.Errors = append(r.Errors, Error{Path: path, Message: message, Code: code})
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidatorOptions configures a [Validator]. Zero limits fall back to the
// package defaults.
type ValidatorOptions struct {
	AllowedNamespaces []string
	MaxDocumentBytes  int
	SoftDocumentBytes int
	MaxLeafLen        int
}

// Validator checks patch documents against the structural schema and the
// namespace allow-list. The compiled version pattern is an instance field, so
// validators never share mutable state.
//
// Construct with [NewValidator]; the zero value is not ready for use.
type Validator struct {
	allowed     map[string]struct{}
	allowedList []string
	versionRE   *regexp.Regexp
	maxDocBytes int
	softBytes   int
	maxLeafLen  int
}

// NewValidator constructs a Validator. A nil or empty allow-list in opts
// selects [DefaultAllowedNamespaces].
func NewValidator(opts ValidatorOptions) *Validator {
	allowedList := opts.AllowedNamespaces
	if len(allowedList) == 0 {
		allowedList = DefaultAllowedNamespaces
	}

	sorted := make([]string, len(allowedList))
	copy(sorted, allowedList)
	sort.Strings(sorted)

	allowed := make(map[string]struct{}, len(sorted))
	for _, ns := range sorted {
		allowed[ns] = struct{}{}
	}

	v := &Validator{
		allowed:     allowed,
		allowedList: sorted,
		versionRE:   regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?$`),
		maxDocBytes: opts.MaxDocumentBytes,
		softBytes:   opts.SoftDocumentBytes,
		maxLeafLen:  opts.MaxLeafLen,
	}

	if v.maxDocBytes <= 0 {
		v.maxDocBytes = MaxDocumentBytes
	}

	if v.softBytes <= 0 {
		v.softBytes = SoftDocumentBytes
	}

	if v.maxLeafLen <= 0 {
		v.maxLeafLen = MaxLeafLen
	}

	return v
}

// AllowedNamespaces returns the allow-list in sorted order. The slice is a
// copy and safe to retain.
func (v *Validator) AllowedNamespaces() []string {
	out := make([]string, len(v.allowedList))
	copy(out, v.allowedList)

	return out
}

// Validate checks doc and reports every problem found. It never mutates doc
// and never panics; all outcomes, including a nil document, surface through
// the result.
func (v *Validator) Validate(doc *Document) Result {
	res := Result{}

	if doc == nil {
		res.addError("", CodeInvalidMetadata, "document is missing")

		return res
	}

	v.validateMetadata(doc, &res)
	v.validateSize(doc, &res)

	if !doc.HasContent() {
		res.addError("", CodeNoContent,
			"document must contain at least one of 'universal' or 'languages'")
	}

	if doc.Universal != nil {
		v.validateNamespaces("universal", doc.Universal, &res)
	}

	for _, lang := range sortedKeys(doc.Languages) {
		if tag, err := language.Parse(lang); err != nil {
			res.addWarning("languages.%s: %q is not a recognizable language code", lang, lang)
		} else if canonical := tag.String(); canonical != lang {
			res.addWarning("languages.%s: language key is not canonical; it is matched as %q", lang, canonical)
		}

		v.validateNamespaces("languages."+lang, doc.Languages[lang], &res)
	}

	res.Valid = len(res.Errors) == 0

	return res
}

func (v *Validator) validateMetadata(doc *Document, res *Result) {
	meta := doc.Metadata

	if meta.Version == "" && meta.Name == "" {
		res.addError("metadata", CodeInvalidMetadata, "metadata must be present and an object")

		return
	}

	if !v.versionRE.MatchString(meta.Version) {
		res.addError("metadata.version", CodeInvalidVersion,
			fmt.Sprintf("version %q must be a semantic version such as 1.2.0", meta.Version))
	}

	if meta.Name == "" {
		res.addError("metadata.name", CodeInvalidName, "name must be a non-empty string")
	} else if utf8.RuneCountInString(meta.Name) > MaxNameLen {
		res.addError("metadata.name", CodeInvalidName,
			fmt.Sprintf("name exceeds %d characters", MaxNameLen))
	}
}

func (v *Validator) validateSize(doc *Document, res *Result) {
	size := doc.SerializedSize()

	if size > v.maxDocBytes {
		res.addError("", CodeDocumentTooLarge,
			fmt.Sprintf("document is %d bytes; the maximum is %d", size, v.maxDocBytes))

		return
	}

	if size > v.softBytes {
		res.addWarning("document is %d bytes; large patches slow down loading", size)
	}
}

func (v *Validator) validateNamespaces(path string, t tree.Tree, res *Result) {
	for _, ns := range t.Keys() {
		nsPath := path + "." + ns

		if _, ok := v.allowed[ns]; !ok {
			res.addError(nsPath, CodeProtectedNamespace,
				fmt.Sprintf("namespace %q is protected and cannot be patched; allowed namespaces: %s",
					ns, strings.Join(v.allowedList, ", ")))

			continue
		}

		node := t[ns]

		sub, ok := node.(tree.Tree)
		if !ok {
			res.addError(nsPath, CodeInvalidValueType,
				fmt.Sprintf("namespace %q must be an object of translations", ns))

			continue
		}

		if sub.IsEmpty() {
			res.addWarning("%s: namespace is empty", nsPath)
		}

		v.validateSubtree(nsPath, sub, res)
	}
}

func (v *Validator) validateSubtree(path string, t tree.Tree, res *Result) {
	for _, key := range t.Keys() {
		keyPath := path + "." + key

		switch node := t[key].(type) {
		case tree.Leaf:
			// Length limits count characters, not bytes; CJK and Cyrillic
			// content must not hit the cap early.
			if runes := utf8.RuneCountInString(string(node)); runes > v.maxLeafLen {
				res.addError(keyPath, CodeStringTooLong,
					fmt.Sprintf("string is %d characters; the maximum is %d", runes, v.maxLeafLen))
			} else if node == "" {
				res.addWarning("%s: empty string", keyPath)
			}
		case tree.Tree:
			v.validateSubtree(keyPath, node, res)
		default:
			res.addError(keyPath, CodeInvalidValueType,
				"values must be strings or nested objects of strings")
		}
	}
}

func sortedKeys(m map[string]tree.Tree) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
