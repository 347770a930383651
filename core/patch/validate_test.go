// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/openkick/localize/core/tree"
)

func validDocument() *Document {
	return &Document{
		Metadata: Metadata{
			Version: "1.2.0",
			Name:    "Classic kits",
			Author:  "community",
		},
		Universal: tree.Tree{
			"countries": tree.Tree{"england": tree.Leaf("England")},
		},
	}
}

func hasErrorCode(res Result, code string) bool {
	for _, e := range res.Errors {
		if e.Code == code {
			return true
		}
	}

	return false
}

func TestValidateAcceptsAllowedNamespaces(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	res := v.Validate(validDocument())

	assert.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
}

func TestValidateRejectsProtectedNamespace(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	doc := validDocument()
	doc.Universal["ui"] = tree.Tree{"menu": tree.Leaf("hijacked")}

	res := v.Validate(doc)

	require.False(t, res.Valid)
	require.True(t, hasErrorCode(res, CodeProtectedNamespace))

	// The error names the offender and lists all allowed namespaces.
	var msg, path string

	for _, e := range res.Errors {
		if e.Code == CodeProtectedNamespace {
			msg, path = e.Message, e.Path
		}
	}

	assert.Equal(t, "universal.ui", path)
	assert.Contains(t, msg, `"ui"`)

	for _, ns := range DefaultAllowedNamespaces {
		assert.Contains(t, msg, ns)
	}
}

func TestValidateMetadata(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()

		doc := validDocument()
		doc.Metadata = Metadata{}

		res := v.Validate(doc)
		assert.False(t, res.Valid)
		assert.True(t, hasErrorCode(res, CodeInvalidMetadata))
	})

	t.Run("BadVersion", func(t *testing.T) {
		t.Parallel()

		for _, version := range []string{"1.2", "v1.2.3", "1.2.3.4", "latest"} {
			doc := validDocument()
			doc.Metadata.Version = version

			res := v.Validate(doc)
			assert.True(t, hasErrorCode(res, CodeInvalidVersion), "version %q", version)
		}
	})

	t.Run("PrereleaseVersionAllowed", func(t *testing.T) {
		t.Parallel()

		doc := validDocument()
		doc.Metadata.Version = "2.0.0-rc.1"

		res := v.Validate(doc)
		assert.True(t, res.Valid, "errors: %v", res.Errors)
	})

	t.Run("NameTooLong", func(t *testing.T) {
		t.Parallel()

		doc := validDocument()
		doc.Metadata.Name = strings.Repeat("x", MaxNameLen+1)

		res := v.Validate(doc)
		assert.True(t, hasErrorCode(res, CodeInvalidName))
	})
}

func TestValidateNoContent(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	doc := &Document{Metadata: Metadata{Version: "1.0.0", Name: "empty"}}

	res := v.Validate(doc)
	assert.False(t, res.Valid)
	assert.True(t, hasErrorCode(res, CodeNoContent))
}

func TestValidateLeafRules(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	doc := validDocument()
	doc.Universal["countries"] = tree.Tree{
		"tooLong": tree.Leaf(strings.Repeat("a", MaxLeafLen+1)),
		"empty":   tree.Leaf(""),
		"array":   tree.Opaque(`[1,2]`),
		"nested":  tree.Tree{"ok": tree.Leaf("fine")},
	}

	res := v.Validate(doc)

	assert.False(t, res.Valid)
	assert.True(t, hasErrorCode(res, CodeStringTooLong))
	assert.True(t, hasErrorCode(res, CodeInvalidValueType))

	// Empty strings warn but do not error.
	foundEmptyWarning := false

	for _, w := range res.Warnings {
		if strings.Contains(w, "countries.empty") {
			foundEmptyWarning = true
		}
	}

	assert.True(t, foundEmptyWarning, "warnings: %v", res.Warnings)
}

func TestValidateLanguageSections(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	doc := &Document{
		Metadata: Metadata{Version: "1.0.0", Name: "lang patch"},
		Languages: map[string]tree.Tree{
			"de": {"competitions": tree.Tree{"cup": tree.Leaf("Pokal")}},
			"xx-not-a-language-code!": {
				"ui": tree.Tree{"menu": tree.Leaf("nope")},
			},
		},
	}

	res := v.Validate(doc)

	require.False(t, res.Valid)

	// The protected namespace is path-qualified under its language.
	found := false

	for _, e := range res.Errors {
		if e.Code == CodeProtectedNamespace && strings.HasPrefix(e.Path, "languages.xx-not-a-language-code!") {
			found = true
		}
	}

	assert.True(t, found, "errors: %v", res.Errors)
	assert.NotEmpty(t, res.Warnings, "unparsable language code should warn")
}

func TestValidateLengthLimitsCountCharacters(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	t.Run("MultiByteContentWithinLimits", func(t *testing.T) {
		t.Parallel()

		// 1500 characters but 4500 bytes; a byte count would reject this.
		doc := validDocument()
		doc.Metadata.Name = strings.Repeat("優", MaxNameLen)
		doc.Universal["countries"].(tree.Tree)["japan"] = tree.Leaf(strings.Repeat("勝", 1500))

		res := v.Validate(doc)
		assert.True(t, res.Valid, "errors: %v", res.Errors)
	})

	t.Run("MultiByteContentOverLimits", func(t *testing.T) {
		t.Parallel()

		doc := validDocument()
		doc.Metadata.Name = strings.Repeat("優", MaxNameLen+1)
		doc.Universal["countries"].(tree.Tree)["japan"] = tree.Leaf(strings.Repeat("勝", MaxLeafLen+1))

		res := v.Validate(doc)
		assert.True(t, hasErrorCode(res, CodeInvalidName))
		assert.True(t, hasErrorCode(res, CodeStringTooLong))
	})
}

func TestValidateWarnsNonCanonicalLanguageKey(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	doc := &Document{
		Metadata: Metadata{Version: "1.0.0", Name: "lusophone"},
		Languages: map[string]tree.Tree{
			"pt-br": {"competitions": tree.Tree{"cup": tree.Leaf("Taça")}},
		},
	}

	res := v.Validate(doc)

	assert.True(t, res.Valid, "errors: %v", res.Errors)

	found := false

	for _, w := range res.Warnings {
		if strings.Contains(w, "pt-br") && strings.Contains(w, `"pt-BR"`) {
			found = true
		}
	}

	assert.True(t, found, "warnings: %v", res.Warnings)
}

func TestValidateSizeLimits(t *testing.T) {
	t.Parallel()

	// Tight limits keep the test fixtures small.
	v := NewValidator(ValidatorOptions{MaxDocumentBytes: 500, SoftDocumentBytes: 200})

	t.Run("SoftLimitWarns", func(t *testing.T) {
		t.Parallel()

		doc := validDocument()
		doc.Universal["countries"].(tree.Tree)["filler"] = tree.Leaf(strings.Repeat("a", 250))

		res := v.Validate(doc)
		assert.True(t, res.Valid, "errors: %v", res.Errors)
		assert.NotEmpty(t, res.Warnings)
	})

	t.Run("HardLimitFails", func(t *testing.T) {
		t.Parallel()

		doc := validDocument()
		doc.Universal["countries"].(tree.Tree)["filler"] = tree.Leaf(strings.Repeat("a", 600))

		res := v.Validate(doc)
		assert.False(t, res.Valid)
		assert.True(t, hasErrorCode(res, CodeDocumentTooLarge))
	})
}

func TestValidateDoesNotMutate(t *testing.T) {
	t.Parallel()

	v := NewValidator(ValidatorOptions{})

	doc := validDocument()
	doc.Universal["ui"] = tree.Tree{"menu": tree.Leaf("x")}

	_ = v.Validate(doc)

	if _, ok := doc.Universal["ui"]; !ok {
		t.Error("Validate must not mutate its input")
	}
}
