// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package patch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"codeberg.org/openkick/localize/core/tree"
)

// Document size limits. Crossing the soft limit produces a validation
// warning; crossing the hard limit is a fatal validation error.
const (
	MaxDocumentBytes  = 5 << 20
	SoftDocumentBytes = 1 << 20
)

var (
	errInvalidJSON   = errors.New("patch document contains invalid JSON")
	errNotAnObject   = errors.New("patch document must be a JSON object")
	errTooLarge      = errors.New("patch document exceeds the hard size limit")
	errMetadataShape = errors.New("metadata must be an object")
)

// Metadata identifies a patch document and its author.
type Metadata struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

// Document is one community patch: metadata plus a universal tree applied to
// every language, and/or per-language trees keyed by language code.
type Document struct {
	Metadata  Metadata             `json:"metadata"`
	Universal tree.Tree            `json:"universal,omitempty"`
	Languages map[string]tree.Tree `json:"languages,omitempty"`

	// rawSize is the serialized size in bytes when the document was produced
	// by ParseDocument; 0 for documents built in-process.
	rawSize int
}

// ParseDocument decodes serialized patch JSON into a Document.
//
// The input is inspected with gjson before decoding so that oversized or
// structurally hopeless payloads are turned away without building trees.
// Semantic problems (protected namespaces, bad metadata values, wrong leaf
// types) are not checked here; they surface through [Validator.Validate].
func ParseDocument(data []byte) (*Document, error) {
	if len(data) > MaxDocumentBytes {
		return nil, fmt.Errorf("%w (%d bytes)", errTooLarge, len(data))
	}

	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errNotAnObject
	}

	if meta := root.Get("metadata"); meta.Exists() && !meta.IsObject() {
		return nil, errMetadataShape
	}

	doc := &Document{rawSize: len(data)}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding patch document: %w", err)
	}

	return doc, nil
}

// WrapTree builds a minimal valid document around a bare language tree, for
// callers that apply a tree directly rather than authoring a full patch.
func WrapTree(name, lang string, t tree.Tree) *Document {
	return &Document{
		Metadata: Metadata{
			Version: "1.0.0",
			Name:    name,
		},
		Languages: map[string]tree.Tree{lang: t},
	}
}

// SerializedSize returns the document's size in bytes: the original payload
// size for parsed documents, otherwise the re-encoded size. A document that
// cannot be encoded reports size 0.
func (d *Document) SerializedSize() int {
	if d.rawSize > 0 {
		return d.rawSize
	}

	data, err := json.Marshal(d)
	if err != nil {
		return 0
	}

	return len(data)
}

// HasContent reports whether the document carries at least one non-empty
// universal or per-language tree.
func (d *Document) HasContent() bool {
	if !d.Universal.IsEmpty() {
		return true
	}

	for _, t := range d.Languages {
		if !t.IsEmpty() {
			return true
		}
	}

	return false
}
