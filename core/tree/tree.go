// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package tree

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Node is one value in a translation tree: a [Leaf], a nested [Tree], or an
// [Opaque] value.
type Node interface {
	isNode()
}

// Leaf is a single translated text string.
type Leaf string

// Tree maps namespace/key names to child nodes. Key order carries no meaning.
type Tree map[string]Node

// Opaque holds the raw JSON of a value that is neither a string nor an
// object, such as an array, number, boolean, or null. Opaque values are
// replaced wholesale by later layers and are dropped by sanitization.
type Opaque json.RawMessage

func (Leaf) isNode()   {}
func (Tree) isNode()   {}
func (Opaque) isNode() {}

// String returns the leaf text.
func (l Leaf) String() string { return string(l) }

// IsEmpty reports whether the tree has no keys.
func (t Tree) IsEmpty() bool { return len(t) == 0 }

// Keys returns the tree's top-level keys in sorted order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Clone returns a deep copy of the tree. Mutating the copy never affects the
// original.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}

	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = cloneNode(v)
	}

	return out
}

func cloneNode(n Node) Node {
	switch v := n.(type) {
	case Tree:
		return v.Clone()
	case Opaque:
		raw := make(Opaque, len(v))
		copy(raw, v)

		return raw
	default:
		return n
	}
}

// LeafCount returns the number of leaves in the tree, counting Opaque values
// as leaves.
func (t Tree) LeafCount() int {
	count := 0

	for _, v := range t {
		if sub, ok := v.(Tree); ok {
			count += sub.LeafCount()
			continue
		}

		count++
	}

	return count
}

// FromMap converts loosely-typed decoded data, as produced by YAML or JSON
// decoders that target map[string]any, into a Tree. Strings become leaves,
// maps become subtrees, and everything else is preserved as an Opaque value.
//
// YAML decoders may produce map[any]any for nested mappings; keys that are
// not strings are stringified with fmt.Sprint.
func FromMap(m map[string]any) Tree {
	out := make(Tree, len(m))
	for k, v := range m {
		out[k] = fromAny(v)
	}

	return out
}

func fromAny(v any) Node {
	switch val := v.(type) {
	case string:
		return Leaf(val)
	case map[string]any:
		return FromMap(val)
	case map[any]any:
		sub := make(Tree, len(val))
		for k, inner := range val {
			sub[fmt.Sprint(k)] = fromAny(inner)
		}

		return sub
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			// Unmarshalable values degrade to null rather than failing the
			// whole conversion.
			raw = []byte("null")
		}

		return Opaque(raw)
	}
}
