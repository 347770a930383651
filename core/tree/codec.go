// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNotObject = errors.New("top-level JSON value is not an object")

// Decode parses a JSON object into a Tree. The top-level value must be an
// object; string values become leaves, objects become subtrees, and all other
// values are stored as Opaque.
func Decode(data []byte) (Tree, error) {
	if firstByte(data) != '{' {
		return nil, errNotObject
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding translation tree: %w", err)
	}

	out := make(Tree, len(raw))

	for k, v := range raw {
		node, err := decodeNode(v)
		if err != nil {
			return nil, fmt.Errorf("decoding key %q: %w", k, err)
		}

		out[k] = node
	}

	return out, nil
}

func decodeNode(data json.RawMessage) (Node, error) {
	switch firstByte(data) {
	case '{':
		sub, err := Decode(data)
		if err != nil {
			return nil, err
		}

		return sub, nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}

		return Leaf(s), nil
	default:
		raw := make(Opaque, len(data))
		copy(raw, data)

		return raw, nil
	}
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}

	return trimmed[0]
}

// MarshalJSON encodes the tree back to a JSON object.
func (t Tree) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(t))

	for k, v := range t {
		data, err := marshalNode(v)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", k, err)
		}

		m[k] = data
	}

	return json.Marshal(m)
}

// UnmarshalJSON decodes a JSON object into the tree, replacing its contents.
func (t *Tree) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}

	*t = decoded

	return nil
}

func marshalNode(n Node) (json.RawMessage, error) {
	switch v := n.(type) {
	case Leaf:
		return json.Marshal(string(v))
	case Tree:
		return v.MarshalJSON()
	case Opaque:
		if len(v) == 0 {
			return json.RawMessage("null"), nil
		}

		return json.RawMessage(v), nil
	case nil:
		return json.RawMessage("null"), nil
	default:
		return nil, fmt.Errorf("unknown node type %T", n)
	}
}
