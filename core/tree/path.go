// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package tree

import "strings"

// Get addresses the tree by a dot-separated path and returns the node found
// there. The second result reports whether every segment of the path resolved.
func Get(t Tree, path string) (Node, bool) {
	if t == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")

	current := t
	for i, seg := range segments {
		node, ok := current[seg]
		if !ok {
			return nil, false
		}

		if i == len(segments)-1 {
			return node, true
		}

		sub, ok := node.(Tree)
		if !ok {
			return nil, false
		}

		current = sub
	}

	return nil, false
}

// GetString is Get restricted to leaves. It returns the leaf text at path,
// or ok=false when the path is missing or does not end at a leaf.
func GetString(t Tree, path string) (string, bool) {
	node, ok := Get(t, path)
	if !ok {
		return "", false
	}

	leaf, ok := node.(Leaf)
	if !ok {
		return "", false
	}

	return string(leaf), true
}

// Set writes value at the dot-separated path and returns the updated tree.
// The input tree is not mutated; nodes along the path are copied as needed
// and intermediate subtrees are created when missing. Non-tree nodes in the
// way are replaced by subtrees.
func Set(t Tree, path string, value Node) Tree {
	if path == "" {
		return t
	}

	segments := strings.Split(path, ".")

	return setSegments(t, segments, value)
}

func setSegments(t Tree, segments []string, value Node) Tree {
	out := make(Tree, len(t)+1)
	for k, v := range t {
		out[k] = v
	}

	head := segments[0]
	if len(segments) == 1 {
		out[head] = value

		return out
	}

	sub, _ := out[head].(Tree)
	out[head] = setSegments(sub, segments[1:], value)

	return out
}
