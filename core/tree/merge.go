// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package tree

// Merge folds sources into base, left to right, and returns a new tree.
// Neither base nor any source is mutated.
//
// For each key of each source: when both the existing and incoming values are
// trees the merge recurses; otherwise the incoming value replaces the
// existing one outright. Arrays (Opaque values) follow the replace rule and
// are never combined element-wise. Later sources strictly dominate earlier
// ones at every leaf, so Merge(a, b, c) and Merge(Merge(a, b), c) agree on
// all leaf values.
func Merge(base Tree, sources ...Tree) Tree {
	out := make(Tree, len(base))
	for k, v := range base {
		out[k] = v
	}

	for _, src := range sources {
		for k, incoming := range src {
			// A nil node means "no value"; the existing entry survives.
			if incoming == nil {
				continue
			}

			existing, ok := out[k].(Tree)
			if ok {
				if sub, isTree := incoming.(Tree); isTree {
					out[k] = Merge(existing, sub)
					continue
				}
			}

			out[k] = incoming
		}
	}

	return out
}
