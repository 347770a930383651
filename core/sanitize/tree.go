// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package sanitize

import (
	"codeberg.org/openkick/localize/core/tree"
)

// SanitizeTree cleans every key and leaf of t and returns the cleaned copy.
// The input is never mutated.
//
// Keys are cleaned like values, capped at the key length limit; keys that
// clean to the empty string are dropped together with their subtree. Opaque
// values (arrays and other non-string leaves) are dropped silently. Subtrees
// nested deeper than the depth cap are dropped rather than recursed into.
//
// The second result is false when t is nil or nothing survives cleaning, in
// which case the tree as a whole should be treated as rejected.
func (s *Sanitizer) SanitizeTree(t tree.Tree) (tree.Tree, bool) {
	if t == nil {
		return nil, false
	}

	cleaned := s.sanitizeSubtree(t, 1)
	if cleaned == nil || cleaned.IsEmpty() {
		return nil, false
	}

	return cleaned, true
}

func (s *Sanitizer) sanitizeSubtree(t tree.Tree, depth int) tree.Tree {
	if depth > s.opts.MaxDepth {
		s.logger.Debug().Int("depth", depth).Msg("Dropping subtree past depth cap")

		return nil
	}

	out := make(tree.Tree, len(t))

	for key, node := range t {
		cleanKey := s.cleanString(key, s.opts.MaxKeyLen)
		if cleanKey == "" {
			s.logger.Debug().Str("key", key).Msg("Dropping entry with unusable key")

			continue
		}

		switch v := node.(type) {
		case tree.Leaf:
			out[cleanKey] = tree.Leaf(s.SanitizeString(string(v)))
		case tree.Tree:
			sub := s.sanitizeSubtree(v, depth+1)
			if sub == nil {
				continue
			}

			out[cleanKey] = sub
		default:
			// Opaque and anything unexpected.
			s.logger.Debug().Str("key", key).Msg("Dropping non-string leaf")
		}
	}

	return out
}

// FilterNamespaces drops top-level namespaces that are not on the allow-list
// and returns the filtered copy. With no allow-list configured it returns t
// unchanged.
//
// This duplicates a validator check on purpose: sanitization does not trust
// that validation ran first.
func (s *Sanitizer) FilterNamespaces(t tree.Tree) tree.Tree {
	if t == nil || len(s.allowed) == 0 {
		return t
	}

	out := make(tree.Tree, len(t))

	for ns, node := range t {
		if _, ok := s.allowed[ns]; !ok {
			s.logger.Warn().Str("namespace", ns).Msg("Dropping protected namespace")

			continue
		}

		out[ns] = node
	}

	return out
}
