// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package interp resolves placeholders inside translated strings against the
fully merged translation tree and a caller-supplied context.

Three placeholder syntaxes are understood, resolved in a fixed order because
later passes may consume text produced by earlier ones:

 1. references   {{ref:dotted.path}}        looked up in the merged tree
 2. plurals      {{plural:key|one|many}}    binary choice driven by context
 3. variables    {name}                     substituted from context

Resolution never fails: a missing reference renders as the bracketed path, a
non-numeric plural count falls back to the singular form, and a missing
variable keeps its literal placeholder so the omission is visible in the UI.

Resolved strings are cached per template and context snapshot. The cache does
not key on the tree, so owners must invalidate it whenever the merged tree
changes.
*/
package interp
