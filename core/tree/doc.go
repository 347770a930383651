// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package tree defines the translation tree, the recursive structure that every
content layer (bundle, remote content, community patch) is expressed in, and
the deterministic merge that folds layers together.

A tree maps namespace/key names to either a [Leaf] (translated text), a nested
[Tree], or an [Opaque] value. Opaque values carry raw JSON for anything that is
neither a string nor an object (arrays in particular) and are always replaced
wholesale during merges, never combined element-wise.
*/
package tree
