// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package patch defines the community patch document format and its structural
validation.

A patch document carries metadata plus a universal translation tree and/or
per-language trees, restricted to an allow-list of patchable namespaces. Core
game-mechanics and UI namespaces stay immutable. Validation reports every
problem it finds through a structured result; it never mutates its input and
never panics. A single error anywhere rejects the whole document, so patches
are applied atomically or not at all.
*/
package patch
