// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package loader orchestrates layered translation resolution.

A [Loader] folds up to five content layers into one merged translation tree,
in fixed priority order: the base-language bundle, the target-language bundle,
TTL-cached remote content, the universal community patch (its universal
section first, then its section for the active language), and finally a
standalone language-specific patch. Later layers override earlier ones at the
leaf level. Every externally sourced layer is validated, sanitized, and
namespace-filtered before it is merged.

Storage and network access go through the [Storage] and [Fetcher] collaborator
contracts supplied by the host application. A missing or failing optional
layer degrades the load, it never fails it; only the layers that resolved
contribute to the result.

Loaders are explicitly constructed values. Two loaders never share caches or
patch state, so multiple languages and test instances can coexist safely.
*/
package loader
