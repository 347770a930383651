// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package sanitize cleans externally supplied translation trees before they are
merged into the active vocabulary.

Community patches and remote content are untrusted input. The sanitizer never
rejects content with an error; dangerous constructs are stripped and malformed
entries are dropped so that hostile or sloppy patches degrade instead of
blocking. It also re-filters protected namespaces on its own, independent of
the validator, because validation and sanitization may be invoked from
different call sites.
*/
package sanitize
