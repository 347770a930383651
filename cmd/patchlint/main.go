// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command patchlint validates community translation patch files before they
// are submitted or applied. It runs the same checks the engine runs at apply
// time and prints every finding, so authors can fix a patch without loading
// it into a game first.
//
// Usage:
//
//	patchlint [-escape] [-preview] FILE...
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"codeberg.org/openkick/localize/core/audit"
	"codeberg.org/openkick/localize/core/patch"
	"codeberg.org/openkick/localize/core/sanitize"
	"codeberg.org/openkick/localize/core/tree"
)

func main() {
	escape := flag.Bool("escape", false, "preview with HTML escaping instead of tag stripping")
	preview := flag.Bool("preview", false, "print the sanitized content that would survive an apply")
	flag.Parse()

	audit.SetDefaultLogger()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: patchlint [-escape] [-preview] FILE...")
		os.Exit(2)
	}

	validator := patch.NewValidator(patch.ValidatorOptions{})

	mode := sanitize.ModeStrip
	if *escape {
		mode = sanitize.ModeEscape
	}

	sanitizer := sanitize.New(sanitize.Options{
		Mode:              mode,
		AllowedNamespaces: validator.AllowedNamespaces(),
	})

	exitCode := 0

	for _, path := range flag.Args() {
		if !lintFile(path, *preview, validator, sanitizer) {
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}

// lintFile parses and validates a single patch file, printing every finding.
// It reports whether the patch is valid.
func lintFile(
	path string,
	preview bool,
	validator *patch.Validator,
	sanitizer *sanitize.Sanitizer,
) bool {
	raw, err := os.ReadFile(path) // #nosec G304 -- linting user-supplied files is the point
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)

		return false
	}

	doc, err := patch.ParseDocument(raw)
	if err != nil {
		fmt.Printf("%s: FAIL\n  %v\n", path, err)

		return false
	}

	result := validator.Validate(doc)

	if result.Valid {
		fmt.Printf("%s: OK (%d strings", path, countStrings(doc))

		if doc.Metadata.Name != "" {
			fmt.Printf(", %q v%s", doc.Metadata.Name, doc.Metadata.Version)
		}

		fmt.Println(")")
	} else {
		fmt.Printf("%s: FAIL\n", path)
	}

	for _, issue := range result.Errors {
		fmt.Printf("  error [%s] %s: %s\n", issue.Code, issue.Path, issue.Message)
	}

	for _, warning := range result.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}

	if preview && result.Valid {
		printPreview(doc, sanitizer)
	}

	return result.Valid
}

func countStrings(doc *patch.Document) int {
	count := doc.Universal.LeafCount()
	for _, t := range doc.Languages {
		count += t.LeafCount()
	}

	return count
}

// printPreview shows the flattened content exactly as the engine would store
// it: sanitized and filtered to the allowed namespaces.
func printPreview(doc *patch.Document, sanitizer *sanitize.Sanitizer) {
	sections := map[string]tree.Tree{}
	if !doc.Universal.IsEmpty() {
		sections["universal"] = doc.Universal
	}

	for lang, t := range doc.Languages {
		sections["languages."+lang] = t
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		cleaned, ok := sanitizer.SanitizeTree(sections[name])
		if !ok {
			fmt.Printf("  note: nothing under %s survives sanitization\n", name)

			continue
		}

		cleaned = sanitizer.FilterNamespaces(cleaned)

		flat := map[string]string{}
		flatten(cleaned, name, flat)

		keys := make([]string, 0, len(flat))
		for key := range flat {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		for _, key := range keys {
			fmt.Printf("  %s = %q\n", key, flat[key])
		}
	}
}

func flatten(node tree.Tree, prefix string, out map[string]string) {
	for key, child := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		switch value := child.(type) {
		case tree.Leaf:
			out[path] = string(value)
		case tree.Tree:
			flatten(value, path, out)
		}
	}
}
