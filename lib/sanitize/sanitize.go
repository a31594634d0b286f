// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package sanitize strips executable script regions from inbound chat
// content. The rule mirrors the server's filter so both ends agree on
// what a message can contain: every <script ...>...</script> region is
// removed, case-insensitively, and the scan repeats until a pass
// removes nothing, so regions reassembled by an earlier removal are
// caught. All other text passes through verbatim, including
// markup-like but non-executable fragments.
//
// This is a pattern heuristic, not an HTML parser. A lone opening tag
// with no closing tag survives, which is acceptable because such a
// fragment never executes when rendered as text.
package sanitize

import "regexp"

// scriptRegion matches an opening script tag through the nearest
// closing tag. \b keeps <scriptx> and friends out; (?s) lets regions
// span newlines; the lazy body stops at the first close so separate
// regions are removed separately.
var scriptRegion = regexp.MustCompile(`(?is)<script\b.*?</script>`)

// Strip removes every script region from text, repeating until no
// region remains. Returns the input unchanged (no copy) when nothing
// matches.
func Strip(text string) string {
	for {
		stripped := scriptRegion.ReplaceAllString(text, "")
		if stripped == text {
			return text
		}
		text = stripped
	}
}
