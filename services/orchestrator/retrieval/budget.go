// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"strings"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// namespaceHeadings label each namespace's block in the assembled context.
var namespaceHeadings = map[datatypes.Namespace]string{
	datatypes.NamespacePlacements:  "Placement drives",
	datatypes.NamespaceStats:       "Placement statistics",
	datatypes.NamespaceTranscripts: "Interview experiences",
	datatypes.NamespaceAlumni:      "Alumni records",
}

// minUsefulFraction is the smallest share of the budget a truncated chunk
// must retain. Below that the clean boundary is abandoned for a hard cut.
const minUsefulFraction = 4

// truncateAtBoundary cuts text down to at most budget bytes, preferring a
// paragraph break, then a sentence end, then a hard cut. Returns "" when the
// budget is too small to hold anything.
func truncateAtBoundary(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if len(text) <= budget {
		return text
	}
	window := text[:budget]

	if idx := strings.LastIndex(window, "\n\n"); idx >= budget/minUsefulFraction {
		return strings.TrimRight(window[:idx], "\n")
	}

	sentenceEnd := -1
	for _, sep := range []string{". ", "? ", "! "} {
		if idx := strings.LastIndex(window, sep); idx > sentenceEnd {
			sentenceEnd = idx
		}
	}
	if sentenceEnd >= budget/minUsefulFraction {
		return window[:sentenceEnd+1]
	}

	return window
}

// formatContext renders kept chunks into the context block handed to the
// model, grouped under per-namespace headings in namespace order.
func formatContext(chunks []datatypes.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	byNamespace := map[datatypes.Namespace][]datatypes.RetrievedChunk{}
	for _, c := range chunks {
		byNamespace[c.Namespace] = append(byNamespace[c.Namespace], c)
	}

	var b strings.Builder
	for _, ns := range datatypes.AllNamespaces {
		group := byNamespace[ns]
		if len(group) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(namespaceHeadings[ns])
		for _, c := range group {
			b.WriteString("\n\n")
			if c.Source != "" {
				b.WriteString("[")
				b.WriteString(c.Source)
				b.WriteString("] ")
			}
			b.WriteString(strings.TrimSpace(c.Text))
		}
	}
	return b.String()
}
