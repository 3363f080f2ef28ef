// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

func TestTruncateAtBoundary_UnderBudget(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short text", truncateAtBoundary("short text", 100))
}

func TestTruncateAtBoundary_PrefersParagraphBreak(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	out := truncateAtBoundary(text, 80)

	assert.Equal(t, strings.Repeat("a", 60), out)
}

func TestTruncateAtBoundary_FallsBackToSentence(t *testing.T) {
	t.Parallel()

	text := "First sentence here. Second one follows. " + strings.Repeat("c", 100)
	out := truncateAtBoundary(text, 60)

	assert.Equal(t, "First sentence here. Second one follows.", out)
}

func TestTruncateAtBoundary_HardCutWhenNoBoundary(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 200)
	out := truncateAtBoundary(text, 50)

	assert.Len(t, out, 50)
}

func TestTruncateAtBoundary_ZeroBudget(t *testing.T) {
	t.Parallel()
	assert.Empty(t, truncateAtBoundary("anything", 0))
}

func TestTruncateAtBoundary_IgnoresEarlyBoundary(t *testing.T) {
	t.Parallel()

	// The only paragraph break sits in the first quarter of the budget, so
	// the cleaner cut would discard most of the chunk. Expect a hard cut.
	text := "ab\n\n" + strings.Repeat("y", 300)
	out := truncateAtBoundary(text, 100)

	assert.Len(t, out, 100)
}

func TestFormatContext_GroupsByNamespace(t *testing.T) {
	t.Parallel()

	chunks := []datatypes.RetrievedChunk{
		{Namespace: datatypes.NamespaceAlumni, Source: "alumnus-a", Text: "Alum at Acme."},
		{Namespace: datatypes.NamespacePlacements, Source: "placement-42", Text: "Acme drive, CTC 30L."},
	}
	out := formatContext(chunks)

	// Placements block comes first regardless of input order.
	placementsIdx := strings.Index(out, "## Placement drives")
	alumniIdx := strings.Index(out, "## Alumni records")
	require.GreaterOrEqual(t, placementsIdx, 0)
	require.Greater(t, alumniIdx, placementsIdx)
	assert.Contains(t, out, "[placement-42] Acme drive, CTC 30L.")
	assert.Contains(t, out, "[alumnus-a] Alum at Acme.")
}

func TestFormatContext_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, formatContext(nil))
}

func TestMerge_EnforcesNamespaceBudgets(t *testing.T) {
	t.Parallel()

	r := NewRetriever(nil, nil, Config{
		TopK: 5,
		NamespaceBudgets: map[datatypes.Namespace]int{
			datatypes.NamespacePlacements:  30,
			datatypes.NamespaceStats:       0,
			datatypes.NamespaceTranscripts: 100,
			datatypes.NamespaceAlumni:      100,
		},
		TotalBudget: 1000,
	})

	result := r.merge(map[datatypes.Namespace][]datatypes.RetrievedChunk{
		datatypes.NamespacePlacements: {
			{Namespace: datatypes.NamespacePlacements, Source: "p1", Text: strings.Repeat("a", 25), Score: 0.9},
			{Namespace: datatypes.NamespacePlacements, Source: "p2", Text: strings.Repeat("b", 25), Score: 0.8},
		},
		datatypes.NamespaceStats: {
			{Namespace: datatypes.NamespaceStats, Source: "s1", Text: "stat text", Score: 0.7},
		},
	})

	assert.Contains(t, result.Context, strings.Repeat("a", 25))
	assert.NotContains(t, result.Context, "stat text", "zero-budget namespace contributes nothing")
	// p2 exceeds the 5 chars left in the placements budget and has no
	// boundary to cut at, so only its hard-cut prefix could fit; a 5-char
	// fragment survives the hard cut.
	sources := make([]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, s.Source)
	}
	assert.Contains(t, sources, "p1")
}

func TestMerge_TotalBudgetCapsAllNamespaces(t *testing.T) {
	t.Parallel()

	r := NewRetriever(nil, nil, Config{
		TopK: 5,
		NamespaceBudgets: map[datatypes.Namespace]int{
			datatypes.NamespacePlacements:  100,
			datatypes.NamespaceStats:       100,
			datatypes.NamespaceTranscripts: 100,
			datatypes.NamespaceAlumni:      100,
		},
		TotalBudget: 120,
	})

	big := strings.Repeat("z", 100)
	result := r.merge(map[datatypes.Namespace][]datatypes.RetrievedChunk{
		datatypes.NamespacePlacements: {{Namespace: datatypes.NamespacePlacements, Source: "p", Text: big}},
		datatypes.NamespaceStats:      {{Namespace: datatypes.NamespaceStats, Source: "s", Text: big}},
		datatypes.NamespaceAlumni:     {{Namespace: datatypes.NamespaceAlumni, Source: "a", Text: big}},
	})

	// 100 chars from placements leave 20 for everything else; stats gets a
	// 20-char hard cut and alumni gets nothing.
	assert.NotContains(t, result.Context, "## Alumni records")
}

func TestCollectSources_DedupesAndOrders(t *testing.T) {
	t.Parallel()

	sources := collectSources([]datatypes.RetrievedChunk{
		{Namespace: datatypes.NamespaceTranscripts, Source: "Acme_Ravi-chunk-0", Score: 0.6},
		{Namespace: datatypes.NamespaceTranscripts, Source: "Acme_Ravi-chunk-0", Score: 0.9},
		{Namespace: datatypes.NamespacePlacements, Source: "placement-42", Score: 0.8},
	})

	require.Len(t, sources, 2)
	assert.Equal(t, "Acme_Ravi-chunk-0", sources[0].Source)
	assert.InDelta(t, 0.9, sources[0].Score, 1e-9, "highest score wins on dedupe")
	assert.Equal(t, "placement-42", sources[1].Source)
}
