// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the retrieval-side types: the namespaces the assistant
// searches, the chunks a search returns, and the source attributions sent to
// the client alongside a streamed answer.
package datatypes

// =============================================================================
// Namespaces
// =============================================================================

// Namespace identifies one of the corpora the assistant retrieves from. Each
// namespace maps to a Weaviate class of the same shape (see
// weaviate_schemas.go).
type Namespace string

const (
	// NamespacePlacements holds per-company placement drive records:
	// role, compensation, eligibility, process, deadline.
	NamespacePlacements Namespace = "placements"

	// NamespaceStats holds aggregate placement statistics by batch,
	// sector, and percentile.
	NamespaceStats Namespace = "stats"

	// NamespaceTranscripts holds chunked interview experience transcripts
	// contributed by placed students.
	NamespaceTranscripts Namespace = "transcripts"

	// NamespaceAlumni holds alumni career records scraped from public
	// profiles: company, role, batch, location.
	NamespaceAlumni Namespace = "alumni"
)

// AllNamespaces lists every namespace queried on a chat turn, in the order
// their context blocks appear in the assembled prompt.
var AllNamespaces = []Namespace{
	NamespacePlacements,
	NamespaceStats,
	NamespaceTranscripts,
	NamespaceAlumni,
}

// ValidNamespace reports whether ns names a known namespace.
func ValidNamespace(ns Namespace) bool {
	for _, known := range AllNamespaces {
		if known == ns {
			return true
		}
	}
	return false
}

// ClassForNamespace returns the Weaviate class name backing a namespace.
func ClassForNamespace(ns Namespace) string {
	switch ns {
	case NamespacePlacements:
		return ClassPlacement
	case NamespaceStats:
		return ClassPlacementStat
	case NamespaceTranscripts:
		return ClassInterviewTranscript
	case NamespaceAlumni:
		return ClassAlumnus
	}
	return ""
}

// =============================================================================
// Retrieval Results
// =============================================================================

// RetrievedChunk is one matched fragment from a namespace search, carrying
// enough metadata to attribute and budget it.
type RetrievedChunk struct {
	Namespace Namespace `json:"namespace"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Distance  float64   `json:"distance"`
	Score     float64   `json:"score"`
}

// SourceInfo describes one source document referenced by a response. It is
// what the client receives in the "sources" frame; chunk text stays
// server-side.
type SourceInfo struct {
	Namespace string  `json:"namespace"`
	Source    string  `json:"source"`
	Score     float64 `json:"score"`
}

// RetrievalResult is the merged, budget-truncated output of one retrieval
// pass across all namespaces.
type RetrievalResult struct {
	// Context is the assembled context text, grouped by namespace.
	Context string

	// Sources lists the distinct documents that contributed chunks,
	// ordered by descending score.
	Sources []SourceInfo

	// ContextChars is len(Context), recorded before prompt assembly so
	// callers can decide whether the corpus answered the question.
	ContextChars int
}
