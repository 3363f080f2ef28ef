// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

const (
	// transcriptChunkSize keeps each chunk comfortably inside one embed
	// call while preserving a full interview round per chunk when the
	// transcript uses blank lines between rounds.
	transcriptChunkSize = 5000

	transcriptChunkOverlap = 0
)

// transcriptSeparators prefer paragraph breaks, then sentence ends.
var transcriptSeparators = []string{"\n\n", ". ", "? ", "! ", "\n", " ", ""}

// ParseTranscriptName extracts the company and contributor from a
// transcript filename of the form "Company_Person.txt". Underscores after
// the first separate name parts of the contributor.
func ParseTranscriptName(filename string) (company, person string, err error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("transcript filename %q is not Company_Person", filename)
	}
	return parts[0], strings.ReplaceAll(parts[1], "_", " "), nil
}

// IngestTranscript chunks one interview transcript, embeds the chunks in a
// single batch, and writes them to the InterviewTranscript class.
//
// # Description
//
// Chunk ids are "<Company>_<Person>-chunk-<n>", so re-ingesting the same
// transcript replaces its chunks. A shrunk transcript can leave stale
// trailing chunks behind; purge the namespace before bulk re-ingestion.
//
// # Outputs
//
//   - int: Number of chunks accepted by Weaviate.
//   - error: Non-nil when parsing, splitting, or embedding fails.
func (ing *Ingestor) IngestTranscript(ctx context.Context, filename, content string) (int, error) {
	company, person, err := ParseTranscriptName(filename)
	if err != nil {
		return 0, err
	}
	slog.Info("Ingesting transcript", "company", company, "person", person)

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(transcriptChunkSize),
		textsplitter.WithChunkOverlap(transcriptChunkOverlap),
		textsplitter.WithSeparators(transcriptSeparators),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil {
		return 0, fmt.Errorf("failed to split transcript: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "file", filename)
		return 0, nil
	}

	vectors, err := ing.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed transcript chunks: %w", err)
	}

	baseID := fmt.Sprintf("%s_%s", company, strings.ReplaceAll(person, " ", "_"))
	now := time.Now().UnixMilli()
	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		source := fmt.Sprintf("%s-chunk-%d", baseID, i)
		objects[i] = &models.Object{
			Class:  datatypes.ClassInterviewTranscript,
			ID:     DeterministicUUID(source),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"text":        chunk,
				"source":      source,
				"company":     company,
				"person":      person,
				"chunk_index": i,
				"ingested_at": now,
			},
		}
	}

	created, err := ing.batchInsert(ctx, objects)
	if err != nil {
		return 0, err
	}
	slog.Info("Transcript ingested", "file", filename, "chunks", created)
	return created, nil
}
