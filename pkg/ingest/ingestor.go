// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ingest writes placement corpus records into Weaviate: interview
// transcripts, alumni records, and placement drive records. All ingestion
// is idempotent; object UUIDs are derived from stable record ids so a
// re-run updates in place instead of duplicating.
package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/bitsom-placements/placecell/services/llm"
)

// Ingestor writes corpus objects with vectors supplied by the embedder.
type Ingestor struct {
	client   *weaviate.Client
	embedder llm.Embedder
}

// NewIngestor creates an Ingestor.
func NewIngestor(client *weaviate.Client, embedder llm.Embedder) *Ingestor {
	return &Ingestor{client: client, embedder: embedder}
}

// DeterministicUUID derives a stable object UUID from a record id.
// Re-ingesting the same id overwrites the existing object.
func DeterministicUUID(recordID string) strfmt.UUID {
	hash := sha256.Sum256([]byte(recordID))
	id, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(id.String())
}

// batchInsert writes objects in one batch call and returns how many were
// accepted. Per-item failures are logged and counted, not fatal.
func (ing *Ingestor) batchInsert(ctx context.Context, objects []*models.Object) (int, error) {
	if len(objects) == 0 {
		return 0, nil
	}

	resp, err := ing.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		slog.Error("Failed to perform batch import to Weaviate", "error", err)
		return 0, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	created := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			created++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "error", errItem.Message)
			}
		} else {
			slog.Warn("Failed Weaviate batch item, no error provided")
		}
	}

	if created < len(objects) {
		slog.Warn("Errors encountered during Weaviate batch import",
			"accepted", created, "total", len(objects))
	}
	return created, nil
}
