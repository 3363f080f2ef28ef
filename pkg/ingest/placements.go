// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// ErrPlacementNotFound is returned when no placement matches the
// requested application id.
var ErrPlacementNotFound = errors.New("placement not found")

// PlacementRecord is one placement drive announcement.
type PlacementRecord struct {
	ApplicationID string
	Company       string
	Text          string
	DeadlineMs    int64
}

// placementProperties builds the stored property map for a placement
// record. deadline_ms and updated_at are number properties in the class
// schema, so both carry Unix milliseconds, never formatted strings.
func placementProperties(rec PlacementRecord, source string) map[string]interface{} {
	return map[string]interface{}{
		"text":           rec.Text,
		"source":         source,
		"application_id": rec.ApplicationID,
		"company":        rec.Company,
		"deadline_ms":    rec.DeadlineMs,
		"updated_at":     time.Now().UnixMilli(),
	}
}

// placementMergeProperties builds the partial property map for a metadata
// merge that keeps the stored vector.
func placementMergeProperties(stored *StoredPlacement) map[string]interface{} {
	return map[string]interface{}{
		"text":        stored.Text,
		"company":     stored.Company,
		"deadline_ms": stored.DeadlineMs,
		"updated_at":  time.Now().UnixMilli(),
	}
}

// UpsertPlacement embeds and writes a placement record. The object id is
// derived from the application id, so updating a drive overwrites the
// previous version rather than duplicating it.
func (ing *Ingestor) UpsertPlacement(ctx context.Context, rec PlacementRecord) error {
	if rec.ApplicationID == "" {
		return fmt.Errorf("placement record has no application id")
	}
	if rec.Text == "" {
		return fmt.Errorf("placement record %q has no text", rec.ApplicationID)
	}

	vector, err := ing.embedder.EmbedQuery(ctx, rec.Text)
	if err != nil {
		return fmt.Errorf("failed to embed placement %q: %w", rec.ApplicationID, err)
	}

	source := datatypes.PlacementSourceID(rec.ApplicationID)
	obj := &models.Object{
		Class:      datatypes.ClassPlacement,
		ID:         DeterministicUUID(source),
		Vector:     vector,
		Properties: placementProperties(rec, source),
	}

	created, err := ing.batchInsert(ctx, []*models.Object{obj})
	if err != nil {
		return err
	}
	if created != 1 {
		return fmt.Errorf("placement %q was not accepted by the store", rec.ApplicationID)
	}
	slog.Info("Placement record upserted", "application_id", rec.ApplicationID, "company", rec.Company)
	return nil
}

// StoredPlacement is a placement record as read back from Weaviate.
type StoredPlacement struct {
	ID            string
	ApplicationID string
	Company       string
	Text          string
	DeadlineMs    int64
}

type placementQueryResponse struct {
	Get struct {
		Placement []struct {
			Text          string  `json:"text"`
			ApplicationID string  `json:"application_id"`
			Company       string  `json:"company"`
			DeadlineMs    float64 `json:"deadline_ms"`
			Additional    struct {
				ID string `json:"id"`
			} `json:"_additional"`
		} `json:"Placement"`
	} `json:"Get"`
}

// FetchPlacement looks a placement up by application id. Returns
// ErrPlacementNotFound when no record matches.
func (ing *Ingestor) FetchPlacement(ctx context.Context, applicationID string) (*StoredPlacement, error) {
	where := filters.Where().
		WithPath([]string{"application_id"}).
		WithOperator(filters.Equal).
		WithValueString(applicationID)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "application_id"},
		{Name: "company"},
		{Name: "deadline_ms"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}},
	}

	resp, err := ing.client.GraphQL().Get().
		WithClassName(datatypes.ClassPlacement).
		WithWhere(where).
		WithFields(fields...).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query placement %q: %w", applicationID, err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[placementQueryResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse placement query for %q: %w", applicationID, err)
	}
	if len(parsed.Get.Placement) == 0 {
		return nil, ErrPlacementNotFound
	}

	p := parsed.Get.Placement[0]
	return &StoredPlacement{
		ID:            p.Additional.ID,
		ApplicationID: p.ApplicationID,
		Company:       p.Company,
		Text:          p.Text,
		DeadlineMs:    int64(p.DeadlineMs),
	}, nil
}

// UpdatePlacement applies a partial update to a placement record.
//
// # Description
//
// Metadata-only updates (company, deadline) merge into the stored object
// and keep its vector; a deadline change also rewrites the "Deadline:"
// line inside the text property. A text replacement re-embeds the record
// and overwrites it whole.
func (ing *Ingestor) UpdatePlacement(ctx context.Context, applicationID string, req datatypes.UpdatePlacementRequest) (*StoredPlacement, error) {
	stored, err := ing.FetchPlacement(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if req.Company != "" {
		stored.Company = req.Company
	}
	if req.Text != "" {
		stored.Text = req.Text
	}
	if req.Deadline != "" {
		ms, err := datatypes.ParseDeadline(req.Deadline)
		if err != nil {
			return nil, err
		}
		stored.DeadlineMs = ms
		stored.Text = datatypes.RewriteDeadlineLine(stored.Text, ms)
	}

	if req.Text != "" {
		err = ing.UpsertPlacement(ctx, PlacementRecord{
			ApplicationID: stored.ApplicationID,
			Company:       stored.Company,
			Text:          stored.Text,
			DeadlineMs:    stored.DeadlineMs,
		})
		if err != nil {
			return nil, err
		}
		return stored, nil
	}

	err = ing.client.Data().Updater().
		WithClassName(datatypes.ClassPlacement).
		WithID(stored.ID).
		WithMerge().
		WithProperties(placementMergeProperties(stored)).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to merge placement %q: %w", applicationID, err)
	}
	slog.Info("Placement record merged", "application_id", applicationID)
	return stored, nil
}
