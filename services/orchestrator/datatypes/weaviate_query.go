// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains typed parsing for Weaviate GraphQL responses. The
// client returns Data as map[string]models.JSONObject; round-tripping
// through JSON gives compile-time types everywhere else.
package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse unmarshals a GraphQL response's Data into T.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	if len(resp.Errors) > 0 && resp.Errors[0] != nil {
		return nil, fmt.Errorf("GraphQL error: %s", resp.Errors[0].Message)
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Common Weaviate Response Types
// =============================================================================

// ChunkResult is one object returned by a Get query over any of the corpus
// classes. All four classes expose the same text/source surface.
type ChunkResult struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	Additional struct {
		ID       string  `json:"id"`
		Distance float64 `json:"distance"`
	} `json:"_additional"`
}

// ChunkQueryResponse is the Get response for a corpus class query. Results
// are keyed by class name.
type ChunkQueryResponse struct {
	Get map[string][]ChunkResult `json:"Get"`
}

// Chunks returns the results for one class, or nil.
func (r *ChunkQueryResponse) Chunks(className string) []ChunkResult {
	if r == nil {
		return nil
	}
	return r.Get[className]
}

// AggregateCountResponse is the Aggregate response for an object count.
type AggregateCountResponse struct {
	Aggregate map[string][]struct {
		Meta struct {
			Count int64 `json:"count"`
		} `json:"meta"`
	} `json:"Aggregate"`
}

// Count returns the object count for one class, or 0.
func (r *AggregateCountResponse) Count(className string) int64 {
	if r == nil {
		return 0
	}
	rows := r.Aggregate[className]
	if len(rows) == 0 {
		return 0
	}
	return rows[0].Meta.Count
}
