// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"context"
	"log"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Class names backing the retrieval namespaces. Vectors are supplied at
// ingest time, so every class runs with Vectorizer "none".
const (
	ClassPlacement           = "Placement"
	ClassPlacementStat       = "PlacementStat"
	ClassInterviewTranscript = "InterviewTranscript"
	ClassAlumnus             = "Alumnus"
)

func GetPlacementSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ClassPlacement,
		Description: "A placement drive record for one company and role.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "text",
				DataType:     []string{"text"},
				Description:  "Flattened record text: company, role, compensation, eligibility, process, deadline.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Stable record id, 'placement-<application_id>'.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "application_id",
				DataType:        []string{"text"},
				Description:     "Application id in the placement tracker.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "company",
				DataType:        []string{"text"},
				Description:     "Recruiting company name.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "deadline_ms",
				DataType:        []string{"number"},
				Description:     "Application deadline as Unix milliseconds. 0 = no deadline.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "updated_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of the last record update.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

func GetPlacementStatSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ClassPlacementStat,
		Description: "Aggregate placement statistics by batch, sector, and percentile.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "text",
				DataType:     []string{"text"},
				Description:  "Flattened statistic text.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Statistic id, e.g. 'stats-2025-consulting'.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "batch",
				DataType:        []string{"text"},
				Description:     "Graduating batch the statistic covers.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

func GetInterviewTranscriptSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ClassInterviewTranscript,
		Description: "A chunk of an interview experience transcript contributed by a placed student.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "text",
				DataType:     []string{"text"},
				Description:  "Transcript chunk text.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Chunk id, '<Company>_<Person>-chunk-<n>'.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "company",
				DataType:        []string{"text"},
				Description:     "Company the interview was for.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "person",
				DataType:        []string{"text"},
				Description:     "Student who contributed the transcript.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "chunk_index",
				DataType:        []string{"int"},
				Description:     "Zero-based position of this chunk within the transcript.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the chunk was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

func GetAlumnusSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ClassAlumnus,
		Description: "An alumni career record from a public profile.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "text",
				DataType:     []string{"text"},
				Description:  "Flattened profile text: name, batch, company, role, location.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Record id, 'alumnus-<slug>'.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "batch",
				DataType:        []string{"text"},
				Description:     "Graduating batch.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "company",
				DataType:        []string{"text"},
				Description:     "Current employer.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// SchemaForClass returns the class definition for a known class name, or nil.
func SchemaForClass(name string) *models.Class {
	switch name {
	case ClassPlacement:
		return GetPlacementSchema()
	case ClassPlacementStat:
		return GetPlacementStatSchema()
	case ClassInterviewTranscript:
		return GetInterviewTranscriptSchema()
	case ClassAlumnus:
		return GetAlumnusSchema()
	}
	return nil
}

// EnsureWeaviateSchema creates any missing classes at startup. Existing
// classes are left untouched.
func EnsureWeaviateSchema(client *weaviate.Client) {
	schemaGetters := []func() *models.Class{
		GetPlacementSchema,
		GetPlacementStatSchema,
		GetInterviewTranscriptSchema,
		GetAlumnusSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()
		slog.Info("Checking schema", "class", class.Class)

		// The client returns an error when the class does not exist yet.
		_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
		if err != nil {
			slog.Info("Schema not found, creating it...", "class", class.Class)
			err := client.Schema().ClassCreator().WithClass(class).Do(context.Background())
			if err != nil {
				log.Fatalf("Failed to create schema for class %s: %v", class.Class, err)
			}
			slog.Info("Successfully created schema", "class", class.Class)
		} else {
			slog.Info("Schema already exists", "class", class.Class)
		}
	}
}
