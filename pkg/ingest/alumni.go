// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// AlumnusRecord is one row of the alumni export.
type AlumnusRecord struct {
	Name     string
	Batch    string
	Company  string
	Role     string
	Location string
}

// Text flattens the record for embedding and display.
func (a AlumnusRecord) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, MBA batch %s.", a.Name, a.Batch)
	if a.Role != "" || a.Company != "" {
		b.WriteString(" Currently ")
		if a.Role != "" {
			b.WriteString(a.Role)
		}
		if a.Company != "" {
			if a.Role != "" {
				b.WriteString(" at ")
			}
			b.WriteString(a.Company)
		}
		b.WriteString(".")
	}
	if a.Location != "" {
		fmt.Fprintf(&b, " Based in %s.", a.Location)
	}
	return b.String()
}

// SourceID returns the stable record id, "alumnus-<name-slug>-<batch>".
func (a AlumnusRecord) SourceID() string {
	slug := strings.ToLower(strings.TrimSpace(a.Name))
	slug = strings.Join(strings.Fields(slug), "-")
	if a.Batch != "" {
		return "alumnus-" + slug + "-" + a.Batch
	}
	return "alumnus-" + slug
}

// ParseAlumniCSV reads an alumni export. The header row names the columns;
// name and batch are required, company, role, and location are optional.
// Rows missing a name are skipped with a warning.
func ParseAlumniCSV(r io.Reader) ([]AlumnusRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("CSV header missing required column %q", "name")
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []AlumnusRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}
		rec := AlumnusRecord{
			Name:     field(row, "name"),
			Batch:    field(row, "batch"),
			Company:  field(row, "company"),
			Role:     field(row, "role"),
			Location: field(row, "location"),
		}
		if rec.Name == "" {
			slog.Warn("Skipping alumni row without a name", "line", line)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// IngestAlumni embeds and writes alumni records to the Alumnus class.
// Record ids are stable, so re-running an export updates in place.
func (ing *Ingestor) IngestAlumni(ctx context.Context, records []AlumnusRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text()
	}
	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed alumni records: %w", err)
	}

	objects := make([]*models.Object, len(records))
	for i, rec := range records {
		source := rec.SourceID()
		objects[i] = &models.Object{
			Class:  datatypes.ClassAlumnus,
			ID:     DeterministicUUID(source),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"text":    texts[i],
				"source":  source,
				"batch":   rec.Batch,
				"company": rec.Company,
			},
		}
	}

	created, err := ing.batchInsert(ctx, objects)
	if err != nil {
		return 0, err
	}
	slog.Info("Alumni records ingested", "accepted", created, "total", len(records))
	return created, nil
}
