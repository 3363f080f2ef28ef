// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bitsom-placements/placecell/pkg/ingest"
	"github.com/bitsom-placements/placecell/services/orchestrator/observability"
)

// AlumniIngestor writes alumni records into the vector store.
type AlumniIngestor interface {
	IngestAlumni(ctx context.Context, records []ingest.AlumnusRecord) (int, error)
}

// AlumniHandler handles alumni ingestion over the API.
type AlumniHandler interface {
	// HandleAlumniUpload handles POST /v1/alumni. The body is the CSV
	// export itself, not JSON.
	HandleAlumniUpload(c *gin.Context)
}

type alumniHandler struct {
	ingestor AlumniIngestor
	tracer   trace.Tracer
}

// NewAlumniHandler creates the alumni ingestion handler.
func NewAlumniHandler(ingestor AlumniIngestor) AlumniHandler {
	if ingestor == nil {
		panic("NewAlumniHandler: ingestor is required")
	}
	return &alumniHandler{
		ingestor: ingestor,
		tracer:   otel.Tracer("placecell.orchestrator.handlers"),
	}
}

func (h *alumniHandler) HandleAlumniUpload(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handlers.HandleAlumniUpload")
	defer span.End()

	records, err := ingest.ParseAlumniCSV(c.Request.Body)
	if err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointIngest, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no alumni rows in CSV"})
		return
	}
	span.SetAttributes(attribute.Int("ingest.alumni_rows", len(records)))

	accepted, err := h.ingestor.IngestAlumni(ctx, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alumni ingestion failed")
		slog.Error("Alumni ingestion failed", "rows", len(records), "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointIngest, observability.ErrorCodeInternal)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "alumni ingestion failed"})
		return
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(observability.EndpointIngest, true)
	}
	c.JSON(http.StatusOK, gin.H{"rows": len(records), "accepted": accepted})
}

var _ AlumniHandler = (*alumniHandler)(nil)
