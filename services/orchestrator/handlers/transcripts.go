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

	"github.com/bitsom-placements/placecell/services/orchestrator/observability"
)

// TranscriptIngestor writes interview transcripts into the vector store.
type TranscriptIngestor interface {
	IngestTranscript(ctx context.Context, filename, content string) (int, error)
}

// TranscriptUploadRequest is the body for POST /v1/transcripts. The filename
// carries the company and interviewee ("Company_Person.txt").
type TranscriptUploadRequest struct {
	Filename string `json:"filename" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// TranscriptHandler handles transcript ingestion over the API.
type TranscriptHandler interface {
	// HandleTranscriptUpload handles POST /v1/transcripts.
	HandleTranscriptUpload(c *gin.Context)
}

type transcriptHandler struct {
	ingestor TranscriptIngestor
	tracer   trace.Tracer
}

// NewTranscriptHandler creates the transcript ingestion handler.
func NewTranscriptHandler(ingestor TranscriptIngestor) TranscriptHandler {
	if ingestor == nil {
		panic("NewTranscriptHandler: ingestor is required")
	}
	return &transcriptHandler{
		ingestor: ingestor,
		tracer:   otel.Tracer("placecell.orchestrator.handlers"),
	}
}

// HandleTranscriptUpload chunks, embeds, and stores one transcript.
// Re-uploading the same filename replaces its chunks.
func (h *transcriptHandler) HandleTranscriptUpload(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handlers.HandleTranscriptUpload")
	defer span.End()

	var req TranscriptUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointIngest, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and content are required"})
		return
	}
	span.SetAttributes(
		attribute.String("ingest.filename", req.Filename),
		attribute.Int("ingest.content_chars", len(req.Content)),
	)

	chunks, err := h.ingestor.IngestTranscript(ctx, req.Filename, req.Content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcript ingestion failed")
		slog.Error("Transcript ingestion failed", "filename", req.Filename, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointIngest, observability.ErrorCodeInternal)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(observability.EndpointIngest, true)
	}
	slog.Info("Transcript ingested", "filename", req.Filename, "chunks", chunks)
	c.JSON(http.StatusOK, gin.H{"filename": req.Filename, "chunks": chunks})
}

var _ TranscriptHandler = (*transcriptHandler)(nil)
