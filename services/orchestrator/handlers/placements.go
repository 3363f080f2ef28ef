// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bitsom-placements/placecell/pkg/ingest"
	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
	"github.com/bitsom-placements/placecell/services/orchestrator/observability"
)

// PlacementUpdater applies partial updates to placement records.
type PlacementUpdater interface {
	UpdatePlacement(ctx context.Context, applicationID string, req datatypes.UpdatePlacementRequest) (*ingest.StoredPlacement, error)
}

// PlacementHandler handles placement record administration.
type PlacementHandler interface {
	// HandlePlacementUpdate handles PATCH /v1/placements/:applicationId.
	HandlePlacementUpdate(c *gin.Context)
}

type placementHandler struct {
	updater PlacementUpdater
	tracer  trace.Tracer
}

// NewPlacementHandler creates the placement admin handler.
func NewPlacementHandler(updater PlacementUpdater) PlacementHandler {
	if updater == nil {
		panic("NewPlacementHandler: updater is required")
	}
	return &placementHandler{
		updater: updater,
		tracer:  otel.Tracer("placecell.orchestrator.handlers"),
	}
}

// HandlePlacementUpdate merges the requested changes into one placement
// record. Deadline strings are "DD-Mon-YY HH:MM:SS" in IST.
func (h *placementHandler) HandlePlacementUpdate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handlers.HandlePlacementUpdate")
	defer span.End()

	applicationID := c.Param("applicationId")
	if applicationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "applicationId is required"})
		return
	}
	span.SetAttributes(attribute.String("placement.application_id", applicationID))

	var req datatypes.UpdatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointAdmin, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointAdmin, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.updater.UpdatePlacement(ctx, applicationID, req)
	if errors.Is(err, ingest.ErrPlacementNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no placement found for " + applicationID})
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "placement update failed")
		slog.Error("Placement update failed", "application_id", applicationID, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointAdmin, observability.ErrorCodeInternal)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update placement"})
		return
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(observability.EndpointAdmin, true)
	}
	c.JSON(http.StatusOK, gin.H{
		"application_id": updated.ApplicationID,
		"company":        updated.Company,
		"deadline_ms":    updated.DeadlineMs,
		"text":           updated.Text,
	})
}

var _ PlacementHandler = (*placementHandler)(nil)
