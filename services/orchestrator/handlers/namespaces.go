// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
	"github.com/bitsom-placements/placecell/services/orchestrator/observability"
)

// NamespaceHandler handles namespace administration: purging a namespace
// and reporting per-namespace object counts.
type NamespaceHandler interface {
	// HandleNamespacePurge handles DELETE /v1/namespaces/:namespace.
	HandleNamespacePurge(c *gin.Context)
	// HandleNamespaceCounts handles GET /v1/namespaces.
	HandleNamespaceCounts(c *gin.Context)
}

type namespaceHandler struct {
	client *weaviate.Client
	tracer trace.Tracer
}

// NewNamespaceHandler creates the namespace admin handler.
func NewNamespaceHandler(client *weaviate.Client) NamespaceHandler {
	if client == nil {
		panic("NewNamespaceHandler: weaviate client is required")
	}
	return &namespaceHandler{
		client: client,
		tracer: otel.Tracer("placecell.orchestrator.handlers"),
	}
}

// HandleNamespacePurge drops and recreates the class behind a namespace.
// Every object in the namespace is gone afterwards; the schema survives.
func (h *namespaceHandler) HandleNamespacePurge(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handlers.HandleNamespacePurge")
	defer span.End()

	ns := datatypes.Namespace(c.Param("namespace"))
	if !datatypes.ValidNamespace(ns) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown namespace %q", string(ns)),
		})
		return
	}
	className := datatypes.ClassForNamespace(ns)
	span.SetAttributes(attribute.String("namespace", string(ns)))

	err := h.client.Schema().ClassDeleter().WithClassName(className).Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class delete failed")
		slog.Error("Failed to delete class for purge", "class", className, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointAdmin, observability.ErrorCodeInternal)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge namespace"})
		return
	}

	schema := datatypes.SchemaForClass(className)
	if err := h.client.Schema().ClassCreator().WithClass(schema).Do(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class recreate failed")
		slog.Error("Failed to recreate class after purge", "class", className, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointAdmin, observability.ErrorCodeInternal)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "namespace dropped but not recreated"})
		return
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(observability.EndpointAdmin, true)
	}
	slog.Info("Namespace purged", "namespace", string(ns), "class", className)
	c.JSON(http.StatusOK, gin.H{"namespace": string(ns), "purged": true})
}

// HandleNamespaceCounts returns the object count per namespace. A
// namespace whose aggregate query fails reports -1 rather than failing
// the whole response.
func (h *namespaceHandler) HandleNamespaceCounts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handlers.HandleNamespaceCounts")
	defer span.End()

	counts := make(map[string]int64, len(datatypes.AllNamespaces))
	for _, ns := range datatypes.AllNamespaces {
		className := datatypes.ClassForNamespace(ns)
		resp, err := h.client.GraphQL().Aggregate().
			WithClassName(className).
			WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
			Do(ctx)
		if err != nil {
			slog.Warn("Aggregate count failed", "namespace", string(ns), "error", err)
			counts[string(ns)] = -1
			continue
		}
		parsed, err := datatypes.ParseGraphQLResponse[datatypes.AggregateCountResponse](resp)
		if err != nil {
			slog.Warn("Aggregate count parse failed", "namespace", string(ns), "error", err)
			counts[string(ns)] = -1
			continue
		}
		counts[string(ns)] = parsed.Count(className)
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(observability.EndpointAdmin, true)
	}
	c.JSON(http.StatusOK, gin.H{"namespaces": counts})
}

var _ NamespaceHandler = (*namespaceHandler)(nil)
