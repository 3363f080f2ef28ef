// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/bitsom-placements/placecell/pkg/ingest"
	"github.com/bitsom-placements/placecell/services/llm"
	"github.com/bitsom-placements/placecell/services/orchestrator/handlers"
	"github.com/bitsom-placements/placecell/services/orchestrator/middleware"
)

// Dependencies holds everything the route table needs. RateLimit is
// optional; when nil, no limiter is installed.
type Dependencies struct {
	Client    *weaviate.Client
	LLM       llm.LLMClient
	Moderator llm.Moderator
	Retriever handlers.ContextRetriever
	Ingestor  *ingest.Ingestor
	RateLimit *middleware.Options
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", handlers.HealthCheck(deps.Client))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	streamHandler := handlers.NewStreamingChatHandler(deps.LLM, deps.Moderator, deps.Retriever)
	chatHandler := handlers.NewChatHandler(deps.LLM, deps.Moderator, deps.Retriever)

	var limited []gin.HandlerFunc
	if deps.RateLimit != nil {
		limited = append(limited, middleware.RateLimit(*deps.RateLimit))
	}

	api := router.Group("/api", limited...)
	{
		api.POST("/chat", streamHandler.HandleChatStream)
	}

	// API version 1 group
	v1 := router.Group("/v1", limited...)
	{
		v1.POST("/chat", chatHandler.HandleChat)

		if deps.Ingestor != nil {
			transcriptHandler := handlers.NewTranscriptHandler(deps.Ingestor)
			alumniHandler := handlers.NewAlumniHandler(deps.Ingestor)
			placementHandler := handlers.NewPlacementHandler(deps.Ingestor)
			v1.POST("/transcripts", transcriptHandler.HandleTranscriptUpload)
			v1.POST("/alumni", alumniHandler.HandleAlumniUpload)
			v1.PATCH("/placements/:applicationId", placementHandler.HandlePlacementUpdate)
		}

		if deps.Client != nil {
			namespaceHandler := handlers.NewNamespaceHandler(deps.Client)
			namespaces := v1.Group("/namespaces")
			{
				namespaces.GET("", namespaceHandler.HandleNamespaceCounts)
				namespaces.DELETE("/:namespace", namespaceHandler.HandleNamespacePurge)
			}
		}
	}
}
