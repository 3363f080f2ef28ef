// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"log/slog"

	"github.com/bitsom-placements/placecell/services/llm"
	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
	"github.com/bitsom-placements/placecell/services/orchestrator/observability"
	"github.com/bitsom-placements/placecell/services/orchestrator/retrieval"
)

// ChatResponse is the body returned by the non-streaming chat endpoint.
type ChatResponse struct {
	Answer    string                 `json:"answer"`
	Sources   []datatypes.SourceInfo `json:"sources"`
	RequestID string                 `json:"request_id"`
}

// ChatHandler handles the non-streaming chat endpoint, used by the CLI and
// by scripts that want a single JSON response.
type ChatHandler interface {
	// HandleChat handles POST /v1/chat.
	HandleChat(c *gin.Context)
}

type chatHandler struct {
	llmClient llm.LLMClient
	moderator llm.Moderator
	retriever ContextRetriever
	tracer    trace.Tracer
}

// NewChatHandler creates a ChatHandler. Panics on nil llmClient or
// retriever; a nil moderator disables the moderation gate.
func NewChatHandler(llmClient llm.LLMClient, moderator llm.Moderator, retriever ContextRetriever) ChatHandler {
	if llmClient == nil {
		panic("NewChatHandler: llmClient must not be nil")
	}
	if retriever == nil {
		panic("NewChatHandler: retriever must not be nil")
	}
	return &chatHandler{
		llmClient: llmClient,
		moderator: moderator,
		retriever: retriever,
		tracer:    otel.Tracer("placecell.orchestrator.handlers"),
	}
}

// HandleChat handles POST /v1/chat.
//
// Same turn pipeline as the streaming endpoint, collected into one JSON
// response. A flagged question returns 403 here; there is no stream to
// deliver a refusal over.
func (h *chatHandler) HandleChat(c *gin.Context) {
	startTime := time.Now()
	endpoint := observability.EndpointChat

	ctx, span := h.tracer.Start(c.Request.Context(), "HandleChat")
	defer span.End()

	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordRequest(endpoint, success)
			m.RecordStreamDuration(endpoint, time.Since(startTime).Seconds(), success)
		}
	}()

	var req datatypes.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := req.LastUserMessage()
	if question == "" {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no user message in request"})
		return
	}

	if h.moderator != nil {
		flagged, err := h.moderator.Moderate(ctx, question)
		if err != nil {
			slog.Warn("Moderation returned error, continuing", "error", err)
		}
		if flagged {
			span.SetAttributes(attribute.Bool("chat.moderation_flagged", true))
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeModerationFlagged)
				m.RecordModerationFlag(endpoint)
			}
			c.JSON(http.StatusForbidden, gin.H{"error": "message flagged by moderation"})
			return
		}
	}

	result, err := h.retriever.Retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		slog.Error("Retrieval failed, continuing without context", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeRetrievalError)
		}
		result = &datatypes.RetrievalResult{}
	}
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRetrievalContext(endpoint, result.ContextChars)
	}

	messages := retrieval.BuildMessages(result.Context, req.ToModelMessages(), question)

	params := llm.GenerationParams{
		EnableSearch: result.ContextChars < searchFallbackThreshold,
	}

	var answer strings.Builder
	err = h.llmClient.ChatStream(ctx, messages, params, func(event llm.StreamEvent) error {
		switch event.Type {
		case llm.StreamEventToken:
			answer.WriteString(event.Content)
		case llm.StreamEventToolUse:
			if m := observability.DefaultMetrics; m != nil {
				m.RecordToolRound(endpoint)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		slog.Error("Model call failed", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeModelError)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": sanitizeErrorForClient(err.Error())})
		return
	}

	span.SetAttributes(attribute.Int("chat.answer_chars", answer.Len()))
	c.JSON(http.StatusOK, ChatResponse{
		Answer:    answer.String(),
		Sources:   result.Sources,
		RequestID: uuid.NewString(),
	})
	success = true
}

var _ ChatHandler = (*chatHandler)(nil)
