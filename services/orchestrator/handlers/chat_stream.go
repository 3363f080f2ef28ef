// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides the HTTP handlers for the placement assistant.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
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

// =============================================================================
// Constants
// =============================================================================

const (
	// heartbeatInterval is the interval for sending keepalive pings.
	// Set to 15s to stay well under typical LB timeouts (60s for ALB/Nginx).
	heartbeatInterval = 15 * time.Second

	// moderationRefusal is the full text streamed when the moderation gate
	// flags the question.
	moderationRefusal = "I can't help with that request. I can answer questions about " +
		"placement drives, interview preparation, placement statistics, and alumni careers."

	// searchFallbackThreshold is the merged retrieval context size, in
	// characters, below which the web search tool is offered to the model.
	// A turn with this much corpus context answers from the corpus alone.
	searchFallbackThreshold = 600
)

// =============================================================================
// Dependencies
// =============================================================================

// ContextRetriever runs the corpus retrieval pass for one question.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string) (*datatypes.RetrievalResult, error)
}

// StreamingChatHandler handles the streaming chat endpoint.
type StreamingChatHandler interface {
	// HandleChatStream handles POST /api/chat.
	HandleChatStream(c *gin.Context)
}

type streamingChatHandler struct {
	llmClient llm.LLMClient
	moderator llm.Moderator
	retriever ContextRetriever
	modelName string
	tracer    trace.Tracer
}

// NewStreamingChatHandler creates a StreamingChatHandler.
//
// # Description
//
// All dependencies must be initialized before calling. Panics on a nil
// llmClient or retriever (programming errors). The moderator may be nil,
// which disables the moderation gate.
//
// # Examples
//
//	handler := handlers.NewStreamingChatHandler(llmClient, moderator, retriever)
//	router.POST("/api/chat", handler.HandleChatStream)
func NewStreamingChatHandler(llmClient llm.LLMClient, moderator llm.Moderator, retriever ContextRetriever) StreamingChatHandler {
	if llmClient == nil {
		panic("NewStreamingChatHandler: llmClient must not be nil")
	}
	if retriever == nil {
		panic("NewStreamingChatHandler: retriever must not be nil")
	}
	modelName := os.Getenv("OPENAI_MODEL")
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return &streamingChatHandler{
		llmClient: llmClient,
		moderator: moderator,
		retriever: retriever,
		modelName: modelName,
		tracer:    otel.Tracer("placecell.orchestrator.handlers"),
	}
}

// =============================================================================
// Handler
// =============================================================================

// HandleChatStream handles POST /api/chat.
//
// # Description
//
// Runs the full chat turn: validate the request, screen the question,
// retrieve corpus context, and stream the model answer as line frames.
// Errors after the stream has opened are reported in-band as error frames;
// the HTTP status is already 200 by then.
//
// A flagged question still produces a well-formed stream: a message frame
// with the refusal text and a finish frame with reason "moderated".
//
// # Edge Cases
//
//   - Retrieval failure degrades to an empty context; the turn proceeds.
//   - Client disconnect aborts generation via context cancellation.
func (h *streamingChatHandler) HandleChatStream(c *gin.Context) {
	startTime := time.Now()
	endpoint := observability.EndpointChatStream

	ctx, span := h.tracer.Start(c.Request.Context(), "HandleChatStream")
	defer span.End()

	if m := observability.DefaultMetrics; m != nil {
		m.StreamStarted(endpoint)
		defer m.StreamEnded(endpoint)
	}

	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			duration := time.Since(startTime).Seconds()
			m.RecordRequest(endpoint, success)
			m.RecordStreamDuration(endpoint, duration, success)
		}
	}()

	// Step 1: Parse and validate the request.
	var req datatypes.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to parse chat request", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request validation failed")
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
	span.SetAttributes(
		attribute.Int("chat.messages", len(req.Messages)),
		attribute.Int("chat.question_chars", len(question)),
	)

	// Step 2: Moderation gate. The moderator fails open, so only a real
	// flag short-circuits the turn.
	flagged := false
	if h.moderator != nil {
		var err error
		flagged, err = h.moderator.Moderate(ctx, question)
		if err != nil {
			slog.Warn("Moderation returned error, continuing", "error", err)
		}
	}

	// Step 3: Open the stream.
	SetStreamHeaders(c.Writer)
	writer, err := NewStreamWriter(c.Writer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream setup failed")
		slog.Error("Failed to create stream writer", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeInternal)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	if flagged {
		span.SetAttributes(attribute.Bool("chat.moderation_flagged", true))
		slog.Warn("Moderation flagged question, streaming refusal")
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeModerationFlagged)
			m.RecordModerationFlag(endpoint)
		}
		_ = writer.WriteMessage(moderationRefusal)
		_ = writer.WriteFinish(datatypes.FinishReasonModerated)
		success = true
		return
	}

	// Step 4: Heartbeat while retrieval and generation run.
	heartbeatDone := make(chan struct{})
	go h.runHeartbeat(ctx, writer, endpoint, heartbeatDone)
	defer close(heartbeatDone)

	// Step 5: Retrieval. Failure degrades to an empty context.
	result, err := h.retriever.Retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		slog.Error("Retrieval failed, continuing without context", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeRetrievalError)
		}
		result = &datatypes.RetrievalResult{}
	}
	span.SetAttributes(
		attribute.Int("retrieval.sources_count", len(result.Sources)),
		attribute.Int("retrieval.context_chars", result.ContextChars),
	)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRetrievalContext(endpoint, result.ContextChars)
	}

	if err := writer.WriteSources(result.Sources); err != nil {
		span.RecordError(err)
		slog.Error("Failed to write sources frame", "error", err)
		return
	}

	// Step 6: Stream the answer.
	messages := retrieval.BuildMessages(result.Context, req.ToModelMessages(), question)

	params := llm.GenerationParams{
		EnableSearch: result.ContextChars < searchFallbackThreshold,
	}

	var tokenCount int32
	firstTokenTime := time.Time{}
	streamErr := h.streamAnswer(ctx, messages, params, writer, endpoint, &tokenCount, &firstTokenTime)

	if streamErr != nil {
		span.RecordError(streamErr)
		span.SetStatus(codes.Error, "model streaming failed")
		span.SetAttributes(attribute.Int("stream.token_count", int(tokenCount)))
		slog.Error("Model streaming failed",
			"error", streamErr,
			"tokenCount", atomic.LoadInt32(&tokenCount),
		)
		if m := observability.DefaultMetrics; m != nil {
			if errors.Is(streamErr, context.Canceled) {
				m.RecordError(endpoint, observability.ErrorCodeClientDisconnect)
				m.RecordClientDisconnect(endpoint)
			} else {
				m.RecordError(endpoint, observability.ErrorCodeModelError)
			}
		}
		// The error frame has already been written.
		return
	}

	if !firstTokenTime.IsZero() {
		ttft := firstTokenTime.Sub(startTime).Seconds()
		span.SetAttributes(attribute.Float64("stream.time_to_first_token_seconds", ttft))
		if m := observability.DefaultMetrics; m != nil {
			m.RecordTimeToFirstToken(endpoint, ttft)
		}
	}
	span.SetAttributes(attribute.Int("stream.token_count", int(tokenCount)))
	if m := observability.DefaultMetrics; m != nil {
		m.RecordTokens(0, int(atomic.LoadInt32(&tokenCount)), h.modelName)
	}

	if err := writer.WriteFinish(datatypes.FinishReasonStop); err != nil {
		slog.Error("Failed to write finish frame", "error", err)
		return
	}
	success = true
}

// =============================================================================
// Streaming Internals
// =============================================================================

// streamAnswer runs the model stream, forwarding tokens as text-delta
// frames and tracking first-token latency.
func (h *streamingChatHandler) streamAnswer(
	ctx context.Context,
	messages []datatypes.Message,
	params llm.GenerationParams,
	writer StreamWriter,
	endpoint observability.Endpoint,
	tokenCount *int32,
	firstTokenTime *time.Time,
) error {
	textID, err := writer.StartText()
	if err != nil {
		return err
	}

	callback := func(event llm.StreamEvent) error {
		// Stop immediately if the client disconnected; every token past
		// this point is wasted spend.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch event.Type {
		case llm.StreamEventToken:
			if firstTokenTime.IsZero() {
				*firstTokenTime = time.Now()
			}
			atomic.AddInt32(tokenCount, 1)
			return writer.WriteTextDelta(textID, event.Content)

		case llm.StreamEventToolUse:
			slog.Debug("Model invoked tool", "tool", event.Content)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordToolRound(endpoint)
			}
		}
		return nil
	}

	if err := h.llmClient.ChatStream(ctx, messages, params, callback); err != nil {
		// Full error stays in the logs; the client sees a generic line.
		_ = writer.WriteError(sanitizeErrorForClient(err.Error()))
		return err
	}
	return nil
}

// runHeartbeat writes keepalive pings until the stream finishes or the
// client goes away.
func (h *streamingChatHandler) runHeartbeat(
	ctx context.Context,
	writer StreamWriter,
	endpoint observability.Endpoint,
	done <-chan struct{},
) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				slog.Debug("Failed to write keepalive", "error", err)
				return
			}
			if m := observability.DefaultMetrics; m != nil {
				m.RecordKeepAlive(endpoint)
			}
		}
	}
}

// sanitizeErrorForClient maps any internal error to a generic client
// message. Provider errors can carry keys, URLs, and prompt fragments.
func sanitizeErrorForClient(errMsg string) string {
	slog.Debug("Sanitizing error for client", "original_error", errMsg)
	return "An error occurred while processing your request"
}

var _ StreamingChatHandler = (*streamingChatHandler)(nil)
