// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm wraps the model provider behind small interfaces so handlers
// and ingestion code never touch provider SDK types directly.
package llm

import (
	"context"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// GenerationParams carries optional sampling parameters. Nil fields keep the
// provider default.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`

	// EnableSearch allows the web search fallback tool for this turn. It
	// only has effect on clients configured with a search function.
	EnableSearch bool `json:"-"`
}

// =============================================================================
// Streaming Types
// =============================================================================

// StreamEventType discriminates events delivered to a StreamCallback.
type StreamEventType string

const (
	// StreamEventToken carries one content delta.
	StreamEventToken StreamEventType = "token"

	// StreamEventToolUse signals that the model invoked a tool and the
	// client is resolving it before generation resumes. Content names the
	// tool.
	StreamEventToolUse StreamEventType = "tool_use"

	// StreamEventDone signals the end of generation.
	StreamEventDone StreamEventType = "done"
)

// StreamEvent is one event from a streaming generation.
type StreamEvent struct {
	Type    StreamEventType
	Content string
}

// StreamCallback receives stream events in generation order. Returning an
// error aborts the stream; the error is propagated out of ChatStream.
type StreamCallback func(event StreamEvent) error

// SearchFunc resolves a web search query into result text for the model.
// Implementations must fail open: on error, return "" and log server-side.
type SearchFunc func(ctx context.Context, query string) (string, error)

// =============================================================================
// Client Interfaces
// =============================================================================

// LLMClient defines the standard interface for any chat model backend.
type LLMClient interface {
	// Generate produces a complete response for a single prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// ChatStream streams a conversation response token by token through
	// the callback. It returns after the done event has been delivered.
	ChatStream(ctx context.Context, messages []datatypes.Message, params GenerationParams, callback StreamCallback) error
}

// Embedder produces dense vectors for retrieval.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds a batch of texts in one provider call, preserving
	// input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Moderator screens user input before it reaches retrieval or the model.
type Moderator interface {
	// Moderate reports whether the text is flagged. Implementations fail
	// open: a provider error returns (false, nil) after logging.
	Moderate(ctx context.Context, text string) (bool, error)
}
