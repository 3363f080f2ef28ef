// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the placement assistant
// service.
//
// This file contains the chat request and message types shared by the
// streaming and non-streaming chat endpoints. For retrieval types, see
// retrieval.go.
package datatypes

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	// Checked in bytes, not runes, so oversized payloads are rejected before
	// they reach the model.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxMessagesPerRequest is the maximum number of messages in a request.
	MaxMessagesPerRequest = 100

	// RoleUser, RoleAssistant, and RoleSystem are the accepted message roles.
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes validates that a string field does not exceed
// MaxMessageContentBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	content := fl.Field().String()
	return len(content) <= MaxMessageContentBytes
}

// =============================================================================
// Chat Request Types
// =============================================================================

// UIMessage is a single turn of conversation as sent by the dashboard client.
//
// # Description
//
// The dashboard resends the full visible conversation on every request, so a
// UIMessage carries only what the service needs to rebuild model context: a
// role and the text content. Any extra fields the client attaches (ids,
// timestamps, rendering hints) are ignored on decode.
//
// # Validation
//
//   - Role: required, one of "user", "assistant", "system"
//   - Content: required, at most 32KB
type UIMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// ChatRequest is the body of POST /api/chat.
//
// # Description
//
// ChatRequest carries the full conversation history for one chat turn. The
// last user message is the active question; earlier messages are context.
// There is no server-side session state, so the client owns the history.
//
// # Limitations
//
//   - Maximum 100 messages per request; older turns must be dropped
//     client-side.
//   - Message content limited to 32KB each.
type ChatRequest struct {
	Messages []UIMessage `json:"messages" validate:"required,min=1,max=100,dive"`
}

// Validate checks the request against the struct validation rules and
// returns the first violation found.
func (r *ChatRequest) Validate() error {
	if err := chatValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid chat request: %w", err)
	}
	return nil
}

// LastUserMessage returns the content of the most recent user turn, or an
// empty string when the history contains no user message.
func (r *ChatRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return strings.TrimSpace(r.Messages[i].Content)
		}
	}
	return ""
}

// Message is the provider-facing conversation turn used when talking to the
// model backend. It mirrors UIMessage but is kept separate so handler-level
// concerns (client field tolerance, validation tags) stay out of the model
// layer.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToModelMessages converts the request history into provider messages,
// dropping any client-sent system turns. The service injects its own system
// prompt; a client must not be able to override it.
func (r *ChatRequest) ToModelMessages() []Message {
	out := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out
}
