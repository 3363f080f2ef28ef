// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

const moderationModel = "omni-moderation-latest"

// OpenAIModerator implements Moderator against the OpenAI moderation API.
//
// Moderation is advisory: a provider outage must not take the assistant
// down, so errors are logged and the input is treated as clean.
type OpenAIModerator struct {
	client *openai.Client
}

var _ Moderator = (*OpenAIModerator)(nil)

// NewOpenAIModerator builds a moderator reusing the chat client's transport
// configuration.
func NewOpenAIModerator(chat *OpenAIClient) *OpenAIModerator {
	return &OpenAIModerator{client: chat.client}
}

// Moderate implements the Moderator interface.
func (m *OpenAIModerator) Moderate(ctx context.Context, text string) (bool, error) {
	if text == "" {
		return false, nil
	}
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: moderationModel,
	})
	if err != nil {
		slog.Warn("Moderation call failed, treating input as clean", "error", err)
		return false, nil
	}
	for _, result := range resp.Results {
		if result.Flagged {
			return true, nil
		}
	}
	return false, nil
}
