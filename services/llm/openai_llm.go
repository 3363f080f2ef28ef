// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// webSearchToolName is the function name advertised to the model for the
// fallback web search tool.
const webSearchToolName = "web_search"

// maxToolRounds caps how many times a single chat turn may invoke the search
// tool before the model must answer with what it has.
const maxToolRounds = 1

type OpenAIClient struct {
	client *openai.Client
	model  string
	search SearchFunc
}

var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from the environment. The API key comes
// from OPENAI_API_KEY, falling back to the container secret mount.
func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from the secrets mount")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// newOpenAIClientWithBaseURL builds a client against an alternate endpoint.
// Used by tests to point at a mock server.
func newOpenAIClientWithBaseURL(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// WithSearch enables the web search fallback tool. When set, ChatStream
// advertises the tool and resolves at most one tool round per turn.
func (o *OpenAIClient) WithSearch(fn SearchFunc) *OpenAIClient {
	o.search = fn
	return o
}

// Generate implements the LLMClient interface.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	slog.Debug("Generating text via OpenAI", "model", o.model)
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	applyParams(&req, params)

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// ChatStream implements the LLMClient interface.
//
// # Description
//
// ChatStream streams the model response for a conversation, delivering one
// StreamEventToken per content delta and a final StreamEventDone. When a
// search function is configured and params.EnableSearch is set the model
// may invoke the web_search tool;
// the tool is resolved inline, the result is appended to the conversation,
// and the follow-up generation is streamed on the same callback. The
// follow-up request carries no tools, so a turn never loops.
//
// # Limitations
//
//   - At most one tool round per turn.
//   - Tool failures are swallowed: the model receives an empty result and
//     answers from retrieval context alone.
func (o *OpenAIClient) ChatStream(ctx context.Context, messages []datatypes.Message,
	params GenerationParams, callback StreamCallback) error {

	reqMessages := toProviderMessages(messages)

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: reqMessages,
		Stream:   true,
	}
	applyParams(&req, params)
	searchEnabled := o.search != nil && params.EnableSearch
	if searchEnabled {
		req.Tools = []openai.Tool{webSearchTool()}
	}

	for round := 0; ; round++ {
		toolCalls, err := o.streamOnce(ctx, req, callback)
		if err != nil {
			return err
		}
		if len(toolCalls) == 0 || !searchEnabled || round >= maxToolRounds {
			break
		}

		if err := callback(StreamEvent{Type: StreamEventToolUse, Content: webSearchToolName}); err != nil {
			return err
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			ToolCalls: toolCalls,
		})
		for _, call := range toolCalls {
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    o.resolveSearchCall(ctx, call),
			})
		}
		// No tools on the follow-up request.
		req.Tools = nil
	}

	return callback(StreamEvent{Type: StreamEventDone})
}

// streamOnce runs a single streaming completion, forwarding content deltas
// to the callback and accumulating any tool call the model assembles across
// deltas. It returns the completed tool calls, if any.
func (o *OpenAIClient) streamOnce(ctx context.Context, req openai.ChatCompletionRequest,
	callback StreamCallback) ([]openai.ToolCall, error) {

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		slog.Error("OpenAI stream creation failed", "error", err)
		return nil, fmt.Errorf("OpenAI stream creation failed: %w", err)
	}
	defer stream.Close()

	// Tool call arguments arrive fragmented across deltas, keyed by index.
	pending := map[int]*openai.ToolCall{}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("OpenAI stream receive failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.Content != "" {
			if err := callback(StreamEvent{Type: StreamEventToken, Content: delta.Content}); err != nil {
				return nil, err
			}
		}
		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			cur, ok := pending[idx]
			if !ok {
				cur = &openai.ToolCall{Type: openai.ToolTypeFunction}
				pending[idx] = cur
			}
			if tc.ID != "" {
				cur.ID = tc.ID
			}
			if tc.Function.Name != "" {
				cur.Function.Name = tc.Function.Name
			}
			cur.Function.Arguments += tc.Function.Arguments
		}
	}

	if len(pending) == 0 {
		return nil, nil
	}
	indices := make([]int, 0, len(pending))
	for idx := range pending {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	calls := make([]openai.ToolCall, 0, len(pending))
	for _, idx := range indices {
		calls = append(calls, *pending[idx])
	}
	return calls, nil
}

// resolveSearchCall parses the tool arguments and runs the search. Any
// failure yields an empty result so the turn can still complete.
func (o *OpenAIClient) resolveSearchCall(ctx context.Context, call openai.ToolCall) string {
	if call.Function.Name != webSearchToolName {
		slog.Warn("Model invoked unknown tool", "tool", call.Function.Name)
		return ""
	}
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args.Query == "" {
		slog.Warn("Unparseable web_search arguments", "arguments", call.Function.Arguments)
		return ""
	}
	result, err := o.search(ctx, args.Query)
	if err != nil {
		slog.Warn("Web search failed, continuing without results", "query", args.Query, "error", err)
		return ""
	}
	return result
}

func webSearchTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name: webSearchToolName,
			Description: "Search the public web for current information not present " +
				"in the placement knowledge base, such as recent company news.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

func applyParams(req *openai.ChatCompletionRequest, params GenerationParams) {
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}
}

func toProviderMessages(messages []datatypes.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
