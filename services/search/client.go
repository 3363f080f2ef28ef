// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package search provides the web search fallback used when the placement
// corpus cannot answer a question. It talks to a SearxNG-compatible JSON
// endpoint configured via SEARCH_API_URL.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// maxResults caps how many hits are formatted into model context.
	maxResults = 5

	// maxSnippetChars truncates one result snippet.
	maxSnippetChars = 500
)

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the search endpoint and formats hits for the model.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// searchResponse is the subset of the SearxNG JSON format we consume.
type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewClient builds a client from SEARCH_API_URL. It returns nil when the
// variable is unset, which disables the search tool entirely.
func NewClient() *Client {
	baseURL := os.Getenv("SEARCH_API_URL")
	if baseURL == "" {
		slog.Info("SEARCH_API_URL not set, web search tool disabled")
		return nil
	}
	slog.Info("Initializing web search client", "url", baseURL)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithHTTP builds a client against an explicit endpoint and HTTP
// client. Used by tests.
func NewClientWithHTTP(baseURL string, httpClient HTTPClient) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Search runs one query and returns the hits as a plain-text block, one
// result per paragraph. An empty string means no usable results; the caller
// proceeds without them.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s&format=json", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	if len(parsed.Results) == 0 {
		slog.Debug("Web search returned no results", "query", query)
		return "", nil
	}

	var b strings.Builder
	for i, r := range parsed.Results {
		if i >= maxResults {
			break
		}
		snippet := r.Content
		if len(snippet) > maxSnippetChars {
			snippet = snippet[:maxSnippetChars]
		}
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, r.Title, r.URL, snippet)
	}
	return strings.TrimSpace(b.String()), nil
}
