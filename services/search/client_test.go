// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search_FormatsResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme careers", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Acme Careers","url":"https://acme.example/careers","content":"Open roles at Acme."},
			{"title":"Acme News","url":"https://news.example/acme","content":"Acme expands hiring."}
		]}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	out, err := client.Search(context.Background(), "acme careers")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] Acme Careers (https://acme.example/careers)")
	assert.Contains(t, out, "Open roles at Acme.")
	assert.Contains(t, out, "[2] Acme News")
}

func TestClient_Search_EmptyResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	out, err := client.Search(context.Background(), "nothing")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_Search_NonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	_, err := client.Search(context.Background(), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Search_TruncatesToMaxResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"title":"1","url":"u1","content":"c"},
			{"title":"2","url":"u2","content":"c"},
			{"title":"3","url":"u3","content":"c"},
			{"title":"4","url":"u4","content":"c"},
			{"title":"5","url":"u5","content":"c"},
			{"title":"6","url":"u6","content":"c"}
		]}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	out, err := client.Search(context.Background(), "q")

	require.NoError(t, err)
	assert.Contains(t, out, "[5]")
	assert.NotContains(t, out, "[6]")
}
