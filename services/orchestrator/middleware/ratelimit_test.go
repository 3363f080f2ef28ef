// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(RateLimit(opts))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestRateLimit_AllowsWithinBudget(t *testing.T) {
	t.Parallel()

	router := newLimitedRouter(Options{Store: NewStore(10, 5)})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	t.Parallel()

	// rps low enough that the bucket cannot refill mid-test.
	router := newLimitedRouter(Options{Store: NewStore(0.001, 2)})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_SetsRetryAfterHeader(t *testing.T) {
	t.Parallel()

	router := newLimitedRouter(Options{
		Store:      NewStore(0.001, 1),
		RetryAfter: 3 * time.Second,
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	router.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	router := newLimitedRouter(Options{Store: NewStore(0.001, 1)})

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.RemoteAddr = "10.0.0.4:1234"
	router.ServeHTTP(httptest.NewRecorder(), first)

	// A different client still has a full bucket.
	w := httptest.NewRecorder()
	second := httptest.NewRequest(http.MethodGet, "/ping", nil)
	second.RemoteAddr = "10.0.0.5:1234"
	router.ServeHTTP(w, second)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDefaultKeyFunc_PrefersForwardedFor(t *testing.T) {
	t.Parallel()

	keyFn := DefaultKeyFunc(true)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.6:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.6")

	assert.Equal(t, "203.0.113.9", keyFn(req))
}

func TestDefaultKeyFunc_IgnoresForwardedForWhenUntrusted(t *testing.T) {
	t.Parallel()

	keyFn := DefaultKeyFunc(false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	assert.Equal(t, "10.0.0.7", keyFn(req))
}

func TestStore_CleanupEvictsIdleEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(1, 1, WithIdleTTL(time.Nanosecond))
	store.Get("stale")
	time.Sleep(time.Millisecond)
	store.Cleanup()

	store.mu.Lock()
	_, ok := store.entries["stale"]
	store.mu.Unlock()
	assert.False(t, ok)
}

type recordingStats struct {
	mu     sync.Mutex
	events []StatsEvent
}

func (r *recordingStats) Record(_ context.Context, ev StatsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestRateLimit_RecordsStats(t *testing.T) {
	t.Parallel()

	stats := &recordingStats{}
	router := newLimitedRouter(Options{Store: NewStore(0.001, 1), Stats: stats})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.8:1234"
	router.ServeHTTP(httptest.NewRecorder(), req)
	router.ServeHTTP(httptest.NewRecorder(), req)

	stats.mu.Lock()
	defer stats.mu.Unlock()
	require.Len(t, stats.events, 2)
	assert.True(t, stats.events[0].Allowed)
	assert.False(t, stats.events[1].Allowed)
	assert.Equal(t, "/ping", stats.events[0].Path)
}
