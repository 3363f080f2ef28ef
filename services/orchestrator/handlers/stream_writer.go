// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// =============================================================================
// Interface Definition
// =============================================================================

// StreamWriter defines the contract for writing chat stream frames to HTTP
// responses.
//
// # Description
//
// StreamWriter abstracts frame serialization and writing, enabling
// testability and separation from HTTP response mechanics. Implementations
// handle the wire format ("0:<json>\n", one frame per line) internally.
//
// Each frame is automatically assigned a CreatedAt timestamp; text frames
// additionally carry a shared block id assigned by StartText.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. The heartbeat goroutine
// writes pings while the main goroutine writes deltas.
//
// # Assumptions
//
//   - Caller has set stream headers via SetStreamHeaders before writing.
type StreamWriter interface {
	// WriteFrame writes a single frame. CreatedAt is auto-set.
	WriteFrame(frame datatypes.StreamFrame) error

	// StartText opens a text block and returns its id. Subsequent
	// WriteTextDelta calls reuse the id.
	StartText() (string, error)

	// WriteTextDelta writes one answer chunk under a text block id.
	WriteTextDelta(id, delta string) error

	// WriteSources writes the source attributions for the answer.
	WriteSources(sources []datatypes.SourceInfo) error

	// WriteMessage writes a complete standalone message, used for
	// refusals.
	WriteMessage(message string) error

	// WriteFinish closes the stream after a completed turn.
	WriteFinish(reason string) error

	// WriteError writes a sanitized error frame. Should be followed by
	// closing the stream.
	WriteError(errMsg string) error

	// WriteKeepAlive sends a ping frame so intermediaries do not drop
	// the connection during retrieval or slow generation.
	WriteKeepAlive() error
}

// =============================================================================
// Struct Definition
// =============================================================================

// streamWriter implements StreamWriter over an http.ResponseWriter. Every
// frame is flushed immediately; the protocol has no batching.
type streamWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// NewStreamWriter creates a StreamWriter for the given ResponseWriter.
// Returns an error when the writer cannot flush, since an unflushable
// stream would buffer the whole response.
func NewStreamWriter(w http.ResponseWriter) (StreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}
	return &streamWriter{writer: w, flusher: flusher}, nil
}

// =============================================================================
// Methods
// =============================================================================

// WriteFrame writes a single frame in wire format and flushes.
func (w *streamWriter) WriteFrame(frame datatypes.StreamFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	frame.CreatedAt = time.Now().UnixMilli()

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "0:%s\n", data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	w.flusher.Flush()
	return nil
}

// StartText opens a text block and returns its id.
func (w *streamWriter) StartText() (string, error) {
	id := uuid.New().String()
	return id, w.WriteFrame(datatypes.StreamFrame{
		Type: datatypes.FrameTextStart,
		Id:   id,
	})
}

// WriteTextDelta writes one answer chunk.
func (w *streamWriter) WriteTextDelta(id, delta string) error {
	return w.WriteFrame(datatypes.StreamFrame{
		Type:  datatypes.FrameTextDelta,
		Id:    id,
		Delta: delta,
	})
}

// WriteSources writes the source attributions for the answer.
func (w *streamWriter) WriteSources(sources []datatypes.SourceInfo) error {
	return w.WriteFrame(datatypes.StreamFrame{
		Type:    datatypes.FrameSources,
		Id:      uuid.New().String(),
		Sources: sources,
	})
}

// WriteMessage writes a complete standalone message.
func (w *streamWriter) WriteMessage(message string) error {
	return w.WriteFrame(datatypes.StreamFrame{
		Type:    datatypes.FrameMessage,
		Id:      uuid.New().String(),
		Message: message,
	})
}

// WriteFinish closes the stream after a completed turn.
func (w *streamWriter) WriteFinish(reason string) error {
	return w.WriteFrame(datatypes.StreamFrame{
		Type:         datatypes.FrameFinish,
		FinishReason: reason,
	})
}

// WriteError writes a sanitized error frame.
func (w *streamWriter) WriteError(errMsg string) error {
	return w.WriteFrame(datatypes.StreamFrame{
		Type:  datatypes.FrameError,
		Error: errMsg,
	})
}

// WriteKeepAlive sends a ping frame.
func (w *streamWriter) WriteKeepAlive() error {
	return w.WriteFrame(datatypes.StreamFrame{Type: datatypes.FramePing})
}

// SetStreamHeaders sets the response headers for a chat stream. The body is
// line-delimited JSON, not SSE, so the content type stays text/plain.
func SetStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ StreamWriter = (*streamWriter)(nil)
