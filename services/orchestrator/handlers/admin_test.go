// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitsom-placements/placecell/pkg/ingest"
	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

// mockTranscriptIngestor implements TranscriptIngestor.
type mockTranscriptIngestor struct {
	Chunks       int
	Err          error
	LastFilename string
}

func (m *mockTranscriptIngestor) IngestTranscript(ctx context.Context, filename, content string) (int, error) {
	m.LastFilename = filename
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Chunks, nil
}

// mockPlacementUpdater implements PlacementUpdater.
type mockPlacementUpdater struct {
	Updated *ingest.StoredPlacement
	Err     error
	LastReq datatypes.UpdatePlacementRequest
}

func (m *mockPlacementUpdater) UpdatePlacement(ctx context.Context, applicationID string, req datatypes.UpdatePlacementRequest) (*ingest.StoredPlacement, error) {
	m.LastReq = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Updated, nil
}

func TestHandleTranscriptUpload_Success(t *testing.T) {
	ingestor := &mockTranscriptIngestor{Chunks: 3}
	handler := NewTranscriptHandler(ingestor)
	router := gin.New()
	router.POST("/v1/transcripts", handler.HandleTranscriptUpload)

	body, _ := json.Marshal(TranscriptUploadRequest{
		Filename: "Bain_Priya_Sharma.txt",
		Content:  "Round one was a guesstimate about metro ridership.",
	})
	req, _ := http.NewRequest("POST", "/v1/transcripts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bain_Priya_Sharma.txt", ingestor.LastFilename)
	assert.Contains(t, w.Body.String(), `"chunks":3`)
}

func TestHandleTranscriptUpload_MissingFields(t *testing.T) {
	handler := NewTranscriptHandler(&mockTranscriptIngestor{})
	router := gin.New()
	router.POST("/v1/transcripts", handler.HandleTranscriptUpload)

	body, _ := json.Marshal(map[string]string{"filename": "Bain_Priya.txt"})
	req, _ := http.NewRequest("POST", "/v1/transcripts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTranscriptUpload_IngestErrorReturns422(t *testing.T) {
	handler := NewTranscriptHandler(&mockTranscriptIngestor{Err: errors.New("bad filename")})
	router := gin.New()
	router.POST("/v1/transcripts", handler.HandleTranscriptUpload)

	body, _ := json.Marshal(TranscriptUploadRequest{Filename: "notes.txt", Content: "x"})
	req, _ := http.NewRequest("POST", "/v1/transcripts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func patchPlacement(t *testing.T, handler PlacementHandler, id string, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.PATCH("/v1/placements/:applicationId", handler.HandlePlacementUpdate)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest("PATCH", "/v1/placements/"+id, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlePlacementUpdate_Success(t *testing.T) {
	updater := &mockPlacementUpdater{Updated: &ingest.StoredPlacement{
		ApplicationID: "APP-2026-001",
		Company:       "Deloitte",
		Text:          "Deloitte consulting drive.\nDeadline: 2026-09-15 (IST)",
		DeadlineMs:    1789500600000,
	}}
	handler := NewPlacementHandler(updater)

	w := patchPlacement(t, handler, "APP-2026-001", datatypes.UpdatePlacementRequest{
		Deadline: "15-Sep-26 23:00:00",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "15-Sep-26 23:00:00", updater.LastReq.Deadline)
	assert.Contains(t, w.Body.String(), "Deloitte")
}

func TestHandlePlacementUpdate_NotFoundReturns404(t *testing.T) {
	handler := NewPlacementHandler(&mockPlacementUpdater{Err: ingest.ErrPlacementNotFound})

	w := patchPlacement(t, handler, "APP-9999", datatypes.UpdatePlacementRequest{Company: "Acme"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlePlacementUpdate_EmptyBodyReturns400(t *testing.T) {
	handler := NewPlacementHandler(&mockPlacementUpdater{})

	w := patchPlacement(t, handler, "APP-2026-001", datatypes.UpdatePlacementRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlePlacementUpdate_StoreErrorReturns500(t *testing.T) {
	handler := NewPlacementHandler(&mockPlacementUpdater{Err: errors.New("weaviate down")})

	w := patchPlacement(t, handler, "APP-2026-001", datatypes.UpdatePlacementRequest{Company: "Acme"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "weaviate down")
}
