// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func ingestHTTPClient() *http.Client {
	// Embedding big transcripts takes a while.
	return &http.Client{Timeout: 5 * time.Minute}
}

func runIngestTranscripts(cmd *cobra.Command, args []string) {
	dir := args[0]
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("Could not read directory %s: %v", dir, err)
	}

	client := ingestHTTPClient()
	uploaded, failed := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Could not read %s: %v", path, err)
			failed++
			continue
		}

		body, err := json.Marshal(map[string]string{
			"filename": entry.Name(),
			"content":  string(content),
		})
		if err != nil {
			log.Fatalf("Failed to encode request: %v", err)
		}

		resp, err := client.Post(getServerBaseURL()+"/v1/transcripts", "application/json", bytes.NewBuffer(body))
		if err != nil {
			log.Printf("Upload failed for %s: %v", entry.Name(), err)
			failed++
			continue
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Printf("Server rejected %s (%d): %s", entry.Name(), resp.StatusCode, strings.TrimSpace(string(respBody)))
			failed++
			continue
		}
		fmt.Printf("Ingested %s\n", entry.Name())
		uploaded++
	}

	fmt.Printf("\nDone: %d ingested, %d failed\n", uploaded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func runIngestAlumni(cmd *cobra.Command, args []string) {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Could not open %s: %v", path, err)
	}
	defer f.Close()

	req, err := http.NewRequest("POST", getServerBaseURL()+"/v1/alumni", f)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := ingestHTTPClient().Do(req)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Rows     int `json:"rows"`
		Accepted int `json:"accepted"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		log.Fatalf("Failed to decode response: %v", err)
	}
	fmt.Printf("Ingested %d of %d alumni records\n", result.Accepted, result.Rows)
}
