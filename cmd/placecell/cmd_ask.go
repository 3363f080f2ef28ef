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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitsom-placements/placecell/pkg/ux"
	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

type chatAPIResponse struct {
	Answer    string                 `json:"answer"`
	Sources   []datatypes.SourceInfo `json:"sources"`
	RequestID string                 `json:"request_id"`
}

func runAskCommand(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")

	if streamAnswer {
		if err := askStreaming(question); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}
	if err := askOnce(question); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func chatRequestBody(question string) (*bytes.Buffer, error) {
	body, err := json.Marshal(datatypes.ChatRequest{
		Messages: []datatypes.UIMessage{{Role: datatypes.RoleUser, Content: question}},
	})
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(body), nil
}

func askOnce(question string) error {
	body, err := chatRequestBody(question)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Post(getServerBaseURL()+"/v1/chat", "application/json", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var chatResp chatAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Println(chatResp.Answer)
	ux.PrintSources(os.Stdout, chatResp.Sources)
	return nil
}

func askStreaming(question string) error {
	body, err := chatRequestBody(question)
	if err != nil {
		return err
	}

	// No client timeout: the server keeps the stream alive with pings.
	resp, err := http.Post(getServerBaseURL()+"/api/chat", "application/json", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	proc := ux.NewStreamProcessor()
	proc.StartWaiting("Thinking")
	result, err := proc.Process(resp.Body)
	if err != nil {
		return err
	}
	ux.PrintSources(os.Stdout, result.Sources)
	return nil
}
