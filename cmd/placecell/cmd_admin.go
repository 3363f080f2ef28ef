// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
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

	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

func adminHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func runPlacementsUpdate(cmd *cobra.Command, args []string) {
	applicationID := args[0]

	update := datatypes.UpdatePlacementRequest{
		Deadline: updateDeadline,
		Company:  updateCompany,
	}
	if updateTextFile != "" {
		content, err := os.ReadFile(updateTextFile)
		if err != nil {
			log.Fatalf("Could not read %s: %v", updateTextFile, err)
		}
		update.Text = string(content)
	}
	if update.Deadline == "" && update.Company == "" && update.Text == "" {
		log.Fatal("Nothing to update: pass --deadline, --company, or --text-file")
	}

	body, err := json.Marshal(update)
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}

	req, err := http.NewRequest("PATCH",
		getServerBaseURL()+"/v1/placements/"+applicationID, bytes.NewBuffer(body))
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := adminHTTPClient().Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	fmt.Printf("Updated placement %s\n%s\n", applicationID, strings.TrimSpace(string(respBody)))
}

func runNamespacePurge(cmd *cobra.Command, args []string) {
	ns := args[0]
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		fmt.Printf("This deletes EVERY object in the %q namespace. Type the namespace name to confirm: ", ns)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(answer) != ns {
			fmt.Println("Aborted.")
			return
		}
	}

	req, err := http.NewRequest("DELETE", getServerBaseURL()+"/v1/namespaces/"+ns, nil)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	resp, err := adminHTTPClient().Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	fmt.Printf("Purged namespace %s\n", ns)
}

func runNamespaceCounts(cmd *cobra.Command, args []string) {
	resp, err := adminHTTPClient().Get(getServerBaseURL() + "/v1/namespaces")
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Namespaces map[string]int64 `json:"namespaces"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		log.Fatalf("Failed to decode response: %v", err)
	}

	for _, ns := range datatypes.AllNamespaces {
		count := result.Namespaces[string(ns)]
		if count < 0 {
			fmt.Printf("%-14s unavailable\n", ns)
			continue
		}
		fmt.Printf("%-14s %d\n", ns, count)
	}
}
