// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// HealthCheck reports liveness. Weaviate reachability is advisory; the
// endpoint stays 200 so orchestrators do not restart the service on a
// transient store outage.
func HealthCheck(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		weaviateUp := false
		if client != nil {
			if ok, err := client.Misc().LiveChecker().Do(c.Request.Context()); err == nil && ok {
				weaviateUp = true
			}
		}
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o-mini"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"model":    model,
			"weaviate": weaviateUp,
		})
	}
}
