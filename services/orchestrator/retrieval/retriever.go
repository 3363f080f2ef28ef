// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retrieval implements the corpus search step of a chat turn: embed
// the question once, query every namespace in parallel, merge the hits under
// the context budget, and assemble the prompt.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bitsom-placements/placecell/services/llm"
	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
)

var tracer = otel.Tracer("placecell.orchestrator.retrieval")

// maxEmbedChars truncates the question before embedding. Longer input adds
// cost without improving the vector.
const maxEmbedChars = 8192

// Config controls fan-out width and context budgets.
type Config struct {
	// TopK is the per-namespace result limit.
	TopK int

	// NamespaceBudgets caps the context characters each namespace may
	// contribute after merging.
	NamespaceBudgets map[datatypes.Namespace]int

	// TotalBudget caps the assembled context overall.
	TotalBudget int
}

// DefaultConfig returns the production budgets. Placements and transcripts
// carry most answers, so they get the larger shares.
func DefaultConfig() Config {
	return Config{
		TopK: 5,
		NamespaceBudgets: map[datatypes.Namespace]int{
			datatypes.NamespacePlacements:  8000,
			datatypes.NamespaceStats:       4000,
			datatypes.NamespaceTranscripts: 8000,
			datatypes.NamespaceAlumni:      4000,
		},
		TotalBudget: 24000,
	}
}

// Retriever runs one retrieval pass per chat turn.
//
// # Description
//
// Retriever embeds the question once and fans the vector out to all
// namespaces concurrently. A namespace that errors contributes nothing;
// the turn proceeds on whatever the remaining namespaces returned.
//
// # Thread Safety
//
// Retriever is safe for concurrent use. The Weaviate client handles
// connection pooling.
type Retriever struct {
	client   *weaviate.Client
	embedder llm.Embedder
	config   Config
}

// NewRetriever creates a retriever. Zero config fields fall back to
// DefaultConfig values.
func NewRetriever(client *weaviate.Client, embedder llm.Embedder, config Config) *Retriever {
	defaults := DefaultConfig()
	if config.TopK <= 0 {
		config.TopK = defaults.TopK
	}
	if config.TotalBudget <= 0 {
		config.TotalBudget = defaults.TotalBudget
	}
	if config.NamespaceBudgets == nil {
		config.NamespaceBudgets = defaults.NamespaceBudgets
	}
	return &Retriever{client: client, embedder: embedder, config: config}
}

// Retrieve runs the full retrieval pass for one question.
//
// # Description
//
// The question is embedded once, then every namespace is queried with the
// same vector in its own goroutine. Results are merged namespace by
// namespace under the per-namespace and total budgets, and distinct sources
// are collected for client attribution.
//
// # Outputs
//
//   - *datatypes.RetrievalResult: Assembled context and sources. Never nil
//     on success; an empty corpus yields an empty Context.
//   - error: Non-nil only when embedding fails. Namespace query failures
//     are logged and absorbed.
func (r *Retriever) Retrieve(ctx context.Context, question string) (*datatypes.RetrievalResult, error) {
	ctx, span := tracer.Start(ctx, "Retrieve")
	defer span.End()

	truncated := question
	if len(truncated) > maxEmbedChars {
		truncated = truncated[:maxEmbedChars]
	}

	vector, err := r.embedder.EmbedQuery(ctx, truncated)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	chunksByNamespace := make(map[datatypes.Namespace][]datatypes.RetrievedChunk, len(datatypes.AllNamespaces))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ns := range datatypes.AllNamespaces {
		wg.Add(1)
		go func(ns datatypes.Namespace) {
			defer wg.Done()
			chunks, err := r.queryNamespace(ctx, ns, vector)
			if err != nil {
				// Fail open: a degraded namespace must not kill the turn.
				slog.Warn("Namespace query failed, continuing without it",
					"namespace", ns, "error", err)
				return
			}
			mu.Lock()
			chunksByNamespace[ns] = chunks
			mu.Unlock()
		}(ns)
	}
	wg.Wait()

	result := r.merge(chunksByNamespace)
	span.SetAttributes(
		attribute.Int("retrieval.context_chars", result.ContextChars),
		attribute.Int("retrieval.sources", len(result.Sources)),
	)
	slog.Debug("Retrieval pass complete",
		"context_chars", result.ContextChars, "sources", len(result.Sources))
	return result, nil
}

// queryNamespace runs one nearVector search against the class backing a
// namespace.
func (r *Retriever) queryNamespace(ctx context.Context, ns datatypes.Namespace, vector []float32) ([]datatypes.RetrievedChunk, error) {
	ctx, span := tracer.Start(ctx, "queryNamespace")
	span.SetAttributes(attribute.String("retrieval.namespace", string(ns)))
	defer span.End()

	className := datatypes.ClassForNamespace(ns)

	nearVector := r.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "distance"},
		}},
	}

	resp, err := r.client.GraphQL().Get().
		WithClassName(className).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(r.config.TopK).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("weaviate search failed for %s: %w", className, err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.ChunkQueryResponse](resp)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse %s results: %w", className, err)
	}

	raw := parsed.Chunks(className)
	chunks := make([]datatypes.RetrievedChunk, 0, len(raw))
	for _, c := range raw {
		if c.Text == "" {
			continue
		}
		chunks = append(chunks, datatypes.RetrievedChunk{
			Namespace: ns,
			Source:    c.Source,
			Text:      c.Text,
			Distance:  c.Additional.Distance,
			Score:     1 - c.Additional.Distance,
		})
	}
	return chunks, nil
}

// merge assembles the per-namespace chunks into budgeted context text and a
// deduplicated source list.
func (r *Retriever) merge(chunksByNamespace map[datatypes.Namespace][]datatypes.RetrievedChunk) *datatypes.RetrievalResult {
	var kept []datatypes.RetrievedChunk
	remaining := r.config.TotalBudget

	for _, ns := range datatypes.AllNamespaces {
		budget := r.config.NamespaceBudgets[ns]
		if budget > remaining {
			budget = remaining
		}
		for _, chunk := range chunksByNamespace[ns] {
			if budget <= 0 || remaining <= 0 {
				break
			}
			if len(chunk.Text) > budget {
				chunk.Text = truncateAtBoundary(chunk.Text, budget)
				if chunk.Text == "" {
					break
				}
			}
			kept = append(kept, chunk)
			budget -= len(chunk.Text)
			remaining -= len(chunk.Text)
		}
	}

	context := formatContext(kept)
	return &datatypes.RetrievalResult{
		Context:      context,
		Sources:      collectSources(kept),
		ContextChars: len(context),
	}
}

// collectSources returns the distinct sources among kept chunks, ordered by
// descending best score.
func collectSources(chunks []datatypes.RetrievedChunk) []datatypes.SourceInfo {
	best := map[string]datatypes.SourceInfo{}
	for _, c := range chunks {
		key := string(c.Namespace) + "/" + c.Source
		if cur, ok := best[key]; !ok || c.Score > cur.Score {
			best[key] = datatypes.SourceInfo{
				Namespace: string(c.Namespace),
				Source:    c.Source,
				Score:     c.Score,
			}
		}
	}
	sources := make([]datatypes.SourceInfo, 0, len(best))
	for _, s := range best {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Score != sources[j].Score {
			return sources[i].Score > sources[j].Score
		}
		return sources[i].Source < sources[j].Source
	})
	return sources
}

// NoopRetriever returns an empty context for every question. Used when no
// vector store is configured.
type NoopRetriever struct{}

func (NoopRetriever) Retrieve(ctx context.Context, question string) (*datatypes.RetrievalResult, error) {
	return &datatypes.RetrievalResult{}, nil
}
