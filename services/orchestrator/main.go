// Copyright (C) 2026 BITSoM Placement Cell (placements@bitsom.edu.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/bitsom-placements/placecell/pkg/ingest"
	"github.com/bitsom-placements/placecell/services/llm"
	"github.com/bitsom-placements/placecell/services/orchestrator/datatypes"
	"github.com/bitsom-placements/placecell/services/orchestrator/middleware"
	"github.com/bitsom-placements/placecell/services/orchestrator/observability"
	"github.com/bitsom-placements/placecell/services/orchestrator/retrieval"
	"github.com/bitsom-placements/placecell/services/orchestrator/routes"
	"github.com/bitsom-placements/placecell/services/search"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "placecell-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("placecell-orchestrator")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newWeaviateClient parses WEAVIATE_SERVICE_URL and connects. Returns nil
// when the URL is unset or invalid; the service then runs chat-only with
// empty retrieval context.
func newWeaviateClient() *weaviate.Client {
	weaviateURL := strings.Trim(os.Getenv("WEAVIATE_SERVICE_URL"), "\"' ")
	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Warn("WEAVIATE_SERVICE_URL not set. Running without retrieval context.")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running without retrieval context.",
			"url", weaviateURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	datatypes.EnsureWeaviateSchema(client)
	return client
}

// newRateLimitOptions builds the limiter from PLACECELL_RATE_RPS and
// PLACECELL_RATE_BURST. Returns nil when rate limiting is disabled.
func newRateLimitOptions(ctx context.Context) *middleware.Options {
	rpsEnv := os.Getenv("PLACECELL_RATE_RPS")
	if rpsEnv == "" {
		return nil
	}
	rps, err := strconv.ParseFloat(rpsEnv, 64)
	if err != nil || rps <= 0 {
		slog.Warn("Invalid PLACECELL_RATE_RPS, rate limiting disabled", "value", rpsEnv)
		return nil
	}
	burst := int(rps * 2)
	if burstEnv := os.Getenv("PLACECELL_RATE_BURST"); burstEnv != "" {
		if b, err := strconv.Atoi(burstEnv); err == nil && b > 0 {
			burst = b
		}
	}

	store := middleware.NewStore(rps, burst)
	store.StartJanitor(ctx)

	opts := &middleware.Options{
		Store:              store,
		TrustXForwardedFor: os.Getenv("PLACECELL_TRUST_XFF") == "true",
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		opts.Stats = middleware.NewRedisStatsStore(rdb)
		slog.Info("Rate limit stats recording to redis", "addr", redisAddr)
	}
	slog.Info("Rate limiting enabled", "rps", rps, "burst", burst)
	return opts
}

func main() {
	port := os.Getenv("PLACECELL_PORT")
	if port == "" {
		port = "8080"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	weaviateClient := newWeaviateClient()

	llmClient, err := llm.NewOpenAIClient()
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}
	if searchClient := search.NewClient(); searchClient != nil {
		llmClient.WithSearch(searchClient.Search)
		slog.Info("Web search tool enabled")
	}
	embedder := llm.NewOpenAIEmbedder(llmClient)
	moderator := llm.NewOpenAIModerator(llmClient)

	deps := routes.Dependencies{
		Client:    weaviateClient,
		LLM:       llmClient,
		Moderator: moderator,
		RateLimit: newRateLimitOptions(context.Background()),
	}
	if weaviateClient != nil {
		deps.Retriever = retrieval.NewRetriever(weaviateClient, embedder, retrieval.DefaultConfig())
		deps.Ingestor = ingest.NewIngestor(weaviateClient, embedder)
	} else {
		deps.Retriever = retrieval.NoopRetriever{}
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("placecell-orchestrator"))
	routes.SetupRoutes(router, deps)

	log.Println("Starting the placement assistant on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
