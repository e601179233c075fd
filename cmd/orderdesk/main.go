// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command orderdesk starts the OrderDesk resolution API server.
//
// OrderDesk resolves arbitrary operator-supplied order references (scanned
// at a kiosk, typed by staff) against the commerce platform, then
// normalizes and kit-expands the matched order's line items for display.
//
// Usage:
//
//	go run ./cmd/orderdesk
//	go run ./cmd/orderdesk -port 9090
//	go run ./cmd/orderdesk -kit-table /etc/orderdesk/kit_table.yaml
//	go run ./cmd/orderdesk -limits /etc/orderdesk/limits.yaml
//
// Required environment:
//
//	COMMERCE_API_URL   - commerce platform query API root
//	COMMERCE_API_TOKEN - bearer token for the integration role
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/orders/health
//
//	# Resolve a reference
//	curl -X POST http://localhost:8080/v1/orders/resolve \
//	  -H "Content-Type: application/json" \
//	  -d '{"reference": "22-12345-67890"}'
//
//	# Inspect the loaded kit table
//	curl http://localhost:8080/v1/orders/kits | jq
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/orderdesk/services/commerce"
	"github.com/AleutianAI/orderdesk/services/resolver"
	"github.com/AleutianAI/orderdesk/services/resolver/config"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	kitTablePath := flag.String("kit-table", "", "Kit table YAML path (embedded defaults when empty)")
	limitsPath := flag.String("limits", "", "Resolution limits YAML path (embedded defaults when empty)")
	traceStdout := flag.Bool("trace-stdout", false, "Export OTel spans to stdout (debugging)")
	flag.Parse()

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so kiosk requests correlate with the
	// upstream calls they trigger.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if *traceStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			slog.Error("Failed to create stdout trace exporter", slog.String("error", err.Error()))
			os.Exit(1)
		}
		provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(provider)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(ctx)
		}()
	}

	// Static configuration, loaded once at process start.
	kits, err := config.LoadKitTable(*kitTablePath)
	if err != nil {
		slog.Error("Failed to load kit table", slog.String("error", err.Error()))
		os.Exit(1)
	}
	limits, err := config.LoadLimits(*limitsPath)
	if err != nil {
		slog.Error("Failed to load limits", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Upstream client from environment.
	client, err := commerce.NewClientFromEnv()
	if err != nil {
		slog.Error("Failed to create commerce client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Engine and handlers.
	engine := resolver.NewEngine(client, client, kits, limits)
	engine.SetMetrics(resolver.NewMetrics(prometheus.DefaultRegisterer))
	handlers := resolver.NewHandlers(engine, kits)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-orderdesk"))
	if *debug {
		router.Use(gin.Logger())
	}

	// Register routes under /v1/orders
	v1 := router.Group("/v1")
	resolver.RegisterRoutes(v1, handlers)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port, len(kits), limits)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: router,
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down OrderDesk server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("Forced shutdown", slog.String("error", err.Error()))
		}
	}()

	// Start server
	slog.Info("Starting OrderDesk server", slog.String("address", server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// printBanner prints the startup summary.
func printBanner(port, kitCount int, limits config.Limits) {
	fmt.Printf(`
  ___         _           ___          _
 / _ \ _ __ _| |___ _ _  |   \ ___ ___| |__
| (_) | '_/ _` + "`" + ` / -_) '_| | |) / -_|_-<| / /
 \___/|_| \__,_\___|_|   |___/\___/__/|_\_\

`)
	fmt.Printf("  Listening on        : http://localhost:%d\n", port)
	fmt.Printf("  Resolve endpoint    : POST /v1/orders/resolve\n")
	fmt.Printf("  Kit definitions     : %d\n", kitCount)
	fmt.Printf("  Scan window         : %d days, %d pages x %d orders max\n",
		limits.LookbackDays, limits.ScanMaxPages, limits.ScanPageSize)
	fmt.Printf("  Parallel exact mode : %v\n\n", limits.ParallelExact)
}
