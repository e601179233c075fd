// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package commerce implements the upstream commerce-platform primitives the
// resolver consumes: the exact-filter/paged order query and the best-effort
// item lookup. It speaks plain JSON over HTTP; the resolver depends only on
// the primitive shapes, never on this wire format.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/orderdesk/services/resolver"
)

const (
	// defaultCallTimeout applies when a query carries no budget of its own.
	defaultCallTimeout = 15 * time.Second

	// Upstream request budget: most commerce platforms throttle hard, and
	// a scan can issue 20 page fetches back to back.
	defaultRatePerSecond = 8
	defaultRateBurst     = 4
)

// queryRequest is the order-query wire payload.
type queryRequest struct {
	Filters  map[string]string `json:"filters,omitempty"`
	Fields   []string          `json:"fields,omitempty"`
	DateFrom string            `json:"date_from,omitempty"`
	DateTo   string            `json:"date_to,omitempty"`
	Page     int               `json:"page,omitempty"`
	PageSize int               `json:"page_size,omitempty"`
}

// queryResponse is the order-query wire result.
type queryResponse struct {
	Orders []resolver.RawOrder `json:"orders"`
	Error  *apiError           `json:"error,omitempty"`
}

// itemsRequest is the item-lookup wire payload.
type itemsRequest struct {
	SKUs []string `json:"skus"`
}

// itemsResponse is the item-lookup wire result.
type itemsResponse struct {
	Items map[string]resolver.ItemInfo `json:"items"`
	Error *apiError                    `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Client Implementation ---

// Client is the HTTP client for the commerce platform's query API.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	tracer     oteltrace.Tracer
}

// NewClient creates a Client with explicit configuration. Useful for
// testing against a mock server.
//
// Inputs:
//   - baseURL: The query API root, without a trailing slash.
//   - token: Bearer token for the platform's integration role.
func NewClient(baseURL, token string) *Client {
	return &Client{
		// Per-call deadlines come from the request context; the client
		// timeout is only a safety net behind them.
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultRateBurst),
		tracer:     otel.Tracer("aleutian.orderdesk.commerce"),
	}
}

// NewClientFromEnv creates a Client from COMMERCE_API_URL and
// COMMERCE_API_TOKEN.
func NewClientFromEnv() (*Client, error) {
	baseURL := os.Getenv("COMMERCE_API_URL")
	if baseURL == "" {
		slog.Warn("COMMERCE_API_URL is missing.")
		return nil, fmt.Errorf("commerce: API URL is missing (COMMERCE_API_URL)")
	}

	token := os.Getenv("COMMERCE_API_TOKEN")
	if token == "" {
		secretPath := "/run/secrets/commerce_api_token"
		if content, err := os.ReadFile(secretPath); err == nil {
			token = strings.TrimSpace(string(content))
			slog.Info("Read commerce API token from Podman Secrets")
		}
	}
	if token == "" {
		slog.Warn("Commerce API token is missing.")
		return nil, fmt.Errorf("commerce: API token is missing (COMMERCE_API_TOKEN)")
	}

	return NewClient(baseURL, token), nil
}

// QueryOrders implements resolver.OrderQuerier.
//
// Description:
//
//	Posts one exact-filter (optionally paged and date-windowed) query and
//	decodes the matched orders. The query's Timeout bounds the whole
//	call; overruns classify as retryable upstream timeouts.
func (c *Client) QueryOrders(ctx context.Context, q resolver.OrderQuery) ([]resolver.RawOrder, error) {
	payload := queryRequest{
		Filters:  q.Filters,
		Fields:   q.Fields,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if !q.From.IsZero() {
		payload.DateFrom = q.From.UTC().Format(time.RFC3339)
	}
	if !q.To.IsZero() {
		payload.DateTo = q.To.UTC().Format(time.RFC3339)
	}

	var result queryResponse
	if err := c.post(ctx, "query orders", "/orders/query", payload, q.Timeout, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, resolver.NewUpstreamError("query orders",
			fmt.Errorf("commerce: %s: %s", result.Error.Code, result.Error.Message))
	}
	return result.Orders, nil
}

// LookupItems implements resolver.ItemCatalog.
//
// Best-effort: the caller swallows failures, so this method only needs to
// report them faithfully.
func (c *Client) LookupItems(ctx context.Context, skus []string) (map[string]resolver.ItemInfo, error) {
	var result itemsResponse
	if err := c.post(ctx, "lookup items", "/items/lookup", itemsRequest{SKUs: skus}, 0, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, resolver.NewUpstreamError("lookup items",
			fmt.Errorf("commerce: %s: %s", result.Error.Code, result.Error.Message))
	}
	if result.Items == nil {
		result.Items = map[string]resolver.ItemInfo{}
	}
	return result.Items, nil
}

// post sends one JSON request and decodes the response, classifying every
// failure through the resolver's error taxonomy.
func (c *Client) post(ctx context.Context, op, path string, payload interface{}, timeout time.Duration, out interface{}) error {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "commerce.post",
		oteltrace.WithAttributes(
			attribute.String("commerce.op", op),
			attribute.String("commerce.path", path),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return resolver.NewUpstreamError(op, fmt.Errorf("commerce: rate limit wait: %w", err))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return resolver.NewUpstreamError(op, fmt.Errorf("commerce: marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return resolver.NewUpstreamError(op, fmt.Errorf("commerce: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return resolver.NewUpstreamError(op, fmt.Errorf("commerce: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a bounded slice of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resolver.NewUpstreamError(op,
			fmt.Errorf("commerce: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resolver.NewUpstreamError(op, fmt.Errorf("commerce: decode response: %w", err))
	}
	return nil
}
