// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/orderdesk/services/resolver/config"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Hint  string `json:"hint,omitempty"`
}

// ResolveRequest is the resolution API request body.
type ResolveRequest struct {
	// Reference is the operator-supplied order reference: order number,
	// RMA code, or marketplace transaction ID.
	Reference string `json:"reference" binding:"required"`
}

// Handlers exposes the resolution engine over HTTP.
type Handlers struct {
	engine *Engine
	kits   config.KitTable
}

// NewHandlers builds the handler set.
func NewHandlers(engine *Engine, kits config.KitTable) *Handlers {
	return &Handlers{engine: engine, kits: kits}
}

// HandleResolve handles POST /v1/orders/resolve.
//
// Description:
//
//	Runs the full resolution pipeline for the supplied reference and
//	returns the matched order with its normalized, kit-expanded lines.
//
// Response:
//
//	200 OK: Resolution
//	400 Bad Request: Missing or empty reference
//	404 Not Found: Every strategy and scan exhausted (terminal)
//	502 Bad Gateway: Upstream transport/protocol failure (terminal)
//	504 Gateway Timeout: Upstream timeout (retryable)
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleResolve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleResolve")

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "reference is required",
			Code:  "MISSING_REFERENCE",
		})
		return
	}

	resolution, err := h.engine.Resolve(c.Request.Context(), req.Reference)
	if err != nil {
		h.writeResolveError(c, logger, req.Reference, err)
		return
	}

	logger.Info("Resolved order",
		slog.String("order_id", resolution.ResolvedID),
		slog.String("matched_by", resolution.MatchedBy))
	c.JSON(http.StatusOK, resolution)
}

// writeResolveError maps the engine's error taxonomy to HTTP statuses. The
// kiosk treats 504 as retryable and 404/502 as terminal for the lookup.
func (h *Handlers) writeResolveError(c *gin.Context, logger *slog.Logger, reference string, err error) {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		logger.Info("Reference not found",
			slog.String("reference", reference),
			slog.String("shape", string(notFound.Shape)))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no order found for reference",
			Code:  "ORDER_NOT_FOUND",
			Hint:  notFound.Hint,
		})
		return
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.Timeout {
		logger.Warn("Upstream timeout",
			slog.String("reference", reference),
			slog.String("op", upstream.Op))
		c.Header("Retry-After", "5")
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error: "commerce platform timed out",
			Code:  "UPSTREAM_TIMEOUT",
			Hint:  "retry the lookup",
		})
		return
	}

	logger.Error("Upstream failure",
		slog.String("reference", reference),
		slog.String("error", err.Error()))
	c.JSON(http.StatusBadGateway, ErrorResponse{
		Error: "commerce platform request failed",
		Code:  "UPSTREAM_ERROR",
	})
}

// HandleKits handles GET /v1/orders/kits.
//
// Returns the loaded kit table so operators can verify a config change
// without shell access to the host.
func (h *Handlers) HandleKits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"kits":  h.kits.Definitions(),
		"count": len(h.kits),
	})
}

// HandleHealth handles GET /v1/orders/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/orders/ready. The service is ready as soon
// as configuration loaded; it holds no warm state.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// getOrCreateRequestID returns the inbound X-Request-ID, minting one when
// the caller did not send it, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
