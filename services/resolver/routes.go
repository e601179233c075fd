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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all OrderDesk routes with the router.
//
// Description:
//
//	Registers all /v1/orders/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Endpoints:
//
//	POST /v1/orders/resolve - Resolve a reference to an order with lines
//	GET  /v1/orders/kits - Dump the loaded kit table
//	GET  /v1/orders/health - Health check
//	GET  /v1/orders/ready - Readiness check
//
// Example:
//
//	engine := resolver.NewEngine(querier, catalog, kits, limits)
//	handlers := resolver.NewHandlers(engine, kits)
//
//	v1 := router.Group("/v1")
//	resolver.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	orders := rg.Group("/orders")
	{
		orders.POST("/resolve", handlers.HandleResolve)

		orders.GET("/kits", handlers.HandleKits)

		orders.GET("/health", handlers.HandleHealth)
		orders.GET("/ready", handlers.HandleReady)
	}
}
