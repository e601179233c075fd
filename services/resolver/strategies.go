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
	"context"
	"log/slog"
)

// Strategy names reported in Resolution.MatchedBy. These are stable
// strings: the surrounding system's ops ledger records them, so renaming
// one is a breaking change for reporting.
const (
	StrategyInternalID       = "InternalId"
	StrategyPONumber         = "PurchaseOrderNumber"
	StrategyExternalLineRef  = "ExternalLineRef"
	StrategyExternalOrderRef = "ExternalOrderRef"
	StrategyPOScan           = "PurchaseOrderScan"

	// StrategyLineScan keeps the name the ledger has recorded since the
	// first marketplace integration.
	StrategyLineScan = "resolveEbayByScan"
)

// exactStrategy is one direct single-filter query. The strategy list is
// data: order is the cascade priority, and every strategy tries every
// candidate string before the engine advances to the next strategy.
type exactStrategy struct {
	Name  string
	Field string
}

// exactStrategiesFor returns the cascade for a shape. All exact strategies
// always run; shape only promotes the purchase-order filter to the front
// when the reference looks like a marketplace order number.
func exactStrategiesFor(shape Shape) []exactStrategy {
	base := []exactStrategy{
		{Name: StrategyInternalID, Field: FieldInternalID},
		{Name: StrategyPONumber, Field: FieldPONumber},
		{Name: StrategyExternalLineRef, Field: FieldExternalLineRef},
		{Name: StrategyExternalOrderRef, Field: FieldExternalOrderRef},
	}
	if shape != ShapeStructuredPO {
		return base
	}
	return []exactStrategy{
		{Name: StrategyPONumber, Field: FieldPONumber},
		{Name: StrategyInternalID, Field: FieldInternalID},
		{Name: StrategyExternalLineRef, Field: FieldExternalLineRef},
		{Name: StrategyExternalOrderRef, Field: FieldExternalOrderRef},
	}
}

// runExactStrategy tries every candidate against one filter field,
// returning the first order of the first non-empty result.
//
// A transport error on one candidate is absorbed: it is recorded on fails
// and the next candidate is tried, per the propagation policy that exact
// lookup failures never abort the cascade.
func (e *Engine) runExactStrategy(ctx context.Context, s exactStrategy, ref Reference, fails *failureTracker) (RawOrder, bool) {
	for _, candidate := range ref.Candidates {
		if ctx.Err() != nil {
			return nil, false
		}

		orders, err := e.querier.QueryOrders(ctx, OrderQuery{
			Filters: FieldMap{s.Field: candidate},
			Fields:  orderFields,
			Timeout: e.limits.ExactTimeout.Std(),
		})
		e.metrics.observeUpstreamCall("exact", err)
		if err != nil {
			fails.record(NewUpstreamError("exact lookup "+s.Name, err))
			slog.Debug("Exact strategy attempt failed",
				slog.String("strategy", s.Name),
				slog.String("candidate", candidate),
				slog.String("error", err.Error()))
			continue
		}
		fails.sawResponse()

		if len(orders) == 0 {
			continue
		}
		if len(orders) > 1 {
			// Data-quality issue, not an ambiguity error: first wins.
			slog.Warn("Exact filter returned multiple orders, taking first",
				slog.String("strategy", s.Name),
				slog.String("candidate", candidate),
				slog.Int("hits", len(orders)))
		}
		return orders[0], true
	}
	return nil, false
}
