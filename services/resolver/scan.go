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

// scanMatchFunc inspects one scanned order and reports whether it is the
// target.
type scanMatchFunc func(order RawOrder) bool

// runPOScan pages through recent orders comparing each order's
// purchase-order number to the raw reference with exact string equality.
//
// The first pass restricts the scan to the configured sales channel as a
// cost optimization; if that pass is rejected or errors, the same window is
// rescanned unfiltered from the first page.
func (e *Engine) runPOScan(ctx context.Context, ref Reference, fails *failureTracker) (RawOrder, bool) {
	match := func(order RawOrder) bool {
		return order.PONumber() == ref.Raw
	}

	if e.limits.ScanChannel != "" {
		filters := FieldMap{FieldSalesChannel: e.limits.ScanChannel}
		order, found, err := e.scanWindow(ctx, StrategyPOScan, filters, match, fails)
		if err == nil {
			return order, found
		}
		slog.Warn("Channel-filtered scan failed, retrying unfiltered",
			slog.String("channel", e.limits.ScanChannel),
			slog.String("error", err.Error()))
	}

	order, found, err := e.scanWindow(ctx, StrategyPOScan, nil, match, fails)
	if err != nil {
		// Page failure aborts only this scan strategy's remaining pages.
		return nil, false
	}
	return order, found
}

// runLineScan pages through recent orders matching line-embedded
// marketplace identifiers (external reference, transaction ID, auction ID)
// against the reference candidates. Only run for shapes that can appear in
// those fields.
func (e *Engine) runLineScan(ctx context.Context, ref Reference, fails *failureTracker) (RawOrder, bool) {
	match := func(order RawOrder) bool {
		for _, line := range ExtractLines(order) {
			if matchesReference(line.ExternalRef, ref) ||
				matchesReference(line.TransactionID, ref) ||
				matchesReference(line.AuctionID, ref) {
				return true
			}
		}
		return false
	}

	order, found, err := e.scanWindow(ctx, StrategyLineScan, nil, match, fails)
	if err != nil {
		return nil, false
	}
	return order, found
}

// scanWindow is the shared paging loop: a fixed lookback window, a fixed
// page size, and a hard page cap. It stops at the first match, at a short
// page (end of data), or at the cap. A page error aborts the loop and is
// returned after being recorded on fails.
func (e *Engine) scanWindow(ctx context.Context, strategy string, filters FieldMap, match scanMatchFunc, fails *failureTracker) (RawOrder, bool, error) {
	now := e.now()
	from := now.AddDate(0, 0, -e.limits.LookbackDays)

	for page := 1; page <= e.limits.ScanMaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		orders, err := e.querier.QueryOrders(ctx, OrderQuery{
			Filters:  filters,
			Fields:   orderFields,
			From:     from,
			To:       now,
			Page:     page,
			PageSize: e.limits.ScanPageSize,
			Timeout:  e.limits.ScanTimeout.Std(),
		})
		e.metrics.observeUpstreamCall("scan", err)
		e.metrics.observeScanPage(strategy)
		if err != nil {
			fails.record(NewUpstreamError("scan "+strategy, err))
			slog.Warn("Scan page failed, aborting scan strategy",
				slog.String("strategy", strategy),
				slog.Int("page", page),
				slog.String("error", err.Error()))
			return nil, false, err
		}
		fails.sawResponse()

		for _, order := range orders {
			if match(order) {
				slog.Info("Scan located order",
					slog.String("strategy", strategy),
					slog.Int("page", page),
					slog.String("order_id", order.ID()))
				return order, true, nil
			}
		}

		// A short page means end of data inside the window.
		if len(orders) < e.limits.ScanPageSize {
			return nil, false, nil
		}
	}
	return nil, false, nil
}
