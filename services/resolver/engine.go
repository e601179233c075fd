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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/orderdesk/services/resolver/config"
)

// Resolution is the successful result contract: the matched order, the
// strategy that produced it, and the normalized, kit-expanded line set.
type Resolution struct {
	ResolvedID string      `json:"resolved_id"`
	MatchedBy  string      `json:"matched_by"`
	Order      RawOrder    `json:"order"`
	Lines      []OrderLine `json:"lines"`
	LineCount  int         `json:"line_count"`
}

// Engine drives the resolution pipeline: classify, generate candidates,
// cascade the exact strategies, fall back to bounded scans, then extract
// and kit-expand the matched order's lines.
//
// Thread Safety: Immutable after construction; each Resolve call owns its
// own candidate lists and accumulators, so concurrent calls are safe.
type Engine struct {
	querier  OrderQuerier
	expander *KitExpander
	limits   config.Limits
	metrics  *Metrics
	tracer   oteltrace.Tracer

	// now is injectable so tests can pin the scan window.
	now func() time.Time
}

// NewEngine constructs the engine.
//
// Inputs:
//   - querier: The upstream order query primitive.
//   - catalog: Best-effort item lookup for kit enrichment. May be nil.
//   - kits: The static kit table, injected so tests can substitute
//     definitions without touching global state.
//   - limits: Scan bounds and call budgets.
func NewEngine(querier OrderQuerier, catalog ItemCatalog, kits config.KitTable, limits config.Limits) *Engine {
	return &Engine{
		querier:  querier,
		expander: NewKitExpander(kits, catalog, limits.ExactTimeout.Std()),
		limits:   limits,
		tracer:   otel.Tracer("aleutian.orderdesk"),
		now:      time.Now,
	}
}

// SetMetrics attaches a metrics sink. Call before serving traffic.
func (e *Engine) SetMetrics(m *Metrics) { e.metrics = m }

// Resolve locates the order for an operator-supplied reference and returns
// its normalized, kit-expanded lines.
//
// Description:
//
//	Pipeline: classify the reference, generate candidates, run the exact
//	strategies in priority order (each trying every candidate), then the
//	shape-permitted bounded scans, and on a match extract and expand the
//	lines. Any stage may short-circuit with a match; exhaustion yields a
//	NotFoundError with a shape-specific hint.
//
// Outputs:
//   - *Resolution: The match. Exactly one or zero per call, never partial.
//   - error: *NotFoundError, or *UpstreamError when no upstream call ever
//     produced a well-formed response (timeout-classified when any attempt
//     timed out).
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Resolve(ctx context.Context, rawReference string) (*Resolution, error) {
	started := e.now()
	ref := NewReference(rawReference)

	ctx, span := e.tracer.Start(ctx, "resolver.resolve",
		oteltrace.WithAttributes(
			attribute.String("reference.shape", string(ref.Shape)),
			attribute.Int("reference.candidates", len(ref.Candidates)),
		),
	)
	defer span.End()

	if ref.Raw == "" {
		err := &NotFoundError{Reference: rawReference, Shape: ref.Shape, Hint: "empty reference"}
		span.SetStatus(codes.Error, "empty reference")
		e.metrics.observeResolution("invalid", "", e.now().Sub(started))
		return nil, err
	}

	fails := &failureTracker{}

	order, matchedBy := e.runExactCascade(ctx, ref, fails)
	if order == nil {
		order, matchedBy = e.runScans(ctx, ref, fails)
	}

	if order == nil {
		err := e.exhaustedError(ctx, ref, fails)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.observeResolution(outcomeLabel(err), "", e.now().Sub(started))
		return nil, err
	}

	lines := e.expander.Expand(ctx, ExtractLines(order))

	resolution := &Resolution{
		ResolvedID: order.ID(),
		MatchedBy:  matchedBy,
		Order:      order,
		Lines:      lines,
		LineCount:  len(lines),
	}

	span.SetAttributes(
		attribute.String("resolution.matched_by", matchedBy),
		attribute.Int("resolution.line_count", len(lines)),
	)
	slog.Info("Reference resolved",
		slog.String("shape", string(ref.Shape)),
		slog.String("matched_by", matchedBy),
		slog.String("order_id", resolution.ResolvedID),
		slog.Int("line_count", len(lines)))
	e.metrics.observeResolution("resolved", matchedBy, e.now().Sub(started))

	return resolution, nil
}

// runExactCascade executes the exact strategies sequentially, or
// concurrently with first-success-wins when Limits.ParallelExact is set.
func (e *Engine) runExactCascade(ctx context.Context, ref Reference, fails *failureTracker) (RawOrder, string) {
	ctx, span := e.tracer.Start(ctx, "resolver.exact_cascade")
	defer span.End()

	strategies := exactStrategiesFor(ref.Shape)
	if e.limits.ParallelExact {
		return e.runExactParallel(ctx, strategies, ref, fails)
	}

	for _, s := range strategies {
		if order, found := e.runExactStrategy(ctx, s, ref, fails); found {
			return order, s.Name
		}
	}
	return nil, ""
}

// runExactParallel issues every exact strategy at once. The first strategy
// to complete with a hit records itself and cancels the rest; a slower
// strategy finishing later cannot overwrite the chosen result.
func (e *Engine) runExactParallel(ctx context.Context, strategies []exactStrategy, ref Reference, fails *failureTracker) (RawOrder, string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		winner   RawOrder
		winnerBy string
	)
	group, _ := errgroup.WithContext(ctx)

	for _, s := range strategies {
		group.Go(func() error {
			order, found := e.runExactStrategy(ctx, s, ref, fails)
			if !found {
				return nil
			}
			mu.Lock()
			if winner == nil {
				winner, winnerBy = order, s.Name
				cancel() // stop the remaining in-flight strategies
			}
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()
	return winner, winnerBy
}

// runScans executes the shape-permitted fallback scans. The purchase-order
// scan covers marketplace order numbers and generic codes; the line-level
// scan covers numeric and auction/transaction identifiers that only exist
// inside line data the upstream cannot filter on.
func (e *Engine) runScans(ctx context.Context, ref Reference, fails *failureTracker) (RawOrder, string) {
	ctx, span := e.tracer.Start(ctx, "resolver.scan_fallback")
	defer span.End()

	if ref.Shape.allowsPOScan() {
		if order, found := e.runPOScan(ctx, ref, fails); found {
			return order, StrategyPOScan
		}
	}
	if ref.Shape.allowsLineScan() {
		if order, found := e.runLineScan(ctx, ref, fails); found {
			return order, StrategyLineScan
		}
	}
	return nil, ""
}

// exhaustedError decides what a matchless pipeline surfaces: a context
// deadline always reports as an upstream timeout; a run in which no
// upstream call ever returned a well-formed response surfaces the recorded
// failure; everything else is a genuine not-found with a shape hint.
func (e *Engine) exhaustedError(ctx context.Context, ref Reference, fails *failureTracker) error {
	if ctx.Err() != nil {
		return &UpstreamError{Op: "resolve", Timeout: true, Err: ctx.Err()}
	}
	if err := fails.conclusive(); err != nil {
		return err
	}
	return &NotFoundError{Reference: ref.Raw, Shape: ref.Shape, Hint: e.notFoundHint(ref.Shape)}
}

// notFoundHint distinguishes a recognized-but-absent reference from one in
// a format the resolver does not know.
func (e *Engine) notFoundHint(shape Shape) string {
	switch shape {
	case ShapeStructuredPO, ShapeNumericID, ShapeAuctionTxnCombo:
		return fmt.Sprintf("recognized %s reference, but no matching order in the last %d days", shape, e.limits.LookbackDays)
	default:
		return "unrecognized reference format, or order outside the scanned window"
	}
}

// outcomeLabel maps a terminal error to its metrics label.
func outcomeLabel(err error) string {
	switch {
	case IsNotFound(err):
		return "not_found"
	case IsUpstreamTimeout(err):
		return "upstream_timeout"
	default:
		return "upstream_error"
	}
}

// failureTracker records absorbed upstream failures during one resolution
// so the engine can tell a clean miss from a run where the upstream never
// answered. Safe for concurrent use by the parallel exact cascade.
type failureTracker struct {
	mu         sync.Mutex
	responded  bool
	sawTimeout bool
	last       *UpstreamError
}

func (f *failureTracker) record(err *UpstreamError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = err
	if err.Timeout {
		f.sawTimeout = true
	}
}

func (f *failureTracker) sawResponse() {
	f.mu.Lock()
	f.responded = true
	f.mu.Unlock()
}

// conclusive returns the failure to surface when the pipeline exhausted
// without any well-formed upstream response, or nil when at least one call
// answered (making NotFound the honest outcome).
func (f *failureTracker) conclusive() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.responded || f.last == nil {
		return nil
	}
	if f.sawTimeout && !f.last.Timeout {
		return &UpstreamError{Op: f.last.Op, Timeout: true, Err: f.last.Err}
	}
	return f.last
}
