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
	"time"

	"github.com/AleutianAI/orderdesk/services/resolver/config"
)

// KitExpander detects composite-product lines against the static kit table
// and expands them into component lines when the upstream did not already
// decompose them.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type KitExpander struct {
	kits          config.KitTable
	catalog       ItemCatalog
	lookupTimeout time.Duration
}

// NewKitExpander builds an expander over the injected kit table.
//
// Inputs:
//   - kits: The static kit configuration. May be empty.
//   - catalog: Best-effort enrichment lookup. May be nil, in which case
//     expanded component lines keep their defaults.
//   - lookupTimeout: Budget for the single batched enrichment call.
func NewKitExpander(kits config.KitTable, catalog ItemCatalog, lookupTimeout time.Duration) *KitExpander {
	return &KitExpander{kits: kits, catalog: catalog, lookupTimeout: lookupTimeout}
}

// Expand applies kit handling to an order's extracted lines.
//
// Description:
//
//	Detection runs once per order, not per line: if any line carries a
//	component tag, the whole order is treated as natively decomposed and
//	only the header/component flags are set. Otherwise each line whose
//	SKU is a known kit is emitted as a header followed by one synthetic
//	line per component (quantity = per-unit quantity x kit quantity,
//	warehouse copied, price nil, name defaulting to the component SKU),
//	and a single batched enrichment call backfills name/price.
//
//	Idempotent: expanding an already-expanded order's lines only re-tags
//	them, it never doubles the expansion.
//
// Inputs:
//   - ctx: Bounds the enrichment lookup.
//   - lines: The order's normalized lines.
//
// Outputs:
//   - []OrderLine: The tagged (and possibly expanded) line sequence.
func (e *KitExpander) Expand(ctx context.Context, lines []OrderLine) []OrderLine {
	if len(lines) == 0 {
		return lines
	}

	if hasNativeComponentTags(lines) {
		return e.tagNativeLines(lines)
	}

	expanded, componentSKUs := e.expandManually(lines)
	if len(componentSKUs) > 0 {
		e.enrich(ctx, expanded, componentSKUs)
	}
	return expanded
}

// hasNativeComponentTags reports whether the upstream already decomposed
// this order's kits. Checked across all lines, once per order.
func hasNativeComponentTags(lines []OrderLine) bool {
	for _, line := range lines {
		if line.IsKitComponent || line.KitParentSKU != "" {
			return true
		}
	}
	return false
}

// tagNativeLines passes natively decomposed lines through unchanged except
// for the kit flags.
func (e *KitExpander) tagNativeLines(lines []OrderLine) []OrderLine {
	tagged := make([]OrderLine, len(lines))
	for i, line := range lines {
		if line.KitParentSKU != "" {
			line.IsKitComponent = true
		}
		if !line.IsKitComponent && e.kits.Components(line.SKU) != nil {
			line.IsKitHeader = true
		}
		tagged[i] = line
	}
	return tagged
}

// expandManually emits headers and synthetic component lines, returning the
// distinct component SKUs introduced, in first-seen order.
func (e *KitExpander) expandManually(lines []OrderLine) ([]OrderLine, []string) {
	expanded := make([]OrderLine, 0, len(lines))
	var componentSKUs []string
	seen := make(map[string]bool)

	for _, line := range lines {
		components := e.kits.Components(line.SKU)
		if components == nil {
			expanded = append(expanded, line)
			continue
		}

		header := line
		header.IsKitHeader = true
		expanded = append(expanded, header)

		for _, comp := range components {
			expanded = append(expanded, OrderLine{
				SKU:            comp.SKU,
				ProductName:    comp.SKU, // default pending enrichment
				Quantity:       comp.QuantityPerUnit * line.Quantity,
				UnitPrice:      nil,
				Warehouse:      line.Warehouse,
				IsKitComponent: true,
				KitParentSKU:   line.SKU,
			})
			if !seen[comp.SKU] {
				seen[comp.SKU] = true
				componentSKUs = append(componentSKUs, comp.SKU)
			}
		}
	}
	return expanded, componentSKUs
}

// enrich backfills name/price on synthetic component lines from one batched
// catalog lookup. Failures are logged and swallowed: the resolution still
// succeeds with default names and nil prices.
func (e *KitExpander) enrich(ctx context.Context, lines []OrderLine, skus []string) {
	if e.catalog == nil {
		return
	}

	if e.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.lookupTimeout)
		defer cancel()
	}

	items, err := e.catalog.LookupItems(ctx, skus)
	if err != nil {
		slog.Warn("Kit enrichment lookup failed, keeping component defaults",
			slog.Int("sku_count", len(skus)),
			slog.String("error", err.Error()))
		return
	}

	for i := range lines {
		if !lines[i].IsKitComponent || lines[i].KitParentSKU == "" {
			continue
		}
		info, ok := items[lines[i].SKU]
		if !ok {
			continue
		}
		if info.Name != "" {
			lines[i].ProductName = info.Name
		}
		if info.Price != nil {
			lines[i].UnitPrice = info.Price
		}
	}
}
