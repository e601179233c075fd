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
	"strconv"
	"time"
)

// Upstream filter field names. The commerce platform's query API supports
// only exact-match filters on these top-level fields; line-embedded
// identifiers cannot be filtered on, which is what forces the scan
// fallbacks.
const (
	FieldInternalID       = "internalId"
	FieldPONumber         = "poNumber"
	FieldExternalLineRef  = "lineExternalRef"
	FieldExternalOrderRef = "externalRef"
	FieldSalesChannel     = "salesChannel"
)

// orderFields is the output projection requested on every order query.
var orderFields = []string{
	FieldInternalID,
	FieldPONumber,
	FieldExternalOrderRef,
	FieldSalesChannel,
	"orderDate",
	"status",
	"lines",
}

// FieldMap is an exact-match filter set: field name to required value.
type FieldMap map[string]string

// OrderQuery is one call against the upstream order query primitive.
type OrderQuery struct {
	// Filters are exact-match field filters, all of which must hold.
	Filters FieldMap

	// Fields is the requested output projection.
	Fields []string

	// From/To restrict results to an order-date window when non-zero.
	From time.Time
	To   time.Time

	// Page is the 1-based page number; zero requests an unpaged query.
	Page int

	// PageSize is the page length for paged queries.
	PageSize int

	// Timeout is the per-call budget. Exact lookups use a short budget,
	// scan pages a longer one.
	Timeout time.Duration
}

// OrderQuerier is the single upstream query primitive the engine consumes.
// The engine depends only on this shape, not on a wire protocol.
type OrderQuerier interface {
	// QueryOrders returns the orders matching q. An empty slice is a
	// well-formed "no match"; an error is a transport/protocol failure.
	QueryOrders(ctx context.Context, q OrderQuery) ([]RawOrder, error)
}

// ItemInfo is a secondary-lookup result used to enrich expanded kit
// component lines.
type ItemInfo struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

// ItemCatalog is the best-effort secondary item-lookup primitive. Failures
// are absorbed by the caller; a missing SKU in the result map is not an
// error.
type ItemCatalog interface {
	LookupItems(ctx context.Context, skus []string) (map[string]ItemInfo, error)
}

// RawOrder is an upstream order record: an opaque superset of fields whose
// names vary between integrations. Accessors tolerate the known aliases so
// shape-sniffing stays out of the pipeline stages.
type RawOrder map[string]interface{}

// Str returns the first non-empty string value among the given keys,
// coercing numeric values to their decimal form.
func (o RawOrder) Str(keys ...string) string {
	for _, key := range keys {
		if s := asString(o[key]); s != "" {
			return s
		}
	}
	return ""
}

// ID returns the canonical internal identifier.
func (o RawOrder) ID() string {
	return o.Str(FieldInternalID, "internalid", "id")
}

// PONumber returns the purchase-order number under any of its aliases.
func (o RawOrder) PONumber() string {
	return o.Str(FieldPONumber, "otherRefNum", "purchaseOrderNumber")
}

// asString coerces a decoded JSON scalar to a string. Non-scalar values
// yield "".
func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; IDs are integral in practice.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
