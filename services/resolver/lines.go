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
	"strconv"
	"strings"
)

// OrderLine is the canonical normalized line item. Kit components are
// ordinary lines tagged with a back-reference to their parent, not a nested
// structure, which keeps line order stable and matches how the upstream
// sometimes returns natively decomposed kits.
type OrderLine struct {
	SKU         string   `json:"sku"`
	ProductName string   `json:"product_name"`
	Quantity    int      `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Warehouse   string   `json:"warehouse,omitempty"`

	IsKitHeader    bool   `json:"is_kit_header,omitempty"`
	IsKitComponent bool   `json:"is_kit_component,omitempty"`
	KitParentSKU   string `json:"kit_parent_sku,omitempty"`

	// Marketplace identifiers embedded at line level. The upstream API
	// cannot filter on these; the line-level scan matches against them.
	ExternalRef   string `json:"external_ref,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	AuctionID     string `json:"auction_id,omitempty"`
}

// ExtractLines normalizes an order's heterogeneous line data into a flat
// ordered sequence.
//
// Description:
//
//	The upstream returns line data in three shapes depending on the
//	integration that created the order: a plain array, a wrapper object
//	holding a nested array, or a single line object. All three normalize
//	to the same flat []OrderLine.
//
//	Pure and idempotent: it is reused both for the matched order's final
//	line set and, per scanned order, inside the line-level scan.
//
// Inputs:
//   - order: The raw upstream order record.
//
// Outputs:
//   - []OrderLine: The normalized lines; empty (never nil) when the order
//     carries no line data.
func ExtractLines(order RawOrder) []OrderLine {
	raw := firstPresent(order, "lines", "items", "lineItems", "item")

	switch v := raw.(type) {
	case []interface{}:
		return linesFromSlice(v)
	case map[string]interface{}:
		// Wrapper object with a nested array, or a single bare line.
		if nested := firstPresent(RawOrder(v), "lines", "items", "lineItems", "item"); nested != nil {
			if slice, ok := nested.([]interface{}); ok {
				return linesFromSlice(slice)
			}
		}
		return []OrderLine{lineFromMap(v)}
	default:
		return []OrderLine{}
	}
}

func firstPresent(m RawOrder, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func linesFromSlice(items []interface{}) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		lines = append(lines, lineFromMap(m))
	}
	return lines
}

// lineFromMap maps one raw line object to the canonical OrderLine,
// tolerating the field-name aliases seen across integrations.
func lineFromMap(m map[string]interface{}) OrderLine {
	raw := RawOrder(m)

	line := OrderLine{
		SKU:         raw.Str("sku", "item", "itemId"),
		ProductName: raw.Str("productName", "displayName", "description", "name"),
		Quantity:    lineQuantity(raw),
		UnitPrice:   linePrice(raw),
		Warehouse:   raw.Str("warehouse", "location"),

		KitParentSKU: raw.Str("kitParentSku", "parentSku", "kitParent"),

		ExternalRef:   raw.Str("externalRef", "lineExternalRef", "externalId"),
		TransactionID: raw.Str("transactionId", "txnId"),
		AuctionID:     raw.Str("auctionId"),
	}

	line.IsKitComponent = line.KitParentSKU != "" || lineBool(raw, "isKitComponent", "kitComponent")
	return line
}

func lineQuantity(raw RawOrder) int {
	for _, key := range []string{"quantity", "qty"} {
		switch v := raw[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	// A line without a quantity field is a single unit.
	return 1
}

func linePrice(raw RawOrder) *float64 {
	for _, key := range []string{"unitPrice", "rate", "price"} {
		switch v := raw[key].(type) {
		case float64:
			price := v
			return &price
		case int:
			price := float64(v)
			return &price
		}
	}
	return nil
}

func lineBool(raw RawOrder, keys ...string) bool {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			// NetSuite-style checkbox fields serialize as "T"/"F".
			lower := strings.ToLower(v)
			if lower == "t" || lower == "true" || lower == "yes" {
				return true
			}
		}
	}
	return false
}
