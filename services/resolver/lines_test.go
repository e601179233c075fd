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
	"reflect"
	"testing"
)

func TestExtractLines_ArrayShape(t *testing.T) {
	order := RawOrder{
		"lines": []interface{}{
			map[string]interface{}{"sku": "A-1", "displayName": "Widget", "quantity": float64(2), "rate": float64(9.99), "location": "WH-EAST"},
			map[string]interface{}{"sku": "B-2", "qty": "3"},
		},
	}

	lines := ExtractLines(order)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].SKU != "A-1" || lines[0].ProductName != "Widget" || lines[0].Quantity != 2 {
		t.Errorf("first line = %+v, want sku A-1 / Widget / qty 2", lines[0])
	}
	if lines[0].UnitPrice == nil || *lines[0].UnitPrice != 9.99 {
		t.Errorf("first line price = %v, want 9.99", lines[0].UnitPrice)
	}
	if lines[0].Warehouse != "WH-EAST" {
		t.Errorf("first line warehouse = %q, want WH-EAST", lines[0].Warehouse)
	}
	if lines[1].Quantity != 3 {
		t.Errorf("string quantity should parse, got %d", lines[1].Quantity)
	}
	if lines[1].UnitPrice != nil {
		t.Errorf("missing price should stay nil, got %v", *lines[1].UnitPrice)
	}
}

func TestExtractLines_WrapperShape(t *testing.T) {
	order := RawOrder{
		"item": map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"item": "C-3", "name": "Gadget", "quantity": float64(1)},
			},
		},
	}

	lines := ExtractLines(order)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].SKU != "C-3" || lines[0].ProductName != "Gadget" {
		t.Errorf("line = %+v, want sku C-3 / Gadget", lines[0])
	}
}

func TestExtractLines_SingleObjectShape(t *testing.T) {
	order := RawOrder{
		"lines": map[string]interface{}{"sku": "D-4", "description": "Solo"},
	}

	lines := ExtractLines(order)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].SKU != "D-4" {
		t.Errorf("sku = %q, want D-4", lines[0].SKU)
	}
	if lines[0].Quantity != 1 {
		t.Errorf("missing quantity should default to 1, got %d", lines[0].Quantity)
	}
}

func TestExtractLines_NoLineData(t *testing.T) {
	lines := ExtractLines(RawOrder{"internalId": "1001"})
	if lines == nil {
		t.Fatal("want empty slice, got nil")
	}
	if len(lines) != 0 {
		t.Errorf("len(lines) = %d, want 0", len(lines))
	}
}

func TestExtractLines_SkipsNonObjectEntries(t *testing.T) {
	order := RawOrder{
		"lines": []interface{}{
			"garbage",
			map[string]interface{}{"sku": "E-5"},
			float64(42),
		},
	}

	lines := ExtractLines(order)
	if len(lines) != 1 || lines[0].SKU != "E-5" {
		t.Errorf("lines = %+v, want only E-5", lines)
	}
}

func TestExtractLines_KitAndMarketplaceFields(t *testing.T) {
	order := RawOrder{
		"lines": []interface{}{
			map[string]interface{}{"sku": "KIT-A", "quantity": float64(1)},
			map[string]interface{}{"sku": "COMP-1", "kitParentSku": "KIT-A", "quantity": float64(1)},
			map[string]interface{}{"sku": "F-6", "isKitComponent": "T", "quantity": float64(1)},
			map[string]interface{}{"sku": "G-7", "transactionId": "12345678901", "auctionId": "555123", "externalRef": "EXT-9"},
		},
	}

	lines := ExtractLines(order)
	if !lines[1].IsKitComponent || lines[1].KitParentSKU != "KIT-A" {
		t.Errorf("parent-tagged line = %+v, want component of KIT-A", lines[1])
	}
	if !lines[2].IsKitComponent {
		t.Error("checkbox-style component flag should be recognized")
	}
	if lines[3].TransactionID != "12345678901" || lines[3].AuctionID != "555123" || lines[3].ExternalRef != "EXT-9" {
		t.Errorf("marketplace fields = %+v", lines[3])
	}
}

// ExtractLines is reused inside the line-level scan, so it must be pure:
// same input, same output, no mutation of the order.
func TestExtractLines_Idempotent(t *testing.T) {
	order := RawOrder{
		"lines": []interface{}{
			map[string]interface{}{"sku": "A-1", "quantity": float64(2)},
		},
	}

	first := ExtractLines(order)
	second := ExtractLines(order)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated extraction differs: %+v vs %+v", first, second)
	}
}
