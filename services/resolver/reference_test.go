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

func TestNewReference_ShapeClassification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Shape
	}{
		{"ebay order number", "22-12345-67890", ShapeStructuredPO},
		{"internal numeric id", "100000123456", ShapeNumericID},
		{"eight digit minimum", "12345678", ShapeNumericID},
		{"seven digits is generic", "1234567", ShapeGeneric},
		{"auction txn combo", "123456-12345678", ShapeAuctionTxnCombo},
		{"rma code", "RMA-10442", ShapeGeneric},
		{"alphanumeric order code", "SO4471X", ShapeGeneric},
		{"empty", "", ShapeGeneric},
		// structuredPO is checked before numericId and auctionTxnCombo:
		// "22-12345-67890" also matches the auction pattern prefix rules
		// but must classify as the PO shape.
		{"po shape wins over auction", "22-12345-67890", ShapeStructuredPO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := NewReference(tt.input)
			if ref.Shape != tt.want {
				t.Errorf("NewReference(%q).Shape = %q, want %q", tt.input, ref.Shape, tt.want)
			}
		})
	}
}

func TestNewReference_TrimsInput(t *testing.T) {
	ref := NewReference("  22-12345-67890/  ")
	if ref.Raw != "22-12345-67890" {
		t.Errorf("Raw = %q, want trimmed reference", ref.Raw)
	}
	if ref.Shape != ShapeStructuredPO {
		t.Errorf("Shape = %q, want %q after trimming", ref.Shape, ShapeStructuredPO)
	}
}

func TestNewReference_Candidates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "hyphenated generates stripped variant",
			input: "22-12345-67890",
			want:  []string{"22-12345-67890", "221234567890"},
		},
		{
			name:  "plain numeric deduplicates to one",
			input: "100000123456",
			want:  []string{"100000123456"},
		},
		{
			name:  "internal whitespace",
			input: "SO 4471",
			want:  []string{"SO 4471", "SO4471"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := NewReference(tt.input)
			if !reflect.DeepEqual(ref.Candidates, tt.want) {
				t.Errorf("Candidates = %v, want %v", ref.Candidates, tt.want)
			}
		})
	}
}

func TestShape_ScanGating(t *testing.T) {
	tests := []struct {
		shape        Shape
		wantPOScan   bool
		wantLineScan bool
	}{
		{ShapeStructuredPO, true, false},
		{ShapeGeneric, true, false},
		{ShapeNumericID, false, true},
		{ShapeAuctionTxnCombo, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.shape), func(t *testing.T) {
			if got := tt.shape.allowsPOScan(); got != tt.wantPOScan {
				t.Errorf("allowsPOScan() = %v, want %v", got, tt.wantPOScan)
			}
			if got := tt.shape.allowsLineScan(); got != tt.wantLineScan {
				t.Errorf("allowsLineScan() = %v, want %v", got, tt.wantLineScan)
			}
		})
	}
}

func TestMatchesReference(t *testing.T) {
	ref := NewReference("123456-12345678")

	if !matchesReference("123456-12345678", ref) {
		t.Error("exact value should match")
	}
	if !matchesReference("12345612345678", ref) {
		t.Error("separator-stripped value should match")
	}
	if matchesReference("", ref) {
		t.Error("empty value must never match")
	}
	if matchesReference("999999-12345678", ref) {
		t.Error("different value should not match")
	}
}
