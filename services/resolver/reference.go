// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver implements the reference resolution and line
// normalization engine: a cascading resolver that locates an order on the
// upstream commerce platform from an arbitrary operator-supplied reference
// (order number, RMA code, marketplace transaction ID), then normalizes and
// kit-expands its line items for display.
package resolver

import (
	"regexp"
	"strings"
)

// Shape categorizes the syntactic form of a reference. It orders the exact
// strategies and gates which fallback scan may run; it never disables an
// exact strategy.
type Shape string

const (
	// ShapeStructuredPO is the marketplace order-number form, e.g. the
	// eBay "22-12345-67890" layout.
	ShapeStructuredPO Shape = "structuredPO"

	// ShapeNumericID is an all-digit string of at least 8 characters,
	// typically an internal ID or a marketplace transaction ID.
	ShapeNumericID Shape = "numericId"

	// ShapeAuctionTxnCombo is an auction-ID/transaction-ID pair such as
	// "123456-12345678".
	ShapeAuctionTxnCombo Shape = "auctionTxnCombo"

	// ShapeGeneric is everything else: alphanumeric order and RMA codes.
	ShapeGeneric Shape = "generic"
)

var (
	structuredPOPattern = regexp.MustCompile(`^\d{2}-\d{5}-\d{5}$`)
	numericIDPattern    = regexp.MustCompile(`^\d{8,}$`)
	auctionTxnPattern   = regexp.MustCompile(`^\d{6,}-\d{8,}$`)
)

// Reference is a classified, immutable resolution input.
type Reference struct {
	// Raw is the trimmed input string.
	Raw string

	// Shape is the first-match-wins classification of Raw.
	Shape Shape

	// Candidates is the ordered, de-duplicated list of normalized forms
	// tried against upstream fields with inconsistent formatting: raw,
	// hyphen/space-stripped, all-whitespace-stripped.
	Candidates []string
}

// NewReference trims the input and derives its shape and candidate list.
//
// Inputs:
//   - raw: The operator-supplied string, already URL-decoded by the
//     transport layer. Surrounding whitespace and trailing slashes are
//     stripped here.
func NewReference(raw string) Reference {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	return Reference{
		Raw:        trimmed,
		Shape:      classifyShape(trimmed),
		Candidates: candidateStrings(trimmed),
	}
}

// classifyShape applies the shape rules in order; first match wins.
func classifyShape(s string) Shape {
	switch {
	case structuredPOPattern.MatchString(s):
		return ShapeStructuredPO
	case numericIDPattern.MatchString(s):
		return ShapeNumericID
	case auctionTxnPattern.MatchString(s):
		return ShapeAuctionTxnCombo
	default:
		return ShapeGeneric
	}
}

// candidateStrings builds the normalized variants, preserving order of
// first occurrence and dropping empties.
func candidateStrings(raw string) []string {
	variants := []string{
		raw,
		strings.NewReplacer("-", "", " ", "").Replace(raw),
		strings.Join(strings.Fields(raw), ""),
	}

	seen := make(map[string]bool, len(variants))
	candidates := make([]string, 0, len(variants))
	for _, v := range variants {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		candidates = append(candidates, v)
	}
	return candidates
}

// stripSeparators removes hyphens and all whitespace, the normalization
// used for line-level reference comparison.
func stripSeparators(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "-", "")), "")
}

// allowsPOScan reports whether the purchase-order fallback scan runs for
// this shape.
func (s Shape) allowsPOScan() bool {
	return s == ShapeStructuredPO || s == ShapeGeneric
}

// allowsLineScan reports whether the line-level fallback scan runs for this
// shape. Only numeric and auction/transaction references can live inside
// line-level marketplace fields.
func (s Shape) allowsLineScan() bool {
	return s == ShapeNumericID || s == ShapeAuctionTxnCombo
}

// matchesReference reports whether an upstream field value equals the
// reference exactly or after hyphen/space normalization on both sides.
func matchesReference(value string, ref Reference) bool {
	if value == "" {
		return false
	}
	if value == ref.Raw {
		return true
	}
	return stripSeparators(value) == stripSeparators(ref.Raw)
}
