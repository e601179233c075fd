// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the static configuration consumed by the resolution
// engine: the kit table and the resolution limits. Both ship with embedded
// defaults and can be overridden from YAML files at process start.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Limits
// =============================================================================

//go:embed limits.yaml
var defaultLimitsYAML []byte

// =============================================================================
// Resolution Limits
// =============================================================================

// Duration wraps time.Duration so limits files can use "5s"/"250ms" forms.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Limits bounds the work a single resolution request may perform.
//
// Description:
//
//	The exact-lookup strategies are cheap (one filtered query per
//	candidate), but the fallback scans enumerate recent orders page by
//	page. LookbackDays, ScanPageSize and ScanMaxPages together cap the
//	worst-case cost of a miss; they are configuration rather than
//	constants because the right bound depends on order volume per
//	deployment.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Limits struct {
	// LookbackDays is the scan window: only orders placed within the last
	// N days are enumerated by the fallback scans.
	LookbackDays int `yaml:"lookback_days" validate:"gte=1,lte=90"`

	// ScanPageSize is the number of orders fetched per scan page.
	ScanPageSize int `yaml:"scan_page_size" validate:"gte=1,lte=1000"`

	// ScanMaxPages caps the pages fetched per scan strategy.
	ScanMaxPages int `yaml:"scan_max_pages" validate:"gte=1,lte=200"`

	// ExactTimeout is the per-call budget for exact-filter queries.
	ExactTimeout Duration `yaml:"exact_timeout" validate:"gt=0"`

	// ScanTimeout is the per-page budget for scan queries, which return
	// larger payloads than exact lookups.
	ScanTimeout Duration `yaml:"scan_timeout" validate:"gt=0"`

	// ParallelExact issues the exact-lookup strategies concurrently with
	// first-success-wins semantics instead of sequentially.
	ParallelExact bool `yaml:"parallel_exact"`

	// ScanChannel is the sales-channel filter tried first by the
	// purchase-order scan. Empty disables the channel-filtered pass.
	ScanChannel string `yaml:"scan_channel"`
}

// DefaultLimits returns the embedded default limits.
//
// Outputs:
//   - Limits: The parsed embedded defaults.
//
// Panics if the embedded YAML is invalid; that is a build defect, not a
// runtime condition.
func DefaultLimits() Limits {
	limits, err := parseLimits(defaultLimitsYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded limits.yaml invalid: %v", err))
	}
	return limits
}

// LoadLimits reads limits from a YAML file, falling back to the embedded
// defaults when path is empty.
//
// Inputs:
//   - path: YAML file path, or "" for the embedded defaults.
//
// Outputs:
//   - Limits: The validated limits.
//   - error: Read, parse or validation failure.
func LoadLimits(path string) (Limits, error) {
	if path == "" {
		return DefaultLimits(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("config: read limits %s: %w", path, err)
	}
	limits, err := parseLimits(data)
	if err != nil {
		return Limits{}, fmt.Errorf("config: parse limits %s: %w", path, err)
	}
	return limits, nil
}

func parseLimits(data []byte) (Limits, error) {
	var limits Limits
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return Limits{}, err
	}
	if err := validate.Struct(limits); err != nil {
		return Limits{}, err
	}
	return limits, nil
}

// validate is shared by the limits and kit table loaders.
var validate = validator.New()
