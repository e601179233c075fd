// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()

	assert.Equal(t, 7, limits.LookbackDays)
	assert.Equal(t, 100, limits.ScanPageSize)
	assert.Equal(t, 20, limits.ScanMaxPages)
	assert.Equal(t, 5*time.Second, limits.ExactTimeout.Std())
	assert.Equal(t, 20*time.Second, limits.ScanTimeout.Std())
	assert.False(t, limits.ParallelExact)
	assert.Equal(t, "eBay", limits.ScanChannel)
}

func TestLoadLimits_Override(t *testing.T) {
	path := writeTempYAML(t, `
lookback_days: 14
scan_page_size: 50
scan_max_pages: 10
exact_timeout: 2s
scan_timeout: 45s
parallel_exact: true
scan_channel: ""
`)

	limits, err := LoadLimits(path)
	require.NoError(t, err)

	assert.Equal(t, 14, limits.LookbackDays)
	assert.Equal(t, 2*time.Second, limits.ExactTimeout.Std())
	assert.True(t, limits.ParallelExact)
	assert.Empty(t, limits.ScanChannel)
}

func TestLoadLimits_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero page size", "lookback_days: 7\nscan_page_size: 0\nscan_max_pages: 20\nexact_timeout: 5s\nscan_timeout: 20s\n"},
		{"bad duration", "lookback_days: 7\nscan_page_size: 100\nscan_max_pages: 20\nexact_timeout: soon\nscan_timeout: 20s\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLimits(writeTempYAML(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadLimits_MissingFile(t *testing.T) {
	_, err := LoadLimits(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultKitTable(t *testing.T) {
	table := DefaultKitTable()

	require.NotEmpty(t, table)
	components := table.Components("KIT-SHELF-2X")
	require.NotNil(t, components)
	assert.Equal(t, "SHELF-PANEL", components[0].SKU)
	assert.Equal(t, 2, components[0].QuantityPerUnit)

	assert.Nil(t, table.Components("NOT-A-KIT"))
}

func TestLoadKitTable_Override(t *testing.T) {
	path := writeTempYAML(t, `
kits:
  - sku: KIT-X
    components:
      - sku: PART-1
        quantity_per_unit: 2
`)

	table, err := LoadKitTable(path)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, 2, table.Components("KIT-X")[0].QuantityPerUnit)
}

func TestLoadKitTable_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate kit sku", "kits:\n  - sku: K\n    components:\n      - sku: A\n        quantity_per_unit: 1\n  - sku: K\n    components:\n      - sku: B\n        quantity_per_unit: 1\n"},
		{"zero component quantity", "kits:\n  - sku: K\n    components:\n      - sku: A\n        quantity_per_unit: 0\n"},
		{"kit without components", "kits:\n  - sku: K\n    components: []\n"},
		{"component without sku", "kits:\n  - sku: K\n    components:\n      - quantity_per_unit: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadKitTable(writeTempYAML(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestKitTable_Definitions(t *testing.T) {
	table := KitTable{"K": {{SKU: "A", QuantityPerUnit: 1}}}

	defs := table.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "K", defs[0].SKU)
	assert.Equal(t, "A", defs[0].Components[0].SKU)
}
