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
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Kit Table
// =============================================================================

//go:embed kit_table.yaml
var defaultKitTableYAML []byte

// =============================================================================
// Kit Table Types
// =============================================================================

// KitComponent is one component line of a composite SKU.
type KitComponent struct {
	// SKU is the sellable component item.
	SKU string `yaml:"sku" json:"sku" validate:"required"`

	// QuantityPerUnit is how many of this component one unit of the kit
	// contains. An expanded line's quantity is QuantityPerUnit times the
	// kit line's quantity.
	QuantityPerUnit int `yaml:"quantity_per_unit" json:"quantity_per_unit" validate:"gte=1"`
}

// KitDefinition maps a composite SKU to its ordered component list.
type KitDefinition struct {
	SKU        string         `yaml:"sku" json:"sku" validate:"required"`
	Components []KitComponent `yaml:"components" json:"components" validate:"min=1,dive"`
}

// kitTableFile is the YAML document shape.
type kitTableFile struct {
	Kits []KitDefinition `yaml:"kits" validate:"dive"`
}

// KitTable is the loaded kit configuration keyed by composite SKU.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type KitTable map[string][]KitComponent

// Components returns the component list for a SKU, or nil when the SKU is
// not a known kit.
func (t KitTable) Components(sku string) []KitComponent {
	return t[sku]
}

// Definitions returns the table as a stable-order slice for display.
func (t KitTable) Definitions() []KitDefinition {
	defs := make([]KitDefinition, 0, len(t))
	for sku, components := range t {
		defs = append(defs, KitDefinition{SKU: sku, Components: components})
	}
	return defs
}

// =============================================================================
// Loading
// =============================================================================

// DefaultKitTable returns the embedded default kit table.
//
// Panics if the embedded YAML is invalid; that is a build defect, not a
// runtime condition.
func DefaultKitTable() KitTable {
	table, err := parseKitTable(defaultKitTableYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded kit_table.yaml invalid: %v", err))
	}
	return table
}

// LoadKitTable reads a kit table from a YAML file, falling back to the
// embedded defaults when path is empty.
//
// Inputs:
//   - path: YAML file path, or "" for the embedded defaults.
//
// Outputs:
//   - KitTable: The validated table.
//   - error: Read, parse, validation, or duplicate-SKU failure.
func LoadKitTable(path string) (KitTable, error) {
	if path == "" {
		return DefaultKitTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read kit table %s: %w", path, err)
	}
	table, err := parseKitTable(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse kit table %s: %w", path, err)
	}
	return table, nil
}

func parseKitTable(data []byte) (KitTable, error) {
	var file kitTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if err := validate.Struct(file); err != nil {
		return nil, err
	}

	table := make(KitTable, len(file.Kits))
	for _, def := range file.Kits {
		if _, exists := table[def.SKU]; exists {
			return nil, fmt.Errorf("duplicate kit sku %q", def.SKU)
		}
		table[def.SKU] = def.Components
	}
	return table, nil
}
