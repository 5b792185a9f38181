/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package inventory reads and validates the device inventory file.
package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carverauto/ncc/pkg/logger"
	"github.com/carverauto/ncc/pkg/models"
)

// Load reads the inventory at path and validates every record. Files
// ending in .yaml or .yml are decoded as YAML, anything else as JSON.
func Load(path string) ([]models.DeviceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInventoryNotFound, path)
		}

		return nil, fmt.Errorf("failed to read inventory '%s': %w", path, err)
	}

	var devices []models.DeviceRecord

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		devices, err = decodeYAML(data)
	default:
		devices, err = decodeJSON(data)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInventory, path, err)
	}

	if err := Validate(devices); err != nil {
		return nil, err
	}

	return devices, nil
}

func decodeJSON(data []byte) ([]models.DeviceRecord, error) {
	var devices []models.DeviceRecord

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&devices); err != nil {
		return nil, err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return devices, nil
}

func decodeYAML(data []byte) ([]models.DeviceRecord, error) {
	var devices []models.DeviceRecord

	if err := yaml.Unmarshal(data, &devices); err != nil {
		return nil, err
	}

	return devices, nil
}

// Validate checks every record before any backup is attempted. The error
// names the zero-based position of the first offending entry.
func Validate(devices []models.DeviceRecord) error {
	for i := range devices {
		if err := devices[i].Validate(); err != nil {
			return fmt.Errorf("%w: device %d: %w", ErrInvalidInventory, i, err)
		}
	}

	return nil
}

// VendorTable reports whether a device type is a known vendor.
type VendorTable interface {
	IsSupported(deviceType string) bool
}

// CheckVendors warns about device types missing from the vendor table and
// returns them. Those devices are still attempted.
func CheckVendors(devices []models.DeviceRecord, vendors VendorTable, log logger.Logger) []string {
	seen := make(map[string]struct{})

	var unknown []string

	for i := range devices {
		dt := devices[i].DeviceType
		if vendors.IsSupported(dt) {
			continue
		}

		if _, dup := seen[dt]; dup {
			continue
		}

		seen[dt] = struct{}{}
		unknown = append(unknown, dt)

		log.Warn().
			Str("hostname", devices[i].Hostname).
			Str("device_type", dt).
			Msg("Device type is not in the supported vendor list, backup may fail")
	}

	return unknown
}
