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

package models

import (
	"fmt"
	"strings"
)

// DeviceRecord is one inventory entry. Empty strings mean the field was
// not supplied.
type DeviceRecord struct {
	Hostname     string                 `json:"hostname" yaml:"hostname"`
	DeviceType   string                 `json:"device_type" yaml:"device_type"`
	Username     string                 `json:"username,omitempty" yaml:"username,omitempty"`
	Password     string                 `json:"password,omitempty" yaml:"password,omitempty"`
	OptionalArgs map[string]interface{} `json:"optional_args,omitempty" yaml:"optional_args,omitempty"`
}

// Validate checks the fields every backup needs before dispatch.
func (d *DeviceRecord) Validate() error {
	if strings.TrimSpace(d.Hostname) == "" {
		return ErrMissingHostname
	}

	if strings.TrimSpace(d.DeviceType) == "" {
		return fmt.Errorf("%w for device %s", ErrMissingDeviceType, d.Hostname)
	}

	return nil
}

// ShortHostname is the inventory hostname up to the first dot.
func (d *DeviceRecord) ShortHostname() string {
	if idx := strings.IndexByte(d.Hostname, '.'); idx >= 0 {
		return d.Hostname[:idx]
	}

	return d.Hostname
}

// Credentials returns the username/password pair carried on the record.
func (d *DeviceRecord) Credentials() Credentials {
	return Credentials{Username: d.Username, Password: d.Password}
}

// Credentials is a username/password pair; either half may be absent.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Complete reports whether both halves are present.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Empty reports whether neither half is present.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}
