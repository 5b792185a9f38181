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

package driver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Optional argument keys understood by the built-in drivers.
const (
	OptPort          = "port"
	OptTimeout       = "timeout"
	OptKeyFile       = "key_file"
	OptKeyPassphrase = "key_passphrase"
	OptKnownHosts    = "known_hosts"
	OptSNMPCommunity = "snmp_community"
	OptSNMPPort      = "snmp_port"
	OptConfigPath    = "config_path"

	DefaultTimeout = 60 * time.Second
)

// Options is the free-form optional_args map from the inventory.
type Options map[string]interface{}

// String returns the value for key as a string, or def.
func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}

	switch value := v.(type) {
	case string:
		if value == "" {
			return def
		}

		return value
	default:
		return fmt.Sprint(value)
	}
}

// Int returns the value for key as an int, or def when absent or invalid.
func (o Options) Int(key string, def int) int {
	n, err := o.IntE(key)
	if err != nil || n == nil {
		return def
	}

	return *n
}

// IntE parses key as an int. A nil result means the key is absent.
func (o Options) IntE(key string) (*int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}

	var n int

	switch value := v.(type) {
	case int:
		n = value
	case int64:
		n = int(value)
	case float64:
		n = int(value)
	case json.Number:
		i, err := value.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidOption, key, v)
		}

		n = int(i)
	case string:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidOption, key, v)
		}

		n = i
	default:
		return nil, fmt.Errorf("%w: %s=%v", ErrInvalidOption, key, v)
	}

	return &n, nil
}

// Duration reads key as whole seconds, or a Go duration string.
func (o Options) Duration(key string, def time.Duration) time.Duration {
	if s, ok := o[key].(string); ok {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}

	secs := o.Int(key, 0)
	if secs <= 0 {
		return def
	}

	return time.Duration(secs) * time.Second
}
