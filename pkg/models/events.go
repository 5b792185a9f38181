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
	"time"
)

// NATSConfig configures the optional result event stream.
type NATSConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	URL           string `json:"url" yaml:"url"`
	Domain        string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Stream        string `json:"stream" yaml:"stream"`
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
	CredsFile     string `json:"creds_file,omitempty" yaml:"creds_file,omitempty"`
	CAFile        string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
	CertFile      string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile       string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	ServerName    string `json:"server_name,omitempty" yaml:"server_name,omitempty"`
}

// Validate ensures the NATS configuration is usable when enabled.
func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.URL == "" {
		return fmt.Errorf("%w: events.url", ErrNATSURLRequired)
	}

	if c.Stream == "" {
		c.Stream = "ncc"
	}

	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "ncc.backup"
	}

	return nil
}

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// BackupEventData is the payload published for every device result.
type BackupEventData struct {
	RunID  string        `json:"run_id"`
	Tag    string        `json:"tag,omitempty"`
	Result *BackupResult `json:"result"`
}

// RunEventData is the payload published once a run completes.
type RunEventData struct {
	RunID       string    `json:"run_id"`
	Tag         string    `json:"tag,omitempty"`
	Inventory   string    `json:"inventory,omitempty"`
	Summary     Summary   `json:"summary"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
