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
	"sort"
	"time"
)

// UnknownVendor is used when a device does not report its vendor.
const UnknownVendor = "unknown"

// TaskState tracks a single device backup.
type TaskState string

const (
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// BackupResult is the outcome of backing up one device. It is owned by
// the task that produced it until handed to the collector.
type BackupResult struct {
	Hostname          string    `json:"hostname"`
	ResolvedHostname  string    `json:"resolved_hostname,omitempty"`
	DeviceType        string    `json:"device_type,omitempty"`
	State             TaskState `json:"state"`
	Success           bool      `json:"success"`
	Vendor            string    `json:"vendor,omitempty"`
	Model             string    `json:"model,omitempty"`
	OSVersion         string    `json:"os_version,omitempty"`
	ArtifactPath      string    `json:"artifact_path,omitempty"`
	ArtifactSizeBytes int64     `json:"artifact_size_bytes,omitempty"`
	Checksum          string    `json:"checksum,omitempty"`
	Error             string    `json:"error,omitempty"`
	StartedAt         time.Time `json:"started_at,omitempty"`
	CompletedAt       time.Time `json:"completed_at,omitempty"`
}

// Fail marks the result failed with the given cause.
func (r *BackupResult) Fail(err error) *BackupResult {
	r.Success = false
	r.State = TaskFailed

	if err != nil {
		r.Error = err.Error()
	}

	return r
}

// Succeed marks the result successful.
func (r *BackupResult) Succeed() *BackupResult {
	r.Success = true
	r.State = TaskSucceeded
	r.Error = ""

	return r
}

// Duration is the wall time spent on the device, zero while unfinished.
func (r *BackupResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}

	return r.CompletedAt.Sub(r.StartedAt)
}

// Summary aggregates the results of one run.
type Summary struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	ByVendor   map[string]int `json:"by_vendor"`
}

// Vendors returns the vendor names with at least one success, sorted.
func (s *Summary) Vendors() []string {
	vendors := make([]string, 0, len(s.ByVendor))
	for v := range s.ByVendor {
		vendors = append(vendors, v)
	}

	sort.Strings(vendors)

	return vendors
}
