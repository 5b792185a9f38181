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

package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/ncc/pkg/models"
)

func TestSummarize(t *testing.T) {
	results := []*models.BackupResult{
		{Hostname: "r1", Success: true, Vendor: "Cisco"},
		{Hostname: "r2", Success: true, Vendor: "Cisco"},
		{Hostname: "r3", Success: true, Vendor: "Juniper"},
		{Hostname: "r4", Success: true},
		{Hostname: "r5", Success: false, Vendor: "Arista", Error: "timeout"},
	}

	summary := Summarize(results)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, map[string]int{"Cisco": 2, "Juniper": 1, models.UnknownVendor: 1}, summary.ByVendor)
	assert.Equal(t, []string{"Cisco", "Juniper", models.UnknownVendor}, summary.Vendors())

	assert.Equal(t, summary, Summarize(results))
	assert.Equal(t, "", results[3].Vendor)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.ByVendor)
}
