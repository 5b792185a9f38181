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

func TestResolveCredentials(t *testing.T) {
	fallback := &models.Credentials{Username: "backup", Password: "fallback-pw"}

	tests := []struct {
		name     string
		record   models.DeviceRecord
		fallback *models.Credentials
		want     models.Credentials
	}{
		{
			name:     "record complete ignores fallback",
			record:   models.DeviceRecord{Username: "admin", Password: "pw"},
			fallback: fallback,
			want:     models.Credentials{Username: "admin", Password: "pw"},
		},
		{
			name:     "missing password filled",
			record:   models.DeviceRecord{Username: "admin"},
			fallback: fallback,
			want:     models.Credentials{Username: "admin", Password: "fallback-pw"},
		},
		{
			name:     "missing username filled",
			record:   models.DeviceRecord{Password: "pw"},
			fallback: fallback,
			want:     models.Credentials{Username: "backup", Password: "pw"},
		},
		{
			name:     "both missing",
			fallback: fallback,
			want:     *fallback,
		},
		{
			name:   "no fallback leaves absent",
			record: models.DeviceRecord{Username: "admin"},
			want:   models.Credentials{Username: "admin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCredentials(&tt.record, tt.fallback))
		})
	}
}

func TestApplyFallbackCopies(t *testing.T) {
	devices := []models.DeviceRecord{
		{Hostname: "r1", DeviceType: "ios"},
		{Hostname: "r2", DeviceType: "ios", Username: "local", Password: "localpw"},
	}

	resolved := ApplyFallback(devices, &models.Credentials{Username: "backup", Password: "pw"})

	assert.Equal(t, "backup", resolved[0].Username)
	assert.Equal(t, "pw", resolved[0].Password)
	assert.Equal(t, "local", resolved[1].Username)
	assert.Equal(t, "localpw", resolved[1].Password)
	assert.Empty(t, devices[0].Username)
}
