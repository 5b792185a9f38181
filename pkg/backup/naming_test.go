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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/hashutil"
	"github.com/carverauto/ncc/pkg/models"
)

func TestArtifactName(t *testing.T) {
	ts := time.Date(2024, time.December, 31, 23, 59, 1, 0, time.UTC)

	assert.Equal(t, "router1_20241231_235901.cfg", ArtifactName("router1", "", ts))
	assert.Equal(t, "router1_nightly_20241231_235901.cfg", ArtifactName("router1", "nightly", ts))
	assert.Equal(t,
		filepath.Join("/backups", "router1", "router1_pre-change_20241231_235901.cfg"),
		ArtifactPath("/backups", "router1", "pre-change", ts))
}

func TestResolveHostname(t *testing.T) {
	tests := []struct {
		name    string
		record  string
		facts   *driver.Facts
		want    string
		wantErr bool
	}{
		{name: "device hostname wins", record: "10.0.0.1", facts: &driver.Facts{Hostname: "core1"}, want: "core1"},
		{name: "device fqdn kept verbatim", record: "r1", facts: &driver.Facts{Hostname: "core1.lab"}, want: "core1.lab"},
		{name: "nil facts strip domain", record: "r1.example.com", want: "r1"},
		{name: "blank facts strip domain", record: "r1.example.com", facts: &driver.Facts{Hostname: "  "}, want: "r1"},
		{name: "no domain", record: "edge", facts: &driver.Facts{}, want: "edge"},
		{name: "unsafe device name falls back", record: "sw2.example.com", facts: &driver.Facts{Hostname: "a/b"}, want: "sw2"},
		{name: "dot-dot device name falls back", record: "sw3", facts: &driver.Facts{Hostname: ".."}, want: "sw3"},
		{name: "unsafe everywhere", record: "bad/name", facts: &driver.Facts{Hostname: `x\y`}, wantErr: true},
		{name: "leading dot leaves nothing", record: ".hidden", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveHostname(&models.DeviceRecord{Hostname: tt.record}, tt.facts)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsafeHostname)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hostname fw1\ninterface ge-0/0/0\n")

	artifact, err := WriteArtifact(dir, "fw1", "", content, fixedClock())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "fw1", "fw1_20250304_050607.cfg"), artifact.Path)
	assert.Equal(t, int64(len(content)), artifact.SizeBytes)
	assert.Len(t, artifact.Checksum, 64)
}

func TestVerifyArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r1.cfg")
	content := []byte("hostname r1\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	require.NoError(t, verifyArtifact(path, hashutil.SumHex(content)))

	require.NoError(t, os.WriteFile(path, []byte("hostname r"), 0o600))
	require.ErrorIs(t, verifyArtifact(path, hashutil.SumHex(content)), ErrArtifactMismatch)

	require.Error(t, verifyArtifact(filepath.Join(t.TempDir(), "absent.cfg"), hashutil.SumHex(content)))
}
