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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/models"
)

const (
	// TimestampLayout renders as YYYYMMDD_HHMMSS.
	TimestampLayout = "20060102_150405"
	// ArtifactExtension is appended to every artifact file name.
	ArtifactExtension = ".cfg"
)

// ResolveHostname picks the name used for artifact placement: the hostname
// the device reports, else the inventory hostname up to the first dot. A
// device-reported name that is not a safe path component falls back to
// the inventory name.
func ResolveHostname(record *models.DeviceRecord, facts *driver.Facts) (string, error) {
	short := strings.TrimSpace(record.ShortHostname())

	if facts != nil {
		if reported := strings.TrimSpace(facts.Hostname); reported != "" {
			if safePathComponent(reported) {
				return reported, nil
			}

			if !safePathComponent(short) {
				return "", fmt.Errorf("%w: %q", ErrUnsafeHostname, reported)
			}

			return short, nil
		}
	}

	if !safePathComponent(short) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeHostname, short)
	}

	return short, nil
}

// ArtifactName is {host}[_{tag}]_{timestamp}.cfg.
func ArtifactName(host, tag string, ts time.Time) string {
	var b strings.Builder

	b.WriteString(host)

	if tag != "" {
		b.WriteByte('_')
		b.WriteString(tag)
	}

	b.WriteByte('_')
	b.WriteString(ts.Format(TimestampLayout))
	b.WriteString(ArtifactExtension)

	return b.String()
}

// ArtifactPath places the artifact in a per-host directory under dir.
func ArtifactPath(dir, host, tag string, ts time.Time) string {
	return filepath.Join(dir, host, ArtifactName(host, tag, ts))
}

func safePathComponent(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, "/\\\x00")
}
