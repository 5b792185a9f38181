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
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/ncc/pkg/hashutil"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Artifact describes one configuration file written to disk.
type Artifact struct {
	Path      string
	SizeBytes int64
	Checksum  string
}

// WriteArtifact writes content to its timestamped path under dir, creating
// the per-host directory when absent. The timestamp is taken from now at
// write time. The file is read back and checked against content.
func WriteArtifact(dir, host, tag string, content []byte, now func() time.Time) (*Artifact, error) {
	path := ArtifactPath(dir, host, tag, now())

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create directory '%s': %w", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, content, filePerm); err != nil {
		return nil, fmt.Errorf("failed to write artifact '%s': %w", path, err)
	}

	checksum := hashutil.SumHex(content)

	if err := verifyArtifact(path, checksum); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact '%s': %w", path, err)
	}

	return &Artifact{
		Path:      path,
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}, nil
}

// verifyArtifact re-reads path and compares it with the checksum of the
// bytes handed to the writer.
func verifyArtifact(path, checksum string) error {
	onDisk, err := hashutil.FileSHA256(path)
	if err != nil {
		return fmt.Errorf("failed to read back artifact '%s': %w", path, err)
	}

	if !hashutil.EqualHex(checksum, onDisk) {
		return fmt.Errorf("%w: %s", ErrArtifactMismatch, path)
	}

	return nil
}
