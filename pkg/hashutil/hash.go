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

// Package hashutil computes the checksums recorded for backup artifacts.
package hashutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// SumHex returns the lowercase hex SHA256 of data.
func SumHex(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// FileSHA256 streams the file at path through SHA256.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash '%s': %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// EqualHex reports whether two hex digests match, ignoring case.
func EqualHex(expected, actual string) bool {
	a, err := hex.DecodeString(strings.TrimSpace(expected))
	if err != nil {
		return false
	}

	b, err := hex.DecodeString(strings.TrimSpace(actual))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(a, b) == 1
}
