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
	"unicode"
)

// RunConfig holds the per-invocation parameters of a backup run.
type RunConfig struct {
	Workers         int
	OutputDirectory string
	Tag             string
	Fallback        *Credentials
	Quiet           bool
	Debug           bool
}

// Validate enforces the run-wide preconditions checked once before dispatch.
func (c *RunConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Workers)
	}

	if c.OutputDirectory == "" {
		return ErrOutputDirectoryRequired
	}

	if strings.IndexFunc(c.Tag, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrTagContainsWhitespace, c.Tag)
	}

	// the tag is part of the artifact file name
	if strings.ContainsAny(c.Tag, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrTagUnsafe, c.Tag)
	}

	if c.Fallback != nil && !c.Fallback.Empty() && !c.Fallback.Complete() {
		return ErrIncompleteCredentials
	}

	return nil
}
