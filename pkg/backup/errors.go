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

import "errors"

var (
	ErrUnsafeHostname   = errors.New("resolved hostname is not a safe path component")
	ErrNoConfig         = errors.New("driver returned no configuration")
	ErrTaskPanicked     = errors.New("backup task panicked")
	ErrNilDrivers       = errors.New("driver factory is required")
	ErrNilRunConfig     = errors.New("run config is required")
	ErrArtifactMismatch = errors.New("artifact on disk does not match retrieved configuration")
)
