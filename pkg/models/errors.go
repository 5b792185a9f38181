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

import "errors"

var (
	ErrMissingHostname         = errors.New("hostname is required")
	ErrMissingDeviceType       = errors.New("device_type is required")
	ErrInvalidWorkers          = errors.New("workers must be greater than 0")
	ErrTagContainsWhitespace   = errors.New("tag must not contain whitespace")
	ErrTagUnsafe               = errors.New("tag must not contain path separators or NUL")
	ErrOutputDirectoryRequired = errors.New("output directory is required")
	ErrIncompleteCredentials   = errors.New("username and password must be provided together")
	ErrNATSURLRequired         = errors.New("nats url is required")
)
