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

// Package builtin assembles the registry of drivers shipped with ncc.
package builtin

import (
	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/driver/sftpfile"
	"github.com/carverauto/ncc/pkg/driver/sshcli"
)

// NewRegistry returns a registry holding every built-in driver.
func NewRegistry() *driver.Registry {
	r := driver.NewRegistry()

	sshcli.Register(r)
	sftpfile.Register(r)

	return r
}
