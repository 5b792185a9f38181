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

package cli

import (
	"fmt"
	"io"
)

// ShowHelp writes the usage text to w.
func ShowHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `ncc: Network Command Center configuration backups

Usage:
  ncc [global options] <command> [options]

Commands:
  backup     Back up running configurations from an inventory of devices
  vendors    List the supported device types
  info       Show version and effective configuration
  version    Print the version

Global options:
  --config string     settings file (.json, .yaml or .yml; env NCC_CONFIG_FILE)
  --debug             debug logging; disables the progress bar and tables
  --workers int       number of parallel backup tasks (default 64)
  --username string   username for devices without credentials
  --password string   password for devices without credentials
  --log-file string   also write JSON logs to this file
  --version           print the version and exit

Options for backup:
  --devices string    inventory file of target devices (.json, .yaml or .yml)
  --directory string  where to write backups (default ./ncc_backups)
  --tag string        tag added to backup filenames, no whitespace
  --silent            no console output
  --vendors           list supported device types and exit

Examples:
  ncc backup --devices devices.json
  ncc --workers 16 --username backup backup --devices devices.yaml --tag nightly
  ncc vendors
`)
}
