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

// CmdConfig holds parsed command-line configuration.
type CmdConfig struct {
	Help    bool
	Version bool
	SubCmd  string

	// global
	Debug      bool
	Workers    int
	Username   string
	Password   string
	LogFile    string
	ConfigFile string

	// backup
	Devices     string
	Directory   string
	Tag         string
	Silent      bool
	ListVendors bool

	Args []string

	set map[string]bool
}

// IsSet reports whether the named flag was given on the command line.
func (c *CmdConfig) IsSet(name string) bool {
	return c.set[name]
}

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}
