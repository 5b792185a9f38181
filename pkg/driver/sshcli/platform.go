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

package sshcli

import (
	"regexp"
	"strings"

	"github.com/carverauto/ncc/pkg/driver"
)

// Platform describes how to pull facts and configuration from one
// network OS over exec channels.
type Platform struct {
	DeviceType    string
	Vendor        string
	FactsCommands []string
	ConfigCommand string
	parseFacts    func(outputs map[string]string) *driver.Facts
	cleanConfig   func(string) string
}

// ParseFacts runs the platform parser over the fact command outputs.
func (p *Platform) ParseFacts(outputs map[string]string) *driver.Facts {
	facts := p.parseFacts(outputs)
	if facts.Vendor == "" {
		facts.Vendor = p.Vendor
	}

	return facts
}

// CleanConfig strips volatile preamble lines from the running config.
func (p *Platform) CleanConfig(raw string) string {
	if p.cleanConfig == nil {
		return raw
	}

	return p.cleanConfig(raw)
}

var (
	iosVersionRe  = regexp.MustCompile(`(?m)Cisco IOS(?: XE)? Software.*?,? Version ([^,\s]+)`)
	iosModelRe    = regexp.MustCompile(`(?m)^[Cc]isco (\S+) \(.*\) processor`)
	iosUptimeRe   = regexp.MustCompile(`(?m)^(\S+) uptime is`)
	iosSerialRe   = regexp.MustCompile(`(?m)Processor board ID (\S+)`)
	nxosVersionRe = regexp.MustCompile(`(?m)^\s*(?:NXOS|system):\s+version\s+(\S+)`)
	nxosModelRe   = regexp.MustCompile(`(?m)^\s*cisco (Nexus.*?)\s+[Cc]hassis`)
	nxosNameRe    = regexp.MustCompile(`(?m)^\s*Device name:\s+(\S+)`)
	nxosSerialRe  = regexp.MustCompile(`(?m)Processor [Bb]oard ID (\S+)`)
	xrVersionRe   = regexp.MustCompile(`(?m)Cisco IOS XR Software, Version (\S+)`)
	xrModelRe     = regexp.MustCompile(`(?m)^cisco (.+?) \(.*\) processor`)
	eosModelRe    = regexp.MustCompile(`(?m)^Arista (\S+)`)
	eosVersionRe  = regexp.MustCompile(`(?m)^Software image version:\s+(\S+)`)
	eosSerialRe   = regexp.MustCompile(`(?m)^Serial number:\s+(\S+)`)
	eosHostRe     = regexp.MustCompile(`(?m)^Hostname:\s+(\S+)`)
	junosHostRe   = regexp.MustCompile(`(?m)^Hostname:\s+(\S+)`)
	junosModelRe  = regexp.MustCompile(`(?m)^Model:\s+(\S+)`)
	junosVerRe    = regexp.MustCompile(`(?m)^Junos:\s+(\S+)|JUNOS .*?\[(\S+)\]`)
)

const (
	showVersion  = "show version"
	showHostname = "show hostname"
	showRunning  = "show running-config"
)

// Platforms returns the built-in platform table keyed by device type.
func Platforms() map[string]*Platform {
	ios := &Platform{
		DeviceType:    "ios",
		Vendor:        "Cisco",
		FactsCommands: []string{showVersion},
		ConfigCommand: showRunning,
		parseFacts: func(out map[string]string) *driver.Facts {
			v := out[showVersion]

			return &driver.Facts{
				OSVersion: match(iosVersionRe, v),
				Model:     match(iosModelRe, v),
				Hostname:  match(iosUptimeRe, v),
				Serial:    match(iosSerialRe, v),
			}
		},
		cleanConfig: stripPreamble("Building configuration", "Current configuration"),
	}

	nxos := &Platform{
		DeviceType:    "nxos",
		Vendor:        "Cisco",
		FactsCommands: []string{showVersion},
		ConfigCommand: showRunning,
		parseFacts: func(out map[string]string) *driver.Facts {
			v := out[showVersion]

			return &driver.Facts{
				OSVersion: match(nxosVersionRe, v),
				Model:     match(nxosModelRe, v),
				Hostname:  match(nxosNameRe, v),
				Serial:    match(nxosSerialRe, v),
			}
		},
		cleanConfig: stripPreamble("!Time:", "!Running configuration last done"),
	}

	nxosSSH := *nxos
	nxosSSH.DeviceType = "nxos_ssh"

	iosxr := &Platform{
		DeviceType:    "iosxr",
		Vendor:        "Cisco",
		FactsCommands: []string{showVersion},
		ConfigCommand: showRunning,
		parseFacts: func(out map[string]string) *driver.Facts {
			v := out[showVersion]

			return &driver.Facts{
				OSVersion: match(xrVersionRe, v),
				Model:     match(xrModelRe, v),
				Hostname:  match(iosUptimeRe, v),
			}
		},
		cleanConfig: stripPreamble("Building configuration", "!! Last configuration change", "Mon ", "Tue ", "Wed ", "Thu ", "Fri ", "Sat ", "Sun "),
	}

	eos := &Platform{
		DeviceType:    "eos",
		Vendor:        "Arista",
		FactsCommands: []string{showVersion, showHostname},
		ConfigCommand: showRunning,
		parseFacts: func(out map[string]string) *driver.Facts {
			v := out[showVersion]

			return &driver.Facts{
				OSVersion: match(eosVersionRe, v),
				Model:     match(eosModelRe, v),
				Serial:    match(eosSerialRe, v),
				Hostname:  match(eosHostRe, out[showHostname]),
			}
		},
	}

	junos := &Platform{
		DeviceType:    "junos",
		Vendor:        "Juniper",
		FactsCommands: []string{showVersion},
		ConfigCommand: "show configuration",
		parseFacts: func(out map[string]string) *driver.Facts {
			v := out[showVersion]

			return &driver.Facts{
				OSVersion: match(junosVerRe, v),
				Model:     match(junosModelRe, v),
				Hostname:  match(junosHostRe, v),
			}
		},
	}

	platforms := make(map[string]*Platform)
	for _, p := range []*Platform{ios, nxos, &nxosSSH, iosxr, eos, junos} {
		platforms[p.DeviceType] = p
	}

	return platforms
}

// match returns the first non-empty capture group of re in s.
func match(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	for i := 1; i < len(m); i++ {
		if m[i] != "" {
			return strings.TrimSpace(m[i])
		}
	}

	return ""
}

// stripPreamble drops leading lines that start with any of prefixes, plus
// leading blank lines.
func stripPreamble(prefixes ...string) func(string) string {
	return func(raw string) string {
		rest := raw

		for rest != "" {
			line, tail, _ := strings.Cut(rest, "\n")
			trimmed := strings.TrimSpace(line)

			if trimmed != "" && !hasAnyPrefix(trimmed, prefixes) {
				break
			}

			rest = tail
		}

		return rest
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}
