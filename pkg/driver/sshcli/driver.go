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

// Package sshcli implements device drivers that read facts and running
// configuration through SSH exec channels.
package sshcli

import (
	"context"
	"fmt"
	"strings"

	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/driver/snmpfacts"
	"github.com/carverauto/ncc/pkg/sshutil"
)

// FactsSource supplies facts the CLI output lacks.
type FactsSource interface {
	Facts(ctx context.Context) (*driver.Facts, error)
}

// Driver is one SSH session to one device.
type Driver struct {
	platform *Platform
	ssh      sshutil.Config
	enrich   FactsSource
	client   *sshutil.Client
}

var _ driver.Driver = (*Driver)(nil)

// New builds a driver for params on platform. No connection is made.
func New(platform *Platform, params driver.ConnectionParams) (*Driver, error) {
	port, err := params.OptionalArgs.IntE(driver.OptPort)
	if err != nil {
		return nil, err
	}

	cfg := sshutil.Config{
		Host:          params.Hostname,
		Username:      params.Username,
		Password:      params.Password,
		KeyFile:       params.OptionalArgs.String(driver.OptKeyFile, ""),
		KeyPassphrase: params.OptionalArgs.String(driver.OptKeyPassphrase, ""),
		KnownHosts:    params.OptionalArgs.String(driver.OptKnownHosts, ""),
		Timeout:       params.Timeout(),
	}

	if port != nil {
		cfg.Port = *port
	}

	d := &Driver{platform: platform, ssh: cfg}

	// only attach the SNMP source when configured, a nil *Query is not a nil interface
	if q := snmpfacts.FromParams(&params); q != nil {
		d.enrich = q
	}

	return d, nil
}

// Register adds every built-in platform to r.
func Register(r *driver.Registry) {
	for deviceType, platform := range Platforms() {
		p := platform

		r.Register(deviceType, func(params driver.ConnectionParams) (driver.Driver, error) {
			return New(p, params)
		})
	}
}

// Open dials and authenticates.
func (d *Driver) Open(ctx context.Context) error {
	client, err := sshutil.Dial(ctx, &d.ssh)
	if err != nil {
		return err
	}

	d.client = client

	return nil
}

// GetFacts runs the platform fact commands and parses them. When SNMP is
// configured it fills whatever the CLI output did not provide. The whole
// call is bounded by the device timeout.
func (d *Driver) GetFacts(ctx context.Context) (*driver.Facts, error) {
	if d.client == nil {
		return nil, driver.ErrNotOpen
	}

	ctx, cancel := driver.WithTimeout(ctx, d.ssh.Timeout)
	defer cancel()

	outputs := make(map[string]string, len(d.platform.FactsCommands))

	for _, cmd := range d.platform.FactsCommands {
		out, err := sshutil.Run(ctx, d.client.Client, cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to collect facts: %w", err)
		}

		outputs[cmd] = out
	}

	facts := d.platform.ParseFacts(outputs)

	if d.enrich != nil && (facts.Hostname == "" || facts.Model == "" || facts.OSVersion == "") {
		// SNMP is best effort; the CLI facts stand on their own
		if extra, err := d.enrich.Facts(ctx); err == nil {
			facts = snmpfacts.Merge(facts, extra)
		}
	}

	return facts, nil
}

// GetConfig returns the running configuration.
func (d *Driver) GetConfig(ctx context.Context) (*driver.Config, error) {
	if d.client == nil {
		return nil, driver.ErrNotOpen
	}

	ctx, cancel := driver.WithTimeout(ctx, d.ssh.Timeout)
	defer cancel()

	raw, err := sshutil.Run(ctx, d.client.Client, d.platform.ConfigCommand)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve running config: %w", err)
	}

	running := d.platform.CleanConfig(raw)
	if strings.TrimSpace(running) == "" {
		return nil, driver.ErrEmptyConfig
	}

	return &driver.Config{Running: running}, nil
}

// Close tears down the session. Calling it on an unopened driver is a no-op.
func (d *Driver) Close() error {
	if d.client == nil {
		return nil
	}

	err := d.client.Close()
	d.client = nil

	return err
}
