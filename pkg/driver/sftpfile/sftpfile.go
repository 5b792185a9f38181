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

// Package sftpfile implements drivers for devices whose configuration is
// a plain file, read over SFTP.
package sftpfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/sftp"

	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/sshutil"
)

var ErrFileTooLarge = errors.New("remote file exceeds size limit")

// maxFileSize bounds any single file pulled from a device.
var maxFileSize = 32 << 20 //nolint:gochecknoglobals // lowered in tests

// Platform names the files a device keeps its identity and config in.
type Platform struct {
	DeviceType    string
	Vendor        string
	Model         string
	HostnameFile  string
	OSReleaseFile string
	ConfigFile    string
}

// Platforms returns the built-in file based platforms.
func Platforms() map[string]*Platform {
	return map[string]*Platform{
		"vyos": {
			DeviceType:    "vyos",
			Vendor:        "VyOS",
			Model:         "VyOS",
			HostnameFile:  "/etc/hostname",
			OSReleaseFile: "/etc/os-release",
			ConfigFile:    "/config/config.boot",
		},
		"edgeos": {
			DeviceType:    "edgeos",
			Vendor:        "Ubiquiti",
			Model:         "EdgeRouter",
			HostnameFile:  "/etc/hostname",
			OSReleaseFile: "/etc/version",
			ConfigFile:    "/config/config.boot",
		},
	}
}

// Register adds the built-in platforms to r.
func Register(r *driver.Registry) {
	for deviceType, platform := range Platforms() {
		p := platform

		r.Register(deviceType, func(params driver.ConnectionParams) (driver.Driver, error) {
			return New(p, params)
		})
	}
}

// Driver holds one SSH connection and the SFTP subsystem on top of it.
type Driver struct {
	platform   Platform
	ssh        sshutil.Config
	client     *sshutil.Client
	sftpClient *sftp.Client
}

var _ driver.Driver = (*Driver)(nil)

// New builds a driver; optional_args config_path overrides the config file.
func New(platform *Platform, params driver.ConnectionParams) (*Driver, error) {
	port, err := params.OptionalArgs.IntE(driver.OptPort)
	if err != nil {
		return nil, err
	}

	p := *platform
	p.ConfigFile = params.OptionalArgs.String(driver.OptConfigPath, p.ConfigFile)

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

	return &Driver{platform: p, ssh: cfg}, nil
}

func (d *Driver) Open(ctx context.Context) error {
	client, err := sshutil.Dial(ctx, &d.ssh)
	if err != nil {
		return err
	}

	ctx, cancel := driver.WithTimeout(ctx, d.ssh.Timeout)
	defer cancel()

	sftpClient, err := bounded(ctx, client, func() (*sftp.Client, error) {
		return sftp.NewClient(client.Client)
	})
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to start sftp subsystem: %w", err)
	}

	d.client = client
	d.sftpClient = sftpClient

	return nil
}

func (d *Driver) GetFacts(ctx context.Context) (*driver.Facts, error) {
	if d.sftpClient == nil {
		return nil, driver.ErrNotOpen
	}

	ctx, cancel := driver.WithTimeout(ctx, d.ssh.Timeout)
	defer cancel()

	facts := &driver.Facts{Vendor: d.platform.Vendor, Model: d.platform.Model}

	if d.platform.HostnameFile != "" {
		hostname, err := d.readFile(ctx, d.platform.HostnameFile)
		if err != nil {
			return nil, err
		}

		facts.Hostname = strings.TrimSpace(hostname)
	}

	if d.platform.OSReleaseFile != "" {
		// the release file is informational only
		if release, err := d.readFile(ctx, d.platform.OSReleaseFile); err == nil {
			facts.OSVersion = ParseRelease(release)
		}
	}

	return facts, nil
}

func (d *Driver) GetConfig(ctx context.Context) (*driver.Config, error) {
	if d.sftpClient == nil {
		return nil, driver.ErrNotOpen
	}

	ctx, cancel := driver.WithTimeout(ctx, d.ssh.Timeout)
	defer cancel()

	running, err := d.readFile(ctx, d.platform.ConfigFile)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(running) == "" {
		return nil, driver.ErrEmptyConfig
	}

	return &driver.Config{Running: running}, nil
}

func (d *Driver) Close() error {
	var err error

	if d.sftpClient != nil {
		_ = d.sftpClient.Close()
		d.sftpClient = nil
	}

	if d.client != nil {
		err = d.client.Close()
		d.client = nil
	}

	return err
}

// readFile pulls path from the device. If ctx ends first the connection is
// torn down, which is the only way to unblock a stalled transfer; the
// driver is unusable afterwards.
func (d *Driver) readFile(ctx context.Context, path string) (string, error) {
	if d.sftpClient == nil {
		return "", driver.ErrNotOpen
	}

	sftpClient := d.sftpClient

	data, err := bounded(ctx, d, func() ([]byte, error) {
		return readRemote(sftpClient, path)
	})
	if err != nil {
		return "", fmt.Errorf("failed to read remote file '%s': %w", path, err)
	}

	return string(data), nil
}

func readRemote(client *sftp.Client, path string) ([]byte, error) {
	f, err := client.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, int64(maxFileSize)+1))
	if err != nil {
		return nil, err
	}

	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, maxFileSize)
	}

	return data, nil
}

// bounded runs fn and returns its result, or closes conn and returns
// ctx.Err() if ctx ends first.
func bounded[T any](ctx context.Context, conn io.Closer, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)

	go func() {
		value, err := fn()
		done <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = conn.Close()

		var zero T

		return zero, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}

// ParseRelease extracts a version from an os-release style file, or the
// first line of a free-form version file.
func ParseRelease(content string) string {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}

		fields[key] = strings.Trim(value, `"'`)
	}

	for _, key := range []string{"VERSION", "VERSION_ID", "PRETTY_NAME"} {
		if v := fields[key]; v != "" {
			return v
		}
	}

	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")

	return strings.TrimSpace(line)
}
