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

// Package sshutil dials authenticated SSH sessions to network devices and
package sshutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/ncc/pkg/sshutil/sshtest"
)

func testConfig(srv *sshtest.Server, password string) *Config {
	return &Config{
		Host:         srv.Host,
		Port:         srv.Port,
		Username:     "netops",
		Password:     password,
		Timeout:      5 * time.Second,
		DisableAgent: true,
	}
}

func TestDialAndRun(t *testing.T) {
	srv := sshtest.NewServer(t, "netops", "secret")
	srv.Handle("show clock", "10:00:00 UTC\n")

	client, err := Dial(context.Background(), testConfig(srv, "secret"))
	require.NoError(t, err)

	defer func() { _ = client.Close() }()

	out, err := Run(context.Background(), client.Client, "show clock")
	require.NoError(t, err)
	assert.Equal(t, "10:00:00 UTC\n", out)
	assert.Equal(t, []string{"show clock"}, srv.Executed())
}

func TestRunUnknownCommand(t *testing.T) {
	srv := sshtest.NewServer(t, "netops", "secret")

	client, err := Dial(context.Background(), testConfig(srv, "secret"))
	require.NoError(t, err)

	defer func() { _ = client.Close() }()

	_, err = Run(context.Background(), client.Client, "show bogus")
	require.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "Invalid input")
}

func TestDialWrongPassword(t *testing.T) {
	srv := sshtest.NewServer(t, "netops", "secret")

	_, err := Dial(context.Background(), testConfig(srv, "wrong"))

	require.Error(t, err)
}

func TestDialNoAuth(t *testing.T) {
	_, err := Dial(context.Background(), &Config{Host: "127.0.0.1", DisableAgent: true})

	require.ErrorIs(t, err, ErrNoAuthMethods)
}

func TestDialBadKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := Dial(context.Background(), &Config{Host: "127.0.0.1", KeyFile: path, DisableAgent: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse SSH key")
}

func TestDialRejectsUnknownHostKey(t *testing.T) {
	srv := sshtest.NewServer(t, "netops", "secret")

	knownHosts := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(knownHosts, nil, 0o600))

	cfg := testConfig(srv, "secret")
	cfg.KnownHosts = knownHosts

	_, err := Dial(context.Background(), cfg)

	require.Error(t, err)
}

func TestDialCancelledContext(t *testing.T) {
	srv := sshtest.NewServer(t, "netops", "secret")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dial(ctx, testConfig(srv, "secret"))

	require.ErrorIs(t, err, context.Canceled)
}

func TestAddressDefaultsPort(t *testing.T) {
	assert.Equal(t, "core1:22", (&Config{Host: "core1"}).Address())
	assert.Equal(t, "[2001:db8::1]:830", (&Config{Host: "2001:db8::1", Port: 830}).Address())
}
