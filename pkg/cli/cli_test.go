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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/ncc/pkg/config"
	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/driver/builtin"
	"github.com/carverauto/ncc/pkg/events"
	"github.com/carverauto/ncc/pkg/logger"
	"github.com/carverauto/ncc/pkg/models"
	"github.com/carverauto/ncc/pkg/sshutil/sshtest"
)

const (
	showVersion = "show version"
	showRunning = "show running-config"
)

const routerShowVersion = `Cisco IOS XE Software, Version 17.09.04a
Cisco IOS Software [Cupertino], Catalyst L3 Switch Software (CAT9K_IOSXE), Version 17.9.4a, RELEASE SOFTWARE (fc3)

router1 uptime is 1 week, 2 days, 3 hours, 4 minutes
cisco C9300-48P (X86) processor with 1331521K/6147K bytes of memory.
`

const routerRunning = "hostname router1\n"

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	t.Setenv("NCC_CONFIG_FILE", "")
	t.Setenv("NCC_USERNAME", "")
	t.Setenv("NCC_PASSWORD", "")
	t.Setenv("NCC_WORKERS", "")

	ta := &testApp{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	ta.App = &App{
		Stdout:           ta.stdout,
		Stderr:           ta.stderr,
		Drivers:          builtin.NewRegistry(),
		StdoutIsTerminal: func() bool { return false },
		StdinIsTerminal:  func() bool { return false },
		Now:              func() time.Time { return time.Date(2025, time.June, 7, 8, 9, 10, 0, time.UTC) },
	}

	return ta
}

func (ta *testApp) run(t *testing.T, args ...string) error {
	t.Helper()

	cfg, err := ParseFlags(args)
	require.NoError(t, err)

	return ta.Run(context.Background(), cfg)
}

func writeInventory(t *testing.T, devices []map[string]interface{}) string {
	t.Helper()

	data, err := json.Marshal(devices)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func routerInventory(t *testing.T, srv *sshtest.Server) string {
	t.Helper()

	return writeInventory(t, []map[string]interface{}{{
		"hostname":      srv.Host,
		"device_type":   "ios",
		"optional_args": map[string]interface{}{driver.OptPort: srv.Port, driver.OptTimeout: 5},
	}})
}

func newRouter(t *testing.T) *sshtest.Server {
	t.Helper()

	srv := sshtest.NewServer(t, "backup", "pw")
	srv.Handle(showVersion, routerShowVersion)
	srv.Handle(showRunning, routerRunning)

	return srv
}

func TestRunBackup_WritesArtifact(t *testing.T) {
	ta := newTestApp(t)
	srv := newRouter(t)
	dir := filepath.Join(t.TempDir(), "out")

	err := ta.run(t, "--username", "backup", "--password", "pw",
		"backup", "--devices", routerInventory(t, srv), "--directory", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "router1", "router1_20250607_080910.cfg")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, routerRunning, string(data))

	out := ta.stdout.String()
	assert.Contains(t, out, "Starting backup job...")
	assert.Contains(t, out, "Backup Summary")
	assert.Contains(t, out, "router1_20250607_080910.cfg")
	assert.Contains(t, out, "Cisco")
	assert.Contains(t, out, "Backup job complete!")
	assert.NotContains(t, out, "Failed Backups")
}

func TestRunBackup_TaggedArtifact(t *testing.T) {
	ta := newTestApp(t)
	srv := newRouter(t)
	dir := t.TempDir()

	err := ta.run(t, "--username", "backup", "--password", "pw",
		"backup", "--devices", routerInventory(t, srv), "--directory", dir, "--tag", "nightly", "--silent")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "router1", "router1_nightly_20250607_080910.cfg"))
	require.NoError(t, err)
	assert.Empty(t, ta.stdout.String())
}

func TestRunBackup_OpenFailureReportedNotFatal(t *testing.T) {
	ta := newTestApp(t)
	srv := newRouter(t)
	dir := t.TempDir()

	err := ta.run(t, "--username", "backup", "--password", "wrong",
		"backup", "--devices", routerInventory(t, srv), "--directory", dir)
	require.NoError(t, err)

	out := ta.stdout.String()
	assert.Contains(t, out, "Failed Backups")
	assert.Contains(t, out, "failed to open session")
	assert.NotContains(t, out, "Successful Backups\n")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, srv.Executed())
}

func TestRunBackup_MissingDeviceTypeAbortsBeforeDispatch(t *testing.T) {
	ta := newTestApp(t)
	srv := newRouter(t)
	dir := filepath.Join(t.TempDir(), "out")

	calls := 0
	ta.Drivers = driver.NewRegistry()
	ta.Drivers.Register("ios", func(driver.ConnectionParams) (driver.Driver, error) {
		calls++

		return nil, driver.ErrUnsupportedDeviceType
	})

	inv := writeInventory(t, []map[string]interface{}{
		{"hostname": srv.Host, "device_type": "ios"},
		{"hostname": "r2"},
	})

	err := ta.run(t, "backup", "--devices", inv, "--directory", dir)
	require.ErrorIs(t, err, models.ErrMissingDeviceType)

	assert.Zero(t, calls)
	assert.Empty(t, srv.Executed())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunBackup_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  error
	}{
		{name: "zero workers", args: []string{"--workers", "0", "backup", "--devices", "x.json"}, err: models.ErrInvalidWorkers},
		{name: "tag with space", args: []string{"backup", "--devices", "x.json", "--tag", "pre change"}, err: models.ErrTagContainsWhitespace},
		{name: "password without username", args: []string{"--password", "pw", "backup", "--devices", "x.json"}, err: errUsernameRequired},
		{name: "username without password", args: []string{"--username", "admin", "backup", "--devices", "x.json"}, err: errPasswordRequired},
		{name: "no devices", args: []string{"backup"}, err: errDevicesRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t)

			args := append([]string(nil), tt.args...)
			args = append(args, "--directory", t.TempDir())

			require.ErrorIs(t, ta.run(t, args...), tt.err)
		})
	}
}

func TestRunBackup_MissingInventory(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run(t, "backup", "--devices", filepath.Join(t.TempDir(), "missing.json"), "--directory", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}

func TestResolveCredentialsPrompts(t *testing.T) {
	ta := newTestApp(t)
	ta.StdinIsTerminal = func() bool { return true }

	var prompt string

	ta.ReadPassword = func(p string) (string, error) {
		prompt = p

		return "typed-pw", nil
	}

	settings, err := ta.loadSettings(context.Background(), &CmdConfig{
		Username: "admin",
		set:      map[string]bool{"username": true},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "typed-pw", settings.Password)
	assert.Contains(t, prompt, "admin")
}

func TestResolveCredentialsKeepsSurroundingSpaces(t *testing.T) {
	tests := []struct {
		name    string
		typed   string
		want    string
		wantErr error
	}{
		{name: "leading and trailing spaces", typed: "  pw with spaces ", want: "  pw with spaces "},
		{name: "line ending stripped", typed: " pw\r\n", want: " pw"},
		{name: "only a newline", typed: "\n", wantErr: errEmptyPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t)
			ta.StdinIsTerminal = func() bool { return true }
			ta.ReadPassword = func(string) (string, error) { return tt.typed, nil }

			settings := config.DefaultSettings()
			settings.Username = "admin"

			err := ta.resolveCredentials(settings)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, settings.Password)
		})
	}
}

type recordingPublisher struct {
	results []*models.BackupResult
	runs    []*models.RunEventData
	closed  bool
}

func (p *recordingPublisher) PublishResult(_ context.Context, r *models.BackupResult) error {
	p.results = append(p.results, r)

	return nil
}

func (p *recordingPublisher) PublishRun(_ context.Context, d *models.RunEventData) error {
	p.runs = append(p.runs, d)

	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true

	return nil
}

func TestRunBackup_PublishesEvents(t *testing.T) {
	ta := newTestApp(t)
	srv := newRouter(t)

	settingsFile := filepath.Join(t.TempDir(), "ncc.yaml")
	require.NoError(t, os.WriteFile(settingsFile, []byte(strings.Join([]string{
		"workers: 4",
		"username: backup",
		"password: pw",
		"events:",
		"  enabled: true",
		"  url: nats://127.0.0.1:4222",
		"",
	}, "\n")), 0o600))

	pub := &recordingPublisher{}

	var gotRunID string

	ta.ConnectEvents = func(_ context.Context, cfg *models.NATSConfig, runID, _ string, _ logger.Logger) (events.Publisher, error) {
		assert.Equal(t, "ncc", cfg.Stream)

		gotRunID = runID

		return pub, nil
	}

	err := ta.run(t, "--config", settingsFile, "backup", "--devices", routerInventory(t, srv),
		"--directory", t.TempDir(), "--silent")
	require.NoError(t, err)

	require.Len(t, pub.results, 1)
	assert.True(t, pub.results[0].Success)

	require.Len(t, pub.runs, 1)
	assert.Equal(t, gotRunID, pub.runs[0].RunID)
	assert.Equal(t, 1, pub.runs[0].Summary.Successful)
	assert.True(t, pub.closed)
}

func TestRunVendors(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "vendors"))

	out := ta.stdout.String()
	assert.Contains(t, out, "Supported Vendor Device Types")
	assert.Contains(t, out, "iosxr_netconf")
	assert.Contains(t, out, "Arista EOS")

	ta.stdout.Reset()
	require.NoError(t, ta.run(t, "backup", "--vendors"))
	assert.Contains(t, ta.stdout.String(), "Juniper JunOS")
}

func TestRunInfoMasksPassword(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "--username", "admin", "--password", "hunter2", "info"))

	out := ta.stdout.String()
	assert.Contains(t, out, "Network Command Center (NCC)")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
}

func TestRunVersionAndHelp(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "--version"))
	assert.Contains(t, ta.stdout.String(), "ncc version")

	ta.stdout.Reset()
	require.NoError(t, ta.run(t, "help"))
	assert.Contains(t, ta.stdout.String(), "Usage:")

	require.ErrorIs(t, ta.run(t), errNoCommand)
	assert.Contains(t, ta.stderr.String(), "Commands:")
}
