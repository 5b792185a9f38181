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

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/models"
)

// fakeFleet hands out fakeDriver sessions and tracks how many are open at
// once.
type fakeFleet struct {
	created   atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
	hold      time.Duration
	panicOn   string
	failOn    map[string]error

	mu     sync.Mutex
	params []driver.ConnectionParams
}

func (f *fakeFleet) New(params driver.ConnectionParams) (driver.Driver, error) {
	f.created.Add(1)

	f.mu.Lock()
	f.params = append(f.params, params)
	f.mu.Unlock()

	return &fakeDriver{fleet: f, params: params}, nil
}

type fakeDriver struct {
	fleet  *fakeFleet
	params driver.ConnectionParams
	opened bool
}

func (d *fakeDriver) Open(_ context.Context) error {
	if err := d.fleet.failOn[d.params.Hostname]; err != nil {
		return err
	}

	n := d.fleet.active.Add(1)
	for {
		peak := d.fleet.maxActive.Load()
		if n <= peak || d.fleet.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}

	d.opened = true

	return nil
}

func (d *fakeDriver) GetFacts(_ context.Context) (*driver.Facts, error) {
	if d.params.Hostname == d.fleet.panicOn {
		panic("index out of range parsing show version")
	}

	time.Sleep(d.fleet.hold)

	return &driver.Facts{Vendor: "Cisco", Model: "ISR4331", OSVersion: "16.9.5", Hostname: d.params.Hostname}, nil
}

func (d *fakeDriver) GetConfig(_ context.Context) (*driver.Config, error) {
	return &driver.Config{Running: "hostname " + d.params.Hostname + "\n"}, nil
}

func (d *fakeDriver) Close() error {
	if d.opened {
		d.opened = false
		d.fleet.active.Add(-1)
	}

	return nil
}

func inventoryOf(n int) []models.DeviceRecord {
	devices := make([]models.DeviceRecord, n)
	for i := range devices {
		devices[i] = models.DeviceRecord{Hostname: fmt.Sprintf("rtr%02d", i), DeviceType: "ios"}
	}

	return devices
}

func runConfig(dir string, workers int) *models.RunConfig {
	return &models.RunConfig{Workers: workers, OutputDirectory: dir}
}

func TestNewOrchestrator_RejectsInvalidConfig(t *testing.T) {
	_, err := NewOrchestrator(runConfig(t.TempDir(), 0), &fakeFleet{})
	require.ErrorIs(t, err, models.ErrInvalidWorkers)

	_, err = NewOrchestrator(runConfig(t.TempDir(), -3), &fakeFleet{})
	require.ErrorIs(t, err, models.ErrInvalidWorkers)

	_, err = NewOrchestrator(&models.RunConfig{Workers: 4, OutputDirectory: "x", Tag: "pre change"}, &fakeFleet{})
	require.ErrorIs(t, err, models.ErrTagContainsWhitespace)

	_, err = NewOrchestrator(nil, &fakeFleet{})
	require.ErrorIs(t, err, ErrNilRunConfig)

	_, err = NewOrchestrator(runConfig("x", 1), nil)
	require.ErrorIs(t, err, ErrNilDrivers)
}

func TestOrchestratorRun_OneResultPerDeviceAndBoundedConcurrency(t *testing.T) {
	for _, workers := range []int{1, 3, 8, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			fleet := &fakeFleet{hold: 5 * time.Millisecond}
			devices := inventoryOf(20)
			dir := t.TempDir()

			var progressCalls []int

			o, err := NewOrchestrator(runConfig(dir, workers), fleet,
				WithClock(fixedClock()),
				WithProgress(func(completed, total int) {
					assert.Equal(t, len(devices), total)

					progressCalls = append(progressCalls, completed)
				}))
			require.NoError(t, err)

			results, err := o.Run(context.Background(), devices)
			require.NoError(t, err)

			require.Len(t, results, len(devices))
			assert.LessOrEqual(t, int(fleet.maxActive.Load()), workers)
			assert.Equal(t, int32(0), fleet.active.Load())

			seen := make(map[string]bool)
			paths := make(map[string]bool)

			for _, r := range results {
				assert.True(t, r.Success, r.Error)
				seen[r.Hostname] = true

				// every artifact lives in its own host's directory
				assert.Equal(t, filepath.Join(dir, r.ResolvedHostname), filepath.Dir(r.ArtifactPath))
				assert.False(t, paths[r.ArtifactPath], "artifact path reused: %s", r.ArtifactPath)
				paths[r.ArtifactPath] = true

				content, err := os.ReadFile(r.ArtifactPath)
				require.NoError(t, err)
				assert.Equal(t, "hostname "+r.ResolvedHostname+"\n", string(content))
			}

			assert.Len(t, seen, len(devices))
			assert.Len(t, paths, len(devices))

			require.Len(t, progressCalls, len(devices))
			for i, completed := range progressCalls {
				assert.Equal(t, i+1, completed)
			}
		})
	}
}

func TestOrchestratorRun_PanicIsolatedToOneDevice(t *testing.T) {
	fleet := &fakeFleet{panicOn: "rtr03"}
	devices := inventoryOf(6)

	o, err := NewOrchestrator(runConfig(t.TempDir(), 2), fleet)
	require.NoError(t, err)

	results, err := o.Run(context.Background(), devices)
	require.NoError(t, err)
	require.Len(t, results, len(devices))

	for _, r := range results {
		if r.Hostname == "rtr03" {
			assert.False(t, r.Success)
			assert.Equal(t, models.TaskFailed, r.State)
			assert.Contains(t, r.Error, ErrTaskPanicked.Error())
			assert.Contains(t, r.Error, "index out of range")

			continue
		}

		assert.True(t, r.Success, r.Error)
	}

	assert.Equal(t, int32(0), fleet.active.Load())
}

func TestOrchestratorRun_FailuresDoNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	fleet := &fakeFleet{failOn: map[string]error{"rtr01": errConnRefused}}

	var handled []string

	o, err := NewOrchestrator(runConfig(dir, 4), fleet,
		WithClock(fixedClock()),
		WithResultHandler(func(r *models.BackupResult) { handled = append(handled, r.Hostname) }))
	require.NoError(t, err)

	results, err := o.Run(context.Background(), inventoryOf(3))
	require.NoError(t, err)

	summary := Summarize(results)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, map[string]int{"Cisco": 2}, summary.ByVendor)
	assert.ElementsMatch(t, []string{"rtr00", "rtr01", "rtr02"}, handled)

	_, err = os.Stat(filepath.Join(dir, "rtr01"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, "rtr02", "rtr02_20250304_050607.cfg"))
	assert.NoError(t, err)
}

func TestOrchestratorRun_AppliesFallbackCredentials(t *testing.T) {
	fleet := &fakeFleet{}
	cfg := runConfig(t.TempDir(), 2)
	cfg.Fallback = &models.Credentials{Username: "backup", Password: "fallback-pw"}

	devices := []models.DeviceRecord{
		{Hostname: "a", DeviceType: "ios"},
		{Hostname: "b", DeviceType: "ios", Username: "local"},
		{Hostname: "c", DeviceType: "ios", Username: "own", Password: "ownpw"},
	}

	o, err := NewOrchestrator(cfg, fleet)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), devices)
	require.NoError(t, err)

	got := make(map[string]models.Credentials)
	for _, p := range fleet.params {
		got[p.Hostname] = models.Credentials{Username: p.Username, Password: p.Password}
	}

	assert.Equal(t, models.Credentials{Username: "backup", Password: "fallback-pw"}, got["a"])
	assert.Equal(t, models.Credentials{Username: "local", Password: "fallback-pw"}, got["b"])
	assert.Equal(t, models.Credentials{Username: "own", Password: "ownpw"}, got["c"])
}

func TestOrchestratorRun_InvalidRecordAbortsBeforeDispatch(t *testing.T) {
	dir := t.TempDir()
	fleet := &fakeFleet{}

	devices := []models.DeviceRecord{
		{Hostname: "r1", DeviceType: "ios"},
		{Hostname: "r2"},
	}

	o, err := NewOrchestrator(runConfig(dir, 4), fleet)
	require.NoError(t, err)

	results, err := o.Run(context.Background(), devices)
	require.ErrorIs(t, err, models.ErrMissingDeviceType)
	assert.Nil(t, results)
	assert.Equal(t, int32(0), fleet.created.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOrchestratorRun_TaggedArtifactName(t *testing.T) {
	dir := t.TempDir()
	cfg := runConfig(dir, 1)
	cfg.Tag = "nightly"

	o, err := NewOrchestrator(cfg, &fakeFleet{}, WithClock(fixedClock()))
	require.NoError(t, err)

	results, err := o.Run(context.Background(), []models.DeviceRecord{{Hostname: "r1", DeviceType: "ios"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "r1_nightly_20250304_050607.cfg", filepath.Base(results[0].ArtifactPath))
}

func TestOrchestratorRun_EmptyInventory(t *testing.T) {
	fleet := &fakeFleet{}
	calls := 0

	o, err := NewOrchestrator(runConfig(t.TempDir(), 8), fleet, WithProgress(func(int, int) { calls++ }))
	require.NoError(t, err)

	results, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, calls)
	assert.Equal(t, int32(0), fleet.created.Load())
}

func TestOrchestratorRun_CancelledContextStillReportsEveryDevice(t *testing.T) {
	fleet := &fakeFleet{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := NewOrchestrator(runConfig(t.TempDir(), 2), fleet)
	require.NoError(t, err)

	results, err := o.Run(ctx, inventoryOf(5))
	require.NoError(t, err)
	require.Len(t, results, 5)

	for _, r := range results {
		assert.False(t, r.Success)
		assert.Contains(t, r.Error, context.Canceled.Error())
	}

	assert.Equal(t, int32(0), fleet.created.Load())
}
