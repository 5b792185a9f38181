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
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carverauto/ncc/pkg/lifecycle"
	"github.com/carverauto/ncc/pkg/logger"
	"github.com/carverauto/ncc/pkg/models"
)

//nolint:gochecknoglobals // shared discard logger for unconfigured callers
var nopLogger logger.Logger = lifecycle.NewFromZerolog(zerolog.Nop())

// ProgressFunc is called once per completed task with the running count.
type ProgressFunc func(completed, total int)

// ResultHandler receives each result as it completes. Handlers run on the
// collector goroutine one at a time.
type ResultHandler func(result *models.BackupResult)

// Orchestrator runs backup tasks for an inventory on a bounded pool.
type Orchestrator struct {
	cfg      models.RunConfig
	drivers  DriverFactory
	logger   logger.Logger
	now      func() time.Time
	progress ProgressFunc
	handlers []ResultHandler
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used by the orchestrator and its tasks.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithResultHandler adds a handler invoked for every completed result.
func WithResultHandler(fn ResultHandler) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.handlers = append(o.handlers, fn)
		}
	}
}

// NewOrchestrator validates cfg and returns an orchestrator bound to drivers.
func NewOrchestrator(cfg *models.RunConfig, drivers DriverFactory, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, ErrNilRunConfig
	}

	if drivers == nil {
		return nil, ErrNilDrivers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:     *cfg,
		drivers: drivers,
		logger:  nopLogger,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Run backs up every device and returns one result per device in
// completion order. Records are validated before any task starts; a
// validation error means no driver was touched. Cancelling ctx does not
// stop collection: devices not yet started are recorded as failed.
func (o *Orchestrator) Run(ctx context.Context, devices []models.DeviceRecord) ([]*models.BackupResult, error) {
	for i := range devices {
		if err := devices[i].Validate(); err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}
	}

	total := len(devices)
	results := make([]*models.BackupResult, 0, total)

	if total == 0 {
		return results, nil
	}

	resolved := ApplyFallback(devices, o.cfg.Fallback)
	concurrency := o.concurrency(total)

	o.logger.Debug().
		Int("devices", total).
		Int("workers", concurrency).
		Str("directory", o.cfg.OutputDirectory).
		Str("tag", o.cfg.Tag).
		Msg("Starting backup run")

	jobs := make(chan models.DeviceRecord, concurrency)
	out := make(chan *models.BackupResult, concurrency)

	var wg sync.WaitGroup

	o.startWorkers(ctx, &wg, jobs, out, concurrency)

	go feedDevices(resolved, jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	for result := range out {
		results = append(results, result)

		for _, handle := range o.handlers {
			handle(result)
		}

		if o.progress != nil {
			o.progress(len(results), total)
		}
	}

	summary := Summarize(results)

	o.logger.Debug().
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Backup run finished")

	return results, nil
}

func (o *Orchestrator) concurrency(total int) int {
	if o.cfg.Workers < total {
		return o.cfg.Workers
	}

	return total
}

func (o *Orchestrator) startWorkers(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.DeviceRecord,
	out chan<- *models.BackupResult,
	concurrency int,
) {
	for i := 0; i < concurrency; i++ {
		wg.Add(1)

		go func(workerID int) {
			defer wg.Done()

			for device := range jobs {
				out <- o.runTask(ctx, workerID, device)
			}
		}(i)
	}
}

func feedDevices(devices []models.DeviceRecord, jobs chan<- models.DeviceRecord) {
	for i := range devices {
		jobs <- devices[i]
	}

	close(jobs)
}

// runTask isolates a worker from a panicking task. The recovered result
// only knows the submitted hostname.
func (o *Orchestrator) runTask(ctx context.Context, workerID int, device models.DeviceRecord) (result *models.BackupResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Int("worker", workerID).
				Str("hostname", device.Hostname).
				Interface("panic", r).
				Msg("Recovered from panic in backup task")

			result = &models.BackupResult{Hostname: device.Hostname, CompletedAt: o.now()}
			result.Fail(fmt.Errorf("%w: %v", ErrTaskPanicked, r))
		}
	}()

	if err := ctx.Err(); err != nil {
		started := o.now()

		result = &models.BackupResult{
			Hostname:    device.Hostname,
			DeviceType:  device.DeviceType,
			StartedAt:   started,
			CompletedAt: started,
		}

		return result.Fail(err)
	}

	task := &Task{
		Device:          device,
		Drivers:         o.drivers,
		OutputDirectory: o.cfg.OutputDirectory,
		Tag:             o.cfg.Tag,
		Logger:          o.logger,
		Now:             o.now,
	}

	return task.Run(ctx)
}
