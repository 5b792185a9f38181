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

// Package backup drives devices through a configuration backup and runs
// those backups across an inventory on a bounded worker pool.
package backup

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/logger"
	"github.com/carverauto/ncc/pkg/models"
)

const tracerName = "github.com/carverauto/ncc/pkg/backup"

// DriverFactory instantiates a driver for one device.
type DriverFactory interface {
	New(params driver.ConnectionParams) (driver.Driver, error)
}

// Task backs up a single device. Device credentials must already be
// resolved.
type Task struct {
	Device          models.DeviceRecord
	Drivers         DriverFactory
	OutputDirectory string
	Tag             string
	Logger          logger.Logger
	Now             func() time.Time
}

// Run produces exactly one result. Driver and I/O failures are recorded on
// the result, never returned.
func (t *Task) Run(ctx context.Context) *models.BackupResult {
	now := t.clock()

	result := &models.BackupResult{
		Hostname:   t.Device.Hostname,
		DeviceType: t.Device.DeviceType,
		State:      models.TaskRunning,
		StartedAt:  now(),
	}

	ctx, span := logger.GetTracer(tracerName).Start(ctx, "backup.device",
		trace.WithAttributes(
			attribute.String("ncc.device.hostname", t.Device.Hostname),
			attribute.String("ncc.device.type", t.Device.DeviceType),
		))
	defer span.End()

	err := t.run(ctx, result)

	result.CompletedAt = now()

	if err != nil {
		result.Fail(err)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		t.log().Debug().
			Str("hostname", result.Hostname).
			Str("device_type", result.DeviceType).
			Err(err).
			Msg("Backup failed")

		return result
	}

	result.Succeed()

	span.SetAttributes(
		attribute.String("ncc.device.vendor", result.Vendor),
		attribute.String("ncc.artifact.path", result.ArtifactPath),
		attribute.Int64("ncc.artifact.size_bytes", result.ArtifactSizeBytes),
	)

	t.log().Debug().
		Str("hostname", result.Hostname).
		Str("path", result.ArtifactPath).
		Int64("bytes", result.ArtifactSizeBytes).
		Dur("duration", result.Duration()).
		Msg("Backup complete")

	return result
}

func (t *Task) run(ctx context.Context, result *models.BackupResult) error {
	dev, err := t.Drivers.New(driver.ConnectionParams{
		Hostname:     t.Device.Hostname,
		DeviceType:   t.Device.DeviceType,
		Username:     t.Device.Username,
		Password:     t.Device.Password,
		OptionalArgs: driver.Options(t.Device.OptionalArgs),
	})
	if err != nil {
		return err
	}

	defer func() {
		if cerr := dev.Close(); cerr != nil {
			t.log().Debug().
				Str("hostname", t.Device.Hostname).
				Err(cerr).
				Msg("Ignoring error closing session")
		}
	}()

	if err := dev.Open(ctx); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	facts, err := dev.GetFacts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get facts: %w", err)
	}

	if facts == nil {
		facts = &driver.Facts{}
	}

	result.Vendor = orUnknown(facts.Vendor)
	result.Model = orUnknown(facts.Model)
	result.OSVersion = orUnknown(facts.OSVersion)

	host, err := ResolveHostname(&t.Device, facts)
	if err != nil {
		return err
	}

	result.ResolvedHostname = host

	cfg, err := dev.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	if cfg == nil {
		return ErrNoConfig
	}

	artifact, err := WriteArtifact(t.OutputDirectory, host, t.Tag, []byte(cfg.Running), t.clock())
	if err != nil {
		return err
	}

	result.ArtifactPath = artifact.Path
	result.ArtifactSizeBytes = artifact.SizeBytes
	result.Checksum = artifact.Checksum

	return nil
}

func (t *Task) clock() func() time.Time {
	if t.Now != nil {
		return t.Now
	}

	return time.Now
}

func (t *Task) log() logger.Logger {
	if t.Logger != nil {
		return t.Logger
	}

	return nopLogger
}

func orUnknown(s string) string {
	if s == "" {
		return models.UnknownVendor
	}

	return s
}
