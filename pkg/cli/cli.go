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

// Package cli implements the ncc command line: flag parsing, settings
// resolution and the backup, vendors, info and version commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/carverauto/ncc/pkg/backup"
	"github.com/carverauto/ncc/pkg/config"
	"github.com/carverauto/ncc/pkg/driver"
	"github.com/carverauto/ncc/pkg/driver/builtin"
	"github.com/carverauto/ncc/pkg/events"
	"github.com/carverauto/ncc/pkg/inventory"
	"github.com/carverauto/ncc/pkg/lifecycle"
	"github.com/carverauto/ncc/pkg/logger"
	"github.com/carverauto/ncc/pkg/models"
	"github.com/carverauto/ncc/pkg/report"
	"github.com/carverauto/ncc/pkg/version"
)

const (
	serviceName   = "ncc"
	directoryPerm = 0o755
)

// EventConnector opens the event publisher for one run.
type EventConnector func(ctx context.Context, cfg *models.NATSConfig, runID, tag string, log logger.Logger) (events.Publisher, error)

// App carries the process dependencies of the CLI.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	Drivers *driver.Registry

	// StdoutIsTerminal gates the progress bar.
	StdoutIsTerminal func() bool
	// StdinIsTerminal gates the password prompt.
	StdinIsTerminal func() bool
	ReadPassword    func(prompt string) (string, error)

	ConnectEvents EventConnector
	Now           func() time.Time
}

// NewApp returns an App wired to the process streams and built-in drivers.
func NewApp() *App {
	return &App{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Drivers:          builtin.NewRegistry(),
		StdoutIsTerminal: func() bool { return report.IsTerminal(os.Stdout) },
		StdinIsTerminal:  func() bool { return report.IsTerminal(os.Stdin) },
		ReadPassword:     readPassword,
		ConnectEvents:    connectEvents,
		Now:              time.Now,
	}
}

// Run dispatches cfg to its command.
func (a *App) Run(ctx context.Context, cfg *CmdConfig) error {
	if cfg.Version {
		return a.RunVersion()
	}

	if cfg.Help || cfg.SubCmd == "help" {
		ShowHelp(a.Stdout)

		return nil
	}

	switch cfg.SubCmd {
	case "backup":
		return a.RunBackup(ctx, cfg)
	case "vendors":
		return a.RunVendors(ctx, cfg)
	case "info":
		return a.RunInfo(ctx, cfg)
	case "version":
		return a.RunVersion()
	case "":
		ShowHelp(a.Stderr)

		return errNoCommand
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}
}

// RunVersion prints the version.
func (a *App) RunVersion() error {
	_, err := fmt.Fprintf(a.Stdout, "ncc version %s\n", version.GetFullVersion())

	return err
}

// RunVendors prints the vendor table.
func (a *App) RunVendors(ctx context.Context, cfg *CmdConfig) error {
	settings, err := a.loadSettings(ctx, cfg, false)
	if err != nil {
		return err
	}

	report.New(a.Stdout).Vendors(settings.SupportedVendors, a.Drivers.Supports)

	return nil
}

// RunInfo prints the version and the effective settings with secrets
// masked.
func (a *App) RunInfo(ctx context.Context, cfg *CmdConfig) error {
	settings, err := a.loadSettings(ctx, cfg, false)
	if err != nil {
		return err
	}

	redacted := settings.Redacted()

	rows := [][]string{
		{"Version", version.GetFullVersion()},
		{"Settings File", orNone(cfg.ConfigFile)},
		{"Log Level", redacted.LogLevel},
		{"Log File", orNone(redacted.LogFile)},
		{"Debug", strconv.FormatBool(redacted.Debug)},
		{"Workers", strconv.Itoa(redacted.Workers)},
		{"Backup Directory", redacted.Directory},
		{"Username", orNone(redacted.Username)},
		{"Password", orNone(redacted.Password)},
		{"Device Types", strconv.Itoa(len(redacted.SupportedVendors))},
		{"Drivers", strings.Join(a.Drivers.DeviceTypes(), ", ")},
		{"Events", eventsSummary(&redacted.Events)},
		{"OTel Export", otelSummary(&redacted.OTel)},
	}

	out := report.New(a.Stdout)
	out.KeyValues("Network Command Center (NCC)", rows)

	return nil
}

// RunBackup performs a backup run. Settings and inventory errors are
// returned before any device is contacted; device failures are reported
// and do not make the run fail.
func (a *App) RunBackup(ctx context.Context, cfg *CmdConfig) error {
	settings, err := a.loadSettings(ctx, cfg, true)
	if err != nil {
		return err
	}

	if cfg.ListVendors {
		report.New(a.Stdout).Vendors(settings.SupportedVendors, a.Drivers.Supports)

		return nil
	}

	if cfg.Devices == "" {
		ShowHelp(a.Stderr)

		return errDevicesRequired
	}

	log, err := lifecycle.CreateComponentLogger(ctx, serviceName, settings.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() { _ = lifecycle.ShutdownLogger() }()

	tp, ctx, rootSpan, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName: serviceName,
		Logger:      log,
		OTel:        &settings.OTel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	defer func() {
		rootSpan.End()

		if err := tp.Shutdown(context.Background()); err != nil {
			log.Debug().Err(err).Msg("Tracer provider shutdown failed")
		}
	}()

	runCfg := &models.RunConfig{
		Workers:         settings.Workers,
		OutputDirectory: settings.Directory,
		Tag:             cfg.Tag,
		Fallback:        settings.Credentials(),
		Quiet:           cfg.Silent,
		Debug:           settings.Debug,
	}

	if err := runCfg.Validate(); err != nil {
		return err
	}

	devices, err := inventory.Load(cfg.Devices)
	if err != nil {
		return err
	}

	log.Debug().Int("devices", len(devices)).Str("inventory", cfg.Devices).Msg("Loaded inventory")

	inventory.CheckVendors(devices, settings, log)

	if err := os.MkdirAll(runCfg.OutputDirectory, directoryPerm); err != nil {
		return fmt.Errorf("failed to create backup directory '%s': %w", runCfg.OutputDirectory, err)
	}

	return a.runBackup(ctx, cfg, settings, runCfg, devices, log)
}

func (a *App) runBackup(
	ctx context.Context,
	cfg *CmdConfig,
	settings *config.Settings,
	runCfg *models.RunConfig,
	devices []models.DeviceRecord,
	log logger.Logger,
) error {
	runID := uuid.New().String()
	interactive := !runCfg.Quiet && !runCfg.Debug
	out := report.New(a.Stdout)

	publisher := a.openPublisher(ctx, &settings.Events, runID, runCfg.Tag, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Debug().Err(err).Msg("Event publisher close failed")
		}
	}()

	if interactive {
		out.Header(report.JobHeader{
			Devices:       len(devices),
			Workers:       runCfg.Workers,
			InventoryFile: cfg.Devices,
			Directory:     runCfg.OutputDirectory,
			Tag:           runCfg.Tag,
			UsingFallback: runCfg.Fallback != nil,
		})
	}

	var bar *report.Progress
	if interactive && len(devices) > 0 && a.StdoutIsTerminal() {
		bar = report.StartProgress(ctx, a.Stdout, len(devices))
	}

	orch, err := backup.NewOrchestrator(runCfg, a.Drivers,
		backup.WithLogger(log),
		backup.WithClock(a.Now),
		backup.WithProgress(bar.Advance),
		backup.WithResultHandler(func(result *models.BackupResult) {
			if err := publisher.PublishResult(ctx, result); err != nil {
				log.Warn().Err(err).Str("hostname", result.Hostname).Msg("Failed to publish backup event")
			}
		}),
	)
	if err != nil {
		bar.Stop()

		return err
	}

	started := a.Now()

	log.Debug().Str("run_id", runID).Int("workers", runCfg.Workers).Msg("Starting backup job")

	results, err := orch.Run(ctx, devices)

	bar.Stop()

	if err != nil {
		return err
	}

	summary := backup.Summarize(results)

	if err := publisher.PublishRun(ctx, &models.RunEventData{
		RunID:       runID,
		Tag:         runCfg.Tag,
		Inventory:   cfg.Devices,
		Summary:     summary,
		StartedAt:   started,
		CompletedAt: a.Now(),
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to publish run event")
	}

	log.Debug().
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Backup process complete")

	if interactive {
		out.Results(results, summary)
		out.Complete()
	}

	return nil
}

// loadSettings resolves defaults, the settings file, the environment and
// the command line, in that order. withCredentials also checks that the
// fallback username and password come as a pair.
func (a *App) loadSettings(ctx context.Context, cfg *CmdConfig, withCredentials bool) (*config.Settings, error) {
	settings, err := config.Load(ctx, cfg.ConfigFile, nil)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(settings, cfg); err != nil {
		return nil, err
	}

	if withCredentials {
		if err := a.resolveCredentials(settings); err != nil {
			return nil, err
		}
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

func applyFlags(settings *config.Settings, cfg *CmdConfig) error {
	if cfg.Debug {
		settings.Debug = true
	}

	if cfg.IsSet("workers") {
		settings.Workers = cfg.Workers
	}

	if cfg.IsSet("username") {
		settings.Username = cfg.Username
	}

	if cfg.IsSet("password") {
		settings.Password = cfg.Password
	}

	if cfg.IsSet("log-file") {
		settings.LogFile = cfg.LogFile
	}

	if cfg.Directory != "" {
		dir, err := filepath.Abs(cfg.Directory)
		if err != nil {
			return fmt.Errorf("failed to resolve directory '%s': %w", cfg.Directory, err)
		}

		settings.Directory = dir
	}

	return nil
}

func (a *App) resolveCredentials(settings *config.Settings) error {
	switch {
	case settings.Username != "" && settings.Password == "":
		if a.StdinIsTerminal == nil || !a.StdinIsTerminal() || a.ReadPassword == nil {
			return errPasswordRequired
		}

		password, err := a.ReadPassword(fmt.Sprintf("Password for %s: ", settings.Username))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		// spaces are part of the password, only the line ending is not
		password = strings.TrimRight(password, "\r\n")
		if password == "" {
			return errEmptyPassword
		}

		settings.Password = password
	case settings.Username == "" && settings.Password != "":
		return errUsernameRequired
	}

	return nil
}

func (a *App) openPublisher(ctx context.Context, cfg *models.NATSConfig, runID, tag string, log logger.Logger) events.Publisher {
	if !cfg.Enabled || a.ConnectEvents == nil {
		return events.NopPublisher{}
	}

	publisher, err := a.ConnectEvents(ctx, cfg, runID, tag, log)
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.URL).Msg("Event publishing disabled for this run")

		return events.NopPublisher{}
	}

	return publisher
}

func connectEvents(ctx context.Context, cfg *models.NATSConfig, runID, tag string, log logger.Logger) (events.Publisher, error) {
	publisher, err := events.Connect(ctx, cfg, runID, tag, log)
	if err != nil {
		return nil, err
	}

	return publisher, nil
}

func readPassword(prompt string) (string, error) {
	_, _ = fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))

	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}

	return string(password), nil
}

func eventsSummary(cfg *models.NATSConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}

	return fmt.Sprintf("%s (stream %s)", cfg.URL, cfg.Stream)
}

func otelSummary(cfg *logger.OTelConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}

	return cfg.Endpoint
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
