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

// Package config loads ncc settings from defaults, an optional settings
// file and NCC_ prefixed environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carverauto/ncc/pkg/lifecycle"
	"github.com/carverauto/ncc/pkg/logger"
	"github.com/carverauto/ncc/pkg/models"
)

const (
	// EnvPrefix is prepended to every environment variable ncc reads.
	EnvPrefix = "NCC_"

	DefaultWorkers   = 64
	DefaultDirectory = "ncc_backups"
	DefaultLogLevel  = "info"
)

var (
	errInvalidConfigPtr   = errors.New("config must be a non-nil pointer")
	errUnknownFileFormat  = errors.New("unsupported settings file extension")
	errNoSupportedVendors = errors.New("supported_vendors must not be empty")
)

// ConfigLoader fills dst from a single source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configuration types that can check themselves.
type Validator interface {
	Validate() error
}

// Settings is the effective configuration of one ncc invocation.
type Settings struct {
	Debug            bool              `json:"debug" yaml:"debug"`
	LogLevel         string            `json:"log_level" yaml:"log_level"`
	LogFile          string            `json:"log_file" yaml:"log_file"`
	Workers          int               `json:"workers" yaml:"workers"`
	Username         string            `json:"username" yaml:"username"`
	Password         string            `json:"password" yaml:"password"`
	Directory        string            `json:"directory" yaml:"directory"`
	SupportedVendors map[string]string `json:"supported_vendors" yaml:"supported_vendors"`
	Events           models.NATSConfig `json:"events" yaml:"events"`
	OTel             logger.OTelConfig `json:"otel" yaml:"otel"`
}

// DefaultSupportedVendors is the built-in device_type to display name table.
func DefaultSupportedVendors() map[string]string {
	return map[string]string{
		"ios":           "Cisco IOS",
		"nxos":          "Cisco NX-OS",
		"nxos_ssh":      "Cisco NX-OS (SSH)",
		"iosxr":         "Cisco IOS-XR",
		"iosxr_netconf": "Cisco IOS-XR (NETCONF)",
		"junos":         "Juniper JunOS",
		"eos":           "Arista EOS",
	}
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	dir := DefaultDirectory
	if cwd, err := os.Getwd(); err == nil {
		dir = filepath.Join(cwd, DefaultDirectory)
	}

	return &Settings{
		LogLevel:         DefaultLogLevel,
		Workers:          DefaultWorkers,
		Directory:        dir,
		SupportedVendors: DefaultSupportedVendors(),
		OTel:             logger.DefaultOTelConfig(),
	}
}

// Validate checks the loaded settings.
func (s *Settings) Validate() error {
	if s.Workers <= 0 {
		return fmt.Errorf("%w: got %d", models.ErrInvalidWorkers, s.Workers)
	}

	if _, err := logger.ParseLevel(&logger.Config{Level: s.LogLevel}); err != nil {
		return err
	}

	if len(s.SupportedVendors) == 0 {
		return errNoSupportedVendors
	}

	return s.Events.Validate()
}

// Credentials returns the fallback credentials, nil when none are set.
func (s *Settings) Credentials() *models.Credentials {
	if s.Username == "" && s.Password == "" {
		return nil
	}

	return &models.Credentials{Username: s.Username, Password: s.Password}
}

// LoggerConfig derives the logger configuration for the CLI.
func (s *Settings) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = s.LogLevel
	cfg.Debug = s.Debug
	cfg.File = s.LogFile
	cfg.OTel = s.OTel

	return cfg
}

// IsSupported reports whether deviceType appears in the vendor table.
func (s *Settings) IsSupported(deviceType string) bool {
	_, ok := s.SupportedVendors[deviceType]

	return ok
}

// Config holds the configuration loading dependencies.
type Config struct {
	fileLoader ConfigLoader
	envLoader  ConfigLoader
	logger     logger.Logger
}

// NewConfig creates a loader. A nil logger gets a warn-level stderr logger.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = createBasicLogger()
	}

	return &Config{
		fileLoader: &FileConfigLoader{},
		envLoader:  NewEnvConfigLoader(log, EnvPrefix),
		logger:     log,
	}
}

func createBasicLogger() logger.Logger {
	return lifecycle.NewFromZerolog(zerolog.New(os.Stderr).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger())
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate overlays the settings file at path (skipped when empty)
// and the environment onto cfg, then validates the result.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if cfg == nil {
		return errInvalidConfigPtr
	}

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG_FILE")
	}

	if path != "" {
		c.logger.Debug().Str("path", path).Msg("Loading settings file")

		if err := c.fileLoader.Load(ctx, path, cfg); err != nil {
			return err
		}
	}

	if err := c.envLoader.Load(ctx, "", cfg); err != nil {
		return fmt.Errorf("failed to load environment overrides: %w", err)
	}

	return ValidateConfig(cfg)
}

// Load returns the effective settings: defaults, then file, then env.
func Load(ctx context.Context, path string, log logger.Logger) (*Settings, error) {
	settings := DefaultSettings()

	if err := NewConfig(log).LoadAndValidate(ctx, path, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

func fileFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %s", errUnknownFileFormat, path)
	}
}
