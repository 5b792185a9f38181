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

// Package logger provides structured logging for ncc using zerolog
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	OutputConsole = "console"
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
)

type Config struct {
	Level      string     `json:"level" yaml:"level"`
	Debug      bool       `json:"debug" yaml:"debug"`
	Output     string     `json:"output" yaml:"output"`
	File       string     `json:"file" yaml:"file"`
	TimeFormat string     `json:"time_format" yaml:"time_format"`
	OTel       OTelConfig `json:"otel" yaml:"otel"`
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// ParseLevel resolves the effective level, debug wins over an explicit level.
func ParseLevel(config *Config) (zerolog.Level, error) {
	if config.Debug {
		return zerolog.DebugLevel, nil
	}

	if config.Level == "" {
		return zerolog.InfoLevel, nil
	}

	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Level)
	}

	return level, nil
}

// BuildOutput assembles the writer chain: the primary output, an optional
// JSON log file and an optional OTLP exporter.
func BuildOutput(ctx context.Context, config *Config) (io.Writer, error) {
	var output io.Writer

	switch config.Output {
	case OutputStdout:
		output = os.Stdout
	case OutputConsole:
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	default:
		output = os.Stderr
	}

	writers := []io.Writer{output}

	if config.File != "" {
		f, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", config.File, err)
		}

		writers = append(writers, f)
	}

	if config.OTel.Enabled && config.OTel.Endpoint != "" {
		otelWriter, err := NewOTelWriter(ctx, config.OTel)
		if err != nil {
			return nil, err
		}

		writers = append(writers, otelWriter)
	}

	if len(writers) == 1 {
		return output, nil
	}

	return NewMultiWriter(writers...), nil
}

// Shutdown flushes the OTLP log provider if one was started.
func Shutdown() error {
	return ShutdownOTEL()
}
