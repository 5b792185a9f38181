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

package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	log "go.opentelemetry.io/otel/log"
)

func TestOTelConfigDefaults(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_HEADERS", "x-api-key=abc, x-tenant = fleet")

	config := DefaultOTelConfig()

	assert.Equal(t, Duration(5*time.Second), config.BatchTimeout)
	assert.Equal(t, "abc", config.Headers["x-api-key"])
	assert.Equal(t, "fleet", config.Headers["x-tenant"])
}

func TestNewOTelWriterValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  OTelConfig
		wantErr error
	}{
		{name: "disabled", config: OTelConfig{}, wantErr: ErrOTelLoggingDisabled},
		{name: "no endpoint", config: OTelConfig{Enabled: true}, wantErr: ErrOTelEndpointRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer, err := NewOTelWriter(context.Background(), tt.config)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, writer)
		})
	}
}

func TestMapZerologLevelToOTEL(t *testing.T) {
	assert.Equal(t, log.SeverityWarn, mapZerologLevelToOTEL("WARN"))
	assert.Equal(t, log.SeverityFatal, mapZerologLevelToOTEL("panic"))
	assert.Equal(t, log.SeverityInfo, mapZerologLevelToOTEL("something"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}

func TestShutdownWithoutProvider(t *testing.T) {
	assert.NoError(t, ShutdownOTEL())
}
