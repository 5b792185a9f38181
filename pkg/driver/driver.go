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

//go:generate mockgen -destination=mock_driver.go -package=driver github.com/carverauto/ncc/pkg/driver Driver

// Package driver defines the capability ncc needs from a device session
// and the registry that maps inventory device types to implementations.
package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Facts describes the device as reported by the device itself.
type Facts struct {
	Vendor    string `json:"vendor"`
	Model     string `json:"model"`
	OSVersion string `json:"os_version"`
	Hostname  string `json:"hostname"`
	Serial    string `json:"serial_number,omitempty"`
}

// Config holds the configuration text pulled from a device. Running is
// opaque and written verbatim.
type Config struct {
	Running string
}

// Driver is one session to one device. Open must precede the other calls
// and Close is safe to call after a failed Open.
type Driver interface {
	Open(ctx context.Context) error
	GetFacts(ctx context.Context) (*Facts, error)
	GetConfig(ctx context.Context) (*Config, error)
	Close() error
}

// ConnectionParams are the effective values a driver connects with.
type ConnectionParams struct {
	Hostname     string
	DeviceType   string
	Username     string
	Password     string
	OptionalArgs Options
}

// Timeout returns the per-operation timeout, defaulting to 60s.
func (p *ConnectionParams) Timeout() time.Duration {
	return p.OptionalArgs.Duration(OptTimeout, DefaultTimeout)
}

// WithTimeout bounds a single driver operation. A non-positive timeout
// leaves ctx's own deadline in charge.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// Factory builds a driver for one device. Factories must not do I/O.
type Factory func(params ConnectionParams) (Driver, error)

// Registry maps device types to driver factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for deviceType.
func (r *Registry) Register(deviceType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[deviceType] = factory
}

// New instantiates a driver for params.DeviceType.
func (r *Registry) New(params ConnectionParams) (Driver, error) {
	r.mu.RLock()
	factory, ok := r.factories[params.DeviceType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDeviceType, params.DeviceType)
	}

	return factory(params)
}

// Supports reports whether a factory is registered for deviceType.
func (r *Registry) Supports(deviceType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[deviceType]

	return ok
}

// DeviceTypes lists registered device types, sorted.
func (r *Registry) DeviceTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	sort.Strings(types)

	return types
}
