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

// Package events publishes backup results as CloudEvents on NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/ncc/pkg/logger"
	"github.com/carverauto/ncc/pkg/models"
)

const (
	eventSource     = "ncc/backup"
	contentTypeJSON = "application/json"

	// DeviceEventType is published once per device result.
	DeviceEventType = "com.carverauto.ncc.backup.device"
	// RunEventType is published once per run.
	RunEventType = "com.carverauto.ncc.backup.run"

	deviceSubject = "device"
	runSubject    = "run"
)

// Publisher emits backup events.
type Publisher interface {
	PublishResult(ctx context.Context, result *models.BackupResult) error
	PublishRun(ctx context.Context, data *models.RunEventData) error
	Close() error
}

// jetStreamPublisher is the part of jetstream.JetStream used to publish.
type jetStreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// streamManager is the part of jetstream.JetStream used to provision the
// stream.
type streamManager interface {
	Stream(ctx context.Context, stream string) (jetstream.Stream, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// EventPublisher publishes CloudEvents for one backup run.
type EventPublisher struct {
	js      jetStreamPublisher
	nc      *nats.Conn
	prefix  string
	runID   string
	tag     string
	logger  logger.Logger
	now     func() time.Time
	newUUID func() string
}

// NewEventPublisher wraps an existing JetStream handle. Subjects are
// {prefix}.device and {prefix}.run.
func NewEventPublisher(js jetStreamPublisher, prefix, runID, tag string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:      js,
		prefix:  strings.TrimSuffix(prefix, "."),
		runID:   runID,
		tag:     tag,
		logger:  log,
		now:     time.Now,
		newUUID: func() string { return uuid.New().String() },
	}
}

// Connect dials NATS, ensures the stream exists and returns a publisher
// bound to runID.
func Connect(ctx context.Context, cfg *models.NATSConfig, runID, tag string, log logger.Logger) (*EventPublisher, error) {
	if !cfg.Enabled {
		return nil, ErrEventsDisabled
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nc, err := ConnectWithSecurity(cfg, log)
	if err != nil {
		return nil, err
	}

	var js jetstream.JetStream

	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, cfg.Stream, subjectWildcard(cfg.SubjectPrefix), log); err != nil {
		nc.Close()

		return nil, err
	}

	p := NewEventPublisher(js, cfg.SubjectPrefix, runID, tag, log)
	p.nc = nc

	return p, nil
}

// ConnectWithSecurity opens a NATS connection using the credentials and
// TLS material named in cfg.
func ConnectWithSecurity(cfg *models.NATSConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	opts := []nats.Option{nats.Name("ncc")}

	tlsConf, err := TLSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
	}

	if tlsConf != nil {
		opts = append(opts, nats.Secure(tlsConf))
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Warn().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Debug().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")

	return nc, nil
}

// PublishResult publishes one device result.
func (p *EventPublisher) PublishResult(ctx context.Context, result *models.BackupResult) error {
	data := models.BackupEventData{RunID: p.runID, Tag: p.tag, Result: result}

	ts := result.CompletedAt
	if ts.IsZero() {
		ts = p.now()
	}

	return p.publish(ctx, DeviceEventType, p.subject(deviceSubject), ts, data)
}

// PublishRun publishes the run summary. RunID and Tag are filled in from
// the publisher when empty.
func (p *EventPublisher) PublishRun(ctx context.Context, data *models.RunEventData) error {
	if data.RunID == "" {
		data.RunID = p.runID
	}

	if data.Tag == "" {
		data.Tag = p.tag
	}

	ts := data.CompletedAt
	if ts.IsZero() {
		ts = p.now()
	}

	return p.publish(ctx, RunEventType, p.subject(runSubject), ts, data)
}

// Close drains the connection when the publisher owns one.
func (p *EventPublisher) Close() error {
	if p.nc == nil {
		return nil
	}

	return p.nc.Drain()
}

func (p *EventPublisher) publish(ctx context.Context, eventType, subject string, ts time.Time, data interface{}) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              p.newUUID(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: contentTypeJSON,
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	ack, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	if p.logger != nil {
		p.logger.Debug().
			Str("event_id", event.ID).
			Str("subject", subject).
			Uint64("seq", ack.Sequence).
			Msg("Published event")
	}

	return nil
}

func (p *EventPublisher) subject(kind string) string {
	return p.prefix + "." + kind
}

func subjectWildcard(prefix string) string {
	return strings.TrimSuffix(prefix, ".") + ".>"
}

// ensureStream creates the stream when missing and widens its subject list
// when it does not already cover subject.
func ensureStream(ctx context.Context, js streamManager, name, subject string, log logger.Logger) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}

		if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		log.Info().Str("stream", name).Msg("Created NATS JetStream stream")

		return nil
	}

	info := stream.CachedInfo()
	if info == nil {
		return nil
	}

	subjects := ensureSubjectList(append([]string(nil), info.Config.Subjects...), subject)
	if len(subjects) == len(info.Config.Subjects) {
		return nil
	}

	cfg := info.Config
	cfg.Subjects = subjects

	if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update stream %s subjects: %w", name, err)
	}

	log.Info().Str("stream", name).Strs("subjects", subjects).Msg("Updated NATS JetStream stream subjects")

	return nil
}

func ensureSubjectList(subjects []string, subject string) []string {
	for _, existing := range subjects {
		if matchesSubject(existing, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern covers subject using NATS
// wildcard rules. A ">" pattern token matches one or more trailing tokens.
func matchesSubject(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, tok := range pTokens {
		if tok == ">" {
			return len(sTokens) > i
		}

		if i >= len(sTokens) {
			return false
		}

		if tok != "*" && tok != sTokens[i] {
			return false
		}
	}

	return len(pTokens) == len(sTokens)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishResult(context.Context, *models.BackupResult) error { return nil }
func (NopPublisher) PublishRun(context.Context, *models.RunEventData) error    { return nil }
func (NopPublisher) Close() error                                              { return nil }
