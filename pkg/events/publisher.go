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

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

const (
	DefaultStream  = "NETPOLL_ALERTS"
	DefaultSubject = "netpoll.alerts"

	alertEventType = "com.carverauto.netpoll.alert"
	eventSource    = "netpoll/monitor"
)

// CloudEvent is the CloudEvents 1.0 envelope alerts are published in.
type CloudEvent struct {
	SpecVersion     string       `json:"specversion"`
	ID              string       `json:"id"`
	Source          string       `json:"source"`
	Type            string       `json:"type"`
	DataContentType string       `json:"datacontenttype,omitempty"`
	Subject         string       `json:"subject,omitempty"`
	Time            *time.Time   `json:"time,omitempty"`
	Data            models.Alert `json:"data"`
}

// AlertPublisher publishes deliverable alerts to NATS JetStream, one
// message per alert on <subject>.<severity>.
type AlertPublisher struct {
	js      jetstream.JetStream
	stream  string
	subject string
	logger  logger.Logger
}

func NewAlertPublisher(js jetstream.JetStream, cfg models.NATSConfig, log logger.Logger) *AlertPublisher {
	cfg = withNATSDefaults(cfg)

	return &AlertPublisher{
		js:      js,
		stream:  cfg.Stream,
		subject: cfg.Subject,
		logger:  log,
	}
}

// SubjectFor is the subject an alert is published on.
func (p *AlertPublisher) SubjectFor(a *models.Alert) string {
	return p.subject + "." + string(a.Severity)
}

func (p *AlertPublisher) Notify(ctx context.Context, alerts []models.Alert) error {
	for _, a := range Deliverable(alerts) {
		if err := p.publish(ctx, a); err != nil {
			return err
		}
	}

	return nil
}

func (p *AlertPublisher) publish(ctx context.Context, a models.Alert) error {
	at := a.LastSeen

	event := CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            alertEventType,
		DataContentType: "application/json",
		Subject:         p.SubjectFor(&a),
		Time:            &at,
		Data:            a,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	// one message per alert transition; a retried publish of the same
	// transition is dropped by the stream's duplicate window
	msgID := a.ID + ":" + string(a.State) + ":" + strconv.FormatInt(a.LastSeen.UnixNano(), 10)

	ack, err := p.js.Publish(ctx, event.Subject, payload, jetstream.WithMsgID(msgID))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errPublish, a.Key, err)
	}

	p.logger.Debug().
		Str("alert_key", a.Key).
		Str("subject", event.Subject).
		Uint64("seq", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("Published alert event")

	return nil
}

func withNATSDefaults(cfg models.NATSConfig) models.NATSConfig {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}

	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}

	return cfg
}

// EnsureStream creates the alert stream when it does not exist yet.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg models.NATSConfig) error {
	cfg = withNATSDefaults(cfg)

	if _, err := js.Stream(ctx, cfg.Stream); err == nil {
		return nil
	}

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject + ".>"},
	})
	if err != nil {
		return fmt.Errorf("failed to create or get stream %s: %w", cfg.Stream, err)
	}

	return nil
}

// Connect dials NATS, ensures the alert stream and returns a publisher.
// The caller owns the connection.
func Connect(ctx context.Context, cfg models.NATSConfig, log logger.Logger, opts ...nats.Option) (*AlertPublisher, *nats.Conn, error) {
	if cfg.URL == "" {
		return nil, nil, errNATSURLRequired
	}

	opts = append([]nats.Option{
		nats.Name("netpoll"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}, opts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := EnsureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, nil, err
	}

	return NewAlertPublisher(js, cfg, log), nc, nil
}
