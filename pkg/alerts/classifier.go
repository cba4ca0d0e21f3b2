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

// Package alerts turns statuses and Deltas into deduplicated alerts with
// per-severity cooldowns. All alert state is explicit: Classify takes the
// prior State and returns a new one, so independent runs can classify
// concurrently against independent states.
package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/metrics"
	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/threshold"
)

// Clock provides the classification time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Classifier raises, refreshes, suppresses and resolves alerts.
type Classifier struct {
	config   Config
	logger   logger.Logger
	clock    Clock
	newID    func() string
	recorder metrics.Recorder
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(c *Classifier) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithIDGenerator overrides the uuid alert IDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *Classifier) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithRecorder counts emitted alerts.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Classifier) {
		c.recorder = metrics.OrNop(r)
	}
}

// NewClassifier builds a classifier. Zero config fields take defaults.
func NewClassifier(cfg Config, log logger.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		config:   cfg.WithDefaults(),
		logger:   log,
		clock:    systemClock{},
		newID:    uuid.NewString,
		recorder: metrics.NopRecorder{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func MetricKey(deviceID string, metric models.MetricName) string {
	return deviceID + "/metric/" + string(metric)
}

func DeltaKey(deviceID string, domain models.Domain) string {
	return deviceID + "/delta/" + string(domain)
}

func ReachabilityKey(deviceID string) string {
	return deviceID + "/reachability"
}

// Classify evaluates one successfully polled device.
//
// A warning or critical metric raises or refreshes its alert; a good or
// pass-through metric resolves it; an unknown metric leaves it as is. A
// Delta in an alert-worthy domain raises that domain's alert, which resolves
// on the next poll that collects the domain without changes. A successful
// poll also resolves the device's reachability alert.
//
// The returned alerts include suppressed refreshes; only Deliverable ones
// should be sent.
func (c *Classifier) Classify(deviceID string, statuses threshold.StatusMap, deltas []models.Delta,
	prior *State) ([]models.Alert, *State) {
	now := c.clock.Now()
	next := prior.Clone()
	next.prune(now)

	var out []models.Alert

	for _, ms := range statuses.Sorted() {
		key := MetricKey(deviceID, ms.Metric)

		switch {
		case ms.Status.Alerting():
			out = append(out, c.raise(next, now, models.Alert{
				Key:      key,
				Severity: models.SeverityFor(ms.Status),
				DeviceID: deviceID,
				Metric:   ms.Metric,
				Message:  metricMessage(deviceID, ms),
			}))
		case ms.Status == models.StatusUnknown:
			// not collected; the alert stays as it was
		default:
			if a, ok := c.resolve(next, key, now); ok {
				out = append(out, a)
			}
		}
	}

	changed := make(map[models.Domain]bool, len(deltas))

	for _, d := range deltas {
		if !c.config.alertWorthy(d.Domain) || len(d.Changes) == 0 {
			continue
		}

		changed[d.Domain] = true

		out = append(out, c.raise(next, now, models.Alert{
			Key:      DeltaKey(deviceID, d.Domain),
			Severity: c.config.domainSeverity(d.Domain),
			DeviceID: deviceID,
			Domain:   d.Domain,
			Message:  deltaMessage(deviceID, d),
		}))
	}

	for _, domain := range c.config.Domains {
		if changed[domain] {
			continue
		}

		st, ok := statuses[domain.Metric()]
		if !ok || st.Status == models.StatusUnknown {
			continue
		}

		if a, ok := c.resolve(next, DeltaKey(deviceID, domain), now); ok {
			out = append(out, a)
		}
	}

	if a, ok := c.resolve(next, ReachabilityKey(deviceID), now); ok {
		out = append(out, a)
	}

	c.observe(out)

	return out, next
}

// ClassifyPollFailure raises a critical reachability alert for a device that
// produced no Observation. Metric alerts are left untouched.
func (c *Classifier) ClassifyPollFailure(deviceID string, cause error, prior *State) ([]models.Alert, *State) {
	now := c.clock.Now()
	next := prior.Clone()
	next.prune(now)

	msg := deviceID + " unreachable"
	if cause != nil {
		msg = fmt.Sprintf("%s unreachable: %v", deviceID, cause)
	}

	out := []models.Alert{c.raise(next, now, models.Alert{
		Key:      ReachabilityKey(deviceID),
		Severity: models.SeverityCritical,
		DeviceID: deviceID,
		Message:  msg,
	})}

	c.observe(out)

	return out, next
}

// raise opens, reopens or refreshes the alert for cond.Key and stores it.
func (c *Classifier) raise(st *State, now time.Time, cond models.Alert) models.Alert {
	cooldown := c.config.cooldown(cond.Severity)
	prev, exists := st.Alerts[cond.Key]

	var a models.Alert

	switch {
	case !exists:
		a = c.open(now, cond, cooldown)
	case prev.State == models.AlertResolved:
		if now.Before(prev.SuppressedUntil) && cond.Severity.Rank() <= prev.Severity.Rank() {
			// recurred inside its cooldown: reopen without delivery
			a = prev
			a.State = models.AlertFiring
			a.Suppressed = true
		} else {
			a = c.open(now, cond, cooldown)
		}
	case cond.Severity.Rank() > prev.Severity.Rank():
		a = prev
		a.SuppressedUntil = now.Add(cooldown)
		a.Suppressed = false
	case !now.Before(prev.SuppressedUntil):
		a = prev
		a.SuppressedUntil = now.Add(cooldown)
		a.Suppressed = false
	default:
		a = prev
		a.Suppressed = true
	}

	a.Severity = cond.Severity
	a.Message = cond.Message
	a.LastSeen = now
	st.Alerts[a.Key] = a

	return a
}

func (c *Classifier) open(now time.Time, cond models.Alert, cooldown time.Duration) models.Alert {
	cond.ID = c.newID()
	cond.FirstSeen = now
	cond.SuppressedUntil = now.Add(cooldown)
	cond.State = models.AlertFiring
	cond.Suppressed = false

	return cond
}

// resolve closes a firing alert. The resolved alert stays in the state until
// its cooldown ends so a quick recurrence is not re-delivered.
func (c *Classifier) resolve(st *State, key string, now time.Time) (models.Alert, bool) {
	prev, ok := st.Alerts[key]
	if !ok || prev.State != models.AlertFiring {
		return models.Alert{}, false
	}

	a := prev
	a.State = models.AlertResolved
	a.LastSeen = now
	a.Suppressed = false
	st.Alerts[key] = a

	return a, true
}

func (c *Classifier) observe(out []models.Alert) {
	for _, a := range out {
		c.recorder.Alert(string(a.Severity), string(a.State), a.Suppressed)

		event := c.logger.Info()
		if a.Suppressed {
			event = c.logger.Debug()
		}

		event.Str("alert_key", a.Key).
			Str("alert_id", a.ID).
			Str("device", a.DeviceID).
			Str("severity", string(a.Severity)).
			Str("state", string(a.State)).
			Bool("suppressed", a.Suppressed).
			Msg(a.Message)
	}
}

func metricMessage(deviceID string, ms threshold.MetricStatus) string {
	detail := ms.Reason
	if detail == "" {
		detail = ms.Value.String() + ms.Unit
	}

	return fmt.Sprintf("%s %s on %s (%s)", ms.Metric, ms.Status, deviceID, detail)
}

const maxKeysInMessage = 3

func deltaMessage(deviceID string, d models.Delta) string {
	added, removed, modified := d.Counts()

	keys := make([]string, 0, maxKeysInMessage)
	seen := make(map[string]struct{}, maxKeysInMessage)

	for _, ch := range d.Changes {
		if _, ok := seen[ch.Key]; ok {
			continue
		}

		seen[ch.Key] = struct{}{}

		if len(keys) == maxKeysInMessage {
			keys = append(keys, "...")
			break
		}

		keys = append(keys, ch.Key)
	}

	return fmt.Sprintf("%s changed on %s: %d added, %d removed, %d modified (%s)",
		d.Domain, deviceID, added, removed, modified, strings.Join(keys, ", "))
}
