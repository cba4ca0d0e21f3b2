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

package monitor

import (
	"fmt"
	"time"

	"github.com/carverauto/netpoll/pkg/alerts"
	"github.com/carverauto/netpoll/pkg/history"
	"github.com/carverauto/netpoll/pkg/identify"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/scheduler"
	"github.com/carverauto/netpoll/pkg/session"
)

const DefaultPollInterval = 5 * time.Minute

// Config is the application configuration.
type Config struct {
	Devices       []*models.Device        `json:"devices"`
	Metrics       []models.MetricName     `json:"metrics,omitempty"`
	Concurrency   int                     `json:"concurrency,omitempty"`
	DeviceTimeout models.Duration         `json:"device_timeout,omitempty"`
	RunTimeout    models.Duration         `json:"run_timeout,omitempty"`
	PollInterval  models.Duration         `json:"poll_interval,omitempty"`
	Retry         *models.RetryPolicy     `json:"retry,omitempty"`
	Thresholds    *models.ThresholdConfig `json:"thresholds,omitempty"`
	Alerts        alerts.Config           `json:"alerts"`
	History       history.Config          `json:"history"`
	NATS          *models.NATSConfig      `json:"nats,omitempty"`
	SSH           session.SSHConfig       `json:"ssh"`
	SNMP          identify.Config         `json:"snmp"`
	Logging       *logger.Config          `json:"logging,omitempty"`
	Tracing       *logger.TracingConfig   `json:"tracing,omitempty"`
	MetricsAddr   string                  `json:"metrics_addr,omitempty"`
}

// Validate fills defaults and rejects configurations that cannot run.
func (c *Config) Validate() error {
	if err := c.validateDevices(); err != nil {
		return err
	}

	if len(c.Metrics) == 0 {
		c.Metrics = models.DefaultMetricRequest().Metrics
	}

	if c.Concurrency <= 0 {
		c.Concurrency = scheduler.DefaultConcurrency
	}

	if c.RunTimeout <= 0 {
		c.RunTimeout = models.Duration(scheduler.DefaultRunTimeout)
	}

	if c.PollInterval <= 0 {
		c.PollInterval = models.Duration(DefaultPollInterval)
	}

	retry := models.DefaultRetryPolicy()
	if c.Retry != nil {
		retry = c.Retry.WithDefaults()
	}

	c.Retry = &retry

	if err := c.validateDeviceTimeout(); err != nil {
		return err
	}

	if c.Thresholds == nil {
		c.Thresholds = &models.ThresholdConfig{}
	}

	if c.Thresholds.Defaults == nil {
		c.Thresholds.Defaults = models.DefaultThresholds()
	}

	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	c.Alerts = c.Alerts.WithDefaults()
	if err := c.Alerts.Validate(); err != nil {
		return fmt.Errorf("alerts: %w", err)
	}

	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if c.NATS != nil && c.NATS.URL == "" {
		return ErrNATSURLRequired
	}

	return nil
}

func (c *Config) validateDevices() error {
	if len(c.Devices) == 0 {
		return ErrNoDevices
	}

	seen := make(map[string]struct{}, len(c.Devices))

	for i, d := range c.Devices {
		if d == nil {
			return fmt.Errorf("%w: devices[%d]", ErrNilDevice, i)
		}

		if err := d.Validate(); err != nil {
			return fmt.Errorf("devices[%d]: %w", i, err)
		}

		id := d.ID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateDevice, id)
		}

		seen[id] = struct{}{}
	}

	return nil
}

// commandBudget is the longest any single command may take on any device,
// retries included.
func (c *Config) commandBudget() time.Duration {
	var longest time.Duration

	for _, d := range c.Devices {
		if b := d.RetryPolicyOr(*c.Retry).Budget(d.CommandTimeout()); b > longest {
			longest = b
		}
	}

	return longest
}

// validateDeviceTimeout defaults device_timeout to at least one command's
// full retry budget and rejects an explicit value below it.
func (c *Config) validateDeviceTimeout() error {
	budget := c.commandBudget()

	if c.DeviceTimeout <= 0 {
		c.DeviceTimeout = models.Duration(max(scheduler.DefaultDeviceTimeout, budget))
	}

	if c.DeviceTimeout.Std() < budget {
		return fmt.Errorf("%w: %s is below the %s one command may take with retries",
			ErrDeviceTimeoutTooShort, c.DeviceTimeout.Std(), budget)
	}

	if c.RunTimeout.Std() < c.DeviceTimeout.Std() {
		return fmt.Errorf("%w: run_timeout %s is below device_timeout %s",
			ErrDeviceTimeoutTooShort, c.RunTimeout.Std(), c.DeviceTimeout.Std())
	}

	return nil
}

// Request is the metric request polled every run.
func (c *Config) Request() models.MetricRequest {
	return models.NewMetricRequest(c.Metrics...)
}

// SchedulerConfig bounds one run.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Concurrency:   c.Concurrency,
		DeviceTimeout: c.DeviceTimeout.Std(),
		RunTimeout:    c.RunTimeout.Std(),
		Retry:         c.Retry,
	}
}

// NeedsDetection reports whether any device asks for vendor autodetection.
func (c *Config) NeedsDetection() bool {
	return needsDetection(c.Devices)
}

func needsDetection(devices []*models.Device) bool {
	for _, d := range devices {
		if d != nil && d.Vendor == models.VendorAutodetect {
			return true
		}
	}

	return false
}
