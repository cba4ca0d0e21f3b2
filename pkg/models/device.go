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

// Package models holds the records shared by every stage of the polling pipeline.
package models

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// VendorTag identifies the command dialect spoken by a device.
type VendorTag string

const (
	VendorCiscoIOS     VendorTag = "cisco_ios"
	VendorCiscoXE      VendorTag = "cisco_xe"
	VendorCiscoNXOS    VendorTag = "cisco_nxos"
	VendorAristaEOS    VendorTag = "arista_eos"
	VendorJuniperJunos VendorTag = "juniper_junos"
	VendorLinux        VendorTag = "linux"
	// VendorAutodetect asks the pipeline to identify the vendor over SNMP before polling.
	VendorAutodetect VendorTag = "autodetect"
)

const (
	DefaultSSHPort       = 22
	DefaultDeviceTimeout = 30 * time.Second
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 2 * time.Second
	DefaultMaxDelay      = 30 * time.Second
)

var (
	ErrDeviceHostRequired   = errors.New("device host is required")
	ErrDeviceVendorRequired = errors.New("device vendor is required")
	ErrDeviceInvalidPort    = errors.New("device port out of range")
)

// RetryPolicy bounds how often the connection manager retries a transient failure.
type RetryPolicy struct {
	MaxAttempts int      `json:"max_attempts"`
	BaseDelay   Duration `json:"base_delay"`
	MaxDelay    Duration `json:"max_delay"`
}

// DefaultRetryPolicy returns 3 attempts with a 2s base delay capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   Duration(DefaultBaseDelay),
		MaxDelay:    Duration(DefaultMaxDelay),
	}
}

// WithDefaults fills zero fields from DefaultRetryPolicy.
func (r RetryPolicy) WithDefaults() RetryPolicy {
	def := DefaultRetryPolicy()

	if r.MaxAttempts <= 0 {
		r.MaxAttempts = def.MaxAttempts
	}

	if r.BaseDelay <= 0 {
		r.BaseDelay = def.BaseDelay
	}

	if r.MaxDelay <= 0 {
		r.MaxDelay = def.MaxDelay
	}

	return r
}

// Backoff returns the wait before retry number attempt (0-based):
// base * 2^attempt, capped at MaxDelay.
func (r RetryPolicy) Backoff(attempt int) time.Duration {
	base := time.Duration(r.BaseDelay)
	limit := time.Duration(r.MaxDelay)

	if attempt < 0 {
		attempt = 0
	}

	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if limit > 0 && delay >= limit {
			return limit
		}
	}

	if limit > 0 && delay > limit {
		return limit
	}

	return delay
}

// Budget is the longest one command can take under r when every attempt
// runs to timeout: MaxAttempts timeouts plus the backoffs between them.
func (r RetryPolicy) Budget(timeout time.Duration) time.Duration {
	total := time.Duration(r.MaxAttempts) * timeout
	for i := 0; i < r.MaxAttempts-1; i++ {
		total += r.Backoff(i)
	}

	return total
}

// Device describes one managed network element. It is loaded once by the
// caller and never mutated by the pipeline.
type Device struct {
	Name      string            `json:"name"`
	Host      string            `json:"host"`
	Port      int               `json:"port,omitempty"`
	Vendor    VendorTag         `json:"vendor"`
	Timeout   Duration          `json:"timeout,omitempty"`
	Retry     *RetryPolicy      `json:"retry,omitempty"`
	Site      string            `json:"site,omitempty"`
	Role      string            `json:"role,omitempty"`
	Proxy     string            `json:"proxy,omitempty"`
	Community string            `json:"snmp_community,omitempty" sensitive:"true"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// ID is the stable identity used to key observations and alerts.
func (d *Device) ID() string {
	if d.Name != "" {
		return d.Name
	}

	return d.Address()
}

// Address returns host:port for the management channel.
func (d *Device) Address() string {
	port := d.Port
	if port == 0 {
		port = DefaultSSHPort
	}

	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// CommandTimeout returns the per-device timeout, defaulting when unset.
func (d *Device) CommandTimeout() time.Duration {
	if d.Timeout > 0 {
		return time.Duration(d.Timeout)
	}

	return DefaultDeviceTimeout
}

// RetryPolicyOr returns the device's own policy or fallback, with defaults applied.
func (d *Device) RetryPolicyOr(fallback RetryPolicy) RetryPolicy {
	if d.Retry != nil {
		return d.Retry.WithDefaults()
	}

	return fallback.WithDefaults()
}

// Validate reports descriptor problems that make polling impossible.
func (d *Device) Validate() error {
	if strings.TrimSpace(d.Host) == "" {
		return fmt.Errorf("%w (device %q)", ErrDeviceHostRequired, d.Name)
	}

	if d.Vendor == "" {
		return fmt.Errorf("%w (device %q)", ErrDeviceVendorRequired, d.ID())
	}

	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("%w: %d (device %q)", ErrDeviceInvalidPort, d.Port, d.ID())
	}

	return nil
}
