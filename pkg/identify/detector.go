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

// Package identify resolves the command dialect of devices configured with
// vendor "autodetect" by reading their SNMP system group.
package identify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

const (
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	oidSysObjectID = ".1.3.6.1.2.1.1.2.0"
	oidSysName     = ".1.3.6.1.2.1.1.5.0"

	DefaultSNMPPort    = 161
	DefaultSNMPTimeout = 2 * time.Second
	DefaultSNMPRetries = 1
	DefaultParallelism = 10
)

// Config holds SNMP probe settings. Community is the fleet-wide default;
// a device's own snmp_community takes precedence.
type Config struct {
	Community   string          `json:"community,omitempty" sensitive:"true"`
	Port        uint16          `json:"port,omitempty"`
	Timeout     models.Duration `json:"timeout,omitempty"`
	Retries     int             `json:"retries,omitempty"`
	Parallelism int             `json:"parallelism,omitempty"`
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultSNMPPort
	}

	if c.Timeout <= 0 {
		c.Timeout = models.Duration(DefaultSNMPTimeout)
	}

	if c.Retries <= 0 {
		c.Retries = DefaultSNMPRetries
	}

	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}

	return c
}

// Identity is what the system group says about a device.
type Identity struct {
	Vendor      models.VendorTag `json:"vendor"`
	SysDescr    string           `json:"sys_descr"`
	SysObjectID string           `json:"sys_object_id"`
	SysName     string           `json:"sys_name,omitempty"`
}

// Client is the subset of *gosnmp.GoSNMP the detector uses.
type Client interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

// DialFunc opens an SNMP client for a device.
type DialFunc func(ctx context.Context, target, community string, cfg Config) (Client, error)

type Detector struct {
	config Config
	dial   DialFunc
	logger logger.Logger
}

// Option customizes a Detector.
type Option func(*Detector)

// WithDialer replaces the gosnmp dialer.
func WithDialer(dial DialFunc) Option {
	return func(d *Detector) {
		d.dial = dial
	}
}

func NewDetector(cfg Config, log logger.Logger, opts ...Option) *Detector {
	d := &Detector{
		config: cfg.WithDefaults(),
		dial:   dialGoSNMP,
		logger: log,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type gosnmpClient struct {
	*gosnmp.GoSNMP
}

func (c gosnmpClient) Close() error {
	if c.Conn == nil {
		return nil
	}

	return c.Conn.Close()
}

func dialGoSNMP(ctx context.Context, target, community string, cfg Config) (Client, error) {
	client := &gosnmp.GoSNMP{
		Context:            ctx,
		Target:             target,
		Port:               cfg.Port,
		Community:          community,
		Version:            gosnmp.Version2c,
		Timeout:            cfg.Timeout.Std(),
		Retries:            cfg.Retries,
		MaxOids:            gosnmp.MaxOids,
		ExponentialTimeout: true,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("snmp connect %s: %w", target, err)
	}

	return gosnmpClient{client}, nil
}

// Detect queries sysDescr, sysObjectID and sysName and classifies the vendor.
// The returned Identity is populated even when the vendor is unrecognized.
func (d *Detector) Detect(ctx context.Context, device *models.Device) (Identity, error) {
	community := device.Community
	if community == "" {
		community = d.config.Community
	}

	if community == "" {
		return Identity{}, fmt.Errorf("%w (device %q)", errCommunityMissing, device.ID())
	}

	client, err := d.dial(ctx, device.Host, community, d.config)
	if err != nil {
		return Identity{}, err
	}

	defer func() {
		if cerr := client.Close(); cerr != nil {
			d.logger.Debug().Err(cerr).Str("device", device.ID()).Msg("Failed to close SNMP connection")
		}
	}()

	result, err := client.Get([]string{oidSysDescr, oidSysObjectID, oidSysName})
	if err != nil {
		return Identity{}, fmt.Errorf("%w %w", ErrSNMPGet, err)
	}

	if result.Error != gosnmp.NoError {
		return Identity{}, fmt.Errorf("%w %s", ErrSNMPError, result.Error)
	}

	id, found := readSystemGroup(result.Variables)
	if !found {
		return Identity{}, ErrNoSNMPData
	}

	vendor, ok := ClassifySysDescr(id.SysDescr)
	if !ok {
		vendor, ok = ClassifySysObjectID(id.SysObjectID)
	}

	if !ok {
		return id, fmt.Errorf("%w: %q", ErrUnrecognized, firstLine(id.SysDescr))
	}

	id.Vendor = vendor

	return id, nil
}

func readSystemGroup(vars []gosnmp.SnmpPDU) (Identity, bool) {
	var id Identity

	found := false

	for _, v := range vars {
		if v.Type == gosnmp.NoSuchObject || v.Type == gosnmp.NoSuchInstance {
			continue
		}

		found = true

		switch v.Name {
		case oidSysDescr:
			id.SysDescr = pduString(v)
		case oidSysName:
			id.SysName = pduString(v)
		case oidSysObjectID:
			if s, ok := v.Value.(string); ok && v.Type == gosnmp.ObjectIdentifier {
				id.SysObjectID = s
			}
		}
	}

	return id, found
}

func pduString(v gosnmp.SnmpPDU) string {
	if b, ok := v.Value.([]byte); ok && v.Type == gosnmp.OctetString {
		return strings.TrimSpace(string(b))
	}

	return ""
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}

	return s
}

// Resolve returns the fleet with every autodetect device replaced by a copy
// carrying the detected vendor. Devices that cannot be identified keep the
// autodetect tag and are reported in the error map, keyed by device ID; the
// scheduler later rejects them as invalid descriptors.
func (d *Detector) Resolve(ctx context.Context, devices []*models.Device) ([]*models.Device, map[string]error) {
	out := make([]*models.Device, len(devices))
	errs := make([]error, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Parallelism)

	for i, dev := range devices {
		out[i] = dev

		if dev == nil || dev.Vendor != models.VendorAutodetect {
			continue
		}

		g.Go(func() error {
			id, err := d.Detect(gctx, dev)
			if err != nil {
				errs[i] = err

				d.logger.Warn().Err(err).Str("device", dev.ID()).Msg("Vendor detection failed")

				return nil
			}

			resolved := *dev
			resolved.Vendor = id.Vendor
			out[i] = &resolved

			d.logger.Info().
				Str("device", dev.ID()).
				Str("vendor", string(id.Vendor)).
				Str("sys_object_id", id.SysObjectID).
				Msg("Detected device vendor")

			return nil
		})
	}

	_ = g.Wait()

	failed := make(map[string]error)

	for i, err := range errs {
		if err != nil {
			failed[devices[i].ID()] = err
		}
	}

	return out, failed
}
