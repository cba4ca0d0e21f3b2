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

// Package catalog maps logical metric names to the read-only command each
// vendor dialect needs and to the parser that normalises its output.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/carverauto/netpoll/pkg/models"
)

// Parser turns raw command output into a value and its normalised unit.
type Parser func(raw string) (models.MetricValue, string, error)

// Vendor is one command dialect. The set of implementations is closed: the
// catalog only carries the tables built in this package.
type Vendor interface {
	Tag() models.VendorTag
	Command(metric models.MetricName) (string, bool)
	Parse(metric models.MetricName, raw string) (models.MetricValue, string, error)
	Metrics() []models.MetricName
}

type entry struct {
	command string
	parse   Parser
}

type table struct {
	tag     models.VendorTag
	entries map[models.MetricName]entry
}

func (t *table) Tag() models.VendorTag { return t.tag }

func (t *table) Command(metric models.MetricName) (string, bool) {
	e, ok := t.entries[metric]

	return e.command, ok
}

func (t *table) Parse(metric models.MetricName, raw string) (models.MetricValue, string, error) {
	e, ok := t.entries[metric]
	if !ok {
		return models.MetricValue{}, "", &UnsupportedMetricError{Vendor: t.tag, Metric: metric}
	}

	return e.parse(raw)
}

func (t *table) Metrics() []models.MetricName {
	out := make([]models.MetricName, 0, len(t.entries))
	for m := range t.entries {
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// alias reuses another dialect's table under a different tag.
func alias(tag models.VendorTag, base *table) *table {
	return &table{tag: tag, entries: base.entries}
}

// Catalog dispatches by vendor tag.
type Catalog struct {
	vendors map[models.VendorTag]Vendor
}

// New returns a catalog holding every built-in dialect.
func New() *Catalog {
	ios := ciscoIOS()

	c := &Catalog{vendors: make(map[models.VendorTag]Vendor)}
	for _, v := range []Vendor{
		ios,
		alias(models.VendorCiscoXE, ios),
		ciscoNXOS(),
		aristaEOS(),
		juniperJunos(),
		linuxHost(),
	} {
		c.vendors[v.Tag()] = v
	}

	return c
}

// Supports reports whether tag names a known dialect.
func (c *Catalog) Supports(tag models.VendorTag) bool {
	_, ok := c.vendors[tag]

	return ok
}

// Vendors lists the known dialect tags in sorted order.
func (c *Catalog) Vendors() []models.VendorTag {
	out := make([]models.VendorTag, 0, len(c.vendors))
	for tag := range c.vendors {
		out = append(out, tag)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// CommandFor returns the literal command that collects metric on vendor.
func (c *Catalog) CommandFor(vendor models.VendorTag, metric models.MetricName) (string, error) {
	v, ok := c.vendors[vendor]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVendor, vendor)
	}

	cmd, ok := v.Command(metric)
	if !ok {
		return "", &UnsupportedMetricError{Vendor: vendor, Metric: metric}
	}

	return cmd, nil
}

// Parse normalises raw output for metric into a MetricRecord stamped with at.
func (c *Catalog) Parse(vendor models.VendorTag, metric models.MetricName, raw string, at time.Time) (models.MetricRecord, error) {
	v, ok := c.vendors[vendor]
	if !ok {
		return models.MetricRecord{}, fmt.Errorf("%w: %q", ErrUnknownVendor, vendor)
	}

	if _, ok := v.Command(metric); !ok {
		return models.MetricRecord{}, &UnsupportedMetricError{Vendor: vendor, Metric: metric}
	}

	if reason, rejected := rejection(raw); rejected {
		return models.MetricRecord{}, &ParseError{
			Vendor: vendor,
			Metric: metric,
			Reason: reason,
			Raw:    raw,
			Err:    ErrCommandRejected,
		}
	}

	value, unit, err := v.Parse(metric, raw)
	if err != nil {
		return models.MetricRecord{}, &ParseError{
			Vendor: vendor,
			Metric: metric,
			Reason: err.Error(),
			Raw:    raw,
		}
	}

	return models.MetricRecord{
		Name:       metric,
		Value:      value,
		Unit:       unit,
		CapturedAt: at,
	}, nil
}

var rejectionMarkers = []string{
	"% invalid input",
	"% incomplete command",
	"% ambiguous command",
	"% unknown command",
	"% invalid command",
	"syntax error, expecting",
	"unknown command.",
	"command not found",
}

// rejection detects a CLI error banner in place of command output.
func rejection(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	for _, m := range rejectionMarkers {
		if strings.Contains(lower, m) {
			return "output contains " + strings.TrimSpace(m), true
		}
	}

	return "", false
}
