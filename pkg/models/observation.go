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

package models

import (
	"maps"
	"slices"
	"time"
)

// ObservationState summarises how much of a MetricRequest was collected.
type ObservationState string

const (
	ObservationSuccess ObservationState = "success"
	ObservationPartial ObservationState = "partial"
	ObservationFailed  ObservationState = "failed"
)

// FailureKind classifies why a metric could not be collected.
type FailureKind string

const (
	FailureUnsupported FailureKind = "unsupported"
	FailureParse       FailureKind = "parse"
	FailureCommand     FailureKind = "command"
	FailureTimeout     FailureKind = "timeout"
)

// MetricFailure records one metric missing from an Observation.
type MetricFailure struct {
	Metric  MetricName  `json:"metric"`
	Kind    FailureKind `json:"kind"`
	Command string      `json:"command,omitempty"`
	Reason  string      `json:"reason"`
	// Raw holds the unparsed output for parse failures.
	Raw string `json:"raw,omitempty"`
}

// Observation is every reading for one device at one point in time. It is
// keyed by (DeviceID, Timestamp) and replaced as a whole, never patched.
type Observation struct {
	DeviceID  string                      `json:"device_id"`
	Vendor    VendorTag                   `json:"vendor"`
	Site      string                      `json:"site,omitempty"`
	Timestamp time.Time                   `json:"timestamp"`
	Requested []MetricName                `json:"requested"`
	Order     []MetricName                `json:"order"`
	Records   map[MetricName]MetricRecord `json:"records"`
	Failed    []MetricFailure             `json:"failed,omitempty"`
	State     ObservationState            `json:"state"`
}

// NewObservation starts an empty observation for device at ts.
func NewObservation(device *Device, requested []MetricName, ts time.Time) *Observation {
	req := make([]MetricName, len(requested))
	copy(req, requested)

	return &Observation{
		DeviceID:  device.ID(),
		Vendor:    device.Vendor,
		Site:      device.Site,
		Timestamp: ts,
		Requested: req,
		Records:   make(map[MetricName]MetricRecord, len(requested)),
	}
}

// Clone returns a copy whose record map and slices are its own. Metric
// values are shared; they are never modified after parsing.
func (o *Observation) Clone() *Observation {
	if o == nil {
		return nil
	}

	c := *o
	c.Requested = slices.Clone(o.Requested)
	c.Order = slices.Clone(o.Order)
	c.Failed = slices.Clone(o.Failed)
	c.Records = maps.Clone(o.Records)

	return &c
}

// Add stores a successfully parsed record, preserving first-insertion order.
func (o *Observation) Add(rec MetricRecord) {
	if _, exists := o.Records[rec.Name]; !exists {
		o.Order = append(o.Order, rec.Name)
	}

	o.Records[rec.Name] = rec
}

// Fail marks metric as not collected.
func (o *Observation) Fail(f MetricFailure) {
	o.Failed = append(o.Failed, f)
}

// Finalize computes State from the collected and failed sets.
func (o *Observation) Finalize() {
	switch {
	case len(o.Failed) == 0 && len(o.Records) > 0:
		o.State = ObservationSuccess
	case len(o.Records) == 0 && len(o.Failed) == 0:
		// nothing requested
		o.State = ObservationSuccess
	case len(o.Records) == 0:
		o.State = ObservationFailed
	default:
		o.State = ObservationPartial
	}
}

// Record returns the reading for name if it was collected.
func (o *Observation) Record(name MetricName) (MetricRecord, bool) {
	if o == nil {
		return MetricRecord{}, false
	}

	rec, ok := o.Records[name]

	return rec, ok
}

// Collected reports whether name is in the successful-collection set.
func (o *Observation) Collected(name MetricName) bool {
	_, ok := o.Record(name)

	return ok
}

// FailedMetric reports whether name is in the failure list.
func (o *Observation) FailedMetric(name MetricName) bool {
	if o == nil {
		return false
	}

	for _, f := range o.Failed {
		if f.Metric == name {
			return true
		}
	}

	return false
}

// Metrics returns every metric the observation knows about: collected ones in
// collection order, then failed ones.
func (o *Observation) Metrics() []MetricName {
	out := make([]MetricName, 0, len(o.Order)+len(o.Failed))
	seen := make(map[MetricName]struct{}, cap(out))

	for _, n := range o.Order {
		seen[n] = struct{}{}
		out = append(out, n)
	}

	for _, f := range o.Failed {
		if _, ok := seen[f.Metric]; ok {
			continue
		}

		seen[f.Metric] = struct{}{}
		out = append(out, f.Metric)
	}

	return out
}
