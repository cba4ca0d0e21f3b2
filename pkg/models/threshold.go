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
	"errors"
	"fmt"
)

var (
	ErrThresholdOrder     = errors.New("warning boundary is beyond critical boundary")
	ErrThresholdDirection = errors.New("unknown threshold direction")
	ErrThresholdEmpty     = errors.New("threshold has no numeric or state boundaries")
)

// Direction tells whether larger or smaller values are worse for a metric.
type Direction string

const (
	HigherIsWorse Direction = "higher"
	LowerIsWorse  Direction = "lower"
)

// DefaultDirection returns the direction used when a threshold omits one.
func DefaultDirection(metric MetricName) Direction {
	if metric == MetricMemoryFree {
		return LowerIsWorse
	}

	return HigherIsWorse
}

// Threshold is the {warning, critical} pair for one metric. Numeric bounds
// apply to number values; the state lists apply to text and component values.
type Threshold struct {
	Warning        *float64  `json:"warning,omitempty"`
	Critical       *float64  `json:"critical,omitempty"`
	Direction      Direction `json:"direction,omitempty"`
	WarningStates  []string  `json:"warning_states,omitempty"`
	CriticalStates []string  `json:"critical_states,omitempty"`
}

// NewThreshold builds a numeric threshold pair.
func NewThreshold(warning, critical float64, dir Direction) Threshold {
	w, c := warning, critical

	return Threshold{Warning: &w, Critical: &c, Direction: dir}
}

// Numeric reports whether the threshold carries any numeric boundary.
func (t Threshold) Numeric() bool {
	return t.Warning != nil || t.Critical != nil
}

// Categorical reports whether the threshold carries state lists.
func (t Threshold) Categorical() bool {
	return len(t.WarningStates) > 0 || len(t.CriticalStates) > 0
}

// DirectionFor returns the threshold direction, falling back to the metric default.
func (t Threshold) DirectionFor(metric MetricName) Direction {
	if t.Direction != "" {
		return t.Direction
	}

	return DefaultDirection(metric)
}

// Validate checks warning <= critical in the metric's worse direction.
func (t Threshold) Validate(metric MetricName) error {
	if !t.Numeric() && !t.Categorical() {
		return fmt.Errorf("%w: %s", ErrThresholdEmpty, metric)
	}

	dir := t.DirectionFor(metric)
	if dir != HigherIsWorse && dir != LowerIsWorse {
		return fmt.Errorf("%w: %q (%s)", ErrThresholdDirection, dir, metric)
	}

	if t.Warning == nil || t.Critical == nil {
		return nil
	}

	w, c := *t.Warning, *t.Critical

	if dir == HigherIsWorse && w > c {
		return fmt.Errorf("%w: %s warning %g > critical %g", ErrThresholdOrder, metric, w, c)
	}

	if dir == LowerIsWorse && w < c {
		return fmt.Errorf("%w: %s warning %g < critical %g", ErrThresholdOrder, metric, w, c)
	}

	return nil
}

// ThresholdSet is the resolved per-metric threshold map for one device.
type ThresholdSet map[MetricName]Threshold

// Validate validates every threshold in the set.
func (s ThresholdSet) Validate() error {
	for metric, t := range s {
		if err := t.Validate(metric); err != nil {
			return err
		}
	}

	return nil
}

// ThresholdConfig holds the three override levels thresholds resolve through.
type ThresholdConfig struct {
	Defaults ThresholdSet            `json:"defaults,omitempty"`
	Sites    map[string]ThresholdSet `json:"sites,omitempty"`
	Devices  map[string]ThresholdSet `json:"devices,omitempty"`
}

func (c *ThresholdConfig) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	for site, set := range c.Sites {
		if err := set.Validate(); err != nil {
			return fmt.Errorf("site %s: %w", site, err)
		}
	}

	for dev, set := range c.Devices {
		if err := set.Validate(); err != nil {
			return fmt.Errorf("device %s: %w", dev, err)
		}
	}

	return nil
}

// DefaultThresholds mirrors the stock health limits: CPU 70/85, memory 80/90,
// temperature 60/75, flash 80/90, free memory 20/10 and failed components critical.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		MetricCPU:         NewThreshold(70, 85, HigherIsWorse),
		MetricMemory:      NewThreshold(80, 90, HigherIsWorse),
		MetricTemperature: NewThreshold(60, 75, HigherIsWorse),
		MetricFlash:       NewThreshold(80, 90, HigherIsWorse),
		MetricMemoryFree:  NewThreshold(20, 10, LowerIsWorse),
		MetricPowerSupplies: {
			WarningStates:  []string{"warning", "degraded"},
			CriticalStates: []string{"failed", "fail", "absent", "critical", "off"},
		},
		MetricFans: {
			WarningStates:  []string{"warning", "degraded"},
			CriticalStates: []string{"failed", "fail", "absent", "critical", "off"},
		},
	}
}
