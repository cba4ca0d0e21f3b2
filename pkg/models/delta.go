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

import "time"

// Domain tags the tracked area a Delta describes.
type Domain string

const (
	DomainConfig    Domain = "config"
	DomainInterface Domain = "interface"
	DomainMAC       Domain = "mac"
	DomainRouting   Domain = "routing"
)

// DomainFor maps a metric to the change domain it feeds, if any.
func DomainFor(metric MetricName) (Domain, bool) {
	switch metric {
	case MetricConfig:
		return DomainConfig, true
	case MetricInterfaces:
		return DomainInterface, true
	case MetricMACTable:
		return DomainMAC, true
	case MetricRoutingTable:
		return DomainRouting, true
	default:
		return "", false
	}
}

// Metric is the metric a domain is derived from.
func (d Domain) Metric() MetricName {
	switch d {
	case DomainConfig:
		return MetricConfig
	case DomainInterface:
		return MetricInterfaces
	case DomainMAC:
		return MetricMACTable
	case DomainRouting:
		return MetricRoutingTable
	default:
		return ""
	}
}

// ChangeType is the kind of one field-level change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// Change is one field-level difference. Key is the row key (interface name,
// MAC, prefix) or the config line number; Field is set for modified rows.
type Change struct {
	Key   string     `json:"key"`
	Type  ChangeType `json:"type"`
	Field string     `json:"field,omitempty"`
	Old   string     `json:"old,omitempty"`
	New   string     `json:"new,omitempty"`
}

// Delta is the derived, ordered set of changes for one domain between two
// observations of the same device.
type Delta struct {
	DeviceID string    `json:"device_id"`
	Domain   Domain    `json:"domain"`
	Changes  []Change  `json:"changes"`
	At       time.Time `json:"at"`
}

// Counts returns the number of added, removed and modified changes.
func (d Delta) Counts() (added, removed, modified int) {
	for _, c := range d.Changes {
		switch c.Type {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		case ChangeModified:
			modified++
		}
	}

	return added, removed, modified
}
