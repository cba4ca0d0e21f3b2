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

// Package diff derives Deltas between two observations of one device.
package diff

import (
	"github.com/carverauto/netpoll/pkg/models"
)

// domains is the fixed order Deltas are emitted in.
var domains = []struct {
	domain models.Domain
	metric models.MetricName
	diff   func(prev, cur models.MetricValue) []models.Change
}{
	{models.DomainConfig, models.MetricConfig, configChanges},
	{models.DomainInterface, models.MetricInterfaces, interfaceChanges},
	{models.DomainMAC, models.MetricMACTable, macChanges},
	{models.DomainRouting, models.MetricRoutingTable, routeChanges},
}

// Diff returns the Deltas between previous and current. A nil previous is a
// first observation and yields no Deltas. A domain is only compared when both
// observations collected it, so a failed collection never reads as every row
// removed. Diff(o, o) is always empty.
func Diff(previous, current *models.Observation) []models.Delta {
	if previous == nil || current == nil {
		return nil
	}

	var out []models.Delta

	for _, d := range domains {
		prev, ok := previous.Record(d.metric)
		if !ok {
			continue
		}

		cur, ok := current.Record(d.metric)
		if !ok {
			continue
		}

		changes := d.diff(prev.Value, cur.Value)
		if len(changes) == 0 {
			continue
		}

		out = append(out, models.Delta{
			DeviceID: current.DeviceID,
			Domain:   d.domain,
			Changes:  changes,
			At:       current.Timestamp,
		})
	}

	return out
}
