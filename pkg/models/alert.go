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

// AlertState is the lifecycle phase of an alert.
type AlertState string

const (
	AlertFiring   AlertState = "firing"
	AlertResolved AlertState = "resolved"
)

// Alert is a raised condition for one (device, metric-or-delta) key.
type Alert struct {
	ID              string     `json:"id"`
	Key             string     `json:"key"`
	Severity        Severity   `json:"severity"`
	DeviceID        string     `json:"device_id"`
	Metric          MetricName `json:"metric,omitempty"`
	Domain          Domain     `json:"domain,omitempty"`
	Message         string     `json:"message"`
	FirstSeen       time.Time  `json:"first_seen"`
	LastSeen        time.Time  `json:"last_seen"`
	SuppressedUntil time.Time  `json:"suppressed_until"`
	State           AlertState `json:"state"`
	// Suppressed is true when the alert was refreshed inside its cooldown
	// window and must not be re-delivered.
	Suppressed bool `json:"suppressed"`
}

// Deliverable reports whether notifiers should send this alert.
func (a Alert) Deliverable() bool {
	return !a.Suppressed
}
