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
	"sort"
	"time"

	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/threshold"
)

// DeviceReport is everything one run learned about one device.
type DeviceReport struct {
	DeviceID string              `json:"device_id"`
	Vendor   models.VendorTag    `json:"vendor"`
	Site     string              `json:"site,omitempty"`
	State    string              `json:"state"`
	Status   models.Status       `json:"status"`
	Statuses threshold.StatusMap `json:"statuses,omitempty"`
	Deltas   []models.Delta      `json:"deltas,omitempty"`
	Alerts   []models.Alert      `json:"alerts,omitempty"`
	Error    string              `json:"error,omitempty"`
	// HistoryError is set when the previous observation could not be read
	// or this one could not be stored.
	HistoryError string          `json:"history_error,omitempty"`
	Elapsed      models.Duration `json:"elapsed"`
}

// Reachable reports whether the device produced an observation.
func (d *DeviceReport) Reachable() bool {
	return d.Error == ""
}

// RunReport is the outcome of one RunOnce.
type RunReport struct {
	ID              string            `json:"id"`
	Started         time.Time         `json:"started"`
	Finished        time.Time         `json:"finished"`
	Devices         []DeviceReport    `json:"devices"`
	Alerts          []models.Alert    `json:"alerts,omitempty"`
	DetectionErrors map[string]string `json:"detection_errors,omitempty"`
	NotifyError     string            `json:"notify_error,omitempty"`
}

// Device returns the report for one device identity.
func (r *RunReport) Device(id string) (DeviceReport, bool) {
	for i := range r.Devices {
		if r.Devices[i].DeviceID == id {
			return r.Devices[i], true
		}
	}

	return DeviceReport{}, false
}

// Summary is the fleet-level rollup of a run.
type Summary struct {
	Total       int                   `json:"total"`
	Reachable   int                   `json:"reachable"`
	Unreachable int                   `json:"unreachable"`
	ByState     map[string]int        `json:"by_state"`
	ByStatus    map[models.Status]int `json:"by_status"`
	Critical    []string              `json:"critical,omitempty"`
	Warning     []string              `json:"warning,omitempty"`
	Changes     int                   `json:"changes"`
	Alerts      int                   `json:"alerts"`
	Delivered   int                   `json:"delivered"`
	Duration    models.Duration       `json:"duration"`
}

// Summary counts devices by reachability, observation state and overall
// status. Unreachable devices count as unknown.
func (r *RunReport) Summary() Summary {
	s := Summary{
		Total:    len(r.Devices),
		ByState:  make(map[string]int),
		ByStatus: make(map[models.Status]int),
		Duration: models.Duration(r.Finished.Sub(r.Started)),
	}

	for i := range r.Devices {
		d := &r.Devices[i]

		if d.Reachable() {
			s.Reachable++
		} else {
			s.Unreachable++
		}

		s.ByState[d.State]++
		s.ByStatus[d.Status]++

		switch d.Status {
		case models.StatusCritical:
			s.Critical = append(s.Critical, d.DeviceID)
		case models.StatusWarning:
			s.Warning = append(s.Warning, d.DeviceID)
		}

		for _, delta := range d.Deltas {
			s.Changes += len(delta.Changes)
		}
	}

	sort.Strings(s.Critical)
	sort.Strings(s.Warning)

	s.Alerts = len(r.Alerts)

	for i := range r.Alerts {
		if r.Alerts[i].Deliverable() {
			s.Delivered++
		}
	}

	return s
}
