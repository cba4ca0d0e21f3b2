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

package scheduler

import (
	"time"

	"github.com/carverauto/netpoll/pkg/models"
)

// Result is the outcome for one device. Exactly one of Observation and Err
// is set. Device is the caller's descriptor, for correlation by identity.
type Result struct {
	Device      *models.Device
	Observation *models.Observation
	Err         *PollError
	Elapsed     time.Duration
}

// OK reports whether the device produced an Observation.
func (r Result) OK() bool {
	return r.Err == nil && r.Observation != nil
}

// State is the observation state, or the PollError kind.
func (r Result) State() string {
	if r.Err != nil {
		return string(r.Err.Kind)
	}

	if r.Observation == nil {
		return string(KindInternal)
	}

	return string(r.Observation.State)
}

// Collect drains results until the channel closes.
func Collect(results <-chan Result) []Result {
	out := make([]Result, 0, cap(results))

	for r := range results {
		out = append(out, r)
	}

	return out
}

// ByDevice indexes results by device identity.
func ByDevice(results []Result) map[string]Result {
	out := make(map[string]Result, len(results))

	for _, r := range results {
		out[r.Device.ID()] = r
	}

	return out
}
