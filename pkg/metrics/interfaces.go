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

// Package metrics records polling run statistics.
package metrics

import "time"

// Recorder receives counters and timings from the polling pipeline.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// ConnectAttempt counts one dial attempt by outcome ("ok" or a ConnectError kind).
	ConnectAttempt(vendor, outcome string)
	// Command observes one command round trip.
	Command(vendor string, success bool, elapsed time.Duration)
	// DevicePolled observes a finished device by final state
	// (success, partial, failed or a PollError kind).
	DevicePolled(state string, elapsed time.Duration)
	// RunFinished observes one complete run.
	RunFinished(devices int, elapsed time.Duration)
	// Alert counts classifier output by severity and state.
	Alert(severity, state string, suppressed bool)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) ConnectAttempt(string, string)       {}
func (NopRecorder) Command(string, bool, time.Duration) {}
func (NopRecorder) DevicePolled(string, time.Duration)  {}
func (NopRecorder) RunFinished(int, time.Duration)      {}
func (NopRecorder) Alert(string, string, bool)          {}

// OrNop returns r, or a NopRecorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return NopRecorder{}
	}

	return r
}
