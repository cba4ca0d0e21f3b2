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

// Status is the evaluated health of a metric or a device.
type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
	// StatusNone marks a pass-through metric with no configured threshold.
	StatusNone Status = ""
)

// Severity orders statuses for rollups: good < unknown < warning < critical.
func (s Status) Severity() int {
	switch s {
	case StatusGood:
		return 1
	case StatusUnknown:
		return 2
	case StatusWarning:
		return 3
	case StatusCritical:
		return 4
	default:
		return 0
	}
}

// Worse returns the more severe of s and other.
func (s Status) Worse(other Status) Status {
	if other.Severity() > s.Severity() {
		return other
	}

	return s
}

// Alerting reports whether the status should raise an alert.
func (s Status) Alerting() bool {
	return s == StatusWarning || s == StatusCritical
}

// Severity is the alert severity attached to a raised alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for escalation checks.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// SeverityFor maps an alerting status to its alert severity.
func SeverityFor(s Status) Severity {
	if s == StatusCritical {
		return SeverityCritical
	}

	return SeverityWarning
}
