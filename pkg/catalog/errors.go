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

package catalog

import (
	"errors"
	"fmt"

	"github.com/carverauto/netpoll/pkg/models"
)

var (
	ErrUnsupportedMetric = errors.New("unsupported metric")
	ErrUnknownVendor     = errors.New("unknown vendor")
	ErrParse             = errors.New("parse error")
	ErrCommandRejected   = errors.New("device rejected command")
)

// UnsupportedMetricError is returned when a vendor has no command for a metric.
type UnsupportedMetricError struct {
	Vendor models.VendorTag
	Metric models.MetricName
}

func (e *UnsupportedMetricError) Error() string {
	return fmt.Sprintf("%s: %s does not provide %s", ErrUnsupportedMetric, e.Vendor, e.Metric)
}

func (*UnsupportedMetricError) Unwrap() error {
	return ErrUnsupportedMetric
}

// ParseError is returned when command output lacks the structure a parser
// expects. Raw keeps the output for diagnosis.
type ParseError struct {
	Vendor models.VendorTag
	Metric models.MetricName
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", ErrParse, e.Vendor, e.Metric, e.Reason)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}

	return []error{ErrParse}
}

// failure is the error parsers return; Catalog.Parse wraps it into ParseError.
type failure string

func (f failure) Error() string { return string(f) }

func failf(format string, args ...any) error {
	return failure(fmt.Sprintf(format, args...))
}
