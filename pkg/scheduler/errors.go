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
	"errors"
	"fmt"
)

var (
	ErrInvalidDevice = errors.New("invalid device descriptor")
	ErrDeviceConnect = errors.New("device unreachable")
	ErrDeviceTimeout = errors.New("device poll timed out")
	ErrRunTimeout    = errors.New("run deadline exceeded")
	ErrInternal      = errors.New("internal poll failure")
)

// ErrorKind classifies a device level failure.
type ErrorKind string

const (
	KindInvalidDevice ErrorKind = "invalid_device"
	KindConnect       ErrorKind = "connect"
	KindTimeout       ErrorKind = "timeout"
	KindRunTimeout    ErrorKind = "run_timeout"
	KindInternal      ErrorKind = "internal"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidDevice:
		return ErrInvalidDevice
	case KindConnect:
		return ErrDeviceConnect
	case KindTimeout:
		return ErrDeviceTimeout
	case KindRunTimeout:
		return ErrRunTimeout
	case KindInternal:
		return ErrInternal
	}

	return ErrInternal
}

// PollError is a device that produced no Observation.
type PollError struct {
	Kind     ErrorKind
	DeviceID string
	Err      error
}

func (e *PollError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("poll %s: %s", e.DeviceID, e.Kind.sentinel())
	}

	return fmt.Sprintf("poll %s: %s: %v", e.DeviceID, e.Kind.sentinel(), e.Err)
}

func (e *PollError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}

	return []error{e.Kind.sentinel(), e.Err}
}

// TimedOut reports a per-device or run-level deadline.
func (e *PollError) TimedOut() bool {
	return e.Kind == KindTimeout || e.Kind == KindRunTimeout
}
