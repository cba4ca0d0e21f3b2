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

// Package session owns management channel sessions: dialing, retry with
// backoff, per-command timeouts and guaranteed release.
package session

import (
	"context"

	"github.com/carverauto/netpoll/pkg/models"
)

//go:generate mockgen -destination=mock_session.go -package=session github.com/carverauto/netpoll/pkg/session Session,Dialer,CredentialSource

// Session is one established management channel to one device.
// A Session is never shared between concurrent callers.
type Session interface {
	// Run executes a read-only command and returns its combined output.
	// Cancelling ctx aborts the command.
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// Dialer opens sessions. It makes exactly one attempt; retry belongs to Manager.
type Dialer interface {
	Dial(ctx context.Context, device *models.Device, creds Credentials) (Session, error)
}

// VendorSet reports whether a vendor tag can be polled.
type VendorSet interface {
	Supports(vendor models.VendorTag) bool
}
