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

package poller

//go:generate mockgen -destination=mock_poller.go -package=poller github.com/carverauto/netpoll/pkg/poller Clock,Ticker,SessionManager,CommandCatalog

import (
	"context"
	"time"

	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/session"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// SessionManager is the part of session.Manager the poller drives.
type SessionManager interface {
	Acquire(ctx context.Context, device *models.Device) (*session.Handle, error)
	RunCommand(ctx context.Context, h *session.Handle, command string) models.RawCommandResult
	Release(h *session.Handle)
}

// CommandCatalog is the part of catalog.Catalog the poller drives.
type CommandCatalog interface {
	CommandFor(vendor models.VendorTag, metric models.MetricName) (string, error)
	Parse(vendor models.VendorTag, metric models.MetricName, raw string, at time.Time) (models.MetricRecord, error)
}
