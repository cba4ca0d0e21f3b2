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

// Package history keeps prior Observations so the next run can diff against
// them. Stores are keyed by device identity; a Save for an existing
// (device, timestamp) pair replaces it.
package history

import (
	"context"

	"github.com/carverauto/netpoll/pkg/models"
)

//go:generate mockgen -destination=mock_history.go -package=history github.com/carverauto/netpoll/pkg/history Store

// Store is the historical Observation lookup used by the diff stage.
type Store interface {
	// Latest returns the most recent Observation for deviceID, or nil when
	// the device has never been stored.
	Latest(ctx context.Context, deviceID string) (*models.Observation, error)
	// Save records obs under obs.DeviceID.
	Save(ctx context.Context, obs *models.Observation) error
}
