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
	"context"

	"github.com/carverauto/netpoll/pkg/models"
)

//go:generate mockgen -destination=mock_scheduler.go -package=scheduler github.com/carverauto/netpoll/pkg/scheduler DevicePoller

// DevicePoller produces one Observation for one device. *poller.Poller
// satisfies it.
type DevicePoller interface {
	Poll(ctx context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error)
}
