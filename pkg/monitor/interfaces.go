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
	"context"
	"time"

	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/scheduler"
)

//go:generate mockgen -destination=mock_monitor.go -package=monitor github.com/carverauto/netpoll/pkg/monitor PollRunner,VendorResolver

// PollRunner fans a request out over the fleet. *scheduler.Scheduler
// satisfies it.
type PollRunner interface {
	Run(ctx context.Context, devices []*models.Device, req models.MetricRequest) <-chan scheduler.Result
}

// VendorResolver replaces autodetect vendor tags. *identify.Detector
// satisfies it.
type VendorResolver interface {
	Resolve(ctx context.Context, devices []*models.Device) ([]*models.Device, map[string]error)
}

// pruner is implemented by stores with age based retention.
type pruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}
