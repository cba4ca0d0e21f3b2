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

// Package events hands alerts to downstream notification collaborators.
// Only deliverable alerts leave the process; suppressed refreshes stay in
// the classifier state.
package events

import (
	"context"

	"github.com/carverauto/netpoll/pkg/models"
)

//go:generate mockgen -destination=mock_events.go -package=events github.com/carverauto/netpoll/pkg/events Notifier

// Notifier delivers a batch of alerts produced by one classification.
type Notifier interface {
	Notify(ctx context.Context, alerts []models.Alert) error
}

// Deliverable filters out alerts suppressed by cooldown.
func Deliverable(alerts []models.Alert) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))

	for i := range alerts {
		if alerts[i].Deliverable() {
			out = append(out, alerts[i])
		}
	}

	return out
}
