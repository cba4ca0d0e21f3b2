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

package events

import (
	"context"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

// LogNotifier writes each deliverable alert as a structured log event.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, alerts []models.Alert) error {
	for _, a := range Deliverable(alerts) {
		ev := n.logger.Warn()
		if a.State == models.AlertResolved {
			ev = n.logger.Info()
		}

		ev.Str("alert_key", a.Key).
			Str("alert_id", a.ID).
			Str("device", a.DeviceID).
			Str("severity", string(a.Severity)).
			Str("state", string(a.State)).
			Time("first_seen", a.FirstSeen).
			Msg(a.Message)
	}

	return nil
}
