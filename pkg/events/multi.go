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
	"errors"

	"github.com/carverauto/netpoll/pkg/models"
)

// MultiNotifier fans a batch out to every configured notifier. A failing
// notifier does not stop the others; their errors are joined.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier drops nil entries.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{}

	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}

	return m
}

func (m *MultiNotifier) Notify(ctx context.Context, alerts []models.Alert) error {
	if m == nil || len(alerts) == 0 {
		return nil
	}

	var errs []error

	for _, n := range m.notifiers {
		if err := n.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Len is the number of wrapped notifiers.
func (m *MultiNotifier) Len() int {
	if m == nil {
		return 0
	}

	return len(m.notifiers)
}
