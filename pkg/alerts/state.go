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

package alerts

import (
	"sort"
	"time"

	"github.com/carverauto/netpoll/pkg/models"
)

// State is the alert book carried between classifications. It holds firing
// alerts and recently resolved ones whose cooldown has not yet passed.
// Classify never mutates the State it is given.
type State struct {
	Alerts map[string]models.Alert `json:"alerts"`
}

// NewState returns an empty State.
func NewState() *State {
	return &State{Alerts: make(map[string]models.Alert)}
}

// Clone returns a deep copy. A nil State clones to an empty one.
func (s *State) Clone() *State {
	out := NewState()
	if s == nil {
		return out
	}

	for k, a := range s.Alerts {
		out.Alerts[k] = a
	}

	return out
}

// Get returns the alert stored under key.
func (s *State) Get(key string) (models.Alert, bool) {
	if s == nil {
		return models.Alert{}, false
	}

	a, ok := s.Alerts[key]

	return a, ok
}

// Firing returns the open alerts ordered by key.
func (s *State) Firing() []models.Alert {
	if s == nil {
		return nil
	}

	out := make([]models.Alert, 0, len(s.Alerts))

	for _, a := range s.Alerts {
		if a.State == models.AlertFiring {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

// prune drops resolved alerts whose cooldown has expired.
func (s *State) prune(now time.Time) {
	for k, a := range s.Alerts {
		if a.State == models.AlertResolved && !now.Before(a.SuppressedUntil) {
			delete(s.Alerts, k)
		}
	}
}
