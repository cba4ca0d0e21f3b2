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

package history

import (
	"context"
	"sort"
	"sync"

	"github.com/carverauto/netpoll/pkg/models"
)

// DefaultKeep is the per-device depth of a MemoryStore.
const DefaultKeep = 10

// MemoryStore keeps the most recent Observations per device in process.
type MemoryStore struct {
	mu       sync.RWMutex
	keep     int
	byDevice map[string][]*models.Observation
}

// NewMemoryStore keeps up to keep Observations per device.
func NewMemoryStore(keep int) *MemoryStore {
	if keep <= 0 {
		keep = DefaultKeep
	}

	return &MemoryStore{
		keep:     keep,
		byDevice: make(map[string][]*models.Observation),
	}
}

// Latest returns a copy of the newest Observation for deviceID, or nil.
func (s *MemoryStore) Latest(_ context.Context, deviceID string) (*models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byDevice[deviceID]
	if len(list) == 0 {
		return nil, nil
	}

	return list[len(list)-1].Clone(), nil
}

// Save stores a copy of obs, so later changes by the caller never reach
// stored history.
func (s *MemoryStore) Save(_ context.Context, obs *models.Observation) error {
	if err := validate(obs); err != nil {
		return err
	}

	obs = obs.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byDevice[obs.DeviceID]

	replaced := false

	for i, existing := range list {
		if existing.Timestamp.Equal(obs.Timestamp) {
			list[i] = obs
			replaced = true

			break
		}
	}

	if !replaced {
		list = append(list, obs)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	}

	if len(list) > s.keep {
		list = append([]*models.Observation(nil), list[len(list)-s.keep:]...)
	}

	s.byDevice[obs.DeviceID] = list

	return nil
}

// History returns the retained Observations for deviceID, oldest first.
func (s *MemoryStore) History(deviceID string) []*models.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byDevice[deviceID]
	out := make([]*models.Observation, len(list))

	for i, obs := range list {
		out[i] = obs.Clone()
	}

	return out
}

func validate(obs *models.Observation) error {
	if obs == nil {
		return ErrNilObservation
	}

	if obs.DeviceID == "" {
		return ErrMissingDeviceID
	}

	return nil
}
