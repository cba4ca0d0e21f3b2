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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

// DefaultRetention is how long a PostgresStore keeps Observations.
const DefaultRetention = 30 * 24 * time.Hour

// Querier is the subset of *pgxpool.Pool the store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createObservationsSQL = `
CREATE TABLE IF NOT EXISTS netpoll_observations (
    device_id   TEXT        NOT NULL,
    observed_at TIMESTAMPTZ NOT NULL,
    state       TEXT        NOT NULL,
    observation JSONB       NOT NULL,
    PRIMARY KEY (device_id, observed_at)
)`

	createObservedAtIndexSQL = `
CREATE INDEX IF NOT EXISTS netpoll_observations_observed_at_idx
    ON netpoll_observations (observed_at)`

	upsertObservationSQL = `
INSERT INTO netpoll_observations (device_id, observed_at, state, observation)
VALUES ($1, $2, $3, $4)
ON CONFLICT (device_id, observed_at) DO UPDATE
SET state = EXCLUDED.state,
    observation = EXCLUDED.observation`

	latestObservationSQL = `
SELECT observation
FROM netpoll_observations
WHERE device_id = $1
ORDER BY observed_at DESC
LIMIT 1`

	pruneObservationsSQL = `
DELETE FROM netpoll_observations
WHERE observed_at < $1`
)

// PostgresStore persists Observations as jsonb rows keyed by
// (device_id, observed_at).
type PostgresStore struct {
	db        Querier
	retention time.Duration
	logger    logger.Logger
}

// NewPostgresStore wraps db. A non-positive retention uses DefaultRetention.
func NewPostgresStore(db Querier, retention time.Duration, log logger.Logger) *PostgresStore {
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &PostgresStore{db: db, retention: retention, logger: log}
}

// Migrate creates the observations table and its index.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createObservationsSQL, createObservedAtIndexSQL} {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("history: migrate: %w", err)
		}
	}

	return nil
}

func (s *PostgresStore) Save(ctx context.Context, obs *models.Observation) error {
	if err := validate(obs); err != nil {
		return err
	}

	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("history: encode observation for %s: %w", obs.DeviceID, err)
	}

	if _, err := s.db.Exec(ctx, upsertObservationSQL,
		obs.DeviceID, obs.Timestamp.UTC(), string(obs.State), payload); err != nil {
		return fmt.Errorf("history: save observation for %s: %w", obs.DeviceID, err)
	}

	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, deviceID string) (*models.Observation, error) {
	var payload []byte

	err := s.db.QueryRow(ctx, latestObservationSQL, deviceID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("history: latest observation for %s: %w", deviceID, err)
	}

	var obs models.Observation
	if err := json.Unmarshal(payload, &obs); err != nil {
		return nil, fmt.Errorf("history: decode observation for %s: %w", deviceID, err)
	}

	return &obs, nil
}

// Prune deletes Observations older than the retention window relative to
// now and returns how many rows were removed.
func (s *PostgresStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.retention).UTC()

	tag, err := s.db.Exec(ctx, pruneObservationsSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}

	if n := tag.RowsAffected(); n > 0 {
		s.logger.Info().
			Int64("rows", n).
			Time("cutoff", cutoff).
			Msg("Pruned historical observations")
	}

	return tag.RowsAffected(), nil
}
