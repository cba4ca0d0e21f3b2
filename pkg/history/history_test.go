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
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

var errFakeQuery = errors.New("connection reset by peer")

var device = &models.Device{Name: "core-1", Host: "10.0.0.1", Vendor: models.VendorCiscoIOS}

func observationAt(ts time.Time, cpu float64) *models.Observation {
	obs := models.NewObservation(device, []models.MetricName{models.MetricCPU}, ts)
	obs.Add(models.MetricRecord{Name: models.MetricCPU, Value: models.NumberValue(cpu), Unit: models.UnitPercent, CapturedAt: ts})
	obs.Finalize()

	return obs
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	latest, err := s.Latest(ctx, "core-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.Save(ctx, observationAt(t0.Add(time.Minute), 20)))
	require.NoError(t, s.Save(ctx, observationAt(t0, 10)))

	latest, err = s.Latest(ctx, "core-1")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute), latest.Timestamp, "out of order saves keep timestamp order")

	// same key replaces
	require.NoError(t, s.Save(ctx, observationAt(t0.Add(time.Minute), 30)))
	assert.Len(t, s.History("core-1"), 2)

	latest, _ = s.Latest(ctx, "core-1")
	assert.InDelta(t, 30, latest.Records[models.MetricCPU].Value.Number, 0)

	require.NoError(t, s.Save(ctx, observationAt(t0.Add(2*time.Minute), 40)))

	hist := s.History("core-1")
	require.Len(t, hist, 2)
	assert.Equal(t, t0.Add(time.Minute), hist[0].Timestamp)

	require.ErrorIs(t, s.Save(ctx, nil), ErrNilObservation)
	require.ErrorIs(t, s.Save(ctx, &models.Observation{}), ErrMissingDeviceID)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	saved := observationAt(t0, 10)
	require.NoError(t, s.Save(ctx, saved))

	saved.Fail(models.MetricFailure{Metric: models.MetricMemory, Kind: models.FailureTimeout})
	saved.Add(models.MetricRecord{Name: models.MetricMemory, Value: models.NumberValue(50)})

	latest, err := s.Latest(ctx, "core-1")
	require.NoError(t, err)
	assert.Empty(t, latest.Failed)
	assert.NotContains(t, latest.Records, models.MetricMemory)
	assert.Equal(t, []models.MetricName{models.MetricCPU}, latest.Order)

	latest.Add(models.MetricRecord{Name: models.MetricFlash, Value: models.NumberValue(5)})

	again, err := s.Latest(ctx, "core-1")
	require.NoError(t, err)
	assert.NotContains(t, again.Records, models.MetricFlash)
	assert.NotSame(t, latest, again)
}

type execCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	payload []byte
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	p, ok := dest[0].(*[]byte)
	if !ok {
		return errors.New("unexpected scan destination")
	}

	*p = r.payload

	return nil
}

type fakeQuerier struct {
	execs   []execCall
	execErr error
	tag     string
	row     fakeRow
	queries []execCall
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag(f.tag), f.execErr
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	return f.row
}

func TestPostgresStoreSave(t *testing.T) {
	q := &fakeQuerier{tag: "INSERT 0 1"}
	s := NewPostgresStore(q, 0, logger.NewTestLogger())

	obs := observationAt(time.Date(2025, 3, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600)), 42)
	require.NoError(t, s.Save(context.Background(), obs))

	require.Len(t, q.execs, 1)
	call := q.execs[0]
	assert.Contains(t, call.sql, "ON CONFLICT (device_id, observed_at) DO UPDATE")
	require.Len(t, call.args, 4)
	assert.Equal(t, "core-1", call.args[0])
	assert.Equal(t, time.UTC, call.args[1].(time.Time).Location())
	assert.Equal(t, "success", call.args[2])

	var decoded models.Observation
	require.NoError(t, json.Unmarshal(call.args[3].([]byte), &decoded))
	assert.Equal(t, "core-1", decoded.DeviceID)

	q.execErr = errFakeQuery
	err := s.Save(context.Background(), obs)
	require.ErrorIs(t, err, errFakeQuery)
	assert.Contains(t, err.Error(), "history: save observation for core-1")
}

func TestPostgresStoreLatest(t *testing.T) {
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(observationAt(ts, 55))
	require.NoError(t, err)

	q := &fakeQuerier{row: fakeRow{payload: payload}}
	s := NewPostgresStore(q, time.Hour, logger.NewTestLogger())

	obs, err := s.Latest(context.Background(), "core-1")
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.True(t, ts.Equal(obs.Timestamp))
	assert.InDelta(t, 55, obs.Records[models.MetricCPU].Value.Number, 0)
	assert.Equal(t, []any{"core-1"}, q.queries[0].args)

	q.row = fakeRow{err: pgx.ErrNoRows}
	obs, err = s.Latest(context.Background(), "core-2")
	require.NoError(t, err)
	assert.Nil(t, obs)

	q.row = fakeRow{err: errFakeQuery}
	_, err = s.Latest(context.Background(), "core-2")
	require.ErrorIs(t, err, errFakeQuery)

	q.row = fakeRow{payload: []byte("{not json")}
	_, err = s.Latest(context.Background(), "core-2")
	require.Error(t, err)
}

func TestPostgresStorePruneAndMigrate(t *testing.T) {
	q := &fakeQuerier{tag: "DELETE 3"}
	s := NewPostgresStore(q, 24*time.Hour, logger.NewTestLogger())
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	n, err := s.Prune(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, now.Add(-24*time.Hour), q.execs[0].args[0])

	require.NoError(t, s.Migrate(context.Background()))
	require.Len(t, q.execs, 3)
	assert.True(t, strings.Contains(q.execs[1].sql, "CREATE TABLE IF NOT EXISTS netpoll_observations"))

	q.execErr = errFakeQuery
	require.ErrorIs(t, s.Migrate(context.Background()), errFakeQuery)
}

func TestBuildConnURL(t *testing.T) {
	u, err := buildConnURL(&models.DatabaseConfig{
		Host:            "pg.internal",
		Database:        "netpoll",
		Username:        "netpoll",
		Password:        "s3cret",
		ApplicationName: "netpoll",
	})
	require.NoError(t, err)

	assert.Equal(t, "pg.internal:5432", u.Host)
	assert.Equal(t, "/netpoll", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "netpoll", u.Query().Get("application_name"))

	pw, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "s3cret", pw)

	_, err = buildConnURL(&models.DatabaseConfig{})
	require.ErrorIs(t, err, ErrDatabaseHost)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, DefaultKeep, cfg.Keep)
	assert.Equal(t, DefaultRetention, cfg.Retention.Std())

	require.ErrorIs(t, (&Config{Backend: BackendPostgres}).Validate(), ErrNoDatabase)
	require.ErrorIs(t, (&Config{Backend: BackendPostgres, Database: &models.DatabaseConfig{}}).Validate(), ErrDatabaseHost)
	require.ErrorIs(t, (&Config{Backend: "redis"}).Validate(), ErrUnknownBackend)
}

func TestOpenMemory(t *testing.T) {
	store, closeFn, err := Open(context.Background(), Config{Keep: 3}, logger.NewTestLogger())
	require.NoError(t, err)
	require.NotNil(t, closeFn)

	defer closeFn()

	mem, ok := store.(*MemoryStore)
	require.True(t, ok)
	assert.Equal(t, 3, mem.keep)
}
