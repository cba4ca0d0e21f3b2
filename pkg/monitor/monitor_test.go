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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/netpoll/pkg/alerts"
	"github.com/carverauto/netpoll/pkg/events"
	"github.com/carverauto/netpoll/pkg/history"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/scheduler"
	"github.com/carverauto/netpoll/pkg/session"
)

type pollFunc func(ctx context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error)

func (f pollFunc) Poll(ctx context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
	return f(ctx, device, req)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// pruningStore counts Prune calls on top of the memory backend.
type pruningStore struct {
	*history.MemoryStore
	pruned int
}

func (s *pruningStore) Prune(_ context.Context, _ time.Time) (int64, error) {
	s.pruned++
	return 0, nil
}

func testDevices() []*models.Device {
	return []*models.Device{
		{Name: "edge-1", Host: "10.0.0.2", Vendor: models.VendorAristaEOS, Site: "lab"},
		{Name: "core-1", Host: "10.0.0.1", Vendor: models.VendorCiscoIOS, Site: "lab"},
	}
}

func testConfig(t *testing.T, devices []*models.Device) *Config {
	t.Helper()

	cfg := &Config{
		Devices: devices,
		Metrics: []models.MetricName{models.MetricCPU, models.MetricInterfaces},
	}
	require.NoError(t, cfg.Validate())

	return cfg
}

func observation(device *models.Device, req models.MetricRequest, at time.Time, cpu float64, gi1 string) *models.Observation {
	obs := models.NewObservation(device, req.Metrics, at)
	obs.Add(models.MetricRecord{
		Name:       models.MetricCPU,
		Value:      models.NumberValue(cpu),
		Unit:       models.UnitPercent,
		CapturedAt: at,
	})
	obs.Add(models.MetricRecord{
		Name: models.MetricInterfaces,
		Value: models.InterfacesValue([]models.InterfaceRow{
			{Name: "Gi0/1", AdminStatus: "up", OperStatus: gi1, Address: "10.0.0.1"},
			{Name: "Gi0/2", AdminStatus: "down", OperStatus: "down"},
		}),
		CapturedAt: at,
	})
	obs.Finalize()

	return obs
}

func newTestMonitor(t *testing.T, cfg *Config, p scheduler.DevicePoller, store history.Store, clock *fakeClock,
	opts ...Option) *Monitor {
	t.Helper()

	log := logger.NewTestLogger()
	runner := scheduler.New(p, cfg.SchedulerConfig(), log, nil)
	classifier := alerts.NewClassifier(cfg.Alerts, log, alerts.WithClock(clock))

	opts = append([]Option{WithClassifier(classifier), WithNow(clock.Now)}, opts...)

	return New(cfg, runner, store, log, opts...)
}

func findAlert(t *testing.T, list []models.Alert, key string) models.Alert {
	t.Helper()

	for _, a := range list {
		if a.Key == key {
			return a
		}
	}

	require.Failf(t, "alert not found", "key %s in %v", key, list)

	return models.Alert{}
}

func TestRunOnceRaisesAndResolvesAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := events.NewMockNotifier(ctrl)

	clock := newFakeClock()
	cfg := testConfig(t, testDevices())
	store := history.NewMemoryStore(0)

	cpu := map[string]float64{"core-1": 92, "edge-1": 10}
	gi1 := map[string]string{"core-1": "up", "edge-1": "up"}

	p := pollFunc(func(_ context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
		return observation(device, req, clock.Now(), cpu[device.Name], gi1[device.Name]), nil
	})

	var delivered [][]models.Alert

	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, batch []models.Alert) error {
			delivered = append(delivered, events.Deliverable(batch))
			return nil
		}).Times(3)

	m := newTestMonitor(t, cfg, p, store, clock, WithNotifier(notifier))
	ctx := context.Background()

	// first run: nothing to diff against, cpu is over the critical line
	first, err := m.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, first.Devices, 2)
	assert.Equal(t, "core-1", first.Devices[0].DeviceID)
	assert.Equal(t, "edge-1", first.Devices[1].DeviceID)
	assert.Equal(t, models.StatusCritical, mustDevice(t, first, "core-1").Status)
	assert.Equal(t, models.StatusGood, mustDevice(t, first, "edge-1").Status)
	assert.Empty(t, mustDevice(t, first, "core-1").Deltas)
	assert.NotEmpty(t, first.ID)

	cpuKey := alerts.MetricKey("core-1", models.MetricCPU)

	require.Len(t, first.Alerts, 1)
	cpuAlert := first.Alerts[0]
	assert.Equal(t, cpuKey, cpuAlert.Key)
	assert.Equal(t, models.SeverityCritical, cpuAlert.Severity)
	assert.Equal(t, models.AlertFiring, cpuAlert.State)
	assert.False(t, cpuAlert.Suppressed)

	summary := first.Summary()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Reachable)
	assert.Equal(t, []string{"core-1"}, summary.Critical)
	assert.Zero(t, summary.Changes)
	assert.Equal(t, 1, summary.Delivered)

	assert.Len(t, store.History("core-1"), 1)
	assert.Len(t, store.History("edge-1"), 1)

	// second run: Gi0/1 drops, cpu stays high inside its cooldown
	clock.Advance(time.Minute)
	gi1["core-1"] = "down"

	second, err := m.RunOnce(ctx)
	require.NoError(t, err)

	core := mustDevice(t, second, "core-1")
	require.NotNil(t, core)
	require.Len(t, core.Deltas, 1)
	assert.Equal(t, models.DomainInterface, core.Deltas[0].Domain)
	assert.Empty(t, mustDevice(t, second, "edge-1").Deltas)

	refreshed := findAlert(t, second.Alerts, cpuKey)
	assert.True(t, refreshed.Suppressed)
	assert.Equal(t, cpuAlert.ID, refreshed.ID)

	flap := findAlert(t, second.Alerts, alerts.DeltaKey("core-1", models.DomainInterface))
	assert.Equal(t, models.SeverityWarning, flap.Severity)
	assert.False(t, flap.Suppressed)
	assert.Positive(t, second.Summary().Changes)
	assert.Equal(t, 1, second.Summary().Delivered)

	// third run: cpu recovers and the interface table is quiet
	clock.Advance(time.Minute)
	cpu["core-1"] = 20

	third, err := m.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGood, mustDevice(t, third, "core-1").Status)
	assert.Equal(t, models.AlertResolved, findAlert(t, third.Alerts, cpuKey).State)
	assert.Equal(t, models.AlertResolved, findAlert(t, third.Alerts, flap.Key).State)
	assert.Empty(t, m.Firing())

	require.Len(t, delivered, 3)
	assert.Len(t, delivered[0], 1)
	assert.Len(t, delivered[1], 1)
	assert.Len(t, delivered[2], 2)
	assert.Len(t, store.History("core-1"), 3)
}

func TestRunOncePollFailureRaisesReachability(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(t, testDevices())
	store := history.NewMemoryStore(0)

	down := true

	p := pollFunc(func(_ context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
		if device.Name == "edge-1" && down {
			return nil, &session.ConnectError{Kind: session.KindAuth, Device: device.ID(), Attempts: 1,
				Err: errors.New("permission denied")}
		}

		return observation(device, req, clock.Now(), 10, "up"), nil
	})

	m := newTestMonitor(t, cfg, p, store, clock)

	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	edge := mustDevice(t, report, "edge-1")
	require.NotNil(t, edge)
	assert.False(t, edge.Reachable())
	assert.Equal(t, models.StatusUnknown, edge.Status)
	assert.Equal(t, string(scheduler.KindConnect), edge.State)
	assert.Contains(t, edge.Error, "auth")
	assert.Empty(t, store.History("edge-1"))

	reach := findAlert(t, report.Alerts, alerts.ReachabilityKey("edge-1"))
	assert.Equal(t, models.SeverityCritical, reach.Severity)
	assert.Equal(t, models.AlertFiring, reach.State)

	summary := report.Summary()
	assert.Equal(t, 1, summary.Reachable)
	assert.Equal(t, 1, summary.Unreachable)
	assert.Equal(t, 1, summary.ByState[string(scheduler.KindConnect)])

	firing := m.Firing()
	require.Len(t, firing, 1)
	assert.Equal(t, reach.Key, firing[0].Key)

	clock.Advance(time.Minute)

	down = false

	report, err = m.RunOnce(context.Background())
	require.NoError(t, err)
	recovered := mustDevice(t, report, "edge-1")
	assert.True(t, recovered.Reachable())
	assert.Equal(t, models.AlertResolved, findAlert(t, report.Alerts, reach.Key).State)
	assert.Empty(t, m.Firing())
}

func TestRunOnceSkipsSavingFailedObservation(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := history.NewMockStore(ctrl)

	clock := newFakeClock()
	cfg := testConfig(t, testDevices()[:1])

	p := pollFunc(func(_ context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
		obs := models.NewObservation(device, req.Metrics, clock.Now())
		for _, metric := range req.Metrics {
			obs.Fail(models.MetricFailure{Metric: metric, Kind: models.FailureCommand, Reason: "% Invalid input"})
		}

		obs.Finalize()

		return obs, nil
	})

	// no Save expectation: storing the empty observation fails the test
	store.EXPECT().Latest(gomock.Any(), "edge-1").Return(nil, nil)

	m := newTestMonitor(t, cfg, p, store, clock)

	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	edge := mustDevice(t, report, "edge-1")
	require.NotNil(t, edge)
	assert.Equal(t, string(models.ObservationFailed), edge.State)
	assert.Equal(t, models.StatusUnknown, edge.Status)
	assert.True(t, edge.Reachable())
	assert.Empty(t, report.Alerts)
}

func TestRunOnceHistoryReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := history.NewMockStore(ctrl)

	clock := newFakeClock()
	cfg := testConfig(t, testDevices()[:1])

	p := pollFunc(func(_ context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
		return observation(device, req, clock.Now(), 10, "up"), nil
	})

	store.EXPECT().Latest(gomock.Any(), "edge-1").Return(nil, errors.New("connection refused"))
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	m := newTestMonitor(t, cfg, p, store, clock)

	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	edge := mustDevice(t, report, "edge-1")
	require.NotNil(t, edge)
	assert.Equal(t, "connection refused", edge.HistoryError)
	assert.Nil(t, edge.Deltas)
	assert.Equal(t, models.StatusGood, edge.Status)
}

func TestRunOnceResolvesVendors(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockPollRunner(ctrl)
	resolver := NewMockVendorResolver(ctrl)

	devices := []*models.Device{
		{Name: "sw-1", Host: "10.0.1.1", Vendor: models.VendorAutodetect},
		{Name: "sw-2", Host: "10.0.1.2", Vendor: models.VendorAutodetect},
	}

	cfg := testConfig(t, devices)
	clock := newFakeClock()

	resolved := []*models.Device{
		{Name: "sw-1", Host: "10.0.1.1", Vendor: models.VendorLinux},
		devices[1],
	}

	resolver.EXPECT().Resolve(gomock.Any(), devices).
		Return(resolved, map[string]error{"sw-2": errors.New("unrecognized vendor")})

	runner.EXPECT().Run(gomock.Any(), resolved, cfg.Request()).
		DoAndReturn(func(_ context.Context, devs []*models.Device, req models.MetricRequest) <-chan scheduler.Result {
			out := make(chan scheduler.Result, len(devs))
			out <- scheduler.Result{Device: devs[0], Observation: observation(devs[0], req, clock.Now(), 5, "up")}
			out <- scheduler.Result{Device: devs[1], Err: &scheduler.PollError{
				Kind:     scheduler.KindInvalidDevice,
				DeviceID: "sw-2",
			}}
			close(out)

			return out
		})

	log := logger.NewTestLogger()
	m := New(cfg, runner, history.NewMemoryStore(0), log,
		WithResolver(resolver),
		WithClassifier(alerts.NewClassifier(cfg.Alerts, log, alerts.WithClock(clock))),
		WithNow(clock.Now))

	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"sw-2": "unrecognized vendor"}, report.DetectionErrors)
	assert.Equal(t, models.VendorLinux, mustDevice(t, report, "sw-1").Vendor)
	assert.Equal(t, string(scheduler.KindInvalidDevice), mustDevice(t, report, "sw-2").State)
}

func TestRunOnceRecordsNotifyError(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := events.NewMockNotifier(ctrl)

	clock := newFakeClock()
	cfg := testConfig(t, testDevices()[:1])

	p := pollFunc(func(_ context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
		return observation(device, req, clock.Now(), 99, "up"), nil
	})

	notifier.EXPECT().Notify(gomock.Any(), gomock.Len(1)).Return(errors.New("nats: no responders available"))

	m := newTestMonitor(t, cfg, p, history.NewMemoryStore(0), clock, WithNotifier(notifier))

	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nats: no responders available", report.NotifyError)
	assert.Len(t, report.Alerts, 1)
}

func TestRunOncePrunesHistory(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(t, testDevices())
	store := &pruningStore{MemoryStore: history.NewMemoryStore(0)}

	p := pollFunc(func(_ context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
		return observation(device, req, clock.Now(), 10, "up"), nil
	})

	m := newTestMonitor(t, cfg, p, store, clock)

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.pruned)
}

func TestRunOnceCanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockPollRunner(ctrl)

	cfg := testConfig(t, testDevices())
	m := New(cfg, runner, history.NewMemoryStore(0), logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := m.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestCloseRunsClosersInReverse(t *testing.T) {
	cfg := testConfig(t, testDevices())

	var order []string

	errStore := errors.New("pool close failed")

	m := New(cfg, nil, history.NewMemoryStore(0), logger.NewTestLogger(),
		WithCloser(func() error {
			order = append(order, "store")
			return errStore
		}),
		WithCloser(func() error {
			order = append(order, "nats")
			return nil
		}))

	require.ErrorIs(t, m.Close(), errStore)
	assert.Equal(t, []string{"nats", "store"}, order)

	// closers run once
	require.NoError(t, m.Close())
	assert.Len(t, order, 2)
}

func mustDevice(t *testing.T, r *RunReport, id string) DeviceReport {
	t.Helper()
	dr, ok := r.Device(id)
	require.True(t, ok, "device %q missing from report", id)
	return dr
}
