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

package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/netpoll/pkg/catalog"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/session"
)

const (
	cpuOutput = "CPU utilization for five seconds: 95%/2%; one minute: 92%; five minutes: 60%\n"
	memOutput = `                Head    Total(b)     Used(b)     Free(b)   Lowest(b)  Largest(b)
Processor   6680A250   400000000   100000000   300000000   290000000   280000000
`
)

var pollTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func iosDevice() *models.Device {
	return &models.Device{Name: "core-1", Host: "10.0.0.1", Vendor: models.VendorCiscoIOS, Site: "dc1"}
}

type fixture struct {
	sessions *MockSessionManager
	poller   *Poller
	handle   *session.Handle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)
	clock.EXPECT().Now().Return(pollTime).AnyTimes()

	sessions := NewMockSessionManager(ctrl)

	return &fixture{
		sessions: sessions,
		poller:   New(sessions, catalog.New(), clock, logger.NewTestLogger()),
		handle:   &session.Handle{},
	}
}

func ok(cmd, out string) models.RawCommandResult {
	return models.RawCommandResult{DeviceID: "core-1", Command: cmd, Output: out, Success: true, Attempts: 1, CapturedAt: pollTime}
}

func failed(cmd string, err error) models.RawCommandResult {
	return models.RawCommandResult{DeviceID: "core-1", Command: cmd, Attempts: 3, Err: err, Error: err.Error(), CapturedAt: pollTime}
}

func TestPollPartialWhenOneCommandTimesOut(t *testing.T) {
	f := newFixture(t)
	device := iosDevice()
	timeout := &session.ConnectError{Kind: session.KindTimeout, Device: "core-1", Attempts: 3, Err: context.DeadlineExceeded}

	gomock.InOrder(
		f.sessions.EXPECT().Acquire(gomock.Any(), device).Return(f.handle, nil),
		f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show processes cpu sorted").
			Return(ok("show processes cpu sorted", cpuOutput)),
		f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show memory statistics").
			Return(ok("show memory statistics", memOutput)),
		f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show environment temperature").
			Return(failed("show environment temperature", timeout)),
		f.sessions.EXPECT().Release(f.handle),
	)

	req := models.NewMetricRequest(models.MetricCPU, models.MetricMemory, models.MetricTemperature)

	obs, err := f.poller.Poll(context.Background(), device, req)
	require.NoError(t, err)

	assert.Equal(t, models.ObservationPartial, obs.State)
	assert.Len(t, obs.Records, 2)
	require.Len(t, obs.Failed, 1)
	assert.Equal(t, models.MetricTemperature, obs.Failed[0].Metric)
	assert.Equal(t, models.FailureTimeout, obs.Failed[0].Kind)
	assert.Equal(t, []models.MetricName{models.MetricCPU, models.MetricMemory}, obs.Order)
	assert.Equal(t, pollTime, obs.Timestamp)
	assert.Equal(t, "dc1", obs.Site)

	cpu, found := obs.Record(models.MetricCPU)
	require.True(t, found)
	assert.InDelta(t, 92, cpu.Value.Number, 0.001)
}

func TestPollSharesCommandOutput(t *testing.T) {
	f := newFixture(t)
	device := iosDevice()

	f.sessions.EXPECT().Acquire(gomock.Any(), device).Return(f.handle, nil)
	f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show memory statistics").
		Return(ok("show memory statistics", memOutput)).
		Times(1)
	f.sessions.EXPECT().Release(f.handle)

	obs, err := f.poller.Poll(context.Background(), device,
		models.NewMetricRequest(models.MetricMemory, models.MetricMemoryFree))
	require.NoError(t, err)

	assert.Equal(t, models.ObservationSuccess, obs.State)

	used, _ := obs.Record(models.MetricMemory)
	free, _ := obs.Record(models.MetricMemoryFree)
	assert.InDelta(t, 25, used.Value.Number, 0.001)
	assert.InDelta(t, 75, free.Value.Number, 0.001)
}

func TestPollUnsupportedMetricsNeverAcquire(t *testing.T) {
	f := newFixture(t)
	device := &models.Device{Name: "jump", Host: "10.0.0.9", Vendor: models.VendorLinux}

	obs, err := f.poller.Poll(context.Background(), device, models.NewMetricRequest(models.MetricConfig))
	require.NoError(t, err)

	assert.Equal(t, models.ObservationFailed, obs.State)
	require.Len(t, obs.Failed, 1)
	assert.Equal(t, models.FailureUnsupported, obs.Failed[0].Kind)
}

func TestPollAcquireFailure(t *testing.T) {
	f := newFixture(t)
	device := iosDevice()
	authErr := &session.ConnectError{Kind: session.KindAuth, Device: "core-1", Attempts: 1}

	f.sessions.EXPECT().Acquire(gomock.Any(), device).Return(nil, authErr)

	obs, err := f.poller.Poll(context.Background(), device, models.NewMetricRequest(models.MetricCPU))

	assert.Nil(t, obs)
	require.ErrorIs(t, err, session.ErrConnect)
}

func TestPollParseFailureKeepsRawOutput(t *testing.T) {
	f := newFixture(t)
	device := iosDevice()
	garbage := "banner motd\nwelcome\n"

	f.sessions.EXPECT().Acquire(gomock.Any(), device).Return(f.handle, nil)
	f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show processes cpu sorted").
		Return(ok("show processes cpu sorted", garbage))
	f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show ip interface brief").
		Return(ok("show ip interface brief", "% Invalid input detected at '^' marker.\n"))
	f.sessions.EXPECT().Release(f.handle)

	obs, err := f.poller.Poll(context.Background(), device,
		models.NewMetricRequest(models.MetricCPU, models.MetricInterfaces))
	require.NoError(t, err)

	assert.Equal(t, models.ObservationFailed, obs.State)
	require.Len(t, obs.Failed, 2)

	assert.Equal(t, models.FailureParse, obs.Failed[0].Kind)
	assert.Equal(t, garbage, obs.Failed[0].Raw)
	assert.Equal(t, models.FailureCommand, obs.Failed[1].Kind)
	assert.False(t, obs.Collected(models.MetricCPU))
}

func TestPollCommandErrorIsCommandFailure(t *testing.T) {
	f := newFixture(t)
	device := iosDevice()
	cmdErr := &session.CommandError{Command: "show version", ExitStatus: 1}

	f.sessions.EXPECT().Acquire(gomock.Any(), device).Return(f.handle, nil)
	f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show version").Return(failed("show version", cmdErr))
	f.sessions.EXPECT().Release(f.handle)

	obs, err := f.poller.Poll(context.Background(), device, models.NewMetricRequest(models.MetricVersion))
	require.NoError(t, err)

	require.Len(t, obs.Failed, 1)
	assert.Equal(t, models.FailureCommand, obs.Failed[0].Kind)
	assert.Equal(t, "show version", obs.Failed[0].Command)
}

func TestPollStopsIssuingCommandsAfterCancel(t *testing.T) {
	f := newFixture(t)
	device := iosDevice()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.sessions.EXPECT().Acquire(gomock.Any(), device).Return(f.handle, nil)
	f.sessions.EXPECT().RunCommand(gomock.Any(), f.handle, "show processes cpu sorted").
		DoAndReturn(func(context.Context, *session.Handle, string) models.RawCommandResult {
			cancel()
			return ok("show processes cpu sorted", cpuOutput)
		})
	f.sessions.EXPECT().Release(f.handle)

	obs, err := f.poller.Poll(ctx, device,
		models.NewMetricRequest(models.MetricCPU, models.MetricVersion, models.MetricUptime))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, obs)

	assert.True(t, obs.Collected(models.MetricCPU))
	assert.Equal(t, models.ObservationPartial, obs.State)

	require.Len(t, obs.Failed, 2)

	for _, fl := range obs.Failed {
		assert.Equal(t, models.FailureTimeout, fl.Kind)
	}
}

func TestPollNilDevice(t *testing.T) {
	f := newFixture(t)

	_, err := f.poller.Poll(context.Background(), nil, models.DefaultMetricRequest())
	require.True(t, errors.Is(err, ErrNilDevice))
}

func TestRealClockTicker(t *testing.T) {
	c := RealClock{}
	tk := c.Ticker(time.Millisecond)

	defer tk.Stop()

	select {
	case <-tk.Chan():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}

	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
