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

package session

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

var testCreds = Credentials{Username: "netops", Password: "s3cret"}

func testDevice() *models.Device {
	return &models.Device{
		Name:   "core-1",
		Host:   "10.0.0.1",
		Vendor: models.VendorCiscoIOS,
		Retry: &models.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   models.Duration(time.Second),
			MaxDelay:    models.Duration(10 * time.Second),
		},
	}
}

type sleepLog struct {
	waits []time.Duration
}

func (s *sleepLog) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newTestManager(t *testing.T, ctrl *gomock.Controller) (*Manager, *MockDialer, *sleepLog) {
	t.Helper()

	dialer := NewMockDialer(ctrl)
	sl := &sleepLog{}

	m := NewManager(dialer, StaticCredentials(testCreds), logger.NewTestLogger(), WithSleep(sl.sleep))

	return m, dialer, sl
}

func TestAcquireRetriesTransientFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)

	gomock.InOrder(
		dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(nil, syscall.ECONNREFUSED),
		dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(nil, context.DeadlineExceeded),
		dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil),
	)

	h, err := m.Acquire(context.Background(), device)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sl.waits)

	sess.EXPECT().Close().Return(nil)
	m.Release(h)
}

func TestAcquireAuthFailureIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).
		Return(nil, errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]")).
		Times(1)

	_, err := m.Acquire(context.Background(), device)
	require.Error(t, err)

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindAuth, ce.Kind)
	assert.Equal(t, 1, ce.Attempts)
	assert.False(t, ce.Transient())
	assert.Empty(t, sl.waits)
	assert.ErrorIs(t, err, ErrConnect)
}

func TestAcquireExhaustsRetryBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(nil, context.DeadlineExceeded).Times(3)

	_, err := m.Acquire(context.Background(), device)

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindTimeout, ce.Kind)
	assert.Equal(t, 3, ce.Attempts)
	assert.Len(t, sl.waits, 2)
}

func TestAcquireRejectsUnknownVendor(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, _, _ := newTestManager(t, ctrl)

	for _, vendor := range []models.VendorTag{"", models.VendorAutodetect} {
		device := testDevice()
		device.Vendor = vendor

		_, err := m.Acquire(context.Background(), device)

		var ce *ConnectError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, KindUnknownVendor, ce.Kind)
	}
}

type vendorList []models.VendorTag

func (v vendorList) Supports(tag models.VendorTag) bool {
	for _, t := range v {
		if t == tag {
			return true
		}
	}

	return false
}

func TestAcquireChecksVendorSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(NewMockDialer(ctrl), StaticCredentials(testCreds), logger.NewTestLogger(),
		WithVendors(vendorList{models.VendorLinux}))

	_, err := m.Acquire(context.Background(), testDevice())

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindUnknownVendor, ce.Kind)
}

func TestAcquireWithoutCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	creds := NewMockCredentialSource(ctrl)
	device := testDevice()

	creds.EXPECT().CredentialsFor(gomock.Any(), device).Return(Credentials{}, ErrNoCredentials)

	m := NewManager(NewMockDialer(ctrl), creds, logger.NewTestLogger())

	_, err := m.Acquire(context.Background(), device)
	require.ErrorIs(t, err, ErrNoCredentials)

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindAuth, ce.Kind)
}

func TestRunCommandSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, _ := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	m.now = func() time.Time { return at }

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil)
	sess.EXPECT().Run(gomock.Any(), "show version").Return("Version 15.2", nil)
	sess.EXPECT().Close().Return(nil).Times(1)

	err := m.WithSession(context.Background(), device, func(ctx context.Context, h *Handle) error {
		res := m.RunCommand(ctx, h, "show version")

		assert.True(t, res.Success)
		assert.Equal(t, "Version 15.2", res.Output)
		assert.Equal(t, "core-1", res.DeviceID)
		assert.Equal(t, 1, res.Attempts)
		assert.Equal(t, at, res.CapturedAt)

		return nil
	})
	require.NoError(t, err)
}

func TestRunCommandReconnectsAfterTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()
	first := NewMockSession(ctrl)
	second := NewMockSession(ctrl)

	gomock.InOrder(
		dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(first, nil),
		first.EXPECT().Run(gomock.Any(), "show ip route").Return("", context.DeadlineExceeded),
		first.EXPECT().Close().Return(nil),
		dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(second, nil),
		second.EXPECT().Run(gomock.Any(), "show ip route").Return("Codes: C - connected", nil),
		second.EXPECT().Close().Return(nil),
	)

	h, err := m.Acquire(context.Background(), device)
	require.NoError(t, err)

	res := m.RunCommand(context.Background(), h, "show ip route")
	m.Release(h)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second}, sl.waits)
}

func TestRunCommandTimesOutAfterRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, _ := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil).Times(3)
	sess.EXPECT().Run(gomock.Any(), "show environment").Return("", context.DeadlineExceeded).Times(3)
	sess.EXPECT().Close().Return(nil).Times(3)

	h, err := m.Acquire(context.Background(), device)
	require.NoError(t, err)

	res := m.RunCommand(context.Background(), h, "show environment")
	m.Release(h)

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)

	var ce *ConnectError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, KindTimeout, ce.Kind)
	assert.NotEmpty(t, res.Error)
}

func TestRunCommandStopsRetryingNearDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)

	// a retry needs 1s backoff plus a 30s command timeout
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil).Times(1)
	sess.EXPECT().Run(gomock.Any(), "show environment").Return("", context.DeadlineExceeded).Times(1)
	sess.EXPECT().Close().Return(nil).Times(1)

	h, err := m.Acquire(ctx, device)
	require.NoError(t, err)

	res := m.RunCommand(ctx, h, "show environment")
	m.Release(h)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, sl.waits)

	var ce *ConnectError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, KindTimeout, ce.Kind)
}

func TestAcquireStopsRetryingNearDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(nil, syscall.ECONNREFUSED).Times(1)

	_, err := m.Acquire(ctx, device)

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindRefused, ce.Kind)
	assert.Equal(t, 1, ce.Attempts)
	assert.Empty(t, sl.waits)
}

func TestRunCommandDoesNotRetryRejectedCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil)
	sess.EXPECT().Run(gomock.Any(), "free -b").
		Return("free: not found", &CommandError{Command: "free -b", ExitStatus: 127}).
		Times(1)
	sess.EXPECT().Close().Return(nil)

	h, err := m.Acquire(context.Background(), device)
	require.NoError(t, err)

	res := m.RunCommand(context.Background(), h, "free -b")
	m.Release(h)

	assert.False(t, res.Success)
	assert.Equal(t, "free: not found", res.Output)
	assert.Empty(t, sl.waits)

	var cmdErr *CommandError
	require.ErrorAs(t, res.Err, &cmdErr)
	assert.Equal(t, 127, cmdErr.ExitStatus)
}

func TestRunCommandStopsWhenContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, sl := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil)
	sess.EXPECT().Run(gomock.Any(), "show ip route").DoAndReturn(func(context.Context, string) (string, error) {
		cancel()
		return "", context.Canceled
	})
	sess.EXPECT().Close().Return(nil)

	h, err := m.Acquire(ctx, device)
	require.NoError(t, err)

	res := m.RunCommand(ctx, h, "show ip route")
	m.Release(h)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, sl.waits)
}

func TestReleaseIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, _ := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil)
	sess.EXPECT().Close().Return(nil).Times(1)

	h, err := m.Acquire(context.Background(), device)
	require.NoError(t, err)

	m.Release(h)
	m.Release(h)
	m.Release(nil)

	res := m.RunCommand(context.Background(), h, "show version")
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrSessionClosed)
}

func TestWithSessionReleasesOnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, _ := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)
	boom := errors.New("boom")

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil)
	sess.EXPECT().Close().Return(nil).Times(1)

	err := m.WithSession(context.Background(), device, func(context.Context, *Handle) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestRunCommandRejectsConcurrentUse(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, dialer, _ := newTestManager(t, ctrl)
	device := testDevice()
	sess := NewMockSession(ctrl)

	started := make(chan struct{})
	release := make(chan struct{})

	dialer.EXPECT().Dial(gomock.Any(), device, testCreds).Return(sess, nil)
	sess.EXPECT().Run(gomock.Any(), "show version").DoAndReturn(func(context.Context, string) (string, error) {
		close(started)
		<-release

		return "ok", nil
	})
	sess.EXPECT().Close().Return(nil)

	h, err := m.Acquire(context.Background(), device)
	require.NoError(t, err)

	done := make(chan models.RawCommandResult)

	go func() { done <- m.RunCommand(context.Background(), h, "show version") }()

	<-started

	busy := m.RunCommand(context.Background(), h, "show clock")
	assert.ErrorIs(t, busy.Err, ErrSessionBusy)

	close(release)
	assert.True(t, (<-done).Success)

	m.Release(h)
}
