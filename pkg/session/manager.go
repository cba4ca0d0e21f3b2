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
	"sync"
	"time"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/metrics"
	"github.com/carverauto/netpoll/pkg/models"
)

// Manager acquires, retries and releases sessions. Every device has its own
// retry budget; nothing is shared between devices except the dialer.
type Manager struct {
	dialer   Dialer
	creds    CredentialSource
	vendors  VendorSet
	retry    models.RetryPolicy
	logger   logger.Logger
	recorder metrics.Recorder
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithVendors rejects devices whose vendor is not in set before dialing.
func WithVendors(set VendorSet) Option {
	return func(m *Manager) { m.vendors = set }
}

// WithRetryPolicy sets the policy for devices that carry none.
func WithRetryPolicy(p models.RetryPolicy) Option {
	return func(m *Manager) { m.retry = p.WithDefaults() }
}

// WithRecorder records dial and command outcomes.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) { m.recorder = metrics.OrNop(r) }
}

// WithSleep replaces the backoff wait, for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) { m.sleep = fn }
}

// WithClock replaces the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager around dialer and creds.
func NewManager(dialer Dialer, creds CredentialSource, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		dialer:   dialer,
		creds:    creds,
		retry:    models.DefaultRetryPolicy(),
		logger:   log,
		recorder: metrics.NopRecorder{},
		sleep:    sleepContext,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Handle is an acquired session. It belongs to a single caller; concurrent
// RunCommand calls on one Handle fail with ErrSessionBusy.
type Handle struct {
	device *models.Device
	creds  Credentials

	busy sync.Mutex

	mu     sync.Mutex
	sess   Session
	closed bool
}

// Device returns the device the handle is connected to.
func (h *Handle) Device() *models.Device { return h.device }

func (h *Handle) current() (Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrSessionClosed
	}

	return h.sess, nil
}

// replace installs sess, or closes it when the handle was released meanwhile.
func (h *Handle) replace(sess Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		if sess != nil {
			_ = sess.Close()
		}

		return ErrSessionClosed
	}

	h.sess = sess

	return nil
}

func (h *Handle) drop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sess != nil {
		_ = h.sess.Close()
		h.sess = nil
	}
}

func (m *Manager) checkVendor(device *models.Device) *ConnectError {
	v := device.Vendor
	if v == "" || v == models.VendorAutodetect || (m.vendors != nil && !m.vendors.Supports(v)) {
		return &ConnectError{
			Kind:   KindUnknownVendor,
			Device: device.ID(),
			Err:    errors.New("vendor " + string(v) + " is not supported"),
		}
	}

	return nil
}

// Acquire opens a session to device, retrying transient failures with
// exponential backoff. Authentication failures and unknown vendors fail
// on the first attempt.
func (m *Manager) Acquire(ctx context.Context, device *models.Device) (*Handle, error) {
	if ce := m.checkVendor(device); ce != nil {
		return nil, ce
	}

	creds, err := m.creds.CredentialsFor(ctx, device)
	if err != nil {
		return nil, &ConnectError{Kind: KindAuth, Device: device.ID(), Attempts: 0, Err: err}
	}

	policy := device.RetryPolicyOr(m.retry)

	var last *ConnectError

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if !m.fits(ctx, device, policy, attempt) {
				break
			}

			if err := m.backoff(ctx, device, policy, attempt, last); err != nil {
				break
			}
		}

		sess, ce := m.dialOnce(ctx, device, creds)
		if ce == nil {
			return &Handle{device: device, creds: creds, sess: sess}, nil
		}

		ce.Attempts = attempt + 1
		last = ce

		if !ce.Transient() || ctx.Err() != nil {
			break
		}
	}

	if last == nil {
		last = &ConnectError{Kind: KindTimeout, Device: device.ID(), Err: ctx.Err()}
	}

	return nil, last
}

// fits reports whether another attempt, backoff included, ends before the
// ctx deadline.
func (m *Manager) fits(ctx context.Context, device *models.Device, policy models.RetryPolicy, attempt int) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}

	need := policy.Backoff(attempt-1) + device.CommandTimeout()
	if time.Until(deadline) >= need {
		return true
	}

	m.logger.Debug().
		Str("device", device.ID()).
		Int("attempt", attempt+1).
		Dur("remaining", time.Until(deadline)).
		Msg("Not retrying, attempt would outlive the deadline")

	return false
}

func (m *Manager) backoff(ctx context.Context, device *models.Device, policy models.RetryPolicy, attempt int, last error) error {
	wait := policy.Backoff(attempt - 1)

	m.logger.Debug().
		Str("device", device.ID()).
		Int("attempt", attempt+1).
		Dur("backoff", wait).
		AnErr("last_error", last).
		Msg("Retrying after transient failure")

	return m.sleep(ctx, wait)
}

func (m *Manager) dialOnce(ctx context.Context, device *models.Device, creds Credentials) (Session, *ConnectError) {
	dctx, cancel := context.WithTimeout(ctx, device.CommandTimeout())
	defer cancel()

	sess, err := m.dialer.Dial(dctx, device, creds)
	if err == nil {
		m.recorder.ConnectAttempt(string(device.Vendor), "ok")
		return sess, nil
	}

	ce := Classify(err)
	if ce.Device == "" {
		ce.Device = device.ID()
	}

	m.recorder.ConnectAttempt(string(device.Vendor), string(ce.Kind))

	m.logger.Debug().
		Str("device", device.ID()).
		Str("kind", string(ce.Kind)).
		Err(err).
		Msg("Connect attempt failed")

	return nil, ce
}

// RunCommand issues command on h and returns the captured result. Transient
// transport failures (timeout, dropped session) reconnect and retry within
// the device's retry budget; a command the device rejects is returned as a
// failed result immediately.
func (m *Manager) RunCommand(ctx context.Context, h *Handle, command string) models.RawCommandResult {
	res := models.RawCommandResult{DeviceID: h.device.ID(), Command: command}

	fail := func(err error) models.RawCommandResult {
		res.Success = false
		res.Err = err
		res.Error = err.Error()
		res.CapturedAt = m.now()

		return res
	}

	if !h.busy.TryLock() {
		return fail(ErrSessionBusy)
	}
	defer h.busy.Unlock()

	policy := h.device.RetryPolicyOr(m.retry)

	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if !m.fits(ctx, h.device, policy, attempt) {
				break
			}

			if err := m.backoff(ctx, h.device, policy, attempt, lastErr); err != nil {
				break
			}
		}

		res.Attempts = attempt + 1

		out, err := m.exec(ctx, h, command)
		if err == nil {
			res.Output = out
			res.Success = true
			res.CapturedAt = m.now()

			return res
		}

		res.Output = out
		lastErr = err

		var cmdErr *CommandError
		if errors.As(err, &cmdErr) || errors.Is(err, ErrSessionClosed) || !IsTransient(err) || ctx.Err() != nil {
			break
		}

		// the session may be wedged mid-command; start fresh
		h.drop()
	}

	if lastErr == nil {
		lastErr = &ConnectError{Kind: KindTimeout, Device: h.device.ID(), Err: ctx.Err()}
	}

	return fail(lastErr)
}

func (m *Manager) exec(ctx context.Context, h *Handle, command string) (string, error) {
	sess, err := h.current()
	if err != nil {
		return "", err
	}

	if sess == nil {
		var ce *ConnectError

		sess, ce = m.dialOnce(ctx, h.device, h.creds)
		if ce != nil {
			return "", ce
		}

		if err := h.replace(sess); err != nil {
			return "", err
		}
	}

	cctx, cancel := context.WithTimeout(ctx, h.device.CommandTimeout())
	defer cancel()

	start := time.Now()
	out, err := sess.Run(cctx, command)
	m.recorder.Command(string(h.device.Vendor), err == nil, time.Since(start))

	if err == nil {
		return out, nil
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return out, err
	}

	ce := Classify(err)
	if ce.Device == "" {
		ce.Device = h.device.ID()
	}

	m.logger.Debug().
		Str("device", h.device.ID()).
		Str("command", command).
		Str("kind", string(ce.Kind)).
		Err(err).
		Msg("Command failed")

	return out, ce
}

// Release closes the session. It is safe to call more than once and from
// another goroutine while a command is in flight, which aborts that command.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	if h.sess != nil {
		if err := h.sess.Close(); err != nil {
			m.logger.Debug().Str("device", h.device.ID()).Err(err).Msg("Session close failed")
		}

		h.sess = nil
	}
}

// WithSession acquires a session, runs fn and releases the session on every
// exit path, including a panic in fn.
func (m *Manager) WithSession(ctx context.Context, device *models.Device, fn func(ctx context.Context, h *Handle) error) error {
	h, err := m.Acquire(ctx, device)
	if err != nil {
		return err
	}
	defer m.Release(h)

	return fn(ctx, h)
}
