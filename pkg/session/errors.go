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
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var (
	ErrConnect       = errors.New("connect failed")
	ErrSessionClosed = errors.New("session closed")
	ErrSessionBusy   = errors.New("session already in use")
	ErrNoCredentials = errors.New("no credentials available")
)

// Kind classifies a management channel failure.
type Kind string

const (
	KindTimeout       Kind = "timeout"
	KindRefused       Kind = "refused"
	KindRateLimited   Kind = "rate_limited"
	KindAuth          Kind = "auth"
	KindUnreachable   Kind = "unreachable"
	KindUnknownVendor Kind = "unknown_vendor"
	KindClosed        Kind = "closed"
)

// Transient reports whether a failure of this kind may succeed on retry.
func (k Kind) Transient() bool {
	switch k {
	case KindTimeout, KindRefused, KindRateLimited, KindClosed:
		return true
	case KindAuth, KindUnreachable, KindUnknownVendor:
		return false
	}

	return false
}

// ConnectError is a failure to establish or keep a session to a device.
type ConnectError struct {
	Kind     Kind
	Device   string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	msg := fmt.Sprintf("connect %s: %s", e.Device, e.Kind)

	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *ConnectError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConnect}
	}

	return []error{ErrConnect, e.Err}
}

// Transient reports whether the failure is worth retrying.
func (e *ConnectError) Transient() bool {
	return e.Kind.Transient()
}

// CommandError means the device ran the command and reported failure.
// It is never retried.
type CommandError struct {
	Command    string
	ExitStatus int
	Err        error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitStatus)
}

func (e *CommandError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable ConnectError.
func IsTransient(err error) bool {
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.Transient()
	}

	return false
}

// Classify maps a transport error onto a ConnectError. Errors that
// already are ConnectErrors are returned unchanged.
func Classify(err error) *ConnectError {
	if err == nil {
		return nil
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce
	}

	return &ConnectError{Kind: classifyKind(err), Err: err}
}

func classifyKind(err error) Kind {
	var (
		netErr  net.Error
		dnsErr  *net.DNSError
		keyErr  *knownhosts.KeyError
		revoked *knownhosts.RevokedError
	)

	msg := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrNoCredentials), errors.As(err, &keyErr), errors.As(err, &revoked):
		return KindAuth
	case strings.Contains(msg, "too many"), strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "maxstartups"):
		return KindRateLimited
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "permission denied"):
		return KindAuth
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindRefused
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH), errors.As(err, &dnsErr):
		return KindUnreachable
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.Is(err, ErrSessionClosed), errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET), strings.Contains(msg, "connection reset"):
		// sshd drops surplus unauthenticated connections without a banner
		return KindClosed
	}

	var openErr *ssh.OpenChannelError
	if errors.As(err, &openErr) {
		return KindRateLimited
	}

	return KindUnreachable
}
