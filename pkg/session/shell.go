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
	"regexp"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/carverauto/netpoll/pkg/models"
)

const shellReadSize = 4096

var (
	errEnableRejected = errors.New("enable secret rejected")

	promptRe   = regexp.MustCompile(`^[\w.\-@()/:]+[>#]$`)
	passwordRe = regexp.MustCompile(`(?i)password:$`)
)

// needsEnable reports whether vendor reaches privileged commands through
// the enable prompt of an interactive shell.
func needsEnable(vendor models.VendorTag, creds Credentials) bool {
	if creds.EnablePassword == "" {
		return false
	}

	return vendor == models.VendorCiscoIOS || vendor == models.VendorCiscoXE
}

// shellSession drives one interactive CLI after enable escalation. Every
// command is written to the shell and its output read back up to the next
// privileged prompt.
type shellSession struct {
	client *ssh.Client
	sess   *ssh.Session
	stdin  io.Writer
	stdout io.Reader

	buf    []byte
	prompt string
	broken bool
}

// lastLine is the unterminated tail of b, where a prompt appears.
func lastLine(b []byte) string {
	s := strings.TrimRight(string(b), " ")
	i := strings.LastIndexAny(s, "\r\n")

	return strings.TrimSpace(s[i+1:])
}

func openShell(ctx context.Context, client *ssh.Client, creds Credentials) (*shellSession, error) {
	sess, err := client.NewSession()
	if err != nil {
		return nil, err
	}

	s := &shellSession{client: client, sess: sess}

	if err := s.start(ctx, creds); err != nil {
		_ = sess.Close()
		return nil, err
	}

	return s, nil
}

func (s *shellSession) start(ctx context.Context, creds Credentials) error {
	var err error

	if s.stdin, err = s.sess.StdinPipe(); err != nil {
		return err
	}

	if s.stdout, err = s.sess.StdoutPipe(); err != nil {
		return err
	}

	if err := s.sess.RequestPty("vt100", 0, 511, ssh.TerminalModes{ssh.ECHO: 0}); err != nil {
		return fmt.Errorf("pty request: %w", err)
	}

	if err := s.sess.Shell(); err != nil {
		return fmt.Errorf("shell request: %w", err)
	}

	if _, err := s.expect(ctx, func(l string) bool { return promptRe.MatchString(l) }); err != nil {
		return err
	}

	if err := s.enable(ctx, creds.EnablePassword); err != nil {
		return err
	}

	_, err = s.exchange(ctx, "terminal length 0")

	return err
}

func (s *shellSession) enable(ctx context.Context, secret string) error {
	if strings.HasSuffix(s.prompt, "#") {
		return nil
	}

	if err := s.send("enable"); err != nil {
		return err
	}

	promptOrPassword := func(l string) bool { return promptRe.MatchString(l) || passwordRe.MatchString(l) }

	if _, err := s.expect(ctx, promptOrPassword); err != nil {
		return err
	}

	if passwordRe.MatchString(s.prompt) {
		if err := s.send(secret); err != nil {
			return err
		}

		if _, err := s.expect(ctx, promptOrPassword); err != nil {
			return err
		}
	}

	if !strings.HasSuffix(s.prompt, "#") {
		return &ConnectError{Kind: KindAuth, Err: errEnableRejected}
	}

	return nil
}

func (s *shellSession) send(line string) error {
	_, err := io.WriteString(s.stdin, line+"\n")
	return err
}

// expect reads until the last line of output satisfies done, which then
// becomes the current prompt. Output before that line is returned.
func (s *shellSession) expect(ctx context.Context, done func(line string) bool) (string, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.sess.Close() })
	defer stop()

	chunk := make([]byte, shellReadSize)

	for {
		if l := lastLine(s.buf); l != "" && done(l) {
			s.prompt = l

			out := strings.TrimSuffix(strings.TrimRight(string(s.buf), " "), l)
			s.buf = s.buf[:0]

			return out, nil
		}

		n, err := s.stdout.Read(chunk)
		s.buf = append(s.buf, chunk[:n]...)

		if err != nil {
			s.broken = true

			if ctx.Err() != nil {
				return string(s.buf), ctx.Err()
			}

			return string(s.buf), err
		}
	}
}

// exchange runs command and returns its output without the echoed command
// line or the trailing prompt.
func (s *shellSession) exchange(ctx context.Context, command string) (string, error) {
	if err := s.send(command); err != nil {
		return "", err
	}

	prompt := s.prompt

	out, err := s.expect(ctx, func(l string) bool { return l == prompt })
	if err != nil {
		return out, err
	}

	out = strings.ReplaceAll(out, "\r", "")

	if first, rest, _ := strings.Cut(out, "\n"); strings.HasSuffix(strings.TrimSpace(first), command) {
		out = rest
	}

	return out, nil
}

// Run issues command on the shared shell. A cancelled command leaves the
// shell mid-output, so the session is unusable afterwards.
func (s *shellSession) Run(ctx context.Context, command string) (string, error) {
	if s.broken {
		return "", net.ErrClosed
	}

	return s.exchange(ctx, command)
}

func (s *shellSession) Close() error {
	_ = s.sess.Close()
	return s.client.Close()
}
