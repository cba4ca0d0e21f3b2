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
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/net/proxy"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

var errInsecureWithoutOptIn = errors.New("known_hosts file is required unless insecure host keys are allowed")

// SSHConfig configures the SSH management channel.
type SSHConfig struct {
	// KnownHostsFile verifies device host keys.
	KnownHostsFile string `json:"known_hosts"`
	// InsecureIgnoreHostKey skips host key verification. Lab use only.
	InsecureIgnoreHostKey bool `json:"insecure_ignore_host_key"`
	// Proxy is a default SOCKS5 jump proxy (socks5://host:port); a device's own
	// Proxy takes precedence.
	Proxy string `json:"proxy,omitempty"`
	// Ciphers are appended to the default client cipher list for older platforms.
	Ciphers []string `json:"ciphers,omitempty"`
}

// SSHDialer opens exec-channel sessions over golang.org/x/crypto/ssh. Cisco
// IOS devices with an enable secret get an interactive privileged shell
// instead.
type SSHDialer struct {
	config          SSHConfig
	hostKeyCallback ssh.HostKeyCallback
	logger          logger.Logger
}

// NewSSHDialer validates cfg and loads the known_hosts file.
func NewSSHDialer(cfg SSHConfig, log logger.Logger) (*SSHDialer, error) {
	d := &SSHDialer{config: cfg, logger: log}

	switch {
	case cfg.KnownHostsFile != "":
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}

		d.hostKeyCallback = cb
	case cfg.InsecureIgnoreHostKey:
		log.Warn().Msg("SSH host key verification disabled")

		d.hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // explicit opt-in
	default:
		return nil, errInsecureWithoutOptIn
	}

	return d, nil
}

func (d *SSHDialer) clientConfig(device *models.Device, creds Credentials) *ssh.ClientConfig {
	password := creds.Password

	cfg := &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// many network operating systems only offer keyboard-interactive
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}

				return answers, nil
			}),
		},
		HostKeyCallback: d.hostKeyCallback,
		Timeout:         device.CommandTimeout(),
	}

	if len(d.config.Ciphers) > 0 {
		cfg.Ciphers = append(ssh.SupportedAlgorithms().Ciphers, d.config.Ciphers...)
	}

	return cfg
}

func (d *SSHDialer) netDialer(device *models.Device) (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: device.CommandTimeout(), KeepAlive: 30 * time.Second}

	raw := device.Proxy
	if raw == "" {
		raw = d.config.Proxy
	}

	if raw == "" {
		return direct, nil
	}

	if !strings.Contains(raw, "://") {
		raw = "socks5://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
	}

	pd, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", u.Redacted(), err)
	}

	cd, ok := pd.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy %q does not support context dialing", u.Redacted())
	}

	return cd, nil
}

// Dial makes one connection attempt. Context cancellation aborts the TCP
// connect and the SSH handshake.
func (d *SSHDialer) Dial(ctx context.Context, device *models.Device, creds Credentials) (Session, error) {
	nd, err := d.netDialer(device)
	if err != nil {
		return nil, &ConnectError{Kind: KindUnreachable, Device: device.ID(), Err: err}
	}

	addr := device.Address()

	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, d.clientConfig(device, creds))
	if !stop() {
		if err == nil {
			_ = c.Close()
		}

		return nil, ctx.Err()
	}

	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	_ = conn.SetDeadline(time.Time{})

	d.logger.Debug().
		Str("device", device.ID()).
		Str("host", addr).
		Str("server_version", string(c.ServerVersion())).
		Msg("SSH session established")

	client := ssh.NewClient(c, chans, reqs)

	if needsEnable(device.Vendor, creds) {
		shell, err := openShell(ctx, client, creds)
		if err != nil {
			_ = client.Close()
			return nil, err
		}

		d.logger.Debug().Str("device", device.ID()).Msg("Privileged shell ready")

		return shell, nil
	}

	return &sshSession{client: client}, nil
}

type sshSession struct {
	client *ssh.Client
}

// Run opens one exec channel per command.
func (s *sshSession) Run(ctx context.Context, command string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", err
	}
	defer func() { _ = sess.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = sess.Close() })

	out, err := sess.CombinedOutput(command)
	if !stop() {
		return string(out), ctx.Err()
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return string(out), &CommandError{Command: command, ExitStatus: exitErr.ExitStatus(), Err: err}
	}

	return string(out), err
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
