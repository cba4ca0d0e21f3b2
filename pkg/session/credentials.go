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
	"encoding/json"
	"fmt"
	"os"

	"github.com/carverauto/netpoll/pkg/models"
)

const redacted = "[REDACTED]"

// Credentials authenticate a management session. They are passed by value
// to the dialer and never logged or persisted: String, GoString and
// MarshalJSON all redact the secrets.
type Credentials struct {
	Username       string `json:"username"`
	Password       string `json:"password" sensitive:"true"`
	EnablePassword string `json:"enable_password,omitempty" sensitive:"true"`
}

func redact(s string) string {
	if s == "" {
		return ""
	}

	return redacted
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username:%q Password:%q EnablePassword:%q}",
		c.Username, redact(c.Password), redact(c.EnablePassword))
}

func (c Credentials) GoString() string { return c.String() }

func (c Credentials) MarshalJSON() ([]byte, error) {
	type view struct {
		Username       string `json:"username"`
		Password       string `json:"password"`
		EnablePassword string `json:"enable_password,omitempty"`
	}

	return json.Marshal(view{
		Username:       c.Username,
		Password:       redact(c.Password),
		EnablePassword: redact(c.EnablePassword),
	})
}

// CredentialSource supplies credentials for a device.
type CredentialSource interface {
	CredentialsFor(ctx context.Context, device *models.Device) (Credentials, error)
}

// StaticCredentials hands every device the same credentials.
type StaticCredentials Credentials

func (s StaticCredentials) CredentialsFor(context.Context, *models.Device) (Credentials, error) {
	if s.Password == "" {
		return Credentials{}, ErrNoCredentials
	}

	return Credentials(s), nil
}

// EnvCredentials reads NETWORK_USERNAME, NETWORK_PASSWORD and ENABLE_PASSWORD,
// falling back to DEFAULT_USERNAME, DEFAULT_PASSWORD and DEFAULT_SECRET.
type EnvCredentials struct {
	Lookup func(key string) (string, bool)
}

// NewEnvCredentials reads from the process environment.
func NewEnvCredentials() *EnvCredentials {
	return &EnvCredentials{Lookup: os.LookupEnv}
}

func (e *EnvCredentials) first(keys ...string) string {
	for _, k := range keys {
		if v, ok := e.Lookup(k); ok && v != "" {
			return v
		}
	}

	return ""
}

func (e *EnvCredentials) CredentialsFor(_ context.Context, device *models.Device) (Credentials, error) {
	c := Credentials{
		Username:       e.first("NETWORK_USERNAME", "DEFAULT_USERNAME"),
		Password:       e.first("NETWORK_PASSWORD", "DEFAULT_PASSWORD"),
		EnablePassword: e.first("ENABLE_PASSWORD", "DEFAULT_SECRET"),
	}

	if c.Username == "" || c.Password == "" {
		return Credentials{}, fmt.Errorf("%w for device %s", ErrNoCredentials, device.ID())
	}

	return c, nil
}
