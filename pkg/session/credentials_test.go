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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netpoll/pkg/models"
)

func TestCredentialsNeverPrintSecrets(t *testing.T) {
	c := Credentials{Username: "netops", Password: "hunter2", EnablePassword: "en4ble"}

	for _, s := range []string{c.String(), fmt.Sprintf("%v", c), fmt.Sprintf("%+v", c), fmt.Sprintf("%#v", c)} {
		assert.NotContains(t, s, "hunter2")
		assert.NotContains(t, s, "en4ble")
		assert.Contains(t, s, "netops")
	}

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"netops","password":"[REDACTED]","enable_password":"[REDACTED]"}`, string(b))
}

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestEnvCredentials(t *testing.T) {
	device := &models.Device{Name: "core-1", Host: "10.0.0.1"}

	tests := []struct {
		name    string
		env     map[string]string
		want    Credentials
		wantErr bool
	}{
		{
			name: "network variables",
			env:  map[string]string{"NETWORK_USERNAME": "a", "NETWORK_PASSWORD": "b", "ENABLE_PASSWORD": "c"},
			want: Credentials{Username: "a", Password: "b", EnablePassword: "c"},
		},
		{
			name: "default fallbacks",
			env:  map[string]string{"DEFAULT_USERNAME": "x", "DEFAULT_PASSWORD": "y", "DEFAULT_SECRET": "z"},
			want: Credentials{Username: "x", Password: "y", EnablePassword: "z"},
		},
		{
			name: "network wins over default",
			env:  map[string]string{"NETWORK_USERNAME": "a", "DEFAULT_USERNAME": "x", "DEFAULT_PASSWORD": "y"},
			want: Credentials{Username: "a", Password: "y"},
		},
		{
			name:    "missing password",
			env:     map[string]string{"NETWORK_USERNAME": "a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &EnvCredentials{Lookup: envFrom(tt.env)}

			got, err := src.CredentialsFor(context.Background(), device)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoCredentials)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticCredentials(t *testing.T) {
	_, err := StaticCredentials{Username: "a"}.CredentialsFor(context.Background(), &models.Device{})
	require.ErrorIs(t, err, ErrNoCredentials)

	c, err := StaticCredentials{Username: "a", Password: "b"}.CredentialsFor(context.Background(), &models.Device{})
	require.NoError(t, err)
	assert.Equal(t, "a", c.Username)
}
