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

package hashutil

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSHA256String(t *testing.T) {
	sum := sha256.Sum256([]byte("hostname core-1"))

	cases := []struct {
		name       string
		input      string
		shouldFail bool
	}{
		{name: "hex lowercase", input: hex.EncodeToString(sum[:])},
		{name: "hex uppercase", input: strings.ToUpper(hex.EncodeToString(sum[:]))},
		{name: "base64 standard", input: base64.StdEncoding.EncodeToString(sum[:])},
		{name: "base64 url", input: base64.RawURLEncoding.EncodeToString(sum[:])},
		{name: "empty", input: "  ", shouldFail: true},
		{name: "unsupported encoding", input: "not*valid*digest", shouldFail: true},
		{name: "wrong length", input: "abcd", shouldFail: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeSHA256String(tc.input)
			if tc.shouldFail {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, sum[:], decoded)
		})
	}
}

func TestSHA256Hex(t *testing.T) {
	sum := sha256.Sum256([]byte("interface Gi0/1"))

	require.Equal(t, hex.EncodeToString(sum[:]), SHA256Hex("interface Gi0/1"))
}

func TestEqualDigests(t *testing.T) {
	a := SHA256Hex("version 15.2")
	sum := sha256.Sum256([]byte("version 15.2"))

	require.True(t, EqualDigests(a, base64.StdEncoding.EncodeToString(sum[:])))
	require.False(t, EqualDigests(a, SHA256Hex("version 15.3")))
	require.False(t, EqualDigests("", ""))
}

func TestEqualSHA256(t *testing.T) {
	digest := SHA256Hex("end")

	require.True(t, EqualSHA256(digest, "end"))
	require.True(t, EqualSHA256(strings.ToUpper(digest), "end"))
	require.False(t, EqualSHA256(digest, "end\n"))
	require.False(t, EqualSHA256("invalid", "end"))
}
