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

// Package hashutil fingerprints collected text so unchanged content can be
// recognised without a line-by-line comparison.
package hashutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	errEmptyDigest       = errors.New("empty digest string")
	errUnsupportedDigest = errors.New("unsupported digest encoding")
)

// SHA256Hex returns the lowercase hex SHA-256 of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))

	return hex.EncodeToString(sum[:])
}

// DecodeSHA256String decodes a digest that may be hex or base64/base64url
// encoded and returns the raw 32-byte value.
func DecodeSHA256String(s string) ([]byte, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return nil, errEmptyDigest
	}

	if decoded, err := hex.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
		return decoded, nil
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if decoded, err := enc.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
			return decoded, nil
		}
	}

	return nil, errUnsupportedDigest
}

// EqualDigests reports whether two encoded digests name the same content.
// An empty or malformed digest never matches.
func EqualDigests(a, b string) bool {
	da, err := DecodeSHA256String(a)
	if err != nil {
		return false
	}

	db, err := DecodeSHA256String(b)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(da, db) == 1
}

// EqualSHA256 reports whether the encoded digest matches the content s.
func EqualSHA256(expected, s string) bool {
	decoded, err := DecodeSHA256String(expected)
	if err != nil {
		return false
	}

	sum := sha256.Sum256([]byte(s))

	return subtle.ConstantTimeCompare(decoded, sum[:]) == 1
}
