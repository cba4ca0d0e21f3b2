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

package catalog

import (
	"encoding/json"
	"net"
	"net/netip"
	"strings"

	"github.com/carverauto/netpoll/pkg/hashutil"
	"github.com/carverauto/netpoll/pkg/models"
)

// lines splits output into right-trimmed lines, tolerating CRLF and a
// trailing prompt-free blank line.
func lines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "")

	out := strings.Split(raw, "\n")
	for i, l := range out {
		out[i] = strings.TrimRight(l, " \t")
	}

	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// hasMarker reports whether any line contains one of markers (case-insensitive).
func hasMarker(raw string, markers ...string) bool {
	for _, m := range markers {
		if containsFold(raw, m) {
			return true
		}
	}

	return false
}

// normalizeMAC returns the colon separated lowercase form of any
// notation net.ParseMAC accepts (including Cisco dotted quads).
func normalizeMAC(s string) (string, bool) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil || len(hw) != 6 {
		return "", false
	}

	return hw.String(), true
}

// normalizePrefix returns the masked CIDR form of s. A bare address becomes a host route.
func normalizePrefix(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "default" {
		return "0.0.0.0/0", true
	}

	if p, err := netip.ParsePrefix(s); err == nil {
		return p.Masked().String(), true
	}

	if a, err := netip.ParseAddr(s); err == nil {
		return netip.PrefixFrom(a, a.BitLen()).String(), true
	}

	return "", false
}

// decodeJSON parses structured output, skipping any banner printed before the first brace.
func decodeJSON(raw string, v any) error {
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return failf("no JSON document in output")
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(raw[start:])), v); err != nil {
		return failf("invalid JSON output: %v", err)
	}

	return nil
}

// rowList decodes a field that vendors emit as an object for a single row
// and as an array otherwise.
func rowList[T any](msg json.RawMessage) ([]T, error) {
	trimmed := strings.TrimSpace(string(msg))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var rows []T
		if err := json.Unmarshal(msg, &rows); err != nil {
			return nil, failf("invalid row list: %v", err)
		}

		return rows, nil
	}

	var row T
	if err := json.Unmarshal(msg, &row); err != nil {
		return nil, failf("invalid row: %v", err)
	}

	return []T{row}, nil
}

var volatileConfigPrefixes = []string{
	"building configuration",
	"current configuration :",
	"! last configuration change",
	"! nvram config last updated",
	"! time:",
	"ntp clock-period",
	"## last commit:",
	"## last changed:",
	"! command: show running-config",
}

// parseConfig keeps the configuration text minus volatile banner lines and
// records its digest so identical configs compare without a line diff.
func parseConfig(raw string) (models.MetricValue, string, error) {
	kept := make([]string, 0, 256)

	for _, l := range lines(raw) {
		lower := strings.ToLower(strings.TrimSpace(l))
		if isVolatileConfigLine(lower) {
			continue
		}

		kept = append(kept, l)
	}

	for len(kept) > 0 && strings.TrimSpace(kept[0]) == "" {
		kept = kept[1:]
	}

	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}

	if len(kept) == 0 {
		return models.MetricValue{}, "", failf("empty configuration")
	}

	text := strings.Join(kept, "\n")

	v := models.TextValue(text)
	v.Digest = hashutil.SHA256Hex(text)

	return v, models.UnitNone, nil
}

func isVolatileConfigLine(lower string) bool {
	for _, p := range volatileConfigPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}

	return false
}

var componentStates = map[string]string{
	"ok":          "ok",
	"good":        "ok",
	"normal":      "ok",
	"green":       "ok",
	"powered":     "ok",
	"present":     "ok",
	"warning":     "warning",
	"degraded":    "degraded",
	"yellow":      "warning",
	"failed":      "failed",
	"fail":        "failed",
	"faulty":      "failed",
	"bad":         "failed",
	"critical":    "critical",
	"red":         "critical",
	"absent":      "absent",
	"off":         "off",
	"shutdown":    "off",
	"powerloss":   "failed",
	"notinserted": "absent",
}

// componentState maps a vendor status word to the normalised state.
func componentState(word string) (string, bool) {
	s, ok := componentStates[strings.ToLower(strings.Trim(word, ",.;"))]

	return s, ok
}

// parseComponentRows extracts "<name...> <status> [...]" rows from lines
// accepted by keep. "Not Present" is read as absent.
func parseComponentRows(raw string, keep func(line string) bool) []models.ComponentState {
	var out []models.ComponentState

	for _, l := range lines(raw) {
		if strings.TrimSpace(l) == "" || !keep(l) {
			continue
		}

		fields := strings.Fields(l)

		for i := 1; i < len(fields); i++ {
			state, ok := componentState(fields[i])
			if strings.EqualFold(fields[i], "not") && i+1 < len(fields) && strings.EqualFold(fields[i+1], "present") {
				state, ok = "absent", true
			}

			if !ok {
				continue
			}

			out = append(out, models.ComponentState{
				Name:  strings.Join(fields[:i], " "),
				State: state,
			})

			break
		}
	}

	return out
}
