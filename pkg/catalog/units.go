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
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	percentRe = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*%?\s*$`)
	celsiusRe = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*(?:°\s*)?(?:degrees?\s*)?(?:c\b|celsius)`)
	durUnitRe = regexp.MustCompile(`(?i)(\d+)\s*(years?|weeks?|days?|hours?|minutes?|seconds?|y|w|d|h|m|s)\b`)
	clockRe   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::(\d{2}))?\b`)
	compactRe = regexp.MustCompile(`^(?:(\d+)y)?(?:(\d+)w)?(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?$`)
)

// ParsePercent reads "75%", "75 %" or "75" as 75.
func ParsePercent(s string) (float64, error) {
	m := percentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, failf("not a percentage: %q", s)
	}

	return strconv.ParseFloat(m[1], 64)
}

// ParseBytes reads sizes such as "1,234,567 bytes", "512K" or "2 GiB".
func ParseBytes(s string) (uint64, error) {
	clean := strings.TrimSpace(s)
	lower := strings.ToLower(clean)

	for _, suffix := range []string{"bytes", "byte"} {
		if strings.HasSuffix(lower, suffix) {
			clean = strings.TrimSpace(clean[:len(clean)-len(suffix)])
			break
		}
	}

	if clean == "" {
		return 0, failf("empty size")
	}

	n, err := humanize.ParseBytes(clean)
	if err != nil {
		return 0, failf("not a size: %q", s)
	}

	return n, nil
}

// ParseCelsius returns the hottest reading found in s, ignoring Fahrenheit.
func ParseCelsius(s string) (float64, error) {
	matches := celsiusRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, failf("no celsius reading")
	}

	hottest := math.Inf(-1)

	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}

		hottest = math.Max(hottest, v)
	}

	if math.IsInf(hottest, -1) {
		return 0, failf("no celsius reading")
	}

	return hottest, nil
}

var durationUnits = map[byte]float64{
	'y': 365 * 24 * 3600,
	'w': 7 * 24 * 3600,
	'd': 24 * 3600,
	'h': 3600,
	'm': 60,
	's': 1,
}

// ParseUptime converts human uptime text to seconds. It understands
// "2 weeks, 3 days, 4 hours, 5 minutes", "12 days, 3:04", "1w2d" and
// a bare number of seconds.
func ParseUptime(s string) (float64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, failf("empty uptime")
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}

	if m := compactRe.FindStringSubmatch(text); m != nil {
		total := 0.0
		for i, unit := range []byte{'y', 'w', 'd', 'h', 'm'} {
			if m[i+1] == "" {
				continue
			}

			n, _ := strconv.Atoi(m[i+1])
			total += float64(n) * durationUnits[unit]
		}

		return total, nil
	}

	total := 0.0
	found := false

	for _, m := range durUnitRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		total += float64(n) * durationUnits[strings.ToLower(m[2])[0]]
		found = true
	}

	if m := clockRe.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		secs := 0

		if m[3] != "" {
			secs, _ = strconv.Atoi(m[3])
		}

		total += float64(h*3600 + mins*60 + secs)
		found = true
	}

	if !found {
		return 0, failf("unrecognised uptime %q", s)
	}

	return total, nil
}

// usedPercent returns used/total as a percentage rounded to two places.
func usedPercent(used, total float64) (float64, error) {
	if total <= 0 {
		return 0, failf("total is zero")
	}

	if used < 0 || used > total {
		return 0, failf("used %g outside total %g", used, total)
	}

	return round2(used / total * 100), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
