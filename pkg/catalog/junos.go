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
	"regexp"
	"strconv"
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

func juniperJunos() *table {
	return &table{
		tag: models.VendorJuniperJunos,
		entries: map[models.MetricName]entry{
			models.MetricCPU:           {"show chassis routing-engine", parseJunosCPU},
			models.MetricMemory:        {"show chassis routing-engine", parseJunosMemoryUsed},
			models.MetricMemoryFree:    {"show chassis routing-engine", parseJunosMemoryFree},
			models.MetricTemperature:   {"show chassis routing-engine", parseJunosTemperature},
			models.MetricUptime:        {"show chassis routing-engine", parseJunosUptime},
			models.MetricVersion:       {"show version", parseJunosVersion},
			models.MetricInterfaces:    {"show interfaces terse", parseJunosInterfaces},
			models.MetricMACTable:      {"show ethernet-switching table", parseJunosMACTable},
			models.MetricRoutingTable:  {"show route", parseJunosRoutes},
			models.MetricConfig:        {"show configuration", parseJunosConfig},
			models.MetricPowerSupplies: {"show chassis environment", parseJunosPower},
			models.MetricFans:          {"show chassis environment", parseJunosFans},
		},
	}
}

var (
	junosIdleRe    = regexp.MustCompile(`(?i)^\s*Idle\s+(\d+)\s+percent`)
	junosMemUtilRe = regexp.MustCompile(`(?i)^\s*Memory utilization\s+(\d+)\s+percent`)
	junosUptimeRe  = regexp.MustCompile(`(?i)^\s*Uptime\s+(.+)$`)
	junosTempRe    = regexp.MustCompile(`(?i)^\s*(?:CPU )?Temperature\s+(.+)$`)
	junosVersionRe = regexp.MustCompile(`(?i)(?:^Junos:\s*(\S+))|(?:JUNOS [^\[\n]*\[([^\]]+)\])`)
	junosRouteRe   = regexp.MustCompile(`^(\S+/\d+)\s+[*+\-]?\[(\w+)/(\d+)\]`)
)

// firstREMatch returns the first capture of re over the routing-engine
// output; dual-RE chassis report the master slot first.
func firstREMatch(raw string, re *regexp.Regexp, what string) (string, error) {
	if !hasMarker(raw, "Routing Engine status") {
		return "", failf("missing \"Routing Engine status\" header")
	}

	for _, l := range lines(raw) {
		if m := re.FindStringSubmatch(l); m != nil {
			return strings.TrimSpace(m[1]), nil
		}
	}

	return "", failf("missing %s line", what)
}

func junosPercent(raw string, re *regexp.Regexp, what string) (float64, error) {
	s, err := firstREMatch(raw, re, what)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, failf("bad %s value %q", what, s)
	}

	return v, nil
}

func parseJunosCPU(raw string) (models.MetricValue, string, error) {
	idle, err := junosPercent(raw, junosIdleRe, "Idle")
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(100 - idle), models.UnitPercent, nil
}

func parseJunosMemoryUsed(raw string) (models.MetricValue, string, error) {
	used, err := junosPercent(raw, junosMemUtilRe, "Memory utilization")
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(used), models.UnitPercent, nil
}

func parseJunosMemoryFree(raw string) (models.MetricValue, string, error) {
	used, err := junosPercent(raw, junosMemUtilRe, "Memory utilization")
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(100 - used), models.UnitPercent, nil
}

func parseJunosTemperature(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "Routing Engine status") {
		return models.MetricValue{}, "", failf("missing \"Routing Engine status\" header")
	}

	var readings []string

	for _, l := range lines(raw) {
		if m := junosTempRe.FindStringSubmatch(l); m != nil {
			readings = append(readings, m[1])
		}
	}

	if len(readings) == 0 {
		return models.MetricValue{}, "", failf("missing Temperature line")
	}

	return parseTemperature(strings.Join(readings, "\n"))
}

func parseJunosUptime(raw string) (models.MetricValue, string, error) {
	s, err := firstREMatch(raw, junosUptimeRe, "Uptime")
	if err != nil {
		return models.MetricValue{}, "", err
	}

	secs, err := ParseUptime(s)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(secs), models.UnitSeconds, nil
}

func parseJunosVersion(raw string) (models.MetricValue, string, error) {
	for _, l := range lines(raw) {
		m := junosVersionRe.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}

		v := m[1]
		if v == "" {
			v = m[2]
		}

		return models.TextValue(v), models.UnitNone, nil
	}

	return models.MetricValue{}, "", failf("missing Junos version line")
}

func parseJunosInterfaces(raw string) (models.MetricValue, string, error) {
	header := false
	out := make([]models.InterfaceRow, 0, 32)

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}

		if strings.EqualFold(fields[0], "Interface") && containsFold(l, "Admin") && containsFold(l, "Link") {
			header = true
			continue
		}

		if !header || len(fields) < 3 {
			continue
		}

		row := models.InterfaceRow{
			Name:        fields[0],
			AdminStatus: strings.ToLower(fields[1]),
			OperStatus:  strings.ToLower(fields[2]),
		}

		if len(fields) >= 5 {
			row.Address = fields[4]
		}

		out = append(out, row)
	}

	if !header {
		return models.MetricValue{}, "", failf("missing Admin/Link header")
	}

	return models.InterfacesValue(out), models.UnitNone, nil
}

func parseJunosMACTable(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "MAC database", "Ethernet switching table", "MAC address") {
		return models.MetricValue{}, "", failf("missing ethernet-switching header")
	}

	out := make([]models.MACEntry, 0, 64)

	for _, l := range lines(raw) {
		fields := strings.Fields(l)

		for i, f := range fields {
			mac, ok := normalizeMAC(f)
			if !ok {
				continue
			}

			e := models.MACEntry{MAC: mac, Port: fields[len(fields)-1]}
			if i > 0 {
				e.VLAN = fields[i-1]
			}

			if i+1 < len(fields)-1 {
				e.Type = strings.ToLower(fields[i+1])
			}

			out = append(out, e)

			break
		}
	}

	return models.MACTableValue(out), models.UnitNone, nil
}

func parseJunosRoutes(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "destinations") {
		return models.MetricValue{}, "", failf("missing routing table summary")
	}

	out := make([]models.RouteEntry, 0, 64)

	for _, l := range lines(raw) {
		if m := junosRouteRe.FindStringSubmatch(l); m != nil {
			prefix, ok := normalizePrefix(m[1])
			if !ok {
				return models.MetricValue{}, "", failf("bad prefix %q", m[1])
			}

			out = append(out, models.RouteEntry{
				Prefix:   prefix,
				Protocol: strings.ToLower(m[2]),
				Metric:   m[3],
			})

			continue
		}

		trimmed := strings.TrimSpace(l)
		if len(out) == 0 || !strings.HasPrefix(trimmed, ">") {
			continue
		}

		last := &out[len(out)-1]
		fields := strings.Fields(strings.TrimPrefix(trimmed, ">"))

		for i := 0; i+1 < len(fields); i++ {
			switch fields[i] {
			case "to":
				last.NextHop = fields[i+1]
			case "via":
				last.Interface = fields[i+1]
			}
		}
	}

	return models.RoutesValue(out), models.UnitNone, nil
}

func parseJunosConfig(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "## Last commit", "version ", "system {") {
		return models.MetricValue{}, "", failf("missing configuration markers")
	}

	return parseConfig(raw)
}

// junosEnvRows reads "show chassis environment" rows, dropping the class
// column ("Power", "Fans", "Temp") that prefixes the first row of a group.
func junosEnvRows(raw string, keep func(name string) bool) []models.ComponentState {
	rows := parseComponentRows(raw, func(l string) bool { return !containsFold(l, "Class Item") })
	out := rows[:0]

	for _, r := range rows {
		for _, class := range []string{"Power ", "Fans ", "Temp ", "Misc "} {
			if strings.HasPrefix(r.Name, class) && len(r.Name) > len(class) {
				r.Name = strings.TrimPrefix(r.Name, class)
				break
			}
		}

		if keep(r.Name) {
			out = append(out, r)
		}
	}

	return out
}

func parseJunosPower(raw string) (models.MetricValue, string, error) {
	rows := junosEnvRows(raw, func(name string) bool {
		return containsFold(name, "Power Supply") || strings.HasPrefix(name, "PEM")
	})

	if len(rows) == 0 {
		return models.MetricValue{}, "", failf("no power supply rows")
	}

	return models.ComponentsValue(rows), models.UnitNone, nil
}

func parseJunosFans(raw string) (models.MetricValue, string, error) {
	rows := junosEnvRows(raw, func(name string) bool { return containsFold(name, "Fan") })

	if len(rows) == 0 {
		return models.MetricValue{}, "", failf("no fan rows")
	}

	return models.ComponentsValue(rows), models.UnitNone, nil
}
