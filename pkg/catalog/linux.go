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
	"strconv"
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

func linuxHost() *table {
	return &table{
		tag: models.VendorLinux,
		entries: map[models.MetricName]entry{
			models.MetricCPU:          {"top -bn1 | head -5", parseTopCPU},
			models.MetricMemory:       {"free -b", parseFreeUsed},
			models.MetricMemoryFree:   {"free -b", parseFreeAvailable},
			models.MetricInterfaces:   {"ip -o link show", parseIPLink},
			models.MetricMACTable:     {"bridge fdb show", parseBridgeFDB},
			models.MetricRoutingTable: {"ip route show", parseIPRoute},
			models.MetricUptime:       {"cat /proc/uptime", parseProcUptime},
			models.MetricVersion:      {"uname -r", parseUname},
			models.MetricTemperature:  {"cat /sys/class/thermal/thermal_zone*/temp", parseThermalZones},
			models.MetricFlash:        {"df -P /", parseDF},
		},
	}
}

// freeMem returns total, used and available bytes from "free -b". Older
// procps without an available column report free instead.
func freeMem(raw string) (total, used, avail float64, err error) {
	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) < 4 || fields[0] != "Mem:" {
			continue
		}

		vals := make([]float64, 0, len(fields)-1)
		for _, f := range fields[1:] {
			v, perr := strconv.ParseFloat(f, 64)
			if perr != nil {
				return 0, 0, 0, failf("bad Mem: value %q", f)
			}

			vals = append(vals, v)
		}

		total, used, avail = vals[0], vals[1], vals[2]
		if len(vals) >= 6 {
			avail = vals[5]
			used = total - avail
		}

		return total, used, avail, nil
	}

	return 0, 0, 0, failf("missing Mem: row")
}

func parseFreeUsed(raw string) (models.MetricValue, string, error) {
	total, used, _, err := freeMem(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	pct, err := usedPercent(used, total)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(pct), models.UnitPercent, nil
}

func parseFreeAvailable(raw string) (models.MetricValue, string, error) {
	total, _, avail, err := freeMem(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	pct, err := usedPercent(avail, total)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(pct), models.UnitPercent, nil
}

// parseIPLink reads one-line "ip -o link" records:
// "2: eth0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 ... state UP ...".
func parseIPLink(raw string) (models.MetricValue, string, error) {
	out := make([]models.InterfaceRow, 0, 16)

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}

		if len(fields) < 3 || !strings.HasSuffix(fields[0], ":") || !strings.HasPrefix(fields[2], "<") {
			return models.MetricValue{}, "", failf("unexpected ip link line %q", l)
		}

		name := strings.TrimSuffix(fields[1], ":")
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}

		flags := strings.Split(strings.Trim(fields[2], "<>"), ",")
		admin := "down"

		for _, f := range flags {
			if f == "UP" {
				admin = "up"
			}
		}

		oper := "unknown"
		for i := 3; i+1 < len(fields); i++ {
			if fields[i] == "state" {
				oper = strings.ToLower(fields[i+1])
				break
			}
		}

		out = append(out, models.InterfaceRow{Name: name, AdminStatus: admin, OperStatus: oper})
	}

	if len(out) == 0 {
		return models.MetricValue{}, "", failf("no links listed")
	}

	return models.InterfacesValue(out), models.UnitNone, nil
}

// parseBridgeFDB reads "bridge fdb show". An empty table is valid.
func parseBridgeFDB(raw string) (models.MetricValue, string, error) {
	out := make([]models.MACEntry, 0, 32)

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}

		mac, ok := normalizeMAC(fields[0])
		if !ok {
			return models.MetricValue{}, "", failf("unexpected fdb line %q", l)
		}

		e := models.MACEntry{MAC: mac, Type: "dynamic"}

		for i := 1; i < len(fields); i++ {
			switch fields[i] {
			case "dev":
				if i+1 < len(fields) {
					e.Port = fields[i+1]
				}
			case "vlan":
				if i+1 < len(fields) {
					e.VLAN = fields[i+1]
				}
			case "permanent", "static":
				e.Type = "static"
			}
		}

		out = append(out, e)
	}

	return models.MACTableValue(out), models.UnitNone, nil
}

func parseIPRoute(raw string) (models.MetricValue, string, error) {
	out := make([]models.RouteEntry, 0, 16)

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}

		dst := fields[0]
		rest := fields[1:]

		// typed routes: "unreachable 10.9.0.0/16", "blackhole ..."
		switch dst {
		case "unreachable", "blackhole", "prohibit", "local", "broadcast":
			if len(rest) == 0 {
				return models.MetricValue{}, "", failf("unexpected route line %q", l)
			}

			dst, rest = rest[0], rest[1:]
		}

		prefix, ok := normalizePrefix(dst)
		if !ok {
			return models.MetricValue{}, "", failf("unexpected route line %q", l)
		}

		route := models.RouteEntry{Prefix: prefix, Protocol: "boot"}

		for i := 0; i+1 < len(rest); i++ {
			switch rest[i] {
			case "via":
				route.NextHop = rest[i+1]
			case "dev":
				route.Interface = rest[i+1]
			case "proto":
				route.Protocol = rest[i+1]
			case "metric":
				route.Metric = rest[i+1]
			}
		}

		out = append(out, route)
	}

	return models.RoutesValue(out), models.UnitNone, nil
}

func parseProcUptime(raw string) (models.MetricValue, string, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return models.MetricValue{}, "", failf("expected two fields in /proc/uptime")
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return models.MetricValue{}, "", failf("bad uptime %q", fields[0])
	}

	return models.NumberValue(math.Floor(v)), models.UnitSeconds, nil
}

func parseUname(raw string) (models.MetricValue, string, error) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.ContainsAny(v, " \n") {
		return models.MetricValue{}, "", failf("unexpected uname output")
	}

	return models.TextValue(v), models.UnitNone, nil
}

// parseThermalZones reads millidegree values, one per zone, and reports the hottest.
func parseThermalZones(raw string) (models.MetricValue, string, error) {
	hottest := math.Inf(-1)

	for _, l := range lines(raw) {
		s := strings.TrimSpace(l)
		if s == "" {
			continue
		}

		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.MetricValue{}, "", failf("bad thermal reading %q", s)
		}

		hottest = math.Max(hottest, v/1000)
	}

	if math.IsInf(hottest, -1) {
		return models.MetricValue{}, "", failf("no thermal zones")
	}

	return models.NumberValue(hottest), models.UnitCelsius, nil
}

// parseDF reports root filesystem usage as the flash metric.
func parseDF(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "Capacity", "Use%") {
		return models.MetricValue{}, "", failf("missing df header")
	}

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) < 6 || fields[0] == "Filesystem" {
			continue
		}

		v, err := ParsePercent(fields[4])
		if err != nil {
			return models.MetricValue{}, "", err
		}

		return models.NumberValue(v), models.UnitPercent, nil
	}

	return models.MetricValue{}, "", failf("missing filesystem row")
}
