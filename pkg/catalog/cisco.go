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
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

func ciscoIOS() *table {
	return &table{
		tag: models.VendorCiscoIOS,
		entries: map[models.MetricName]entry{
			models.MetricCPU:           {"show processes cpu sorted", parseIOSCPU},
			models.MetricMemory:        {"show memory statistics", parseIOSMemoryUsed},
			models.MetricMemoryFree:    {"show memory statistics", parseIOSMemoryFree},
			models.MetricInterfaces:    {"show ip interface brief", parseIOSInterfaces},
			models.MetricMACTable:      {"show mac address-table", parseIOSMACTable},
			models.MetricRoutingTable:  {"show ip route", parseIOSRoutes},
			models.MetricConfig:        {"show running-config", parseIOSConfig},
			models.MetricTemperature:   {"show environment temperature", parseTemperature},
			models.MetricFlash:         {"dir flash:", parseIOSFlash},
			models.MetricUptime:        {"show version | include uptime", parseIOSUptime},
			models.MetricVersion:       {"show version", parseIOSVersion},
			models.MetricPowerSupplies: {"show environment power", parseIOSPower},
			models.MetricFans:          {"show environment fan", parseIOSFans},
		},
	}
}

var (
	iosCPURe     = regexp.MustCompile(`(?i)CPU utilization for five seconds:\s*\d+%(?:/\d+%)?;\s*one minute:\s*(\d+)%`)
	iosFlashRe   = regexp.MustCompile(`(?i)(\d[\d,]*)\s+bytes total\s+\((\d[\d,]*)\s+bytes free\)`)
	iosUptimeRe  = regexp.MustCompile(`(?i)uptime is\s+(.+)$`)
	iosVersionRe = regexp.MustCompile(`(?i)\bVersion\s+([^\s,]+)`)
	iosRPMRe     = regexp.MustCompile(`(?i)(\d+)\s*rpm`)
)

// parseIOSCPU reads the one minute average.
func parseIOSCPU(raw string) (models.MetricValue, string, error) {
	m := iosCPURe.FindStringSubmatch(raw)
	if m == nil {
		return models.MetricValue{}, "", failf("missing CPU utilization header")
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.MetricValue{}, "", failf("bad cpu value %q", m[1])
	}

	return models.NumberValue(v), models.UnitPercent, nil
}

func iosProcessorPool(raw string) (total, used, free float64, err error) {
	if !hasMarker(raw, "Total(b)") {
		return 0, 0, 0, failf("missing memory statistics header")
	}

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) < 5 || !strings.EqualFold(fields[0], "Processor") {
			continue
		}

		var vals [3]uint64
		for i := range vals {
			if vals[i], err = ParseBytes(fields[2+i]); err != nil {
				return 0, 0, 0, failf("bad processor pool value %q", fields[2+i])
			}
		}

		return float64(vals[0]), float64(vals[1]), float64(vals[2]), nil
	}

	return 0, 0, 0, failf("missing Processor pool row")
}

func parseIOSMemoryUsed(raw string) (models.MetricValue, string, error) {
	total, used, _, err := iosProcessorPool(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	pct, err := usedPercent(used, total)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(pct), models.UnitPercent, nil
}

func parseIOSMemoryFree(raw string) (models.MetricValue, string, error) {
	total, _, free, err := iosProcessorPool(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	pct, err := usedPercent(free, total)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(pct), models.UnitPercent, nil
}

func parseIOSInterfaces(raw string) (models.MetricValue, string, error) {
	header := false
	rows := make([]models.InterfaceRow, 0, 32)

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}

		if strings.EqualFold(fields[0], "Interface") && containsFold(l, "Protocol") {
			header = true
			continue
		}

		if !header || len(fields) < 6 {
			continue
		}

		status := strings.ToLower(strings.Join(fields[4:len(fields)-1], " "))
		admin := "up"

		if status == "administratively down" {
			admin = "down"
		}

		addr := fields[1]
		if strings.EqualFold(addr, "unassigned") {
			addr = ""
		}

		rows = append(rows, models.InterfaceRow{
			Name:        fields[0],
			AdminStatus: admin,
			OperStatus:  strings.ToLower(fields[len(fields)-1]),
			Address:     addr,
		})
	}

	if !header {
		return models.MetricValue{}, "", failf("missing interface table header")
	}

	return models.InterfacesValue(rows), models.UnitNone, nil
}

func parseIOSMACTable(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "Mac Address") {
		return models.MetricValue{}, "", failf("missing mac address table header")
	}

	rows := make([]models.MACEntry, 0, 64)

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) < 4 {
			continue
		}

		mac, ok := normalizeMAC(fields[1])
		if !ok {
			continue
		}

		rows = append(rows, models.MACEntry{
			MAC:  mac,
			VLAN: fields[0],
			Type: strings.ToLower(fields[2]),
			Port: fields[len(fields)-1],
		})
	}

	return models.MACTableValue(rows), models.UnitNone, nil
}

var iosRouteCodes = map[string]string{
	"C": "connected",
	"L": "local",
	"S": "static",
	"R": "rip",
	"B": "bgp",
	"D": "eigrp",
	"O": "ospf",
	"i": "isis",
	"M": "mobile",
}

var (
	ifaceNameRe    = regexp.MustCompile(`^[A-Za-z][A-Za-z\-]*\d`)
	iosSubnettedRe = regexp.MustCompile(`^\s+(\S+/\d+) is subnetted`)
	iosVariablyRe  = regexp.MustCompile(`^\s+\S+ is variably subnetted`)
	iosRouteCodeRe = regexp.MustCompile(`^[A-Za-z]{1,2}\*?$`)
)

func parseIOSRoutes(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "Codes:", "Gateway of last resort") {
		return models.MetricValue{}, "", failf("missing routing table legend")
	}

	rows := make([]models.RouteEntry, 0, 64)

	// children of "X/N is subnetted" are printed without a mask
	var subnet netip.Prefix

	for _, l := range lines(raw) {
		if l == "" {
			continue
		}

		if l[0] == ' ' || l[0] == '\t' {
			switch {
			case iosVariablyRe.MatchString(l):
				subnet = netip.Prefix{}
			case iosSubnettedRe.MatchString(l):
				subnet = netip.Prefix{}
				if p, err := netip.ParsePrefix(iosSubnettedRe.FindStringSubmatch(l)[1]); err == nil {
					subnet = p.Masked()
				}
			}

			// legend and continuation lines
			continue
		}

		fields := strings.Fields(l)
		if len(fields) < 2 || !iosRouteCodeRe.MatchString(fields[0]) {
			continue
		}

		prefix, idx, err := iosRoutePrefix(fields, subnet)
		if err != nil {
			return models.MetricValue{}, "", err
		}

		if idx < 0 {
			continue
		}

		code := strings.TrimRight(fields[0], "*")

		proto, ok := iosRouteCodes[code]
		if !ok {
			proto = strings.ToLower(code)
		}

		route := models.RouteEntry{Prefix: prefix, Protocol: proto}
		rest := fields[idx+1:]

		for i := 0; i < len(rest); i++ {
			tok := strings.TrimRight(rest[i], ",")

			switch {
			case strings.HasPrefix(tok, "["):
				route.Metric = strings.Trim(tok, "[]")
			case tok == "via" && i+1 < len(rest):
				route.NextHop = strings.TrimRight(rest[i+1], ",")
				i++
			case ifaceNameRe.MatchString(tok) && !strings.Contains(tok, ":"):
				route.Interface = tok
			}
		}

		rows = append(rows, route)
	}

	return models.RoutesValue(rows), models.UnitNone, nil
}

// iosRoutePrefix finds the destination among the first fields of a route
// line. A bare address takes its mask from the enclosing subnetted header.
func iosRoutePrefix(fields []string, subnet netip.Prefix) (string, int, error) {
	for i := 1; i < len(fields) && i <= 2; i++ {
		if strings.Contains(fields[i], "/") {
			if p, ok := normalizePrefix(fields[i]); ok {
				return p, i, nil
			}

			continue
		}

		addr, err := netip.ParseAddr(fields[i])
		if err != nil {
			continue
		}

		if !subnet.IsValid() || !subnet.Contains(addr) {
			return "", -1, failf("route %s has no mask and no subnetted header", fields[i])
		}

		return netip.PrefixFrom(addr, subnet.Bits()).Masked().String(), i, nil
	}

	return "", -1, nil
}

func parseIOSConfig(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "Current configuration", "Building configuration", "\nend", "hostname ") {
		return models.MetricValue{}, "", failf("missing running-config markers")
	}

	return parseConfig(raw)
}

// parseTemperature reports the hottest sensor in degrees Celsius. Threshold
// and limit lines are configuration, not readings.
func parseTemperature(raw string) (models.MetricValue, string, error) {
	readings := make([]string, 0, 8)

	for _, l := range lines(raw) {
		if containsFold(l, "threshold") || containsFold(l, "limit") {
			continue
		}

		readings = append(readings, l)
	}

	v, err := ParseCelsius(strings.Join(readings, "\n"))
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(v), models.UnitCelsius, nil
}

func parseIOSFlash(raw string) (models.MetricValue, string, error) {
	m := iosFlashRe.FindStringSubmatch(raw)
	if m == nil {
		return models.MetricValue{}, "", failf("missing bytes total/free summary")
	}

	total, err := ParseBytes(m[1])
	if err != nil {
		return models.MetricValue{}, "", err
	}

	free, err := ParseBytes(m[2])
	if err != nil {
		return models.MetricValue{}, "", err
	}

	if free > total {
		return models.MetricValue{}, "", failf("free %d exceeds total %d", free, total)
	}

	pct, err := usedPercent(float64(total-free), float64(total))
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(pct), models.UnitPercent, nil
}

func parseIOSUptime(raw string) (models.MetricValue, string, error) {
	for _, l := range lines(raw) {
		m := iosUptimeRe.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}

		secs, err := ParseUptime(m[1])
		if err != nil {
			return models.MetricValue{}, "", err
		}

		return models.NumberValue(secs), models.UnitSeconds, nil
	}

	return models.MetricValue{}, "", failf("missing \"uptime is\" line")
}

func parseIOSVersion(raw string) (models.MetricValue, string, error) {
	m := iosVersionRe.FindStringSubmatch(raw)
	if m == nil {
		return models.MetricValue{}, "", failf("missing Version string")
	}

	return models.TextValue(m[1]), models.UnitNone, nil
}

func parseIOSPower(raw string) (models.MetricValue, string, error) {
	rows := parseComponentRows(raw, func(l string) bool {
		f := strings.Fields(l)
		if len(f) == 0 || strings.HasPrefix(f[0], "--") || strings.EqualFold(f[0], "SW") {
			return false
		}

		return containsFold(l, "PS") || containsFold(l, "Power") || containsFold(l, "PWR") ||
			containsFold(l, "Not Present")
	})

	if len(rows) == 0 {
		return models.MetricValue{}, "", failf("no power supply rows")
	}

	return models.ComponentsValue(rows), models.UnitNone, nil
}

func parseIOSFans(raw string) (models.MetricValue, string, error) {
	var rows []models.ComponentState

	for _, l := range lines(raw) {
		if !containsFold(l, "fan") {
			continue
		}

		found := parseComponentRows(l, func(string) bool { return true })
		if len(found) == 0 {
			continue
		}

		row := found[0]
		row.Name = strings.TrimSuffix(strings.TrimSpace(iosRPMRe.ReplaceAllString(row.Name, "")), " is")

		if m := iosRPMRe.FindStringSubmatch(l); m != nil {
			if rpm, err := strconv.ParseFloat(m[1], 64); err == nil {
				row.Value = &rpm
				row.Unit = "rpm"
			}
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return models.MetricValue{}, "", failf("no fan rows")
	}

	return models.ComponentsValue(rows), models.UnitNone, nil
}
