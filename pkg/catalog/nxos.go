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
	"strconv"
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

// NX-OS emits structured output for "| json"; single-row tables come back
// as objects rather than arrays.
func ciscoNXOS() *table {
	return &table{
		tag: models.VendorCiscoNXOS,
		entries: map[models.MetricName]entry{
			models.MetricCPU:           {"show system resources | json", parseNXOSCPU},
			models.MetricMemory:        {"show system resources | json", parseNXOSMemoryUsed},
			models.MetricMemoryFree:    {"show system resources | json", parseNXOSMemoryFree},
			models.MetricInterfaces:    {"show interface brief | json", parseNXOSInterfaces},
			models.MetricMACTable:      {"show mac address-table | json", parseNXOSMACTable},
			models.MetricRoutingTable:  {"show ip route", parseNXOSRoutes},
			models.MetricConfig:        {"show running-config", parseNXOSConfig},
			models.MetricUptime:        {"show system uptime", parseNXOSUptime},
			models.MetricVersion:       {"show version | json", parseNXOSVersion},
			models.MetricTemperature:   {"show environment temperature", parseNXOSTemperature},
			models.MetricPowerSupplies: {"show environment power", parseNXOSPower},
		},
	}
}

type nxosResources struct {
	CPUIdle     string `json:"cpu_state_idle"`
	MemoryTotal string `json:"memory_usage_total"`
	MemoryUsed  string `json:"memory_usage_used"`
	MemoryFree  string `json:"memory_usage_free"`
}

func decodeNXOSResources(raw string) (nxosResources, error) {
	var r nxosResources
	if err := decodeJSON(raw, &r); err != nil {
		return r, err
	}

	if r.CPUIdle == "" || r.MemoryTotal == "" {
		return r, failf("missing cpu_state_idle or memory_usage_total")
	}

	return r, nil
}

func parseNXOSCPU(raw string) (models.MetricValue, string, error) {
	r, err := decodeNXOSResources(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	idle, err := strconv.ParseFloat(r.CPUIdle, 64)
	if err != nil || idle < 0 || idle > 100 {
		return models.MetricValue{}, "", failf("bad cpu_state_idle %q", r.CPUIdle)
	}

	return models.NumberValue(round2(100 - idle)), models.UnitPercent, nil
}

func nxosMemory(raw string, pick func(r nxosResources) string) (models.MetricValue, string, error) {
	r, err := decodeNXOSResources(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	total, err := strconv.ParseFloat(r.MemoryTotal, 64)
	if err != nil {
		return models.MetricValue{}, "", failf("bad memory_usage_total %q", r.MemoryTotal)
	}

	part, err := strconv.ParseFloat(pick(r), 64)
	if err != nil {
		return models.MetricValue{}, "", failf("bad memory value %q", pick(r))
	}

	pct, err := usedPercent(part, total)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(pct), models.UnitPercent, nil
}

func parseNXOSMemoryUsed(raw string) (models.MetricValue, string, error) {
	return nxosMemory(raw, func(r nxosResources) string { return r.MemoryUsed })
}

func parseNXOSMemoryFree(raw string) (models.MetricValue, string, error) {
	return nxosMemory(raw, func(r nxosResources) string { return r.MemoryFree })
}

type nxosInterfaceRow struct {
	Interface  string `json:"interface"`
	State      string `json:"state"`
	AdminState string `json:"admin_state"`
	IPAddr     string `json:"ip_addr"`
	Speed      string `json:"speed"`
	Desc       string `json:"desc"`
}

func parseNXOSInterfaces(raw string) (models.MetricValue, string, error) {
	var doc struct {
		Table *struct {
			Row json.RawMessage `json:"ROW_interface"`
		} `json:"TABLE_interface"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	if doc.Table == nil {
		return models.MetricValue{}, "", failf("missing TABLE_interface")
	}

	rows, err := rowList[nxosInterfaceRow](doc.Table.Row)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	out := make([]models.InterfaceRow, 0, len(rows))

	for _, r := range rows {
		if r.Interface == "" {
			continue
		}

		admin := strings.ToLower(r.AdminState)
		if admin == "" {
			admin = "up"
		}

		out = append(out, models.InterfaceRow{
			Name:        r.Interface,
			AdminStatus: admin,
			OperStatus:  strings.ToLower(r.State),
			Address:     r.IPAddr,
			Speed:       r.Speed,
			Description: r.Desc,
		})
	}

	return models.InterfacesValue(out), models.UnitNone, nil
}

type nxosMACRow struct {
	MAC  string `json:"disp_mac_addr"`
	VLAN string `json:"disp_vlan"`
	Port string `json:"disp_port"`
	Type string `json:"disp_type"`
}

func parseNXOSMACTable(raw string) (models.MetricValue, string, error) {
	var doc struct {
		Table *struct {
			Row json.RawMessage `json:"ROW_mac_address"`
		} `json:"TABLE_mac_address"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	out := make([]models.MACEntry, 0)
	if doc.Table == nil {
		// an empty table omits TABLE_mac_address entirely
		return models.MACTableValue(out), models.UnitNone, nil
	}

	rows, err := rowList[nxosMACRow](doc.Table.Row)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	for _, r := range rows {
		mac, ok := normalizeMAC(r.MAC)
		if !ok {
			return models.MetricValue{}, "", failf("bad mac %q", r.MAC)
		}

		out = append(out, models.MACEntry{
			MAC:  mac,
			VLAN: strings.TrimSpace(r.VLAN),
			Port: strings.TrimSpace(r.Port),
			Type: strings.ToLower(strings.TrimSpace(r.Type)),
		})
	}

	return models.MACTableValue(out), models.UnitNone, nil
}

// NX-OS text routes put the prefix on its own line followed by indented
// "*via" lines.
func parseNXOSRoutes(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "IP Route Table", "'*' denotes best") {
		return models.MetricValue{}, "", failf("missing IP Route Table header")
	}

	rows := make([]models.RouteEntry, 0, 64)

	for _, l := range lines(raw) {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}

		if l[0] != ' ' {
			head := strings.TrimRight(strings.Fields(trimmed)[0], ",")
			if prefix, ok := normalizePrefix(head); ok && strings.Contains(head, "/") {
				rows = append(rows, models.RouteEntry{Prefix: prefix})
			}

			continue
		}

		if len(rows) == 0 || !strings.HasPrefix(trimmed, "*via") {
			continue
		}

		last := &rows[len(rows)-1]
		if last.NextHop != "" || last.Interface != "" {
			continue
		}

		parts := strings.Split(strings.TrimPrefix(trimmed, "*via"), ",")
		for i, p := range parts {
			p = strings.TrimSpace(p)

			switch {
			case i == 0:
				last.NextHop = p
			case strings.HasPrefix(p, "["):
				last.Metric = strings.Trim(p, "[]")
			case ifaceNameRe.MatchString(p) && !strings.Contains(p, ":") && last.Interface == "":
				last.Interface = p
			case last.Protocol == "":
				if proto, ok := nxosProtocol(p); ok {
					last.Protocol = proto
				}
			}
		}
	}

	return models.RoutesValue(rows), models.UnitNone, nil
}

var nxosProtocols = []string{"static", "direct", "local", "ospf", "bgp", "eigrp", "rip", "isis", "hsrp"}

func nxosProtocol(s string) (string, bool) {
	name := strings.ToLower(strings.SplitN(s, "-", 2)[0])
	for _, p := range nxosProtocols {
		if name == p {
			return p, true
		}
	}

	return "", false
}

// parseNXOSTemperature reads the CurTemp column of
// "Module Sensor MajorThresh MinorThres CurTemp Status" rows.
func parseNXOSTemperature(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "CurTemp") {
		return models.MetricValue{}, "", failf("missing CurTemp header")
	}

	found := false
	hottest := 0.0

	for _, l := range lines(raw) {
		fields := strings.Fields(l)
		if len(fields) < 6 {
			continue
		}

		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}

		cur, err := strconv.ParseFloat(fields[len(fields)-2], 64)
		if err != nil {
			continue
		}

		if !found || cur > hottest {
			hottest = cur
		}

		found = true
	}

	if !found {
		return models.MetricValue{}, "", failf("no temperature sensor rows")
	}

	return models.NumberValue(hottest), models.UnitCelsius, nil
}

func parseNXOSPower(raw string) (models.MetricValue, string, error) {
	rows := parseComponentRows(raw, func(l string) bool {
		f := strings.Fields(l)
		if len(f) == 0 {
			return false
		}

		if strings.HasPrefix(f[0], "PS") {
			return true
		}

		_, err := strconv.Atoi(f[0])

		return err == nil
	})

	if len(rows) == 0 {
		return models.MetricValue{}, "", failf("no power supply rows")
	}

	return models.ComponentsValue(rows), models.UnitNone, nil
}

func parseNXOSConfig(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "!Command: show running-config", "version ", "hostname ") {
		return models.MetricValue{}, "", failf("missing running-config markers")
	}

	return parseConfig(raw)
}

func parseNXOSUptime(raw string) (models.MetricValue, string, error) {
	for _, l := range lines(raw) {
		if !containsFold(l, "System uptime:") {
			continue
		}

		_, after, _ := strings.Cut(l, ":")

		secs, err := ParseUptime(after)
		if err != nil {
			return models.MetricValue{}, "", err
		}

		return models.NumberValue(secs), models.UnitSeconds, nil
	}

	return models.MetricValue{}, "", failf("missing \"System uptime:\" line")
}

func parseNXOSVersion(raw string) (models.MetricValue, string, error) {
	var doc struct {
		Version string `json:"nxos_ver_str"`
		Legacy  string `json:"kickstart_ver_str"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	v := doc.Version
	if v == "" {
		v = doc.Legacy
	}

	if v == "" {
		return models.MetricValue{}, "", failf("missing nxos_ver_str")
	}

	return models.TextValue(v), models.UnitNone, nil
}
