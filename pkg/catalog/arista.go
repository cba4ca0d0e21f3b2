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
	"sort"
	"strconv"
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

func aristaEOS() *table {
	return &table{
		tag: models.VendorAristaEOS,
		entries: map[models.MetricName]entry{
			models.MetricCPU:           {"show processes top once", parseTopCPU},
			models.MetricMemory:        {"show version | json", parseEOSMemoryUsed},
			models.MetricMemoryFree:    {"show version | json", parseEOSMemoryFree},
			models.MetricUptime:        {"show version | json", parseEOSUptime},
			models.MetricVersion:       {"show version | json", parseEOSVersion},
			models.MetricInterfaces:    {"show interfaces description | json", parseEOSInterfaces},
			models.MetricMACTable:      {"show mac address-table | json", parseEOSMACTable},
			models.MetricRoutingTable:  {"show ip route | json", parseEOSRoutes},
			models.MetricConfig:        {"show running-config", parseEOSConfig},
			models.MetricTemperature:   {"show system environment temperature | json", parseEOSTemperature},
			models.MetricPowerSupplies: {"show system environment power | json", parseEOSPower},
			models.MetricFans:          {"show system environment cooling | json", parseEOSFans},
		},
	}
}

var topIdleRe = regexp.MustCompile(`(?i)cpu\(s\):.*?(\d+(?:\.\d+)?)\s*%?\s*id\b`)

// parseTopCPU derives utilisation from the idle share of a top summary line.
func parseTopCPU(raw string) (models.MetricValue, string, error) {
	m := topIdleRe.FindStringSubmatch(raw)
	if m == nil {
		return models.MetricValue{}, "", failf("missing Cpu(s) summary line")
	}

	idle, err := strconv.ParseFloat(m[1], 64)
	if err != nil || idle > 100 {
		return models.MetricValue{}, "", failf("bad idle value %q", m[1])
	}

	return models.NumberValue(round2(100 - idle)), models.UnitPercent, nil
}

type eosVersion struct {
	Version  string   `json:"version"`
	MemTotal *float64 `json:"memTotal"`
	MemFree  *float64 `json:"memFree"`
	Uptime   *float64 `json:"uptime"`
}

func decodeEOSVersion(raw string) (eosVersion, error) {
	var v eosVersion
	if err := decodeJSON(raw, &v); err != nil {
		return v, err
	}

	return v, nil
}

func eosMemory(raw string, free bool) (models.MetricValue, string, error) {
	v, err := decodeEOSVersion(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	if v.MemTotal == nil || v.MemFree == nil {
		return models.MetricValue{}, "", failf("missing memTotal or memFree")
	}

	part := *v.MemTotal - *v.MemFree
	if free {
		part = *v.MemFree
	}

	pct, err := usedPercent(part, *v.MemTotal)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	return models.NumberValue(pct), models.UnitPercent, nil
}

func parseEOSMemoryUsed(raw string) (models.MetricValue, string, error) {
	return eosMemory(raw, false)
}

func parseEOSMemoryFree(raw string) (models.MetricValue, string, error) {
	return eosMemory(raw, true)
}

func parseEOSUptime(raw string) (models.MetricValue, string, error) {
	v, err := decodeEOSVersion(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	if v.Uptime == nil {
		return models.MetricValue{}, "", failf("missing uptime")
	}

	return models.NumberValue(math.Floor(*v.Uptime)), models.UnitSeconds, nil
}

func parseEOSVersion(raw string) (models.MetricValue, string, error) {
	v, err := decodeEOSVersion(raw)
	if err != nil {
		return models.MetricValue{}, "", err
	}

	if v.Version == "" {
		return models.MetricValue{}, "", failf("missing version")
	}

	return models.TextValue(v.Version), models.UnitNone, nil
}

func parseEOSInterfaces(raw string) (models.MetricValue, string, error) {
	var doc struct {
		Descriptions map[string]struct {
			InterfaceStatus    string `json:"interfaceStatus"`
			LineProtocolStatus string `json:"lineProtocolStatus"`
			Description        string `json:"description"`
		} `json:"interfaceDescriptions"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	if doc.Descriptions == nil {
		return models.MetricValue{}, "", failf("missing interfaceDescriptions")
	}

	out := make([]models.InterfaceRow, 0, len(doc.Descriptions))

	for name, d := range doc.Descriptions {
		admin := "up"
		if strings.EqualFold(d.InterfaceStatus, "adminDown") {
			admin = "down"
		}

		out = append(out, models.InterfaceRow{
			Name:        name,
			AdminStatus: admin,
			OperStatus:  strings.ToLower(d.LineProtocolStatus),
			Description: d.Description,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return models.InterfacesValue(out), models.UnitNone, nil
}

func parseEOSMACTable(raw string) (models.MetricValue, string, error) {
	var doc struct {
		Unicast *struct {
			Entries []struct {
				VLAN      int    `json:"vlanId"`
				MAC       string `json:"macAddress"`
				Type      string `json:"entryType"`
				Interface string `json:"interface"`
			} `json:"tableEntries"`
		} `json:"unicastTable"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	if doc.Unicast == nil {
		return models.MetricValue{}, "", failf("missing unicastTable")
	}

	out := make([]models.MACEntry, 0, len(doc.Unicast.Entries))

	for _, e := range doc.Unicast.Entries {
		mac, ok := normalizeMAC(e.MAC)
		if !ok {
			return models.MetricValue{}, "", failf("bad mac %q", e.MAC)
		}

		out = append(out, models.MACEntry{
			MAC:  mac,
			VLAN: strconv.Itoa(e.VLAN),
			Port: e.Interface,
			Type: strings.ToLower(e.Type),
		})
	}

	return models.MACTableValue(out), models.UnitNone, nil
}

func parseEOSRoutes(raw string) (models.MetricValue, string, error) {
	var doc struct {
		VRFs map[string]struct {
			Routes map[string]struct {
				RouteType string `json:"routeType"`
				Metric    *int   `json:"metric"`
				Vias      []struct {
					NexthopAddr string `json:"nexthopAddr"`
					Interface   string `json:"interface"`
				} `json:"vias"`
			} `json:"routes"`
		} `json:"vrfs"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	vrf, ok := doc.VRFs["default"]
	if !ok {
		return models.MetricValue{}, "", failf("missing default vrf")
	}

	out := make([]models.RouteEntry, 0, len(vrf.Routes))

	for p, r := range vrf.Routes {
		prefix, ok := normalizePrefix(p)
		if !ok {
			return models.MetricValue{}, "", failf("bad prefix %q", p)
		}

		route := models.RouteEntry{Prefix: prefix, Protocol: strings.ToLower(r.RouteType)}
		if r.Metric != nil {
			route.Metric = strconv.Itoa(*r.Metric)
		}

		if len(r.Vias) > 0 {
			route.NextHop = r.Vias[0].NexthopAddr
			route.Interface = r.Vias[0].Interface
		}

		out = append(out, route)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })

	return models.RoutesValue(out), models.UnitNone, nil
}

func parseEOSConfig(raw string) (models.MetricValue, string, error) {
	if !hasMarker(raw, "! Command: show running-config", "\nend", "hostname ") {
		return models.MetricValue{}, "", failf("missing running-config markers")
	}

	return parseConfig(raw)
}

type eosSensor struct {
	Name               string   `json:"name"`
	CurrentTemperature *float64 `json:"currentTemperature"`
}

func parseEOSTemperature(raw string) (models.MetricValue, string, error) {
	var doc struct {
		Sensors          []eosSensor `json:"tempSensors"`
		PowerSupplySlots []struct {
			Sensors []eosSensor `json:"tempSensors"`
		} `json:"powerSupplySlots"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	sensors := doc.Sensors
	for _, slot := range doc.PowerSupplySlots {
		sensors = append(sensors, slot.Sensors...)
	}

	hottest := math.Inf(-1)
	for _, s := range sensors {
		if s.CurrentTemperature != nil {
			hottest = math.Max(hottest, *s.CurrentTemperature)
		}
	}

	if math.IsInf(hottest, -1) {
		return models.MetricValue{}, "", failf("no temperature sensors")
	}

	return models.NumberValue(hottest), models.UnitCelsius, nil
}

func eosState(s string) string {
	if st, ok := componentState(s); ok {
		return st
	}

	return strings.ToLower(s)
}

func parseEOSPower(raw string) (models.MetricValue, string, error) {
	var doc struct {
		PowerSupplies map[string]struct {
			State     string `json:"state"`
			ModelName string `json:"modelName"`
		} `json:"powerSupplies"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	if len(doc.PowerSupplies) == 0 {
		return models.MetricValue{}, "", failf("missing powerSupplies")
	}

	out := make([]models.ComponentState, 0, len(doc.PowerSupplies))
	for slot, ps := range doc.PowerSupplies {
		out = append(out, models.ComponentState{Name: "PowerSupply" + slot, State: eosState(ps.State)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return models.ComponentsValue(out), models.UnitNone, nil
}

func parseEOSFans(raw string) (models.MetricValue, string, error) {
	var doc struct {
		FanTraySlots []struct {
			Label string `json:"label"`
			Fans  []struct {
				Label       string   `json:"label"`
				Status      string   `json:"status"`
				ActualSpeed *float64 `json:"actualSpeed"`
			} `json:"fans"`
		} `json:"fanTraySlots"`
	}

	if err := decodeJSON(raw, &doc); err != nil {
		return models.MetricValue{}, "", err
	}

	var out []models.ComponentState

	for _, tray := range doc.FanTraySlots {
		for _, f := range tray.Fans {
			row := models.ComponentState{Name: "Fan" + f.Label, State: eosState(f.Status)}
			if f.ActualSpeed != nil {
				speed := *f.ActualSpeed
				row.Value = &speed
				row.Unit = models.UnitPercent
			}

			out = append(out, row)
		}
	}

	if len(out) == 0 {
		return models.MetricValue{}, "", failf("no fans in fanTraySlots")
	}

	return models.ComponentsValue(out), models.UnitNone, nil
}
