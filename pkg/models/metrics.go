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

package models

import (
	"fmt"
	"time"
)

// MetricName is the logical, vendor independent name of a collected metric.
type MetricName string

const (
	MetricCPU           MetricName = "cpu"
	MetricMemory        MetricName = "memory"
	MetricMemoryFree    MetricName = "memory_free"
	MetricTemperature   MetricName = "temperature"
	MetricFlash         MetricName = "flash"
	MetricUptime        MetricName = "uptime"
	MetricVersion       MetricName = "version"
	MetricInterfaces    MetricName = "interfaces"
	MetricMACTable      MetricName = "mac_table"
	MetricRoutingTable  MetricName = "routing_table"
	MetricConfig        MetricName = "config"
	MetricPowerSupplies MetricName = "power_supplies"
	MetricFans          MetricName = "fans"
)

// Normalised units. Every vendor parser reports a metric in exactly one of these.
const (
	UnitPercent = "%"
	UnitCelsius = "C"
	UnitSeconds = "s"
	UnitBytes   = "bytes"
	UnitNone    = ""
)

// MetricRequest is the ordered, de-duplicated set of metrics for one polling run.
type MetricRequest struct {
	Metrics []MetricName `json:"metrics"`
}

// NewMetricRequest builds a request, dropping blanks and duplicates while keeping order.
func NewMetricRequest(names ...MetricName) MetricRequest {
	seen := make(map[MetricName]struct{}, len(names))
	out := make([]MetricName, 0, len(names))

	for _, n := range names {
		if n == "" {
			continue
		}

		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}

		out = append(out, n)
	}

	return MetricRequest{Metrics: out}
}

// DefaultMetricRequest is the health-and-change set polled when the config names none.
func DefaultMetricRequest() MetricRequest {
	return NewMetricRequest(
		MetricCPU,
		MetricMemory,
		MetricTemperature,
		MetricUptime,
		MetricInterfaces,
		MetricRoutingTable,
		MetricConfig,
	)
}

// ValueKind tags which field of a MetricValue is populated.
type ValueKind string

const (
	KindNumber     ValueKind = "number"
	KindText       ValueKind = "text"
	KindInterfaces ValueKind = "interfaces"
	KindMACTable   ValueKind = "mac_table"
	KindRoutes     ValueKind = "routes"
	KindComponents ValueKind = "components"
)

// InterfaceRow is one row of an interface table, keyed by Name.
type InterfaceRow struct {
	Name        string `json:"name"`
	AdminStatus string `json:"admin_status"`
	OperStatus  string `json:"oper_status"`
	Address     string `json:"address,omitempty"`
	Speed       string `json:"speed,omitempty"`
	Description string `json:"description,omitempty"`
}

// MACEntry is one forwarding table entry, keyed by normalised MAC address.
type MACEntry struct {
	MAC  string `json:"mac"`
	VLAN string `json:"vlan,omitempty"`
	Port string `json:"port"`
	Type string `json:"type,omitempty"`
}

// RouteEntry is one routing table entry, keyed by destination prefix.
type RouteEntry struct {
	Prefix    string `json:"prefix"`
	Protocol  string `json:"protocol"`
	NextHop   string `json:"next_hop,omitempty"`
	Interface string `json:"interface,omitempty"`
	Metric    string `json:"metric,omitempty"`
}

// ComponentState is the health of a field replaceable unit (power supply, fan).
type ComponentState struct {
	Name  string   `json:"name"`
	State string   `json:"state"`
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
}

// MetricValue is a tagged union over the shapes a parsed metric can take.
type MetricValue struct {
	Kind       ValueKind        `json:"kind"`
	Number     float64          `json:"number,omitempty"`
	Text       string           `json:"text,omitempty"`
	Digest     string           `json:"digest,omitempty"`
	Interfaces []InterfaceRow   `json:"interfaces,omitempty"`
	MACs       []MACEntry       `json:"macs,omitempty"`
	Routes     []RouteEntry     `json:"routes,omitempty"`
	Components []ComponentState `json:"components,omitempty"`
}

func NumberValue(v float64) MetricValue {
	return MetricValue{Kind: KindNumber, Number: v}
}

func TextValue(s string) MetricValue {
	return MetricValue{Kind: KindText, Text: s}
}

func InterfacesValue(rows []InterfaceRow) MetricValue {
	return MetricValue{Kind: KindInterfaces, Interfaces: rows}
}

func MACTableValue(rows []MACEntry) MetricValue {
	return MetricValue{Kind: KindMACTable, MACs: rows}
}

func RoutesValue(rows []RouteEntry) MetricValue {
	return MetricValue{Kind: KindRoutes, Routes: rows}
}

func ComponentsValue(rows []ComponentState) MetricValue {
	return MetricValue{Kind: KindComponents, Components: rows}
}

// IsNumeric reports whether the value can be compared against a numeric threshold.
func (v MetricValue) IsNumeric() bool {
	return v.Kind == KindNumber
}

func (v MetricValue) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.Number)
	case KindText:
		return v.Text
	case KindInterfaces:
		return fmt.Sprintf("%d interfaces", len(v.Interfaces))
	case KindMACTable:
		return fmt.Sprintf("%d mac entries", len(v.MACs))
	case KindRoutes:
		return fmt.Sprintf("%d routes", len(v.Routes))
	case KindComponents:
		return fmt.Sprintf("%d components", len(v.Components))
	default:
		return ""
	}
}

// MetricRecord is one parsed reading. It is never modified after the parser returns it.
type MetricRecord struct {
	Name       MetricName  `json:"name"`
	Value      MetricValue `json:"value"`
	Unit       string      `json:"unit,omitempty"`
	CapturedAt time.Time   `json:"captured_at"`
}

// RawCommandResult is the unparsed outcome of one command round trip.
type RawCommandResult struct {
	DeviceID   string    `json:"device_id"`
	Command    string    `json:"command"`
	Output     string    `json:"output"`
	CapturedAt time.Time `json:"captured_at"`
	Success    bool      `json:"success"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	Err        error     `json:"-"`
}
