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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netpoll/pkg/hashutil"
	"github.com/carverauto/netpoll/pkg/models"
)

var captured = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCommandFor(t *testing.T) {
	c := New()

	cmd, err := c.CommandFor(models.VendorCiscoIOS, models.MetricCPU)
	require.NoError(t, err)
	assert.Equal(t, "show processes cpu sorted", cmd)

	cmd, err = c.CommandFor(models.VendorCiscoXE, models.MetricInterfaces)
	require.NoError(t, err)
	assert.Equal(t, "show ip interface brief", cmd)

	_, err = c.CommandFor(models.VendorLinux, models.MetricConfig)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedMetric)

	var unsupported *UnsupportedMetricError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, models.VendorLinux, unsupported.Vendor)
	assert.Equal(t, models.MetricConfig, unsupported.Metric)

	_, err = c.CommandFor("hp_procurve", models.MetricCPU)
	assert.ErrorIs(t, err, ErrUnknownVendor)
}

func TestVendorsClosedSet(t *testing.T) {
	c := New()

	assert.Equal(t, []models.VendorTag{
		models.VendorAristaEOS,
		models.VendorCiscoIOS,
		models.VendorCiscoNXOS,
		models.VendorCiscoXE,
		models.VendorJuniperJunos,
		models.VendorLinux,
	}, c.Vendors())
	assert.True(t, c.Supports(models.VendorJuniperJunos))
	assert.False(t, c.Supports(models.VendorAutodetect))
}

func TestParseRecordStamping(t *testing.T) {
	c := New()

	rec, err := c.Parse(models.VendorCiscoIOS, models.MetricCPU, iosCPU, captured)
	require.NoError(t, err)

	assert.Equal(t, models.MetricCPU, rec.Name)
	assert.Equal(t, captured, rec.CapturedAt)
	assert.Equal(t, models.UnitPercent, rec.Unit)
	assert.InDelta(t, 92.0, rec.Value.Number, 0.001)
}

func TestParseErrorKeepsRaw(t *testing.T) {
	c := New()
	raw := "router1#\n  some banner without the header\n"

	_, err := c.Parse(models.VendorCiscoIOS, models.MetricCPU, raw, captured)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, raw, pe.Raw)
	assert.Equal(t, models.MetricCPU, pe.Metric)
}

func TestParseRejectedCommand(t *testing.T) {
	c := New()
	raw := "show mac address-table\n                   ^\n% Invalid input detected at '^' marker.\n"

	_, err := c.Parse(models.VendorCiscoIOS, models.MetricMACTable, raw, captured)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandRejected))
	assert.True(t, errors.Is(err, ErrParse))
}

func TestParseUnsupported(t *testing.T) {
	_, err := New().Parse(models.VendorLinux, models.MetricConfig, "x", captured)
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}

type parseCase struct {
	vendor models.VendorTag
	metric models.MetricName
	raw    string
	check  func(t *testing.T, v models.MetricValue, unit string)
}

func number(want float64, unit string) func(t *testing.T, v models.MetricValue, u string) {
	return func(t *testing.T, v models.MetricValue, u string) {
		t.Helper()
		require.Equal(t, models.KindNumber, v.Kind)
		assert.InDelta(t, want, v.Number, 0.01)
		assert.Equal(t, unit, u)
	}
}

func text(want string) func(t *testing.T, v models.MetricValue, u string) {
	return func(t *testing.T, v models.MetricValue, _ string) {
		t.Helper()
		require.Equal(t, models.KindText, v.Kind)
		assert.Equal(t, want, v.Text)
	}
}

func runParseCases(t *testing.T, cases map[string]parseCase) {
	t.Helper()

	c := New()

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, err := c.Parse(tc.vendor, tc.metric, tc.raw, captured)
			require.NoError(t, err)
			tc.check(t, rec.Value, rec.Unit)
		})
	}
}

func TestCiscoIOSParsers(t *testing.T) {
	runParseCases(t, map[string]parseCase{
		"cpu":         {models.VendorCiscoIOS, models.MetricCPU, iosCPU, number(92, models.UnitPercent)},
		"memory":      {models.VendorCiscoIOS, models.MetricMemory, iosMemory, number(25, models.UnitPercent)},
		"memory free": {models.VendorCiscoIOS, models.MetricMemoryFree, iosMemory, number(75, models.UnitPercent)},
		"flash":       {models.VendorCiscoIOS, models.MetricFlash, iosFlash, number(25, models.UnitPercent)},
		"uptime": {models.VendorCiscoIOS, models.MetricUptime, "core-1 uptime is 1 week, 2 days, 3 hours, 4 minutes\n",
			number(7*86400+2*86400+3*3600+4*60, models.UnitSeconds)},
		"version":     {models.VendorCiscoIOS, models.MetricVersion, iosVersion, text("15.2(4)E10")},
		"temperature": {models.VendorCiscoIOS, models.MetricTemperature, iosTemp, number(38, models.UnitCelsius)},
		"interfaces": {models.VendorCiscoIOS, models.MetricInterfaces, iosInterfaces, func(t *testing.T, v models.MetricValue, _ string) {
			require.Len(t, v.Interfaces, 3)
			assert.Equal(t, models.InterfaceRow{Name: "GigabitEthernet0/1", AdminStatus: "up", OperStatus: "up", Address: "10.0.0.1"}, v.Interfaces[0])
			assert.Equal(t, "down", v.Interfaces[1].AdminStatus)
			assert.Equal(t, "down", v.Interfaces[1].OperStatus)
			assert.Empty(t, v.Interfaces[1].Address)
			assert.Equal(t, "up", v.Interfaces[2].AdminStatus)
			assert.Equal(t, "down", v.Interfaces[2].OperStatus)
		}},
		"mac table": {models.VendorCiscoIOS, models.MetricMACTable, iosMAC, func(t *testing.T, v models.MetricValue, _ string) {
			require.Len(t, v.MACs, 2)
			assert.Equal(t, models.MACEntry{MAC: "00:50:79:66:68:00", VLAN: "1", Port: "Gi0/1", Type: "dynamic"}, v.MACs[0])
		}},
		"routes": {models.VendorCiscoIOS, models.MetricRoutingTable, iosRoutes, func(t *testing.T, v models.MetricValue, _ string) {
			require.Len(t, v.Routes, 4)
			assert.Equal(t, models.RouteEntry{Prefix: "0.0.0.0/0", Protocol: "static", NextHop: "10.0.0.254", Metric: "1/0"}, v.Routes[0])
			assert.Equal(t, models.RouteEntry{Prefix: "10.0.0.0/24", Protocol: "connected", Interface: "GigabitEthernet0/1"}, v.Routes[1])
			assert.Equal(t, "local", v.Routes[2].Protocol)
			assert.Equal(t, models.RouteEntry{
				Prefix: "192.168.1.0/24", Protocol: "ospf", NextHop: "10.0.0.2", Interface: "GigabitEthernet0/2", Metric: "110/2",
			}, v.Routes[3])
		}},
		"subnetted routes": {models.VendorCiscoIOS, models.MetricRoutingTable, iosSubnettedRoutes, func(t *testing.T, v models.MetricValue, _ string) {
			require.Len(t, v.Routes, 5)
			assert.Equal(t, "10.1.1.1/32", v.Routes[2].Prefix)
			assert.Equal(t, models.RouteEntry{
				Prefix: "172.16.1.0/24", Protocol: "ospf", NextHop: "10.1.1.2", Interface: "GigabitEthernet0/0", Metric: "110/2",
			}, v.Routes[3])
			assert.Equal(t, "172.16.2.0/24", v.Routes[4].Prefix)
			assert.Equal(t, "ospf", v.Routes[4].Protocol)
		}},
		"config": {models.VendorCiscoIOS, models.MetricConfig, iosConfig, func(t *testing.T, v models.MetricValue, _ string) {
			assert.NotContains(t, v.Text, "Building configuration")
			assert.NotContains(t, v.Text, "Last configuration change")
			assert.Contains(t, v.Text, "hostname core-1")
			assert.True(t, hashutil.EqualSHA256(v.Digest, v.Text))
		}},
		"power": {models.VendorCiscoIOS, models.MetricPowerSupplies, iosPower, func(t *testing.T, v models.MetricValue, _ string) {
			require.Len(t, v.Components, 2)
			assert.Equal(t, "ok", v.Components[0].State)
			assert.Equal(t, models.ComponentState{Name: "1B", State: "absent"}, v.Components[1])
		}},
		"fans": {models.VendorCiscoIOS, models.MetricFans, iosFans, func(t *testing.T, v models.MetricValue, _ string) {
			require.Len(t, v.Components, 2)
			assert.Equal(t, "Fan 1", v.Components[0].Name)
			require.NotNil(t, v.Components[0].Value)
			assert.InDelta(t, 3200, *v.Components[0].Value, 0.1)
			assert.Equal(t, "failed", v.Components[1].State)
		}},
	})
}

func TestConfigVolatileLinesIgnored(t *testing.T) {
	c := New()

	a, err := c.Parse(models.VendorCiscoIOS, models.MetricConfig, iosConfig, captured)
	require.NoError(t, err)

	shifted := "Building configuration...\n\nCurrent configuration : 9999 bytes\n! Last configuration change at 09:00:00 UTC Sun Mar 2 2025\n" +
		iosConfigBody

	b, err := c.Parse(models.VendorCiscoIOS, models.MetricConfig, shifted, captured)
	require.NoError(t, err)

	assert.Equal(t, a.Value.Digest, b.Value.Digest)
}

func TestParsersFailLoudly(t *testing.T) {
	c := New()

	cases := []struct {
		vendor models.VendorTag
		metric models.MetricName
		raw    string
	}{
		{models.VendorCiscoIOS, models.MetricMemory, "Processor 1 2 3"},
		{models.VendorCiscoIOS, models.MetricInterfaces, "GigabitEthernet0/1 10.0.0.1 YES NVRAM up up"},
		{models.VendorCiscoIOS, models.MetricRoutingTable, "S* 0.0.0.0/0 via 10.0.0.1"},
		{models.VendorCiscoIOS, models.MetricRoutingTable, "Codes: C - connected\nGateway of last resort is not set\n\nO    172.16.1.0 [110/2] via 10.1.1.2\n"},
		{models.VendorCiscoIOS, models.MetricFlash, "Directory of flash:/\n"},
		{models.VendorCiscoIOS, models.MetricTemperature, "SYSTEM TEMPERATURE is OK"},
		{models.VendorCiscoNXOS, models.MetricCPU, "not json"},
		{models.VendorCiscoNXOS, models.MetricInterfaces, `{"other": 1}`},
		{models.VendorAristaEOS, models.MetricMemory, `{"version": "4.28.3M"}`},
		{models.VendorJuniperJunos, models.MetricCPU, "Idle 50 percent"},
		{models.VendorLinux, models.MetricInterfaces, "eth0 is up"},
		{models.VendorLinux, models.MetricMACTable, "not-a-mac dev eth0"},
		{models.VendorLinux, models.MetricUptime, "abc"},
	}

	for _, tc := range cases {
		_, err := c.Parse(tc.vendor, tc.metric, tc.raw, captured)
		assert.ErrorIs(t, err, ErrParse, "%s %s", tc.vendor, tc.metric)
	}
}

func TestCrossVendorUnits(t *testing.T) {
	c := New()

	samples := []struct {
		vendor models.VendorTag
		raw    string
	}{
		{models.VendorCiscoIOS, iosMemory},
		{models.VendorCiscoNXOS, nxosResourcesJSON},
		{models.VendorAristaEOS, eosVersionJSON},
		{models.VendorJuniperJunos, junosRE},
		{models.VendorLinux, linuxFree},
	}

	for _, s := range samples {
		rec, err := c.Parse(s.vendor, models.MetricMemory, s.raw, captured)
		require.NoError(t, err, s.vendor)
		assert.Equal(t, models.UnitPercent, rec.Unit, s.vendor)
		assert.GreaterOrEqual(t, rec.Value.Number, 0.0)
		assert.LessOrEqual(t, rec.Value.Number, 100.0)
	}
}

func TestParseUnits(t *testing.T) {
	v, err := ParsePercent("75%")
	require.NoError(t, err)
	assert.InDelta(t, 75.0, v, 0.001)

	_, err = ParsePercent("seventy")
	require.Error(t, err)

	n, err := ParseBytes("1,234,567 bytes")
	require.NoError(t, err)
	assert.Equal(t, uint64(1234567), n)

	n, err = ParseBytes("2 KiB")
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), n)

	c, err := ParseCelsius("Inlet 28C, Outlet 41 C, Hotspot 104 F")
	require.NoError(t, err)
	assert.InDelta(t, 41.0, c, 0.001)

	secs, err := ParseUptime("12 days, 3:04")
	require.NoError(t, err)
	assert.InDelta(t, float64(12*86400+3*3600+4*60), secs, 0.001)

	secs, err = ParseUptime("1w2d")
	require.NoError(t, err)
	assert.InDelta(t, float64(9*86400), secs, 0.001)

	_, err = ParseUptime("a while")
	require.Error(t, err)
}
