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

package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netpoll/pkg/hashutil"
	"github.com/carverauto/netpoll/pkg/models"
)

var core = &models.Device{Name: "core-1", Host: "10.0.0.1", Vendor: models.VendorCiscoIOS}

func observe(ts time.Time, records ...models.MetricRecord) *models.Observation {
	names := make([]models.MetricName, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}

	obs := models.NewObservation(core, names, ts)
	for _, r := range records {
		obs.Add(r)
	}

	obs.Finalize()

	return obs
}

func ifaces(rows ...models.InterfaceRow) models.MetricRecord {
	return models.MetricRecord{Name: models.MetricInterfaces, Value: models.InterfacesValue(rows)}
}

func configRecord(text string) models.MetricRecord {
	v := models.TextValue(text)
	v.Digest = hashutil.SHA256Hex(text)

	return models.MetricRecord{Name: models.MetricConfig, Value: v}
}

func TestDiffInterfaceFlap(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	prev := observe(t0, ifaces(models.InterfaceRow{Name: "Gi0/1", AdminStatus: "up", OperStatus: "up"}))
	cur := observe(t0.Add(5*time.Minute), ifaces(models.InterfaceRow{Name: "Gi0/1", AdminStatus: "up", OperStatus: "down"}))

	deltas := Diff(prev, cur)
	require.Len(t, deltas, 1)

	assert.Equal(t, models.Delta{
		DeviceID: "core-1",
		Domain:   models.DomainInterface,
		At:       cur.Timestamp,
		Changes: []models.Change{
			{Key: "Gi0/1", Type: models.ChangeModified, Field: "oper_status", Old: "up", New: "down"},
		},
	}, deltas[0])
}

func TestDiffFirstObservation(t *testing.T) {
	cur := observe(time.Now(), ifaces(models.InterfaceRow{Name: "Gi0/1", OperStatus: "up"}), configRecord("hostname a"))

	assert.Empty(t, Diff(nil, cur))
}

func TestDiffIdentical(t *testing.T) {
	obs := observe(time.Now(),
		ifaces(
			models.InterfaceRow{Name: "Gi0/1", OperStatus: "up"},
			models.InterfaceRow{Name: "Gi0/2", OperStatus: "down"},
		),
		models.MetricRecord{Name: models.MetricMACTable, Value: models.MACTableValue([]models.MACEntry{
			{MAC: "00:50:79:66:68:00", VLAN: "1", Port: "Gi0/1"},
		})},
		models.MetricRecord{Name: models.MetricRoutingTable, Value: models.RoutesValue([]models.RouteEntry{
			{Prefix: "0.0.0.0/0", Protocol: "static", NextHop: "10.0.0.254"},
		})},
		configRecord("hostname core-1\ninterface Gi0/1\n ip address 10.0.0.1 255.255.255.0"),
	)

	assert.Empty(t, Diff(obs, obs))
}

func TestDiffRowsIgnoreOrder(t *testing.T) {
	a := models.InterfaceRow{Name: "Gi0/1", OperStatus: "up"}
	b := models.InterfaceRow{Name: "Gi0/2", OperStatus: "up"}

	prev := observe(time.Now(), ifaces(a, b))
	cur := observe(time.Now(), ifaces(b, a))

	assert.Empty(t, Diff(prev, cur))
}

func TestDiffRowsAddedRemoved(t *testing.T) {
	prev := observe(time.Now(), models.MetricRecord{
		Name: models.MetricRoutingTable,
		Value: models.RoutesValue([]models.RouteEntry{
			{Prefix: "10.1.0.0/16", Protocol: "ospf", NextHop: "10.0.0.2"},
			{Prefix: "10.2.0.0/16", Protocol: "ospf", NextHop: "10.0.0.2"},
		}),
	})
	cur := observe(time.Now(), models.MetricRecord{
		Name: models.MetricRoutingTable,
		Value: models.RoutesValue([]models.RouteEntry{
			{Prefix: "10.1.0.0/16", Protocol: "ospf", NextHop: "10.0.0.3"},
			{Prefix: "10.3.0.0/16", Protocol: "bgp", NextHop: "192.0.2.1"},
		}),
	})

	deltas := Diff(prev, cur)
	require.Len(t, deltas, 1)
	assert.Equal(t, models.DomainRouting, deltas[0].Domain)

	assert.Equal(t, []models.Change{
		{Key: "10.1.0.0/16", Type: models.ChangeModified, Field: "next_hop", Old: "10.0.0.2", New: "10.0.0.3"},
		{Key: "10.2.0.0/16", Type: models.ChangeRemoved, Old: "protocol=ospf next_hop=10.0.0.2"},
		{Key: "10.3.0.0/16", Type: models.ChangeAdded, New: "protocol=bgp next_hop=192.0.2.1"},
	}, deltas[0].Changes)

	added, removed, modified := deltas[0].Counts()
	assert.Equal(t, []int{1, 1, 1}, []int{added, removed, modified})
}

func TestDiffECMPRoutesMerge(t *testing.T) {
	rows := func(hops ...string) models.MetricRecord {
		out := make([]models.RouteEntry, 0, len(hops))
		for _, h := range hops {
			out = append(out, models.RouteEntry{Prefix: "0.0.0.0/0", Protocol: "static", NextHop: h})
		}

		return models.MetricRecord{Name: models.MetricRoutingTable, Value: models.RoutesValue(out)}
	}

	assert.Empty(t, Diff(observe(time.Now(), rows("10.0.0.1", "10.0.0.2")), observe(time.Now(), rows("10.0.0.2", "10.0.0.1"))))

	deltas := Diff(observe(time.Now(), rows("10.0.0.1", "10.0.0.2")), observe(time.Now(), rows("10.0.0.1")))
	require.Len(t, deltas, 1)
	assert.Equal(t, "10.0.0.1,10.0.0.2", deltas[0].Changes[0].Old)
	assert.Equal(t, "10.0.0.1", deltas[0].Changes[0].New)
}

func TestDiffMACMove(t *testing.T) {
	rec := func(mac, port string) models.MetricRecord {
		return models.MetricRecord{Name: models.MetricMACTable, Value: models.MACTableValue([]models.MACEntry{
			{MAC: mac, VLAN: "10", Port: port, Type: "dynamic"},
		})}
	}

	deltas := Diff(observe(time.Now(), rec("00:50:79:66:68:00", "Gi0/1")), observe(time.Now(), rec("00:50:79:66:68:00", "Gi0/7")))
	require.Len(t, deltas, 1)
	assert.Equal(t, models.DomainMAC, deltas[0].Domain)
	assert.Equal(t, []models.Change{
		{Key: "00:50:79:66:68:00", Type: models.ChangeModified, Field: "port", Old: "Gi0/1", New: "Gi0/7"},
	}, deltas[0].Changes)
}

func TestDiffSkipsDomainMissingOnEitherSide(t *testing.T) {
	prev := observe(time.Now(), ifaces(models.InterfaceRow{Name: "Gi0/1", OperStatus: "up"}))
	cur := observe(time.Now(), configRecord("hostname core-1"))

	assert.Empty(t, Diff(prev, cur))
}

func TestDiffConfig(t *testing.T) {
	prev := "hostname core-1\ninterface Gi0/1\n description uplink\n ip address 10.0.0.1 255.255.255.0\nntp server 10.0.0.5"
	cur := "hostname core-1\ninterface Gi0/1\n description uplink-to-agg\n ip address 10.0.0.1 255.255.255.0\nsnmp-server community x RO\nntp server 10.0.0.5"

	deltas := Diff(observe(time.Now(), configRecord(prev)), observe(time.Now(), configRecord(cur)))
	require.Len(t, deltas, 1)
	assert.Equal(t, models.DomainConfig, deltas[0].Domain)

	assert.Equal(t, []models.Change{
		{Key: "3", Type: models.ChangeModified, Old: " description uplink", New: " description uplink-to-agg"},
		{Key: "5", Type: models.ChangeAdded, New: "snmp-server community x RO"},
	}, deltas[0].Changes)
}

func TestConfigReorderIsRemoveAdd(t *testing.T) {
	changes := Config("a\nb\nc", "c\na\nb")

	for _, c := range changes {
		assert.NotEqual(t, models.ChangeModified, c.Type, "%+v", c)
	}

	added, removed := 0, 0

	for _, c := range changes {
		switch c.Type {
		case models.ChangeAdded:
			added++
			assert.Equal(t, "c", c.New)
		case models.ChangeRemoved:
			removed++
			assert.Equal(t, "c", c.Old)
		}
	}

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}

func TestConfigSwapInsideBlockIsNotModified(t *testing.T) {
	changes := Config("x\nlogging host 1\nlogging host 2\ny", "x\nlogging host 2\nlogging host 1\ny")

	for _, c := range changes {
		assert.NotEqual(t, models.ChangeModified, c.Type, "%+v", c)
	}
}

func TestConfigIgnoresBlankAndTrailingWhitespace(t *testing.T) {
	assert.Empty(t, Config("hostname a  \n\n!\nend", "hostname a\n!\n\nend\n"))
}

func TestConfigDigestShortCircuit(t *testing.T) {
	text := "hostname a"
	prev := models.TextValue(text)
	prev.Digest = hashutil.SHA256Hex(text)

	// matching digests skip the text comparison
	cur := models.TextValue("")
	cur.Digest = prev.Digest

	assert.Empty(t, configChanges(prev, cur))
}
