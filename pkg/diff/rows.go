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
	"sort"
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

// field is one tracked column of a keyed row.
type field[T any] struct {
	name string
	get  func(T) string
}

// table describes how rows of one domain are keyed and compared.
type table[T any] struct {
	key    func(T) string
	fields []field[T]
}

var interfaceTable = table[models.InterfaceRow]{
	key: func(r models.InterfaceRow) string { return r.Name },
	fields: []field[models.InterfaceRow]{
		{"admin_status", func(r models.InterfaceRow) string { return r.AdminStatus }},
		{"oper_status", func(r models.InterfaceRow) string { return r.OperStatus }},
		{"address", func(r models.InterfaceRow) string { return r.Address }},
		{"speed", func(r models.InterfaceRow) string { return r.Speed }},
		{"description", func(r models.InterfaceRow) string { return r.Description }},
	},
}

var macTable = table[models.MACEntry]{
	key: func(r models.MACEntry) string { return strings.ToLower(r.MAC) },
	fields: []field[models.MACEntry]{
		{"vlan", func(r models.MACEntry) string { return r.VLAN }},
		{"port", func(r models.MACEntry) string { return r.Port }},
		{"type", func(r models.MACEntry) string { return r.Type }},
	},
}

var routeTable = table[models.RouteEntry]{
	key: func(r models.RouteEntry) string { return r.Prefix },
	fields: []field[models.RouteEntry]{
		{"protocol", func(r models.RouteEntry) string { return r.Protocol }},
		{"next_hop", func(r models.RouteEntry) string { return r.NextHop }},
		{"interface", func(r models.RouteEntry) string { return r.Interface }},
		{"metric", func(r models.RouteEntry) string { return r.Metric }},
	},
}

func interfaceChanges(prev, cur models.MetricValue) []models.Change {
	return interfaceTable.diff(prev.Interfaces, cur.Interfaces)
}

func macChanges(prev, cur models.MetricValue) []models.Change {
	return macTable.diff(prev.MACs, cur.MACs)
}

func routeChanges(prev, cur models.MetricValue) []models.Change {
	return routeTable.diff(prev.Routes, cur.Routes)
}

// index flattens rows into key -> field values. Rows sharing a key (ECMP
// routes, a MAC learned twice) are merged, each field holding the sorted,
// distinct values joined by ",".
func (t table[T]) index(rows []T) map[string][]string {
	sets := make(map[string][]map[string]struct{}, len(rows))

	for _, r := range rows {
		k := t.key(r)
		if k == "" {
			continue
		}

		vals, ok := sets[k]
		if !ok {
			vals = make([]map[string]struct{}, len(t.fields))
			for i := range vals {
				vals[i] = make(map[string]struct{}, 1)
			}

			sets[k] = vals
		}

		for i, f := range t.fields {
			if v := f.get(r); v != "" {
				vals[i][v] = struct{}{}
			}
		}
	}

	out := make(map[string][]string, len(sets))

	for k, vals := range sets {
		flat := make([]string, len(vals))

		for i, set := range vals {
			distinct := make([]string, 0, len(set))
			for v := range set {
				distinct = append(distinct, v)
			}

			sort.Strings(distinct)
			flat[i] = strings.Join(distinct, ",")
		}

		out[k] = flat
	}

	return out
}

// diff compares rows by key, never by position. Changes are sorted by key;
// a modified row yields one change per differing field.
func (t table[T]) diff(prev, cur []T) []models.Change {
	before := t.index(prev)
	after := t.index(cur)

	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}

	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	var out []models.Change

	for _, k := range keys {
		old, hadOld := before[k]
		now, hasNew := after[k]

		switch {
		case !hadOld:
			out = append(out, models.Change{Key: k, Type: models.ChangeAdded, New: t.summary(now)})
		case !hasNew:
			out = append(out, models.Change{Key: k, Type: models.ChangeRemoved, Old: t.summary(old)})
		default:
			for i, f := range t.fields {
				if old[i] == now[i] {
					continue
				}

				out = append(out, models.Change{
					Key:   k,
					Type:  models.ChangeModified,
					Field: f.name,
					Old:   old[i],
					New:   now[i],
				})
			}
		}
	}

	return out
}

// summary renders the non-empty fields of a row as "name=value" pairs.
func (t table[T]) summary(vals []string) string {
	parts := make([]string, 0, len(vals))

	for i, f := range t.fields {
		if vals[i] == "" {
			continue
		}

		parts = append(parts, f.name+"="+vals[i])
	}

	return strings.Join(parts, " ")
}
