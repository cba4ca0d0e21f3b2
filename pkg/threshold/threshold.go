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

// Package threshold turns an Observation into per-metric health statuses.
//
// Thresholds resolve through three levels, device then site then global
// defaults. The first level that names a metric supplies its whole
// {warning, critical} pair; pairs are never assembled from several levels.
//
// A collected numeric value is critical when it reaches the critical
// boundary, warning when it reaches the warning boundary, and good
// otherwise. Boundaries are inclusive and the comparison direction is per
// metric (higher-is-worse for CPU, lower-is-worse for free memory).
// Component lists and text values are matched against the categorical state
// lists instead, and the worst component wins. Requested metrics that were
// not collected are unknown. Collected metrics without a threshold pass
// through with no status.
package threshold

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

// MetricStatus is the evaluation of one metric.
type MetricStatus struct {
	Metric models.MetricName `json:"metric"`
	// Status is models.StatusNone for pass-through metrics.
	Status    models.Status      `json:"status,omitempty"`
	Value     models.MetricValue `json:"value"`
	Unit      string             `json:"unit,omitempty"`
	Threshold *models.Threshold  `json:"threshold,omitempty"`
	Reason    string             `json:"reason,omitempty"`
}

// StatusMap is the result of Evaluate, keyed by metric.
type StatusMap map[models.MetricName]MetricStatus

// Status returns the status for metric, or StatusNone when absent.
func (m StatusMap) Status(metric models.MetricName) models.Status {
	return m[metric].Status
}

// Sorted returns the entries ordered by metric name.
func (m StatusMap) Sorted() []MetricStatus {
	out := make([]MetricStatus, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })

	return out
}

// Resolve returns the threshold set for device. A nil config yields an
// empty set.
func Resolve(cfg *models.ThresholdConfig, device *models.Device) models.ThresholdSet {
	out := make(models.ThresholdSet)
	if cfg == nil {
		return out
	}

	levels := make([]models.ThresholdSet, 0, 3)

	if device != nil {
		if set, ok := cfg.Devices[device.ID()]; ok {
			levels = append(levels, set)
		}

		if device.Site != "" {
			if set, ok := cfg.Sites[device.Site]; ok {
				levels = append(levels, set)
			}
		}
	}

	levels = append(levels, cfg.Defaults)

	for _, set := range levels {
		for metric, t := range set {
			if _, taken := out[metric]; !taken {
				out[metric] = t
			}
		}
	}

	return out
}

// Evaluate computes a status for every metric the observation requested or
// reports. A nil observation yields an empty map.
func Evaluate(obs *models.Observation, set models.ThresholdSet) StatusMap {
	out := make(StatusMap)
	if obs == nil {
		return out
	}

	for _, metric := range metricsOf(obs) {
		out[metric] = evaluateMetric(obs, metric, set)
	}

	return out
}

func metricsOf(obs *models.Observation) []models.MetricName {
	seen := make(map[models.MetricName]struct{}, len(obs.Requested))
	out := make([]models.MetricName, 0, len(obs.Requested))

	for _, m := range append(append([]models.MetricName{}, obs.Requested...), obs.Metrics()...) {
		if _, ok := seen[m]; ok {
			continue
		}

		seen[m] = struct{}{}
		out = append(out, m)
	}

	return out
}

func evaluateMetric(obs *models.Observation, metric models.MetricName, set models.ThresholdSet) MetricStatus {
	res := MetricStatus{Metric: metric}

	if t, ok := set[metric]; ok {
		res.Threshold = &t
	}

	rec, ok := obs.Record(metric)
	if !ok {
		res.Status = models.StatusUnknown
		res.Reason = failureReason(obs, metric)

		return res
	}

	res.Value = rec.Value
	res.Unit = rec.Unit

	if res.Threshold == nil {
		return res
	}

	res.Status, res.Reason = Classify(metric, rec.Value, *res.Threshold)

	return res
}

func failureReason(obs *models.Observation, metric models.MetricName) string {
	for _, f := range obs.Failed {
		if f.Metric == metric {
			return fmt.Sprintf("not collected (%s): %s", f.Kind, f.Reason)
		}
	}

	return "not collected"
}

// Classify evaluates one value against one threshold.
func Classify(metric models.MetricName, v models.MetricValue, t models.Threshold) (models.Status, string) {
	switch {
	case v.IsNumeric() && t.Numeric():
		return classifyNumber(v.Number, t, t.DirectionFor(metric))
	case v.Kind == models.KindComponents && t.Categorical():
		return classifyComponents(v.Components, t)
	case v.Kind == models.KindText && t.Categorical():
		st := classifyState(v.Text, t)
		return st, fmt.Sprintf("state %q", v.Text)
	default:
		return models.StatusUnknown, fmt.Sprintf("%s value is not comparable with the configured threshold", v.Kind)
	}
}

func classifyNumber(v float64, t models.Threshold, dir models.Direction) (models.Status, string) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.StatusUnknown, fmt.Sprintf("value %g is not finite", v)
	}

	op := ">="
	if dir == models.LowerIsWorse {
		op = "<="
	}

	if t.Critical != nil && crosses(v, *t.Critical, dir) {
		return models.StatusCritical, fmt.Sprintf("%g %s critical %g", v, op, *t.Critical)
	}

	if t.Warning != nil && crosses(v, *t.Warning, dir) {
		return models.StatusWarning, fmt.Sprintf("%g %s warning %g", v, op, *t.Warning)
	}

	return models.StatusGood, ""
}

func crosses(v, boundary float64, dir models.Direction) bool {
	if dir == models.LowerIsWorse {
		return v <= boundary
	}

	return v >= boundary
}

func classifyComponents(rows []models.ComponentState, t models.Threshold) (models.Status, string) {
	if len(rows) == 0 {
		return models.StatusUnknown, "no components reported"
	}

	worst := models.StatusGood
	bad := make([]string, 0, len(rows))

	for _, row := range rows {
		st := classifyState(row.State, t)
		if st.Alerting() {
			bad = append(bad, fmt.Sprintf("%s %s", row.Name, row.State))
		}

		worst = worst.Worse(st)
	}

	return worst, strings.Join(bad, ", ")
}

func classifyState(state string, t models.Threshold) models.Status {
	if matchState(state, t.CriticalStates) {
		return models.StatusCritical
	}

	if matchState(state, t.WarningStates) {
		return models.StatusWarning
	}

	return models.StatusGood
}

func matchState(state string, list []string) bool {
	state = strings.TrimSpace(state)

	for _, s := range list {
		if strings.EqualFold(state, s) {
			return true
		}
	}

	return false
}

// Overall rolls a status map up into one device status: critical, then
// warning, then unknown, then good. Pass-through metrics do not count, and a
// map with nothing evaluated is unknown rather than good.
func Overall(statuses StatusMap) models.Status {
	overall := models.StatusNone

	for _, s := range statuses {
		overall = overall.Worse(s.Status)
	}

	if overall == models.StatusNone {
		return models.StatusUnknown
	}

	return overall
}

// Counts tallies evaluated metrics per status, pass-through excluded.
func Counts(statuses StatusMap) map[models.Status]int {
	out := make(map[models.Status]int, 4)

	for _, s := range statuses {
		if s.Status == models.StatusNone {
			continue
		}

		out[s.Status]++
	}

	return out
}
