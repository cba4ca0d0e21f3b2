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
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/carverauto/netpoll/pkg/hashutil"
	"github.com/carverauto/netpoll/pkg/models"
)

func configChanges(prev, cur models.MetricValue) []models.Change {
	if prev.Digest != "" && cur.Digest != "" && hashutil.EqualDigests(prev.Digest, cur.Digest) {
		return nil
	}

	return Config(prev.Text, cur.Text)
}

// Config diffs two configuration texts line by line. Lines are compared with
// trailing whitespace removed and blank lines ignored. Change keys are line
// numbers: the old line for removals, the new line otherwise.
//
// A removed line is paired with an added line as "modified" only inside one
// replaced block, and only when neither line appears elsewhere on the other
// side. A line that merely moved is reported as removed plus added.
func Config(previous, current string) []models.Change {
	a, aNums := configLines(previous)
	b, bNums := configLines(current)

	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	ops := m.GetOpCodes()

	inA := make(map[string]struct{}, len(a))
	for _, l := range a {
		inA[l] = struct{}{}
	}

	inB := make(map[string]struct{}, len(b))
	for _, l := range b {
		inB[l] = struct{}{}
	}

	var out []models.Change

	removed := func(i int) {
		out = append(out, models.Change{Key: strconv.Itoa(aNums[i]), Type: models.ChangeRemoved, Old: a[i]})
	}

	added := func(j int) {
		out = append(out, models.Change{Key: strconv.Itoa(bNums[j]), Type: models.ChangeAdded, New: b[j]})
	}

	for _, op := range ops {
		switch op.Tag {
		case 'd':
			for i := op.I1; i < op.I2; i++ {
				removed(i)
			}
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				added(j)
			}
		case 'r':
			i, j := op.I1, op.J1

			for ; i < op.I2 && j < op.J2; i, j = i+1, j+1 {
				_, moved := inB[a[i]]
				_, copied := inA[b[j]]

				if moved || copied {
					removed(i)
					added(j)

					continue
				}

				out = append(out, models.Change{
					Key:  strconv.Itoa(bNums[j]),
					Type: models.ChangeModified,
					Old:  a[i],
					New:  b[j],
				})
			}

			for ; i < op.I2; i++ {
				removed(i)
			}

			for ; j < op.J2; j++ {
				added(j)
			}
		}
	}

	return out
}

// configLines splits text into comparable lines with their 1-based numbers.
func configLines(text string) ([]string, []int) {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	nums := make([]int, 0, len(raw))

	for i, l := range raw {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) == "" {
			continue
		}

		lines = append(lines, l)
		nums = append(nums, i+1)
	}

	return lines, nums
}
