// Copyright 2026 The condasolve Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package clause

import (
	"condasolve.dev/solve"
	"condasolve.dev/solve/matchspec"
	"condasolve.dev/solve/sat"
)

// addObjectives appends the seven lexicographic optimization criteria
// in priority order, each scoped over the candidates already present
// in p.Candidates.
func (p *Problem) addObjectives(req Request) {
	p.Objectives = append(p.Objectives, p.orphanedTrackFeaturesObjective())
	p.Objectives = append(p.Objectives, p.frozenRemovalObjective(req.Frozen))
	if req.ChannelPriorityEnabled {
		p.Objectives = append(p.Objectives, p.channelPriorityObjective())
	}
	p.Objectives = append(p.Objectives, p.requestedVersionObjective(req.Specs))
	p.Objectives = append(p.Objectives, p.buildNumberObjective())
	p.Objectives = append(p.Objectives, p.recordCountObjective())
	p.Objectives = append(p.Objectives, p.timestampObjective())
}

// criterion 1: minimize orphaned track_features holders. A tracked
// feature is orphaned if no selected record provides it as a regular
// feature; fewer orphaned trackers is always preferred.
func (p *Problem) orphanedTrackFeaturesObjective() sat.Objective {
	return sat.Objective{
		Name:     "minimize-orphaned-track-features",
		Maximize: false,
		Weight: func(a sat.Assignment) int64 {
			provided := map[string]bool{}
			for i, r := range p.Candidates {
				if !a[i] {
					continue
				}
				for f := range r.Features {
					provided[f] = true
				}
			}
			var orphaned int64
			for i, r := range p.Candidates {
				if !a[i] {
					continue
				}
				for f := range r.TrackFeatures {
					if !provided[f] {
						orphaned++
					}
				}
			}
			return orphaned
		},
	}
}

// criterion 2: minimize the number of frozen (previously installed)
// records that get removed by this solution.
func (p *Problem) frozenRemovalObjective(frozen []solve.RecordKey) sat.Objective {
	return sat.Objective{
		Name:     "minimize-frozen-removals",
		Maximize: false,
		Weight: func(a sat.Assignment) int64 {
			var removed int64
			for _, key := range frozen {
				v, ok := p.varFor(key)
				if !ok || !a[v] {
					removed++
				}
			}
			return removed
		},
	}
}

// criterion 3: minimize the count of selected records whose channel
// priority rank is worse than the best-ranked candidate available for
// that name, applied only when channel priority is enabled. This is a
// count of violations, not a sum of priorities: a name with a large
// priority gap between its best and next-best build counts the same as
// one with a small gap, so the two aren't traded off against each
// other.
func (p *Problem) channelPriorityObjective() sat.Objective {
	bestByName := map[solve.PackageNameKey]solve.ChannelPriority{}
	for key, vars := range p.byName() {
		best := p.Candidates[vars[0]].Priority
		for _, v := range vars[1:] {
			if p.Candidates[v].Priority.Less(best) {
				best = p.Candidates[v].Priority
			}
		}
		bestByName[key] = best
	}
	return sat.Objective{
		Name:     "minimize-worse-channel-priority",
		Maximize: false,
		Weight: func(a sat.Assignment) int64 {
			var worse int64
			for i, r := range p.Candidates {
				if !a[i] {
					continue
				}
				key := solve.PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}
				if bestByName[key].Less(r.Priority) {
					worse++
				}
			}
			return worse
		},
	}
}

// criterion 4: maximize the version rank (higher version -> higher
// rank, among same-name candidates) of records that satisfy a
// directly requested spec.
func (p *Problem) requestedVersionObjective(specs []matchspec.Spec) sat.Objective {
	rank := p.versionRanks()
	requestedNames := make(map[solve.PackageNameKey]bool, len(specs))
	byName := p.byName()
	for _, spec := range specs {
		for key := range byName {
			token := namespaceToken(key.Namespace)
			if spec.MatchesName(token, key.Name) {
				requestedNames[key] = true
			}
		}
	}
	return sat.Objective{
		Name:     "maximize-requested-version",
		Maximize: true,
		Weight: func(a sat.Assignment) int64 {
			var total int64
			for i, r := range p.Candidates {
				if !a[i] {
					continue
				}
				key := solve.PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}
				if requestedNames[key] {
					total += rank[i]
				}
			}
			return total
		},
	}
}

// versionRanks assigns each candidate an ascending rank (0 is lowest)
// among other candidates sharing its package name, so that a higher
// version always has a higher rank regardless of the numeric gap
// between versions.
func (p *Problem) versionRanks() []int64 {
	rank := make([]int64, len(p.Candidates))
	for _, vars := range p.byName() {
		ordered := append([]int(nil), vars...)
		for i := 0; i < len(ordered); i++ {
			for j := i + 1; j < len(ordered); j++ {
				a, b := ordered[i], ordered[j]
				if p.Candidates[a].Key.Version.Compare(p.Candidates[b].Key.Version) > 0 {
					ordered[i], ordered[j] = ordered[j], ordered[i]
				}
			}
		}
		for i, v := range ordered {
			rank[v] = int64(i)
		}
	}
	return rank
}

// criterion 5: maximize total build_number among selected records.
func (p *Problem) buildNumberObjective() sat.Objective {
	return sat.Objective{
		Name:     "maximize-build-number",
		Maximize: true,
		Weight: func(a sat.Assignment) int64 {
			var total int64
			for i, r := range p.Candidates {
				if a[i] {
					total += int64(r.Key.BuildNumber)
				}
			}
			return total
		},
	}
}

// criterion 6: minimize the total number of selected records.
func (p *Problem) recordCountObjective() sat.Objective {
	return sat.Objective{
		Name:     "minimize-record-count",
		Maximize: false,
		Weight: func(a sat.Assignment) int64 {
			var count int64
			for _, v := range a {
				if v {
					count++
				}
			}
			return count
		},
	}
}

// criterion 7: maximize total timestamp among selected records, the
// final deterministic tiebreak.
func (p *Problem) timestampObjective() sat.Objective {
	return sat.Objective{
		Name:     "maximize-timestamp",
		Maximize: true,
		Weight: func(a sat.Assignment) int64 {
			var total int64
			for i, r := range p.Candidates {
				if a[i] {
					total += r.Timestamp
				}
			}
			return total
		},
	}
}
