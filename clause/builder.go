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

/*
Package clause translates a candidate package set and the specs it
must satisfy into a boolean formula: one variable per candidate
record, at-most-one-per-name clauses, dependency implication clauses,
required-spec clauses, constrains clauses, pin and force-remove unit
clauses, and the lexicographic optimization criteria that pick among
the remaining satisfying assignments.
*/
package clause

import (
	"fmt"
	"strings"

	"condasolve.dev/solve"
	"condasolve.dev/solve/matchspec"
	"condasolve.dev/solve/sat"
)

// Request describes the inputs the clause builder needs beyond the
// candidate set itself.
type Request struct {
	// Specs must be satisfied by at least one selected record.
	Specs []matchspec.Spec

	// Pins restrict the candidates eligible for the package they name
	// to those matching the pin; they do not force that package to be
	// installed.
	Pins []matchspec.Spec

	// ForceRemove names records that must not be selected regardless
	// of any other constraint.
	ForceRemove []solve.RecordKey

	// Frozen names records whose continued presence should be
	// preferred when otherwise unconstrained (spec §4.4 criterion 2).
	Frozen []solve.RecordKey

	// ChannelPriorityEnabled gates criterion 3 (prefer better channel
	// priority); when false every candidate is treated as equal
	// priority.
	ChannelPriorityEnabled bool

	// SkipDependencies disables dependency-implication clauses
	// entirely, for DepsModifier NO_DEPS: a selected record no longer
	// requires any of its Depends entries to also be selected.
	SkipDependencies bool

	// RequiredFeatures names features that at least one selected record,
	// anywhere in the candidate set, must carry. This is
	// solver.Options.TrackFeatures's synthetic-spec injection (spec.md
	// §4.6 step 1), distinct from a record's own TrackFeatures field.
	RequiredFeatures []string
}

// Problem is the boolean formula built from a Request, together with
// enough bookkeeping to translate a sat.Assignment back into records.
type Problem struct {
	Candidates []solve.Record

	CNF        sat.CNF
	Objectives []sat.Objective
}

// SelectedRecords returns the records whose variable is true in a.
func (p *Problem) SelectedRecords(a sat.Assignment) []solve.Record {
	var out []solve.Record
	for i, r := range p.Candidates {
		if a[i] {
			out = append(out, r)
		}
	}
	return out
}

func (p *Problem) varFor(key solve.RecordKey) (int, bool) {
	for i, r := range p.Candidates {
		if r.Key.Compare(key) == 0 {
			return i, true
		}
	}
	return 0, false
}

// Build constructs a Problem from candidates and req. candidates must
// already be the transitive closure of every package that could be
// selected; Build does not expand dependencies itself (that is the
// solver orchestrator's job, since it alone knows the index to expand
// against).
func Build(candidates []solve.Record, req Request) (*Problem, error) {
	p := &Problem{Candidates: candidates}
	p.CNF.NumVars = len(candidates)

	byName := make(map[solve.PackageNameKey][]int)
	for i, r := range candidates {
		key := solve.PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}
		byName[key] = append(byName[key], i)
	}

	p.addAtMostOnePerName(byName)
	if !req.SkipDependencies {
		if err := p.addDependencyClauses(byName); err != nil {
			return nil, err
		}
	}
	if err := p.addConstrainsClauses(byName); err != nil {
		return nil, err
	}
	p.addTrackFeaturesClauses(byName)
	if err := p.addRequiredSpecClauses(req.Specs); err != nil {
		return nil, err
	}
	if err := p.addRequiredFeatureClauses(req.RequiredFeatures); err != nil {
		return nil, err
	}
	if err := p.addPinClauses(req.Pins, byName); err != nil {
		return nil, err
	}
	p.addForceRemoveClauses(req.ForceRemove)
	p.addObjectives(req)

	return p, nil
}

func lit(v int, positive bool) sat.Lit {
	l := sat.Lit(v + 1)
	if !positive {
		l = -l
	}
	return l
}

func (p *Problem) addAtMostOnePerName(byName map[solve.PackageNameKey][]int) {
	for _, vars := range byName {
		for i := 0; i < len(vars); i++ {
			for j := i + 1; j < len(vars); j++ {
				p.CNF.Clauses = append(p.CNF.Clauses, sat.Clause{lit(vars[i], false), lit(vars[j], false)})
			}
		}
	}
}

// matchingVars returns every candidate variable under spec's name (and
// namespace, if qualified) whose record satisfies spec.
func (p *Problem) matchingVars(spec matchspec.Spec, byName map[solve.PackageNameKey][]int) ([]int, error) {
	var out []int
	for key, vars := range byName {
		token := namespaceToken(key.Namespace)
		if !spec.MatchesName(token, key.Name) {
			continue
		}
		for _, v := range vars {
			ok, err := solve.Matches(spec, p.Candidates[v])
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (p *Problem) addDependencyClauses(byName map[solve.PackageNameKey][]int) error {
	for i, r := range p.Candidates {
		for _, depText := range r.Depends {
			spec, err := matchspec.Parse(depText)
			if err != nil {
				return fmt.Errorf("clause: record %s has invalid depends %q: %w", r.Key, depText, err)
			}
			matches, err := p.matchingVars(spec, byName)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				// No candidate exists to satisfy this dependency; the
				// orchestrator is responsible for ensuring candidate
				// closure before calling Build, so this indicates the
				// package can never be selected. Force it off rather
				// than emit an empty (always-false) clause, which
				// would make the whole formula trivially unsat without
				// explaining why.
				p.CNF.Clauses = append(p.CNF.Clauses, sat.Clause{lit(i, false)})
				continue
			}
			cl := make(sat.Clause, 0, len(matches)+1)
			cl = append(cl, lit(i, false))
			for _, v := range matches {
				cl = append(cl, lit(v, true))
			}
			p.CNF.Clauses = append(p.CNF.Clauses, cl)
		}
	}
	return nil
}

func (p *Problem) addConstrainsClauses(byName map[solve.PackageNameKey][]int) error {
	for i, r := range p.Candidates {
		for _, constrainText := range r.Constrains {
			spec, err := matchspec.Parse(constrainText)
			if err != nil {
				return fmt.Errorf("clause: record %s has invalid constrains %q: %w", r.Key, constrainText, err)
			}
			for key, vars := range byName {
				token := namespaceToken(key.Namespace)
				if !spec.MatchesName(token, key.Name) {
					continue
				}
				for _, v := range vars {
					ok, err := solve.Matches(spec, p.Candidates[v])
					if err != nil {
						return err
					}
					if !ok {
						// Selecting r forbids selecting this candidate,
						// which fails the constraint.
						p.CNF.Clauses = append(p.CNF.Clauses, sat.Clause{lit(i, false), lit(v, false)})
					}
				}
			}
		}
	}
	return nil
}

// addTrackFeaturesClauses implements spec.md §4.4 clause family 5: for
// each feature F that some candidate tracks, every candidate of a name
// that has any features=F variant must itself carry F in order to be
// co-selected with a tracker of F. Names with no F-providing candidate
// at all are unaffected, since nothing constrains them either way.
func (p *Problem) addTrackFeaturesClauses(byName map[solve.PackageNameKey][]int) {
	namesProviding := map[string][]solve.PackageNameKey{}
	for key, vars := range byName {
		seen := map[string]bool{}
		for _, v := range vars {
			for f := range p.Candidates[v].Features {
				if !seen[f] {
					seen[f] = true
					namesProviding[f] = append(namesProviding[f], key)
				}
			}
		}
	}
	for i, tracker := range p.Candidates {
		for f := range tracker.TrackFeatures {
			for _, key := range namesProviding[f] {
				for _, v := range byName[key] {
					if !p.Candidates[v].HasFeature(f) {
						p.CNF.Clauses = append(p.CNF.Clauses, sat.Clause{lit(i, false), lit(v, false)})
					}
				}
			}
		}
	}
}

// addRequiredFeatureClauses forces at least one candidate carrying each
// named feature to be selected, regardless of package name.
func (p *Problem) addRequiredFeatureClauses(features []string) error {
	for _, f := range features {
		var providers []int
		for i, r := range p.Candidates {
			if r.HasFeature(f) {
				providers = append(providers, i)
			}
		}
		if len(providers) == 0 {
			return fmt.Errorf("clause: no candidate provides required feature %q", f)
		}
		cl := make(sat.Clause, len(providers))
		for i, v := range providers {
			cl[i] = lit(v, true)
		}
		p.CNF.Clauses = append(p.CNF.Clauses, cl)
	}
	return nil
}

func (p *Problem) addRequiredSpecClauses(specs []matchspec.Spec) error {
	byName := p.byName()
	for _, spec := range specs {
		matches, err := p.matchingVars(spec, byName)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("clause: no candidate satisfies required spec %q", spec)
		}
		cl := make(sat.Clause, len(matches))
		for i, v := range matches {
			cl[i] = lit(v, true)
		}
		p.CNF.Clauses = append(p.CNF.Clauses, cl)
	}
	return nil
}

func (p *Problem) addPinClauses(pins []matchspec.Spec, byName map[solve.PackageNameKey][]int) error {
	for _, pin := range pins {
		for key, vars := range byName {
			token := namespaceToken(key.Namespace)
			if !pin.MatchesName(token, key.Name) {
				continue
			}
			for _, v := range vars {
				ok, err := solve.Matches(pin, p.Candidates[v])
				if err != nil {
					return err
				}
				if !ok {
					p.CNF.Clauses = append(p.CNF.Clauses, sat.Clause{lit(v, false)})
				}
			}
		}
	}
	return nil
}

func (p *Problem) addForceRemoveClauses(forceRemove []solve.RecordKey) {
	for _, key := range forceRemove {
		if v, ok := p.varFor(key); ok {
			p.CNF.Clauses = append(p.CNF.Clauses, sat.Clause{lit(v, false)})
		}
	}
}

// ExplainCore translates a minimal unsat core's clause indices back
// into human-readable per-record-key disjunctions, for
// solver.UnsatisfiableError's Conflicts field.
func (p *Problem) ExplainCore(ids []sat.ClauseID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if int(id) >= len(p.CNF.Clauses) {
			continue
		}
		terms := make([]string, 0, len(p.CNF.Clauses[id]))
		for _, l := range p.CNF.Clauses[id] {
			v := l.Var()
			if v < 0 || v >= len(p.Candidates) {
				continue
			}
			key := p.Candidates[v].Key.String()
			if l.Sign() {
				terms = append(terms, key)
			} else {
				terms = append(terms, "not "+key)
			}
		}
		out = append(out, strings.Join(terms, " or "))
	}
	return out
}

func (p *Problem) byName() map[solve.PackageNameKey][]int {
	byName := make(map[solve.PackageNameKey][]int, len(p.Candidates))
	for i, r := range p.Candidates {
		key := solve.PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}
		byName[key] = append(byName[key], i)
	}
	return byName
}

func namespaceToken(n solve.Namespace) string {
	if n == solve.Global {
		return ""
	}
	return n.String()
}
