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
Package solver is the stateful orchestrator built on top of
condasolve.dev/solve, condasolve.dev/solve/clause, and
condasolve.dev/solve/sat: it composes the target spec set from prefix
history, pins, and the caller's requested changes, applies an update
modifier, builds and solves the boolean formula, and returns either
the final package state or an unlink/link diff against the prefix's
current state.
*/
package solver

import (
	"fmt"
	"log"

	"condasolve.dev/solve"
	"condasolve.dev/solve/clause"
	"condasolve.dev/solve/matchspec"
	"condasolve.dev/solve/sat"
)

// debug gates tracing of the history-relaxation retry loop, whose
// branches are otherwise silent; flip it on when chasing down an
// unexpected relaxation order.
const debug = false

// UpdateModifier controls how aggressively the solver is allowed to
// change already-installed packages that were not explicitly named in
// the current request.
type UpdateModifier byte

const (
	// UpdateModifierNone leaves installed packages alone unless a
	// requested spec or its dependency closure forces a change.
	UpdateModifierNone UpdateModifier = iota
	// UpdateSpecs updates only the packages named in the request.
	UpdateSpecs
	// FreezeInstalled never changes an already-installed package's
	// version or build; solving fails if that is impossible.
	FreezeInstalled
	// UpdateDeps updates the requested packages and, after a first
	// solve, lets their direct dependencies move as if aggressively
	// updated; deeper dependencies are not re-specified.
	UpdateDeps
	// UpdateAll updates every installed package to its best available
	// version, subject to pins and constraints.
	UpdateAll
	// SpecsSatisfiedSkipSolve skips solving entirely if every
	// requested spec is already satisfied by the installed set.
	SpecsSatisfiedSkipSolve
)

func (m UpdateModifier) String() string {
	switch m {
	case UpdateModifierNone:
		return "NONE"
	case UpdateSpecs:
		return "UPDATE_SPECS"
	case FreezeInstalled:
		return "FREEZE_INSTALLED"
	case UpdateDeps:
		return "UPDATE_DEPS"
	case UpdateAll:
		return "UPDATE_ALL"
	case SpecsSatisfiedSkipSolve:
		return "SPECS_SATISFIED_SKIP_SOLVE"
	default:
		return "UNKNOWN"
	}
}

// DepsModifier controls whether a requested package's dependencies are
// solved alongside it, or at all.
type DepsModifier byte

const (
	// DepsModifierNone solves dependencies normally.
	DepsModifierNone DepsModifier = iota
	// NoDeps solves only the requested packages themselves, ignoring
	// their Depends entirely.
	NoDeps
	// OnlyDeps solves the requested packages' dependencies but omits
	// the requested packages themselves from the final link set.
	OnlyDeps
)

func (m DepsModifier) String() string {
	switch m {
	case DepsModifierNone:
		return "NONE"
	case NoDeps:
		return "NO_DEPS"
	case OnlyDeps:
		return "ONLY_DEPS"
	default:
		return "UNKNOWN"
	}
}

// Options is the solver's explicit, immutable configuration; nothing
// is read from environment or files, since that is the caller's (the
// CLI's) responsibility.
type Options struct {
	UpdateModifier UpdateModifier
	DepsModifier   DepsModifier

	ChannelPriority bool

	// TrackFeatures forces at least one selected record carrying each
	// named feature into the final state, via synthetic required specs
	// (spec.md §4.6 step 1); it does not merely permit those features.
	TrackFeatures []string

	PinnedSpecs           []string
	AggressiveUpdateNames []string
	IgnorePinned          bool
	Prune                 bool
	ForceReinstall        bool
	AutoUpdateConda       bool

	// ForceRemove names records that must not be selected regardless of
	// any dependency or requested spec; wired straight through to
	// clause.Request.ForceRemove.
	ForceRemove []string

	// Dev mirrors conda's --dev context flag. It has no effect on
	// dependency resolution in the original implementation (it only
	// adjusts sys.path and error verbosity for conda's own source tree);
	// it is accepted here purely so Options's field set matches conda's
	// context surface.
	Dev bool
}

// PrefixState is the stateful input/output threaded between
// invocations: the currently installed records and the specs a user
// has ever explicitly requested. The solver never caches this itself;
// rebuilding it per invocation is the caller's responsibility.
type PrefixState struct {
	Records []solve.Record
	History []string // match spec strings, oldest first
}

// PackagesNotFoundError reports names with no matching candidate
// anywhere in the index.
type PackagesNotFoundError struct {
	Names []string
}

func (e *PackagesNotFoundError) Error() string {
	return fmt.Sprintf("solver: packages not found: %v", e.Names)
}

// UnsatisfiableError reports that no assignment satisfies the
// requested specs given the candidate closure, along with a
// best-effort explanation.
type UnsatisfiableError struct {
	Specs     []string
	Conflicts []string
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("solver: unsatisfiable specs %v", e.Specs)
}

// Solver resolves package requests against a fixed index.
type Solver struct {
	Index   solve.Index
	Options Options
}

// New returns a Solver over idx with the given options.
func New(idx solve.Index, opts Options) *Solver {
	return &Solver{Index: idx, Options: opts}
}

// SolveFinalState computes the complete package set that should be
// installed after applying specsToAdd/specsToRemove to prefix, honoring
// the Solver's UpdateModifier and DepsModifier.
func (s *Solver) SolveFinalState(prefix PrefixState, specsToAdd, specsToRemove []string) ([]solve.Record, error) {
	specsToAdd = s.withAutoUpdateConda(prefix, specsToAdd)

	stripKept := s.Options.UpdateModifier == UpdateAll
	history, err := parseSpecs(mergeHistory(prefix.History, specsToAdd, specsToRemove, stripKept))
	if err != nil {
		return nil, err
	}

	removeSet, err := parseSpecs(specsToRemove)
	if err != nil {
		return nil, err
	}

	addedSpecs, err := parseSpecs(specsToAdd)
	if err != nil {
		return nil, err
	}

	if s.Options.UpdateModifier == SpecsSatisfiedSkipSolve {
		ok, err := specsSatisfied(prefix.Records, addedSpecs)
		if err != nil {
			return nil, err
		}
		if ok {
			return prefix.Records, nil
		}
	}

	required := filterOut(history, removeSet)
	// mergeHistory appends the requested adds after the kept history, so
	// the last numAdded entries of required are this call's own requests;
	// relaxation only ever drops the history entries before them.
	numAdded := len(filterOut(addedSpecs, removeSet))

	extraAggressive, err := s.updateDepsAggressive(prefix, required, addedSpecs)
	if err != nil {
		return nil, err
	}

	attempt := required
	for {
		records, uerr := s.solveOnce(prefix, attempt, extraAggressive)
		if uerr == nil {
			return records, nil
		}
		var unsat *UnsatisfiableError
		if !isUnsatisfiable(uerr, &unsat) {
			return nil, uerr
		}
		if len(attempt) <= numAdded {
			return nil, uerr
		}
		if debug {
			log.Printf("solver: relaxing history, dropping %q", attempt[0])
		}
		attempt = attempt[1:]
	}
}

// specsSatisfied reports whether every spec in specs already matches
// some currently installed record, for SPECS_SATISFIED_SKIP_SOLVE
// (spec.md §4.6 step 2).
func specsSatisfied(installed []solve.Record, specs []matchspec.Spec) (bool, error) {
	for _, sp := range specs {
		satisfied := false
		for _, r := range installed {
			if !sp.MatchesName(namespaceTokenOf(r), r.Key.Name) {
				continue
			}
			ok, err := solve.Matches(sp, r)
			if err != nil {
				return false, err
			}
			if ok {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}

// updateDepsAggressive implements UPDATE_DEPS (spec.md §4.6 step 2): run
// a first solve, then mark the direct dependencies of the requested
// specs aggressive for the real solve, so they're free to move off
// whatever they were frozen at instead of just being held in place.
func (s *Solver) updateDepsAggressive(prefix PrefixState, required, requestedAdds []matchspec.Spec) (map[string]bool, error) {
	extra := map[string]bool{}
	if s.Options.UpdateModifier != UpdateDeps || len(requestedAdds) == 0 {
		return extra, nil
	}
	first, err := s.solveOnce(prefix, required, nil)
	if err != nil {
		// Leave diagnosing the failure to the real solve below.
		return extra, nil
	}
	for _, sp := range requestedAdds {
		for _, r := range first {
			if !sp.MatchesName(namespaceTokenOf(r), r.Key.Name) {
				continue
			}
			ok, err := solve.Matches(sp, r)
			if err != nil || !ok {
				continue
			}
			for _, d := range r.Depends {
				if ds, perr := matchspec.Parse(d); perr == nil {
					extra[ds.Name] = true
				}
			}
		}
	}
	return extra, nil
}

// SolveForDiff computes SolveFinalState and returns the unlink/link
// diff against prefix's current records. If prune is true, records
// that are no longer reachable from any requested spec are also
// removed even if nothing else forces their removal.
func (s *Solver) SolveForDiff(prefix PrefixState, specsToAdd, specsToRemove []string) (solve.Diff, error) {
	final, err := s.SolveFinalState(prefix, specsToAdd, specsToRemove)
	if err != nil {
		return solve.Diff{}, err
	}
	diff := solve.ComputeDiff(prefix.Records, final)
	if s.Options.ForceReinstall {
		diff = forceReinstall(diff, prefix.Records, final, specsToAdd)
	}
	return diff, nil
}

// forceReinstall adds an unlink/link pair for any requested package
// whose selected record is identical to what was already installed,
// since ComputeDiff otherwise treats an unchanged RecordKey as nothing
// to do.
func forceReinstall(diff solve.Diff, prevRecords, nextRecords []solve.Record, specsToAdd []string) solve.Diff {
	requested, err := parseSpecs(specsToAdd)
	if err != nil {
		return diff
	}
	for _, r := range nextRecords {
		var prev solve.Record
		ok := false
		for _, p := range prevRecords {
			if p.Key.Compare(r.Key) == 0 {
				prev, ok = p, true
				break
			}
		}
		if !ok {
			continue
		}
		matched := false
		for _, sp := range requested {
			if sp.MatchesName(namespaceTokenOf(r), r.Key.Name) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		diff.Unlink = append(diff.Unlink, prev)
		diff.Link = append(diff.Link, r)
	}
	return diff
}

func namespaceTokenOf(r solve.Record) string {
	if r.Key.Namespace == solve.Global {
		return ""
	}
	return r.Key.Namespace.String()
}

// withAutoUpdateConda appends a bare "conda" spec to specsToAdd when
// conda itself is installed, matching conda's own always-update-self
// behavior in the root environment.
func (s *Solver) withAutoUpdateConda(prefix PrefixState, specsToAdd []string) []string {
	if !s.Options.AutoUpdateConda {
		return specsToAdd
	}
	for _, r := range prefix.Records {
		if r.Key.Name == "conda" {
			return append(append([]string(nil), specsToAdd...), "conda")
		}
	}
	return specsToAdd
}

func isUnsatisfiable(err error, target **UnsatisfiableError) bool {
	if e, ok := err.(*UnsatisfiableError); ok {
		*target = e
		return true
	}
	return false
}

// mergeHistory folds specsToAdd/specsToRemove into the prefix's
// recorded history. History holds at most one spec per package name:
// a fresh explicit request for a name supersedes whatever was
// historically recorded for it, the same way conda's own prefix
// history is keyed by package name rather than accumulated forever.
// Malformed entries are left for parseSpecs to reject with a proper
// error, rather than silently dropped here. When stripKept is set
// (UPDATE_ALL, spec.md §4.6 step 2), every surviving history spec has
// its version/build constraints dropped, keeping only the bare name.
func mergeHistory(history, add, remove []string, stripKept bool) []string {
	superseded := map[string]bool{}
	for _, r := range remove {
		if sp, err := matchspec.Parse(r); err == nil {
			superseded[sp.Name] = true
		}
	}
	for _, a := range add {
		if sp, err := matchspec.Parse(a); err == nil {
			superseded[sp.Name] = true
		}
	}
	var kept []string
	for _, h := range history {
		sp, err := matchspec.Parse(h)
		if err == nil && superseded[sp.Name] {
			continue
		}
		if stripKept && err == nil {
			kept = append(kept, sp.Name)
			continue
		}
		kept = append(kept, h)
	}
	kept = append(kept, add...)
	return kept
}

func filterOut(specs, exclude []matchspec.Spec) []matchspec.Spec {
	excludedNames := map[string]bool{}
	for _, e := range exclude {
		excludedNames[e.Name] = true
	}
	var out []matchspec.Spec
	for _, sp := range specs {
		if !excludedNames[sp.Name] {
			out = append(out, sp)
		}
	}
	return out
}

func parseSpecs(texts []string) ([]matchspec.Spec, error) {
	out := make([]matchspec.Spec, 0, len(texts))
	for _, t := range texts {
		sp, err := matchspec.Parse(t)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

// solveOnce builds and solves the clause problem for exactly the given
// set of required specs, without any history-relaxation retrying.
// extraAggressive names additional packages (beyond
// Options.AggressiveUpdateNames) to treat as aggressively updated for
// this call only, used by UPDATE_DEPS; it may be nil.
func (s *Solver) solveOnce(prefix PrefixState, required []matchspec.Spec, extraAggressive map[string]bool) ([]solve.Record, error) {
	aggressive := map[string]bool{}
	for _, name := range s.Options.AggressiveUpdateNames {
		aggressive[name] = true
	}
	if s.Options.AutoUpdateConda {
		aggressive["conda"] = true
	}
	for name := range extraAggressive {
		aggressive[name] = true
	}
	for _, r := range prefix.Records {
		if aggressive[r.Key.Name] {
			required = append(required, matchspec.MustParse(r.Key.Name))
		}
	}

	candidates, err := s.closeCandidates(prefix, required)
	if err != nil {
		return nil, err
	}

	req := clause.Request{
		Specs:                  required,
		ChannelPriorityEnabled: s.Options.ChannelPriority,
		SkipDependencies:       s.Options.DepsModifier == NoDeps,
		RequiredFeatures:       s.Options.TrackFeatures,
	}
	req.Pins, err = s.pinSpecs()
	if err != nil {
		return nil, err
	}
	req.ForceRemove, err = s.forceRemoveKeys(candidates)
	if err != nil {
		return nil, err
	}
	if s.Options.UpdateModifier == UpdateModifierNone || s.Options.UpdateModifier == UpdateSpecs || s.Options.UpdateModifier == UpdateDeps {
		req.Frozen = frozenKeys(prefix, aggressive)
	}
	if s.Options.UpdateModifier == FreezeInstalled {
		for _, r := range prefix.Records {
			if aggressive[r.Key.Name] {
				continue
			}
			req.Pins = append(req.Pins, exactPin(r))
		}
	}

	problem, err := clause.Build(candidates, req)
	if err != nil {
		return nil, &UnsatisfiableError{Specs: specStrings(required), Conflicts: []string{err.Error()}}
	}

	assignment, err := sat.SolveOptimal(problem.CNF, problem.Objectives)
	if err != nil {
		return nil, &UnsatisfiableError{Specs: specStrings(required), Conflicts: problem.ExplainCore(sat.UnsatCore(problem.CNF))}
	}

	selected := problem.SelectedRecords(assignment)
	if s.Options.DepsModifier == OnlyDeps {
		selected = removeNamed(selected, required)
	}
	return selected, nil
}

func exactPin(r solve.Record) matchspec.Spec {
	return matchspec.MustParse(fmt.Sprintf("%s[version='==%s', build=%s]", r.Key.Name, r.Key.Version, r.Key.BuildString))
}

func removeNamed(records []solve.Record, specs []matchspec.Spec) []solve.Record {
	named := map[string]bool{}
	for _, sp := range specs {
		named[sp.Name] = true
	}
	var out []solve.Record
	for _, r := range records {
		if !named[r.Key.Name] {
			out = append(out, r)
		}
	}
	return out
}

func specStrings(specs []matchspec.Spec) []string {
	out := make([]string, len(specs))
	for i, sp := range specs {
		out[i] = sp.String()
	}
	return out
}

