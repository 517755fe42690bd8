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

package solver

import (
	"condasolve.dev/solve"
	"condasolve.dev/solve/matchspec"
)

// resolveNameKey disambiguates a spec's bare or qualified name against
// the index's namespaces, applying the global/python/r/perl/other
// preference order for bare names that exist in more than one
// namespace.
func (s *Solver) resolveNameKey(spec matchspec.Spec) (solve.PackageNameKey, bool) {
	if spec.Namespace != "" {
		return solve.PackageNameKey{Namespace: solve.ParseNamespaceToken(spec.Namespace), Name: spec.Name}, true
	}
	var present []solve.Namespace
	for _, nk := range s.Index.Names() {
		if nk.Name == spec.Name {
			present = append(present, nk.Namespace)
		}
	}
	if len(present) == 0 {
		return solve.PackageNameKey{}, false
	}
	return solve.PackageNameKey{Namespace: solve.ResolvePreferredNamespace(present), Name: spec.Name}, true
}

// closeCandidates gathers the transitive closure of candidate records
// reachable from required (via Depends and Constrains) plus every
// currently installed package, so the formula can always consider
// keeping what's already there. NO_DEPS skips dependency expansion
// entirely, matching DepsModifier semantics.
func (s *Solver) closeCandidates(prefix PrefixState, required []matchspec.Spec) ([]solve.Record, error) {
	visited := map[solve.PackageNameKey]bool{}
	var candidates []solve.Record
	var missing []string

	queue := append([]matchspec.Spec(nil), required...)
	if !s.Options.Prune {
		for _, r := range prefix.Records {
			queue = append(queue, matchspec.MustParse(r.Key.Name))
		}
	}

	for len(queue) > 0 {
		spec := queue[0]
		queue = queue[1:]

		key, ok := s.resolveNameKey(spec)
		if !ok {
			missing = append(missing, spec.Name)
			continue
		}
		if visited[key] {
			continue
		}
		visited[key] = true

		records := s.Index.RecordsByName(key.Namespace, key.Name)
		if len(records) == 0 {
			missing = append(missing, spec.Name)
			continue
		}
		candidates = append(candidates, records...)

		if s.Options.DepsModifier == NoDeps {
			continue
		}
		for _, r := range records {
			for _, d := range r.Depends {
				if ds, err := matchspec.Parse(d); err == nil {
					queue = append(queue, ds)
				}
			}
			for _, c := range r.Constrains {
				if cs, err := matchspec.Parse(c); err == nil {
					queue = append(queue, cs)
				}
			}
		}
	}

	if len(missing) > 0 {
		return nil, &PackagesNotFoundError{Names: dedupe(missing)}
	}
	return candidates, nil
}

func dedupe(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// pinSpecs parses the solver's configured pins, honoring IgnorePinned.
func (s *Solver) pinSpecs() ([]matchspec.Spec, error) {
	if s.Options.IgnorePinned {
		return nil, nil
	}
	return parseSpecs(s.Options.PinnedSpecs)
}

// frozenKeys returns the RecordKeys of every currently installed
// package, excluding any name in skip, used by the frozen-removal
// optimization criterion.
func frozenKeys(prefix PrefixState, skip map[string]bool) []solve.RecordKey {
	keys := make([]solve.RecordKey, 0, len(prefix.Records))
	for _, r := range prefix.Records {
		if skip[r.Key.Name] {
			continue
		}
		keys = append(keys, r.Key)
	}
	return keys
}

// forceRemoveKeys resolves Options.ForceRemove's spec strings against
// candidates, returning the RecordKeys of every matching record.
func (s *Solver) forceRemoveKeys(candidates []solve.Record) ([]solve.RecordKey, error) {
	specs, err := parseSpecs(s.Options.ForceRemove)
	if err != nil {
		return nil, err
	}
	var keys []solve.RecordKey
	for _, sp := range specs {
		for _, r := range candidates {
			if !sp.MatchesName(namespaceTokenOf(r), r.Key.Name) {
				continue
			}
			ok, err := solve.Matches(sp, r)
			if err != nil {
				return nil, err
			}
			if ok {
				keys = append(keys, r.Key)
			}
		}
	}
	return keys, nil
}
