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

package solve

import (
	"sort"

	"condasolve.dev/solve/matchspec"
)

// Diff is the result of comparing a previous and a next package set:
// the records to remove and the records to install, each ordered so
// that executing Unlink in order followed by Link in order never
// breaks a dependency that is still needed mid-transaction.
type Diff struct {
	Unlink []Record // dependents before their dependencies
	Link   []Record // dependencies before their dependents
}

// ComputeDiff compares prev and next, both keyed by PackageNameKey
// (namespace+name), and returns the unlink/link sets in dependency-
// safe order. A record present in both sets under the same RecordKey
// is left untouched.
func ComputeDiff(prev, next []Record) Diff {
	prevByName := recordsByNameKey(prev)
	nextByName := recordsByNameKey(next)

	var unlink, link []Record
	for key, r := range prevByName {
		if n, ok := nextByName[key]; !ok || n.Key.Compare(r.Key) != 0 {
			unlink = append(unlink, r)
		}
	}
	for key, r := range nextByName {
		if p, ok := prevByName[key]; !ok || p.Key.Compare(r.Key) != 0 {
			link = append(link, r)
		}
	}

	link = topoOrder(link, next)
	unlink = topoOrder(unlink, prev)
	reverse(unlink)

	return Diff{Unlink: unlink, Link: link}
}

func recordsByNameKey(records []Record) map[PackageNameKey]Record {
	m := make(map[PackageNameKey]Record, len(records))
	for _, r := range records {
		m[PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}] = r
	}
	return m
}

// topoOrder orders subset so that every record's dependencies (as
// resolved against universe, the full record set subset was drawn
// from) come before it. Dependencies outside subset are ignored since
// they are not part of this transaction. Ties, and any cycle
// fallback, are broken by name for determinism.
func topoOrder(subset, universe []Record) []Record {
	byName := recordsByNameKey(universe)
	inSubset := make(map[PackageNameKey]bool, len(subset))
	for _, r := range subset {
		inSubset[PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}] = true
	}

	deps := make(map[PackageNameKey][]PackageNameKey, len(subset))
	for _, r := range subset {
		key := PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}
		for _, depText := range r.Depends {
			spec, err := matchspec.Parse(depText)
			if err != nil {
				continue
			}
			for candKey := range byName {
				if !inSubset[candKey] {
					continue
				}
				if candKey == key {
					continue
				}
				if spec.MatchesName(namespaceToken(candKey.Namespace), candKey.Name) {
					deps[key] = append(deps[key], candKey)
				}
			}
		}
	}
	// Build reverse adjacency: dependency -> dependents, and indegree
	// as the number of unresolved dependencies for each package.
	dependents := make(map[PackageNameKey][]PackageNameKey)
	needs := make(map[PackageNameKey]int, len(subset))
	for _, r := range subset {
		key := PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}
		needs[key] = len(deps[key])
		for _, dep := range deps[key] {
			dependents[dep] = append(dependents[dep], key)
		}
	}

	var ready []PackageNameKey
	for key, n := range needs {
		if n == 0 {
			ready = append(ready, key)
		}
	}
	sortNameKeys(ready)

	byKey := make(map[PackageNameKey]Record, len(subset))
	for _, r := range subset {
		byKey[PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}] = r
	}

	var order []Record
	for len(ready) > 0 {
		sortNameKeys(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, byKey[next])
		for _, dep := range dependents[next] {
			needs[dep]--
			if needs[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(subset) {
		// A dependency cycle exists among the candidate records; fall
		// back to a deterministic name-sorted order rather than
		// stalling the transaction.
		remaining := make([]Record, 0, len(subset)-len(order))
		seen := make(map[PackageNameKey]bool, len(order))
		for _, r := range order {
			seen[PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}] = true
		}
		for _, r := range subset {
			if !seen[PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}] {
				remaining = append(remaining, r)
			}
		}
		sort.Slice(remaining, func(i, j int) bool { return remaining[i].Key.Name < remaining[j].Key.Name })
		order = append(order, remaining...)
	}
	return order
}

func sortNameKeys(keys []PackageNameKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Namespace != keys[j].Namespace {
			return keys[i].Namespace < keys[j].Namespace
		}
		return keys[i].Name < keys[j].Name
	})
}

func reverse(rs []Record) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}
