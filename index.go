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
	"errors"
	"sort"

	"condasolve.dev/solve/matchspec"
)

// ErrNotFound reports a package name with no records in an index.
// MemIndex's lookups do not return it: RecordsByName and Match report
// an unknown name with an empty result.
var ErrNotFound = errors.New("solve: package not found")

// Index answers queries over a fixed catalog of package records.
// Implementations need not be safe for concurrent writes, but must be
// safe for concurrent reads once populated; the solver never mutates
// an Index while solving.
type Index interface {
	// RecordsByName returns every record under the given namespace and
	// name, in the index's canonical candidate order (see MemIndex).
	RecordsByName(namespace Namespace, name string) []Record

	// Names returns every (namespace, name) pair with at least one
	// record, used to expand bare-name ambiguity (spec §4.6).
	Names() []PackageNameKey

	// Match returns every record satisfying spec, in canonical order.
	Match(spec matchspec.Spec) ([]Record, error)
}

// PackageNameKey identifies a package by namespace and name only,
// independent of channel, subdir, version, or build.
type PackageNameKey struct {
	Namespace Namespace
	Name      string
}

// MemIndex is an in-memory Index, the only implementation this module
// provides; it is the unit of input the solver package operates over.
type MemIndex struct {
	byName map[PackageNameKey][]Record
}

// NewMemIndex returns an empty MemIndex.
func NewMemIndex() *MemIndex {
	return &MemIndex{byName: make(map[PackageNameKey][]Record)}
}

// AddRecord inserts r into the index, keeping its name's record slice
// sorted in canonical candidate order (descending version, descending
// build number, descending timestamp, ascending build string).
func (idx *MemIndex) AddRecord(r Record) {
	key := PackageNameKey{Namespace: r.Key.Namespace, Name: r.Key.Name}
	records := append(idx.byName[key], r)
	sortRecords(records)
	idx.byName[key] = records
}

// RecordsByName implements Index.
func (idx *MemIndex) RecordsByName(namespace Namespace, name string) []Record {
	return idx.byName[PackageNameKey{Namespace: namespace, Name: name}]
}

// Names implements Index.
func (idx *MemIndex) Names() []PackageNameKey {
	out := make([]PackageNameKey, 0, len(idx.byName))
	for k := range idx.byName {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Match implements Index. A qualified name matches only its own
// namespace; a bare name matches records from every namespace that
// has the name, all returned together in canonical candidate order
// with no namespace preference applied. The cheap name-equality check
// runs before the more expensive version/build predicates.
func (idx *MemIndex) Match(spec matchspec.Spec) ([]Record, error) {
	var out []Record
	var wantNamespace Namespace
	var namespaceConstrained bool
	if spec.Namespace != "" {
		wantNamespace = namespaceOf(spec.Namespace)
		namespaceConstrained = true
	}
	for key, records := range idx.byName {
		if key.Name != spec.Name {
			continue
		}
		if namespaceConstrained && key.Namespace != wantNamespace {
			continue
		}
		token := namespaceToken(key.Namespace)
		if !spec.MatchesName(token, key.Name) {
			continue
		}
		for _, r := range records {
			ok, err := Matches(spec, r)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, r)
			}
		}
	}
	sortRecords(out)
	return out, nil
}

func namespaceToken(n Namespace) string {
	switch n {
	case Global:
		return ""
	default:
		return n.String()
	}
}
