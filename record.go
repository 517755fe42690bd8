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
	"fmt"
	"sort"

	"condasolve.dev/solve/version"
)

//go:generate stringer -type Namespace

// Namespace disambiguates bare package names that are provided by more
// than one language ecosystem within a single channel (e.g. "six" as
// both a global package and a python package).
type Namespace byte

const (
	Global Namespace = iota
	Python
	R
	Perl
	Other
)

func (n Namespace) String() string {
	switch n {
	case Global:
		return "global"
	case Python:
		return "python"
	case R:
		return "r"
	case Perl:
		return "perl"
	default:
		return "other"
	}
}

// ParseNamespaceToken converts a match spec's namespace token (as in
// "python:numpy") into a Namespace; the empty token is Global.
func ParseNamespaceToken(token string) Namespace { return namespaceOf(token) }

// namespaceOf classifies a namespace token as used in a qualified match
// spec name such as "python:graphviz". An empty token is Global.
func namespaceOf(token string) Namespace {
	switch token {
	case "":
		return Global
	case "python":
		return Python
	case "r":
		return R
	case "perl":
		return Perl
	default:
		return Other
	}
}

// ResolvePreferredNamespace picks the namespace the solver should
// prefer when a bare package name is ambiguous across namespaces
// (spec §4.6): global packages win outright, then python, r, perl,
// then any other namespace ordered alphabetically by its token text.
// candidates must be non-empty.
func ResolvePreferredNamespace(candidates []Namespace) Namespace {
	best := candidates[0]
	bestRank, bestTok := namespaceRank(best, best.String())
	for _, n := range candidates[1:] {
		rank, tok := namespaceRank(n, n.String())
		if rank < bestRank || (rank == bestRank && tok < bestTok) {
			best, bestRank, bestTok = n, rank, tok
		}
	}
	return best
}

// namespaceRank orders namespaces for ambiguous bare-name resolution:
// global packages are preferred, then python, then r, then perl, then
// any other namespace ordered alphabetically by its token.
func namespaceRank(n Namespace, token string) (int, string) {
	switch n {
	case Global:
		return 0, ""
	case Python:
		return 1, ""
	case R:
		return 2, ""
	case Perl:
		return 3, ""
	default:
		return 4, token
	}
}

// ChannelPriority is a channel's rank in a prioritized channel list.
// Lower values are preferred, mirroring conda's integer priority field.
type ChannelPriority int

// Less reports whether p sorts before o, i.e. p is the higher priority.
func (p ChannelPriority) Less(o ChannelPriority) bool { return p < o }

// PackageKey identifies a package independent of any particular
// version, build, or release.
type PackageKey struct {
	Channel   string
	Subdir    string
	Namespace Namespace
	Name      string
}

func (k PackageKey) String() string {
	if k.Namespace == Global {
		return fmt.Sprintf("%s/%s::%s", k.Channel, k.Subdir, k.Name)
	}
	return fmt.Sprintf("%s/%s::%s:%s", k.Channel, k.Subdir, k.Namespace, k.Name)
}

// Compare reports whether k is less than, equal to, or greater than o,
// returning -1, 0, or 1 respectively. It compares Channel, Subdir,
// Namespace, and then Name.
func (k PackageKey) Compare(o PackageKey) int {
	if c := compareString(k.Channel, o.Channel); c != 0 {
		return c
	}
	if c := compareString(k.Subdir, o.Subdir); c != 0 {
		return c
	}
	if k.Namespace != o.Namespace {
		if k.Namespace < o.Namespace {
			return -1
		}
		return 1
	}
	return compareString(k.Name, o.Name)
}

// RecordKey identifies one specific build of one specific package
// version, the finest granularity the index reasons about.
type RecordKey struct {
	PackageKey
	Version     version.Version
	BuildString string
	BuildNumber int
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.PackageKey, k.Version, k.BuildString)
}

// Compare reports whether k is less than, equal to, or greater than o,
// returning -1, 0, or 1 respectively. It compares PackageKey, Version,
// BuildNumber, and then BuildString.
func (k RecordKey) Compare(o RecordKey) int {
	if c := k.PackageKey.Compare(o.PackageKey); c != 0 {
		return c
	}
	if c := k.Version.Compare(o.Version); c != 0 {
		return c
	}
	if k.BuildNumber != o.BuildNumber {
		if k.BuildNumber < o.BuildNumber {
			return -1
		}
		return 1
	}
	return compareString(k.BuildString, o.BuildString)
}

// Record describes one installable package build, the unit the solver
// reasons about. Records are immutable after construction; none of the
// solver's packages mutate a Record's fields once added to an Index.
type Record struct {
	Key RecordKey

	Depends    []string // match spec strings, per spec.md's Depends field
	Constrains []string // match spec strings that restrict without requiring

	Features      map[string]bool
	TrackFeatures map[string]bool

	Priority ChannelPriority

	Timestamp   int64 // unix seconds; used only as a deterministic tiebreak
	ContentHash string
}

// Name is shorthand for r.Key.Name.
func (r Record) Name() string { return r.Key.Name }

// HasFeature reports whether r declares the given feature.
func (r Record) HasFeature(name string) bool { return r.Features[name] }

// HasTrackFeature reports whether r tracks the given feature.
func (r Record) HasTrackFeature(name string) bool { return r.TrackFeatures[name] }

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// sortRecords orders records by the index's canonical candidate order:
// descending version, descending build number, descending timestamp,
// ascending build string. This is the order new candidates are merged
// into an existing name's slice.
func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if c := a.Key.Version.Compare(b.Key.Version); c != 0 {
			return c > 0
		}
		if a.Key.BuildNumber != b.Key.BuildNumber {
			return a.Key.BuildNumber > b.Key.BuildNumber
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return a.Key.BuildString < b.Key.BuildString
	})
}
