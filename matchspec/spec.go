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
Package matchspec parses and evaluates the package predicate language:

	[channel[/subdir]::][namespace:]name[version][ build]

optionally followed by a bracketed "[key=value, ...]" section.

Examples: "numpy", "numpy>=1.7,<2", "numpy==1.7.*", "python:graphviz",
"defaults::numpy[version='>=1.7', build=py37*]".

The grammar does not know about concrete package records; it produces
a Spec that another package (condasolve.dev/solve) evaluates against a
record's fields.
*/
package matchspec

import (
	"fmt"
	"strings"

	"condasolve.dev/solve/version"
)

// Op is a version comparison operator.
type Op byte

const (
	OpEq Op = iota
	OpNe
	OpGe
	OpLe
	OpGt
	OpLt
	OpDotStar // "1.7.*"
)

func (op Op) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGe:
		return ">="
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpDotStar:
		return ".*"
	default:
		return "?"
	}
}

// VersionTerm is one operator/operand pair in a version constraint.
// Constraints in a comma-joined group are conjunctive (AND); groups
// joined with "|" are disjunctive (OR).
type VersionTerm struct {
	Op      Op
	Operand string // raw text; parsed lazily since OpDotStar needs a prefix, not a Version
}

// Matches reports whether v satisfies the term.
func (t VersionTerm) Matches(v version.Version) (bool, error) {
	if t.Operand == "*" {
		// A bare "*" operand means "match any version", not the literal
		// text token "*"; version.Parse would otherwise treat it as an
		// ordinary (and never-matching) alphanumeric release component.
		return true, nil
	}
	if t.Op == OpEq && strings.Contains(t.Operand, "*") {
		// An embedded "*" makes the operand a glob over the version text.
		return version.Glob(t.Operand, v.String()), nil
	}
	switch t.Op {
	case OpDotStar:
		lower, upper, err := version.DotStarRange(strings.TrimSuffix(t.Operand, ".*"))
		if err != nil {
			return false, err
		}
		return !v.Less(lower) && v.Less(upper), nil
	}
	operand, err := version.Parse(t.Operand)
	if err != nil {
		return false, err
	}
	c := v.Compare(operand)
	switch t.Op {
	case OpEq:
		return c == 0, nil
	case OpNe:
		return c != 0, nil
	case OpGe:
		return c >= 0, nil
	case OpLe:
		return c <= 0, nil
	case OpGt:
		return c > 0, nil
	case OpLt:
		return c < 0, nil
	default:
		return false, fmt.Errorf("matchspec: unknown operator %v", t.Op)
	}
}

// VersionClause is a conjunction of VersionTerms (all must match).
type VersionClause []VersionTerm

// VersionConstraint is a disjunction of VersionClauses (any may match);
// this is how "|" alternation is represented.
type VersionConstraint []VersionClause

// Matches reports whether v satisfies the constraint. An empty
// constraint matches every version.
func (c VersionConstraint) Matches(v version.Version) (bool, error) {
	if len(c) == 0 {
		return true, nil
	}
	for _, clause := range c {
		ok := true
		for _, term := range clause {
			m, err := term.Matches(v)
			if err != nil {
				return false, err
			}
			if !m {
				ok = false
				break
			}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Spec is a parsed match specification.
type Spec struct {
	raw string

	Channel   string
	Subdir    string
	Namespace string // "" (bare), "python", "r", "perl", or another token
	Name      string

	Version VersionConstraint
	Build   string // glob pattern, empty means unconstrained

	BuildNumber    *int
	TrackFeatures  []string
	Features       []string
	OptionalFields map[string]string // any key=value pairs not otherwise recognized
}

// String returns the text the Spec was parsed from.
func (s Spec) String() string { return s.raw }

// InvalidSpecError reports a match spec that failed to parse.
type InvalidSpecError struct {
	Text string
	Err  error
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid match spec %q: %v", e.Text, e.Err)
}
func (e *InvalidSpecError) Unwrap() error { return e.Err }

// Parse parses a match spec string.
func Parse(s string) (Spec, error) {
	p := &parser{l: newLexer(s)}
	spec, err := p.parseSpec()
	if err != nil {
		return Spec{}, &InvalidSpecError{Text: s, Err: err}
	}
	spec.raw = s
	return spec, nil
}

// MatchesName reports whether a candidate package's namespace token
// ("" for global, "python", "r", "perl", or another ecosystem token)
// and name satisfy the spec's name/namespace predicate.
func (s Spec) MatchesName(namespace, name string) bool {
	if s.Name != name {
		return false
	}
	if s.Namespace == "" {
		return true
	}
	return s.Namespace == namespace
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}
