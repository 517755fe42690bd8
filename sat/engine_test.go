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

package sat

import "testing"

func TestSolveSimpleSatisfiable(t *testing.T) {
	// (x1 OR x2) AND (NOT x1 OR x2)  =>  x2 must be true.
	cnf := CNF{
		NumVars: 2,
		Clauses: []Clause{
			{1, 2},
			{-1, 2},
		},
	}
	a, err := Solve(cnf)
	if err != nil {
		t.Fatal(err)
	}
	if !a.SatisfiesAll(cnf) {
		t.Fatalf("assignment %v does not satisfy cnf", a)
	}
	if !a[1] {
		t.Errorf("expected x2 to be true, got %v", a)
	}
}

func TestSolveUnsatisfiable(t *testing.T) {
	cnf := CNF{
		NumVars: 1,
		Clauses: []Clause{{1}, {-1}},
	}
	_, err := Solve(cnf)
	if err == nil {
		t.Fatal("expected unsatisfiable error")
	}
	unsat, ok := err.(*UnsatError)
	if !ok {
		t.Fatalf("expected *UnsatError, got %T", err)
	}
	if len(unsat.Core) == 0 {
		t.Errorf("expected a non-empty unsat core")
	}
}

func TestSolveAtMostOne(t *testing.T) {
	// At most one of x1, x2, x3 may be true; at least one must be.
	cnf := CNF{
		NumVars: 3,
		Clauses: []Clause{
			{1, 2, 3},
			{-1, -2},
			{-1, -3},
			{-2, -3},
		},
	}
	a, err := Solve(cnf)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, v := range a {
		if v {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one true variable, got %d (%v)", count, a)
	}
}

func TestSolveOptimalPrefersHigherWeight(t *testing.T) {
	// x1 and x2 are mutually exclusive candidates for the same slot;
	// maximize should prefer x2.
	cnf := CNF{
		NumVars: 2,
		Clauses: []Clause{
			{1, 2},
			{-1, -2},
		},
	}
	objectives := []Objective{
		{
			Name:     "prefer-x2",
			Maximize: true,
			Weight: func(a Assignment) int64 {
				if a[1] {
					return 1
				}
				return 0
			},
		},
	}
	a, err := SolveOptimal(cnf, objectives)
	if err != nil {
		t.Fatal(err)
	}
	if !a[1] || a[0] {
		t.Errorf("expected x2 selected and x1 not, got %v", a)
	}
}

func TestSolveOptimalLexicographicTiebreak(t *testing.T) {
	// Two independent booleans; first objective prefers x1 true, and
	// among those, second objective prefers x2 true.
	cnf := CNF{NumVars: 2, Clauses: []Clause{{1, -1}, {2, -2}}}
	objectives := []Objective{
		{Name: "first", Maximize: true, Weight: func(a Assignment) int64 {
			if a[0] {
				return 1
			}
			return 0
		}},
		{Name: "second", Maximize: true, Weight: func(a Assignment) int64 {
			if a[1] {
				return 1
			}
			return 0
		}},
	}
	a, err := SolveOptimal(cnf, objectives)
	if err != nil {
		t.Fatal(err)
	}
	if !a[0] || !a[1] {
		t.Errorf("expected both x1 and x2 true, got %v", a)
	}
}
