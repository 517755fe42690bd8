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
Package sat is a small boolean satisfiability engine: DPLL search with
unit propagation and chronological backtracking, plus a lexicographic
multi-objective search built on top of it. It knows nothing about
packages; condasolve.dev/solve/clause translates dependency problems
into the CNF this package consumes.
*/
package sat

import "fmt"

// Lit is a signed, 1-indexed literal: variable i is true when Lit ==
// int32(i) and false when Lit == -int32(i). Variable 0 is invalid.
type Lit int32

// Var returns the 0-indexed variable the literal refers to.
func (l Lit) Var() int { return int(abs(l)) - 1 }

// Sign reports whether the literal is a positive occurrence of its
// variable (requires the variable to be true to satisfy it).
func (l Lit) Sign() bool { return l > 0 }

func abs(l Lit) Lit {
	if l < 0 {
		return -l
	}
	return l
}

// Clause is a disjunction of literals; at least one must be true.
type Clause []Lit

// CNF is a conjunction of clauses over a fixed number of boolean
// variables.
type CNF struct {
	NumVars int
	Clauses []Clause
}

// Assignment maps each variable (0-indexed) to its truth value.
type Assignment []bool

// satisfies reports whether l is true under the complete assignment a.
func (a Assignment) satisfies(l Lit) bool {
	v := a[l.Var()]
	if l.Sign() {
		return v
	}
	return !v
}

func (a Assignment) satisfiesClause(c Clause) bool {
	for _, l := range c {
		if a.satisfies(l) {
			return true
		}
	}
	return false
}

// SatisfiesAll reports whether a satisfies every clause in cnf.
func (a Assignment) SatisfiesAll(cnf CNF) bool {
	for _, c := range cnf.Clauses {
		if !a.satisfiesClause(c) {
			return false
		}
	}
	return true
}

// UnsatError reports that no satisfying assignment exists, carrying a
// minimal unsatisfiable subset of the input clauses for diagnostics.
type UnsatError struct {
	Core []Clause
}

func (e *UnsatError) Error() string {
	return fmt.Sprintf("sat: unsatisfiable, minimal core has %d clauses", len(e.Core))
}

// state is the mutable search state threaded through the DPLL
// recursion.
type state struct {
	cnf    CNF
	assign []int8 // -1 unset, 0 false, 1 true
}

func newState(cnf CNF) *state {
	assign := make([]int8, cnf.NumVars)
	for i := range assign {
		assign[i] = -1
	}
	return &state{cnf: cnf, assign: assign}
}

// clauseStatus reports whether c is already satisfied, how many of its
// literals are still unassigned, and (when exactly one is unassigned)
// that literal, for unit propagation.
func (s *state) clauseStatus(c Clause) (satisfied bool, unassigned int, unitLit Lit) {
	var last Lit
	for _, l := range c {
		v := s.assign[l.Var()]
		if v == -1 {
			unassigned++
			last = l
			continue
		}
		if (v == 1) == l.Sign() {
			return true, 0, 0
		}
	}
	return false, unassigned, last
}

// propagate performs unit propagation to a fixpoint. It returns false
// if a conflict is found.
func (s *state) propagate() bool {
	for {
		progressed := false
		for _, c := range s.cnf.Clauses {
			sat, unassigned, lit := s.clauseStatus(c)
			if sat {
				continue
			}
			if unassigned == 0 {
				return false
			}
			if unassigned != 1 {
				continue
			}
			v := lit.Var()
			if s.assign[v] != -1 {
				continue
			}
			if lit.Sign() {
				s.assign[v] = 1
			} else {
				s.assign[v] = 0
			}
			progressed = true
		}
		if !progressed {
			return true
		}
	}
}

func (s *state) firstUnassigned() (int, bool) {
	for i, v := range s.assign {
		if v == -1 {
			return i, true
		}
	}
	return 0, false
}

func (s *state) snapshot() []int8 {
	cp := make([]int8, len(s.assign))
	copy(cp, s.assign)
	return cp
}

func (s *state) restore(snap []int8) { copy(s.assign, snap) }

func (s *state) toAssignment() Assignment {
	out := make(Assignment, len(s.assign))
	for i, v := range s.assign {
		out[i] = v == 1
	}
	return out
}

// search performs DPLL with unit propagation and chronological
// backtracking over the full assignment tree, invoking found for
// every satisfying assignment it reaches. found returns true to keep
// exploring remaining branches for further solutions, or false to
// stop the search immediately.
func search(s *state, found func(Assignment) bool) {
	stop := false
	var rec func()
	rec = func() {
		if stop {
			return
		}
		snap := s.snapshot()
		ok := s.propagate()
		if !ok {
			s.restore(snap)
			return
		}
		v, has := s.firstUnassigned()
		if !has {
			if !found(s.toAssignment()) {
				stop = true
			}
			s.restore(snap)
			return
		}
		for _, val := range [2]int8{1, 0} {
			if stop {
				break
			}
			s.assign[v] = val
			rec()
		}
		s.restore(snap)
	}
	rec()
}

// Solve finds any satisfying assignment for cnf.
func Solve(cnf CNF) (Assignment, error) {
	s := newState(cnf)
	var result Assignment
	search(s, func(a Assignment) bool {
		result = append(Assignment{}, a...)
		return false
	})
	if result == nil {
		return nil, &UnsatError{Core: minimalCore(cnf)}
	}
	return result, nil
}

// Objective is one criterion in a lexicographic optimization: among
// all assignments satisfying the clauses fixed by earlier, higher-
// priority objectives, pick the one(s) optimizing Weight in the
// direction given by Maximize.
type Objective struct {
	Name     string
	Maximize bool
	Weight   func(Assignment) int64
}

// maxSolutionsExplored bounds SolveOptimal's enumeration so a
// pathological catalog cannot run forever; catalogs this solver
// targets (a handful of candidates per package name) stay well under
// it in practice.
const maxSolutionsExplored = 200000

// SolveOptimal finds a satisfying assignment for cnf that is optimal
// with respect to objectives, applied in order: ties on an earlier
// objective are broken by the next one. It enumerates satisfying
// assignments exhaustively, without pruning, and stops after
// maxSolutionsExplored of them, returning the best one seen; it is
// appropriate for the catalog sizes this solver targets, not for
// industrial-scale inputs.
func SolveOptimal(cnf CNF, objectives []Objective) (Assignment, error) {
	s := newState(cnf)
	var best Assignment
	var bestScore []int64
	explored := 0

	search(s, func(a Assignment) bool {
		explored++
		score := make([]int64, len(objectives))
		for i, obj := range objectives {
			w := obj.Weight(a)
			if !obj.Maximize {
				w = -w
			}
			score[i] = w
		}
		if best == nil || lexLess(bestScore, score) {
			best = append(Assignment{}, a...)
			bestScore = score
		}
		return explored < maxSolutionsExplored
	})
	if best == nil {
		return nil, &UnsatError{Core: minimalCore(cnf)}
	}
	return best, nil
}

// lexLess reports whether a sorts before b lexicographically, i.e.
// whether b is a strict improvement over a.
func lexLess(a, b []int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ClauseID indexes a clause within the CNF it was drawn from.
type ClauseID int

// UnsatCore returns the indices of a minimal subset of cnf's clauses
// that is still unsatisfiable, by repeatedly trying to drop each
// clause and re-solving without it. It assumes cnf is itself
// unsatisfiable; the result is meaningless otherwise. The orchestrator
// uses this to build UnsatisfiableError's human-readable diagnostics.
func UnsatCore(cnf CNF) []ClauseID {
	ids := make([]ClauseID, len(cnf.Clauses))
	for i := range cnf.Clauses {
		ids[i] = ClauseID(i)
	}
	for i := 0; i < len(ids); {
		trial := CNF{NumVars: cnf.NumVars, Clauses: clausesExcept(cnf.Clauses, ids, i)}
		if _, err := Solve(trial); err != nil {
			// Still unsat without this clause; it wasn't needed.
			ids = append(ids[:i], ids[i+1:]...)
			continue
		}
		i++
	}
	return ids
}

func clausesExcept(all []Clause, ids []ClauseID, skip int) []Clause {
	out := make([]Clause, 0, len(ids)-1)
	for j, id := range ids {
		if j == skip {
			continue
		}
		out = append(out, all[id])
	}
	return out
}

// minimalCore is like UnsatCore but returns the clauses themselves
// rather than their indices, for UnsatError's internal diagnostics.
func minimalCore(cnf CNF) []Clause {
	ids := UnsatCore(cnf)
	out := make([]Clause, len(ids))
	for i, id := range ids {
		out[i] = cnf.Clauses[id]
	}
	return out
}
