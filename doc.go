// Package solve implements the data model shared by a package
// dependency solver: immutable package records, a queryable index, and
// the glue that matches a predicate language against concrete records.
//
// Version ordering lives in condasolve.dev/solve/version, the
// predicate grammar in condasolve.dev/solve/matchspec, boolean clause
// construction in condasolve.dev/solve/clause, the SAT search in
// condasolve.dev/solve/sat, and the stateful orchestration in
// condasolve.dev/solve/solver. Of these, this package depends only on
// matchspec, which it uses to evaluate predicates against records, and
// version, whose Version type records carry.
package solve
