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

package matchspec

import (
	"fmt"
	"strings"
)

// lexer tokenizes the operator-delimited portion of a version
// constraint, e.g. ">=1.7,<2|==3.0". The structural parts of a match
// spec (channel, namespace, brackets) are parsed directly against the
// raw string in parser.parseSpec, since they are fixed-syntax
// delimiters rather than an operator grammar.
type lexer struct {
	str string
	pos int
	err error
}

func newLexer(s string) *lexer { return &lexer{str: s} }

func (l *lexer) setErr(format string, args ...any) {
	if l.err == nil {
		l.err = fmt.Errorf(format, args...)
	}
}

func (l *lexer) eof() bool { return l.pos >= len(l.str) }

func (l *lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.str[l.pos]
}

func (l *lexer) skipSpace() {
	for !l.eof() && l.str[l.pos] == ' ' {
		l.pos++
	}
}

// readOp reads one comparison operator, or OpEq if none is present
// (a bare version number means exact match).
func (l *lexer) readOp() Op {
	rest := l.str[l.pos:]
	for _, c := range []struct {
		text string
		op   Op
	}{
		{">=", OpGe},
		{"<=", OpLe},
		{"==", OpEq},
		{"!=", OpNe},
		{">", OpGt},
		{"<", OpLt},
	} {
		if strings.HasPrefix(rest, c.text) {
			l.pos += len(c.text)
			return c.op
		}
	}
	return OpEq
}

// readOperand reads the version text following an operator, up to the
// next ",", "|", or end of string.
func (l *lexer) readOperand() string {
	start := l.pos
	for !l.eof() && l.str[l.pos] != ',' && l.str[l.pos] != '|' {
		l.pos++
	}
	return l.str[start:l.pos]
}

// parseVersionConstraint parses a comma/pipe version expression such
// as ">=1.7,<2|==3.0.*" into a VersionConstraint.
func parseVersionConstraint(s string) (VersionConstraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	l := newLexer(s)
	var constraint VersionConstraint
	var clause VersionClause
	for {
		l.skipSpace()
		if l.eof() {
			break
		}
		op := l.readOp()
		operand := l.readOperand()
		if operand == "" {
			return nil, fmt.Errorf("matchspec: empty version operand in %q", s)
		}
		if op == OpEq && strings.HasSuffix(operand, ".*") {
			op = OpDotStar
		}
		clause = append(clause, VersionTerm{Op: op, Operand: operand})
		if l.eof() {
			break
		}
		switch l.str[l.pos] {
		case ',':
			l.pos++
		case '|':
			l.pos++
			constraint = append(constraint, clause)
			clause = nil
		}
	}
	if l.err != nil {
		return nil, l.err
	}
	if len(clause) > 0 {
		constraint = append(constraint, clause)
	}
	return constraint, nil
}
