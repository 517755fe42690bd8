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
Package version parses and compares package version strings of the
form

	[epoch!]release[-pre][+local]

where release is a dot-separated sequence of numeric or alphanumeric
components, pre is an optional pre- or post-release tag such as "a1",
"rc2", or "post1", and local is an opaque build-local segment compared
lexicographically and always lowest priority.
*/
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// token is one dot-separated component of a release segment. A
// release is compared component-wise; missing trailing components
// compare as zeroToken (see compareRelease), the same zero-padded
// segment comparison the teacher's PEP 440 extension uses.
type token struct {
	text    string
	num     int64
	numeric bool
}

func (t token) compare(o token) int {
	switch {
	case t.numeric && o.numeric:
		switch {
		case t.num < o.num:
			return -1
		case t.num > o.num:
			return 1
		default:
			return 0
		}
	case t.numeric && !o.numeric:
		// A numeric component outranks a text one.
		return 1
	case !t.numeric && o.numeric:
		return -1
	default:
		if t.text < o.text {
			return -1
		}
		if t.text > o.text {
			return 1
		}
		return 0
	}
}

func parseToken(s string) token {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return token{num: n, numeric: true}
	}
	return token{text: s}
}

// preTagRank orders the recognized pre/post-release tags. A tag not in
// this table (other than "post") ranks the same as an untagged release,
// and its text and number take no part in the comparison.
var preTagRank = map[string]int{
	"dev":   0,
	"alpha": 1,
	"a":     1,
	"beta":  2,
	"b":     2,
	"c":     3,
	"rc":    4,
}

const (
	rankRelease = 5 // no pre/post tag
	rankPost    = 6
)

// Version is a parsed, comparable package version.
type Version struct {
	raw     string
	epoch   int64
	release []token

	hasPre bool
	preTag string
	preNum int64

	local string
}

// String returns the original text the Version was parsed from.
func (v Version) String() string { return v.raw }

// ParseError reports a version string that could not be parsed.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse version %q: %v", e.Text, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a version string of the form [epoch!]release[-pre][+local].
func Parse(s string) (Version, error) {
	v := Version{raw: s}
	rest := s

	if i := strings.IndexByte(rest, '!'); i >= 0 {
		n, err := strconv.ParseInt(rest[:i], 10, 64)
		if err != nil {
			return Version{}, &ParseError{Text: s, Err: fmt.Errorf("invalid epoch: %w", err)}
		}
		v.epoch = n
		rest = rest[i+1:]
	}

	if i := strings.IndexByte(rest, '+'); i >= 0 {
		v.local = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '-'); i >= 0 {
		tag, num, err := parsePreTag(rest[i+1:])
		if err != nil {
			return Version{}, &ParseError{Text: s, Err: err}
		}
		v.hasPre = true
		v.preTag = tag
		v.preNum = num
		rest = rest[:i]
	}

	if rest == "" {
		return Version{}, &ParseError{Text: s, Err: fmt.Errorf("empty release segment")}
	}
	for _, part := range strings.FieldsFunc(rest, func(r rune) bool { return r == '.' || r == '_' }) {
		v.release = append(v.release, parseToken(part))
	}
	if len(v.release) == 0 {
		return Version{}, &ParseError{Text: s, Err: fmt.Errorf("empty release segment")}
	}
	return v, nil
}

// MustParse is like Parse but panics on error; it exists for tests and
// for constructing well-known constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parsePreTag(s string) (tag string, num int64, err error) {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	tag = strings.ToLower(s[:i])
	if i == len(s) {
		return tag, 0, nil
	}
	n, err := strconv.ParseInt(s[i:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid pre-release number in %q: %w", s, err)
	}
	return tag, n, nil
}

func (v Version) rank() int {
	if !v.hasPre {
		return rankRelease
	}
	if v.preTag == "post" {
		return rankPost
	}
	if r, ok := preTagRank[v.preTag]; ok {
		return r
	}
	return rankRelease
}

// Compare reports whether v is less than, equal to, or greater than o,
// returning -1, 0, or 1 respectively. Epoch dominates; within an
// epoch, release segments compare component-wise; pre/post-release
// rank breaks ties on an otherwise-equal release; the local segment
// is the final, lowest-priority, lexicographic tiebreak.
func (v Version) Compare(o Version) int {
	if v.epoch != o.epoch {
		if v.epoch < o.epoch {
			return -1
		}
		return 1
	}
	if c := compareRelease(v.release, o.release); c != 0 {
		return c
	}
	vr, or := v.rank(), o.rank()
	if vr != or {
		if vr < or {
			return -1
		}
		return 1
	}
	if vr != rankRelease {
		if v.preNum != o.preNum {
			if v.preNum < o.preNum {
				return -1
			}
			return 1
		}
	}
	if v.local != o.local {
		if v.local < o.local {
			return -1
		}
		return 1
	}
	return 0
}

// zeroToken is the implicit value of a release component past the end
// of a shorter release: "1.7" and "1.7.0" compare equal, the same way
// PEP 440 zero-extends the shorter release before comparing.
var zeroToken = token{num: 0, numeric: true}

func compareRelease(a, b []token) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ta, tb := zeroToken, zeroToken
		if i < len(a) {
			ta = a[i]
		}
		if i < len(b) {
			tb = b[i]
		}
		if c := ta.compare(tb); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o compare equal.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Bump returns v's release with its last numeric component incremented
// (or a trailing 1 appended if it has no numeric component) and all
// pre/post/local information discarded. It underlies the ".*" suffix
// sugar, where "1.7.*" expands to the half-open range [1.7, 1.8).
func (v Version) Bump() Version {
	release := make([]token, len(v.release))
	copy(release, v.release)
	for i := len(release) - 1; i >= 0; i-- {
		if release[i].numeric {
			release[i].num++
			return Version{epoch: v.epoch, release: release, raw: v.String() + "(bumped)"}
		}
	}
	release = append(release, token{num: 1, numeric: true})
	return Version{epoch: v.epoch, release: release, raw: v.String() + "(bumped)"}
}

// DotStarRange implements the ".*" match-spec suffix: "1.7.*" matches
// any version in the half-open interval [1.7, 1.8).
func DotStarRange(prefix string) (lower, upper Version, err error) {
	lower, err = Parse(prefix)
	if err != nil {
		return Version{}, Version{}, err
	}
	return lower, lower.Bump(), nil
}

// Glob reports whether s matches the shell-style glob pattern, where
// "*" matches any run of characters. It is used for the build-string
// predicate, which conda always treats as a glob rather than a
// version constraint.
func Glob(pattern, s string) bool {
	return globMatch(pattern, s)
}

func globMatch(pattern, s string) bool {
	if pattern == "" {
		return s == ""
	}
	if pattern[0] == '*' {
		if globMatch(pattern[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if globMatch(pattern[1:], s[i+1:]) {
				return true
			}
		}
		return pattern[1:] == ""
	}
	if s == "" {
		return false
	}
	if pattern[0] != s[0] {
		return false
	}
	return globMatch(pattern[1:], s[1:])
}
