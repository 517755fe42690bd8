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

package version

import "testing"

func TestCompareOrdering(t *testing.T) {
	// Each row must compare less than every row after it.
	ordered := []string{
		"1.0-dev1",
		"1.0-alpha1",
		"1.0-beta1",
		"1.0-c1",
		"1.0-rc1",
		"1.0",
		"1.0-post1",
		"1.0.1",
		"1.1",
		"2.0",
		"1!0.1",
	}
	versions := make([]Version, len(ordered))
	for i, s := range ordered {
		v, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		versions[i] = v
	}
	for i := 0; i < len(versions); i++ {
		for j := i + 1; j < len(versions); j++ {
			if c := versions[i].Compare(versions[j]); c >= 0 {
				t.Errorf("Compare(%q, %q) = %d, want < 0", ordered[i], ordered[j], c)
			}
			if c := versions[j].Compare(versions[i]); c <= 0 {
				t.Errorf("Compare(%q, %q) = %d, want > 0", ordered[j], ordered[i], c)
			}
		}
	}
}

func TestCompareEqual(t *testing.T) {
	for _, pair := range [][2]string{
		{"1.0", "1.0"},
		{"1.0.0", "1.0.0"},
		{"1!2.0", "1!2.0"},
	} {
		a, err := Parse(pair[0])
		if err != nil {
			t.Fatal(err)
		}
		b, err := Parse(pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if !a.Equal(b) {
			t.Errorf("%q and %q should compare equal", pair[0], pair[1])
		}
	}
}

func TestTrailingZeroReleaseComponentsAreEqual(t *testing.T) {
	// "1.7" and "1.7.0" must compare equal so a bare "python==2.7"
	// match spec matches an installed "2.7.0" record.
	for _, pair := range [][2]string{
		{"1.7", "1.7.0"},
		{"2.7", "2.7.0.0"},
	} {
		a, err := Parse(pair[0])
		if err != nil {
			t.Fatal(err)
		}
		b, err := Parse(pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if !a.Equal(b) {
			t.Errorf("%q and %q should compare equal", pair[0], pair[1])
		}
	}
	shorter := MustParse("1.7")
	higher := MustParse("1.7.1")
	if !shorter.Less(higher) {
		t.Errorf("expected 1.7 < 1.7.1")
	}
}

func TestPreReleaseAliases(t *testing.T) {
	// "alpha"/"a" and "beta"/"b" are aliases of the same rank.
	for _, pair := range [][2]string{
		{"1.0-alpha1", "1.0-a1"},
		{"1.0-beta2", "1.0-b2"},
	} {
		a, err := Parse(pair[0])
		if err != nil {
			t.Fatal(err)
		}
		b, err := Parse(pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if !a.Equal(b) {
			t.Errorf("%q and %q should be alias-equal", pair[0], pair[1])
		}
	}
}

func TestEpochDominates(t *testing.T) {
	low := MustParse("0!99.0")
	high := MustParse("1!0.0")
	if !low.Less(high) {
		t.Errorf("expected epoch 0 version to sort below epoch 1 version regardless of release")
	}
}

func TestLocalSegmentLowestPriority(t *testing.T) {
	plain := MustParse("1.0")
	local := MustParse("1.0+local1")
	if !plain.Less(local) {
		t.Errorf("expected plain release to sort below a version carrying a local segment")
	}
}

func TestDotStarRange(t *testing.T) {
	lower, upper, err := DotStarRange("1.7")
	if err != nil {
		t.Fatal(err)
	}
	inside := MustParse("1.7.3")
	outside := MustParse("1.8.0")
	if inside.Less(lower) || !inside.Less(upper) {
		t.Errorf("1.7.3 should fall within [1.7, 1.8)")
	}
	if outside.Less(upper) {
		t.Errorf("1.8.0 should not fall within [1.7, 1.8)")
	}
}

func TestGlob(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"py37*", "py37h0123", true},
		{"py37*", "py38h0123", false},
		{"*", "anything", true},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}
	for _, c := range cases {
		if got := Glob(c.pattern, c.s); got != c.want {
			t.Errorf("Glob(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "!1.0", "1.0-rc1x2"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}
