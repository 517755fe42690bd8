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
	"testing"

	"condasolve.dev/solve/matchspec"
	"condasolve.dev/solve/version"
)

func record(name, ver string, buildNumber int, build string) Record {
	return Record{
		Key: RecordKey{
			PackageKey:  PackageKey{Channel: "defaults", Subdir: "linux-64", Name: name},
			Version:     version.MustParse(ver),
			BuildString: build,
			BuildNumber: buildNumber,
		},
	}
}

func TestMemIndexCandidateOrder(t *testing.T) {
	idx := NewMemIndex()
	idx.AddRecord(record("numpy", "1.7", 0, "py27_0"))
	idx.AddRecord(record("numpy", "1.9", 1, "py27_1"))
	idx.AddRecord(record("numpy", "1.9", 0, "py27_0"))

	got := idx.RecordsByName(Global, "numpy")
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	want := []string{"1.9", "1.9", "1.7"}
	for i, w := range want {
		if got[i].Key.Version.String() != w {
			t.Errorf("got[%d].Version = %s, want %s", i, got[i].Key.Version, w)
		}
	}
	if got[0].Key.BuildNumber != 1 {
		t.Errorf("expected higher build_number to sort first among equal versions")
	}
}

func TestMemIndexMatch(t *testing.T) {
	idx := NewMemIndex()
	idx.AddRecord(record("numpy", "1.6", 0, "py27_0"))
	idx.AddRecord(record("numpy", "1.7", 0, "py27_0"))
	idx.AddRecord(record("numpy", "1.9", 0, "py27_0"))

	spec := matchspec.MustParse("numpy>=1.7")
	got, err := idx.Match(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
}

func TestMemIndexNamespaceDisambiguation(t *testing.T) {
	idx := NewMemIndex()
	global := record("six", "1.0", 0, "0")
	global.Key.Namespace = Global
	py := record("six", "1.0", 0, "0")
	py.Key.Namespace = Python
	idx.AddRecord(global)
	idx.AddRecord(py)

	names := idx.Names()
	if len(names) != 2 {
		t.Fatalf("len(names) = %d, want 2", len(names))
	}
	if names[0].Namespace != Global {
		t.Errorf("expected Global namespace to sort first, got %v", names[0].Namespace)
	}
}

func TestMatches(t *testing.T) {
	r := record("numpy", "1.7", 0, "py27_0")
	spec := matchspec.MustParse("numpy>=1.7,<2")
	ok, err := Matches(spec, r)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected record to match")
	}

	spec2 := matchspec.MustParse("numpy<1.7")
	ok, err = Matches(spec2, r)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("expected record not to match")
	}
}
