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

package clause

import (
	"testing"

	"condasolve.dev/solve"
	"condasolve.dev/solve/matchspec"
	"condasolve.dev/solve/sat"
	"condasolve.dev/solve/version"
)

func rec(name, ver string, buildNumber int) solve.Record {
	return solve.Record{
		Key: solve.RecordKey{
			PackageKey:  solve.PackageKey{Channel: "defaults", Subdir: "linux-64", Name: name},
			Version:     version.MustParse(ver),
			BuildString: "0",
			BuildNumber: buildNumber,
		},
	}
}

func withDepends(r solve.Record, d ...string) solve.Record {
	r.Depends = d
	return r
}

func TestBuildAtMostOnePerName(t *testing.T) {
	candidates := []solve.Record{
		rec("numpy", "1.6", 0),
		rec("numpy", "1.7", 0),
	}
	p, err := Build(candidates, Request{Specs: []matchspec.Spec{matchspec.MustParse("numpy")}})
	if err != nil {
		t.Fatal(err)
	}
	a, err := sat.Solve(p.CNF)
	if err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedRecords(a)
	if len(selected) != 1 {
		t.Fatalf("expected exactly one numpy selected, got %d", len(selected))
	}
}

func TestBuildDependencyImplication(t *testing.T) {
	candidates := []solve.Record{
		withDepends(rec("scipy", "0.13", 0), "numpy>=1.7"),
		rec("numpy", "1.6", 0),
		rec("numpy", "1.7", 0),
	}
	p, err := Build(candidates, Request{Specs: []matchspec.Spec{matchspec.MustParse("scipy")}})
	if err != nil {
		t.Fatal(err)
	}
	a, err := sat.Solve(p.CNF)
	if err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedRecords(a)
	names := map[string]bool{}
	for _, r := range selected {
		names[r.Key.Name] = true
		if r.Key.Name == "numpy" && r.Key.Version.String() == "1.6" {
			t.Errorf("numpy 1.6 does not satisfy >=1.7, should not be selectable here")
		}
	}
	if !names["scipy"] || !names["numpy"] {
		t.Errorf("expected both scipy and numpy selected, got %v", selected)
	}
}

func TestBuildOptimalPrefersHigherVersion(t *testing.T) {
	candidates := []solve.Record{
		rec("numpy", "1.6", 0),
		rec("numpy", "1.7", 0),
	}
	req := Request{Specs: []matchspec.Spec{matchspec.MustParse("numpy")}}
	p, err := Build(candidates, req)
	if err != nil {
		t.Fatal(err)
	}
	a, err := sat.SolveOptimal(p.CNF, p.Objectives)
	if err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedRecords(a)
	if len(selected) != 1 || selected[0].Key.Version.String() != "1.7" {
		t.Fatalf("expected numpy 1.7 selected, got %v", selected)
	}
}

func TestBuildUnsatisfiableRequiredSpec(t *testing.T) {
	candidates := []solve.Record{rec("numpy", "1.6", 0)}
	_, err := Build(candidates, Request{Specs: []matchspec.Spec{matchspec.MustParse("numpy>=1.7")}})
	if err == nil {
		t.Fatal("expected an error when no candidate satisfies the required spec")
	}
}

func TestBuildPinRestrictsCandidates(t *testing.T) {
	candidates := []solve.Record{
		rec("numpy", "1.6", 0),
		rec("numpy", "1.7", 0),
	}
	req := Request{
		Specs: []matchspec.Spec{matchspec.MustParse("numpy")},
		Pins:  []matchspec.Spec{matchspec.MustParse("numpy==1.6")},
	}
	p, err := Build(candidates, req)
	if err != nil {
		t.Fatal(err)
	}
	a, err := sat.Solve(p.CNF)
	if err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedRecords(a)
	if len(selected) != 1 || selected[0].Key.Version.String() != "1.6" {
		t.Fatalf("expected pin to force numpy 1.6, got %v", selected)
	}
}

func TestBuildTrackFeaturesConsistency(t *testing.T) {
	app := rec("app", "1.0", 0)
	app.TrackFeatures = map[string]bool{"mkl": true}
	openblas := rec("blas", "1.0", 0)
	openblas.Key.BuildString = "openblas"
	mklBlas := rec("blas", "1.0", 0)
	mklBlas.Key.BuildString = "mkl"
	mklBlas.Features = map[string]bool{"mkl": true}

	candidates := []solve.Record{app, openblas, mklBlas}
	req := Request{Specs: []matchspec.Spec{matchspec.MustParse("app"), matchspec.MustParse("blas")}}
	p, err := Build(candidates, req)
	if err != nil {
		t.Fatal(err)
	}
	a, err := sat.Solve(p.CNF)
	if err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedRecords(a)
	for _, r := range selected {
		if r.Key.Name == "blas" && r.Key.BuildString != "mkl" {
			t.Errorf("app tracks mkl, so the blas build lacking it should be excluded; got %v", selected)
		}
	}
}

func TestBuildRequiredFeatureForcesProvider(t *testing.T) {
	app := rec("app", "1.0", 0)
	openblas := rec("blas", "1.0", 0)
	openblas.Key.BuildString = "openblas"
	mklBlas := rec("blas", "1.0", 0)
	mklBlas.Key.BuildString = "mkl"
	mklBlas.Features = map[string]bool{"mkl": true}

	candidates := []solve.Record{app, openblas, mklBlas}
	req := Request{
		Specs:            []matchspec.Spec{matchspec.MustParse("app"), matchspec.MustParse("blas")},
		RequiredFeatures: []string{"mkl"},
	}
	p, err := Build(candidates, req)
	if err != nil {
		t.Fatal(err)
	}
	a, err := sat.Solve(p.CNF)
	if err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedRecords(a)
	found := false
	for _, r := range selected {
		if r.Key.Name == "blas" && r.Key.BuildString == "mkl" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the mkl-providing blas build to be forced in, got %v", selected)
	}
}

func TestChannelPriorityObjectiveCountsWorseSelections(t *testing.T) {
	aBest := rec("pkgA", "1.0", 0)
	aBest.Priority = 0
	aAlt := rec("pkgA", "1.1", 0)
	aAlt.Priority = 5
	bBest := rec("pkgB", "1.0", 0)
	bBest.Priority = 0
	bAlt := rec("pkgB", "1.1", 0)
	bAlt.Priority = 3

	candidates := []solve.Record{aBest, aAlt, bBest, bAlt}
	p, err := Build(candidates, Request{
		Specs:                  []matchspec.Spec{matchspec.MustParse("pkgA"), matchspec.MustParse("pkgB")},
		ChannelPriorityEnabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	var obj sat.Objective
	for _, o := range p.Objectives {
		if o.Name == "minimize-worse-channel-priority" {
			obj = o
		}
	}
	if obj.Weight == nil {
		t.Fatal("expected a minimize-worse-channel-priority objective")
	}

	// One name worse than its best, regardless of raw priority gap.
	if got := obj.Weight(sat.Assignment{true, false, false, true}); got != 1 {
		t.Errorf("Weight(aBest,bAlt) = %d, want 1 (count, not sum of priorities)", got)
	}
	if got := obj.Weight(sat.Assignment{false, true, true, false}); got != 1 {
		t.Errorf("Weight(aAlt,bBest) = %d, want 1 (count, not sum of priorities)", got)
	}
	if got := obj.Weight(sat.Assignment{true, false, true, false}); got != 0 {
		t.Errorf("Weight(aBest,bBest) = %d, want 0", got)
	}
}

func TestBuildForceRemove(t *testing.T) {
	numpy16 := rec("numpy", "1.6", 0)
	candidates := []solve.Record{numpy16, rec("numpy", "1.7", 0)}
	req := Request{
		Specs:       []matchspec.Spec{matchspec.MustParse("numpy")},
		ForceRemove: []solve.RecordKey{numpy16.Key},
	}
	p, err := Build(candidates, req)
	if err != nil {
		t.Fatal(err)
	}
	a, err := sat.Solve(p.CNF)
	if err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedRecords(a)
	if len(selected) != 1 || selected[0].Key.Version.String() != "1.7" {
		t.Fatalf("expected numpy 1.6 to be force-removed, got %v", selected)
	}
}
