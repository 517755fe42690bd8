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
	"condasolve.dev/solve/matchspec"
	"condasolve.dev/solve/version"
)

// Matches reports whether r satisfies every predicate in spec: name
// and namespace, channel, subdir, version constraint, build glob,
// build number, and required track/regular features.
func Matches(spec matchspec.Spec, r Record) (bool, error) {
	if !spec.MatchesName(namespaceToken(r.Key.Namespace), r.Key.Name) {
		return false, nil
	}
	if spec.Channel != "" && spec.Channel != r.Key.Channel {
		return false, nil
	}
	if spec.Subdir != "" && spec.Subdir != r.Key.Subdir {
		return false, nil
	}
	if len(spec.Version) > 0 {
		ok, err := spec.Version.Matches(r.Key.Version)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, err
		}
	}
	if spec.Build != "" && !version.Glob(spec.Build, r.Key.BuildString) {
		return false, nil
	}
	if spec.BuildNumber != nil && *spec.BuildNumber != r.Key.BuildNumber {
		return false, nil
	}
	for _, f := range spec.TrackFeatures {
		if !r.HasTrackFeature(f) {
			return false, nil
		}
	}
	for _, f := range spec.Features {
		if !r.HasFeature(f) {
			return false, nil
		}
	}
	return true, nil
}

// MatchRecords filters records to those satisfying spec, preserving
// order.
func MatchRecords(spec matchspec.Spec, records []Record) ([]Record, error) {
	var out []Record
	for _, r := range records {
		ok, err := Matches(spec, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
