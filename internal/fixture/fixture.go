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
Package fixture builds test catalogs from a small text format, so test
cases can describe a package universe as data rather than as a wall of
Go struct literals.

	-- Catalog sample
	python 2.7.0-0
	python 3.6.0-0
	numpy 1.7.0-py27_0
		depends: python==2.7
	numpy 1.7.0-py36_0
		depends: python==3.6
	numpy 1.8.0-py36_0
		depends: python==3.6
		constrains: mkl<1.0
	-- END

Each top-level line (no leading whitespace) starts a record:

	name version-buildstring [build_number=N] [priority=N] [timestamp=N]

Indented lines under a record add repeatable fields:

	depends: spec, spec, ...
	constrains: spec, spec, ...
	features: name, name, ...
	track_features: name, name, ...

A bare "version-buildstring" with no "-" in the build position (e.g. a
version containing no build string at all) is not supported; tests that
don't care about the build string can use "-0" as a placeholder.
*/
package fixture

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"condasolve.dev/solve"
	"condasolve.dev/solve/version"
)

const (
	startCatalog = "-- catalog "
	endBlock     = "-- end"
)

// ParseCatalog parses a single "-- Catalog <name> ... -- END" block and
// returns the records it describes as a ready-to-query MemIndex.
func ParseCatalog(text string) (*solve.MemIndex, error) {
	idx := solve.NewMemIndex()
	scanner := bufio.NewScanner(strings.NewReader(text))

	inBlock := false
	var cur *solve.Record
	lineNo := 0

	flush := func() {
		if cur != nil {
			idx.AddRecord(*cur)
			cur = nil
		}
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		lower := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case lower == "":
			continue
		case strings.HasPrefix(lower, startCatalog):
			inBlock = true
			continue
		case lower == endBlock:
			flush()
			inBlock = false
			continue
		}
		if !inBlock {
			continue
		}

		if raw[0] == ' ' || raw[0] == '\t' {
			if cur == nil {
				return nil, fmt.Errorf("fixture: line %d: indented field before any record", lineNo)
			}
			if err := applyField(cur, strings.TrimSpace(raw)); err != nil {
				return nil, fmt.Errorf("fixture: line %d: %w", lineNo, err)
			}
			continue
		}

		flush()
		r, err := parseRecordLine(raw)
		if err != nil {
			return nil, fmt.Errorf("fixture: line %d: %w", lineNo, err)
		}
		cur = &r
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return idx, nil
}

func parseRecordLine(line string) (solve.Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return solve.Record{}, fmt.Errorf("want at least name and version-build, got %q", line)
	}

	namespace, name := solve.Global, fields[0]
	if i := strings.IndexByte(fields[0], ':'); i >= 0 {
		namespace = solve.ParseNamespaceToken(fields[0][:i])
		name = fields[0][i+1:]
	}

	ver, build, err := splitVersionBuild(fields[1])
	if err != nil {
		return solve.Record{}, err
	}
	v, err := version.Parse(ver)
	if err != nil {
		return solve.Record{}, fmt.Errorf("invalid version %q: %w", ver, err)
	}

	r := solve.Record{
		Key: solve.RecordKey{
			PackageKey:  solve.PackageKey{Channel: "defaults", Subdir: "linux-64", Namespace: namespace, Name: name},
			Version:     v,
			BuildString: build,
		},
	}

	for _, kv := range fields[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return solve.Record{}, fmt.Errorf("malformed attribute %q", kv)
		}
		switch k {
		case "build_number":
			n, err := strconv.Atoi(v)
			if err != nil {
				return solve.Record{}, fmt.Errorf("invalid build_number %q: %w", v, err)
			}
			r.Key.BuildNumber = n
		case "priority":
			n, err := strconv.Atoi(v)
			if err != nil {
				return solve.Record{}, fmt.Errorf("invalid priority %q: %w", v, err)
			}
			r.Priority = solve.ChannelPriority(n)
		case "timestamp":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return solve.Record{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
			}
			r.Timestamp = n
		case "channel":
			r.Key.Channel = v
		case "subdir":
			r.Key.Subdir = v
		default:
			return solve.Record{}, fmt.Errorf("unknown attribute %q", k)
		}
	}
	return r, nil
}

func splitVersionBuild(s string) (ver, build string, err error) {
	i := strings.LastIndexByte(s, '-')
	if i < 0 {
		return "", "", fmt.Errorf("expected version-build, got %q", s)
	}
	return s[:i], s[i+1:], nil
}

func applyField(r *solve.Record, line string) error {
	k, v, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("expected key: value, got %q", line)
	}
	k = strings.TrimSpace(k)
	items := splitCommaList(v)
	switch k {
	case "depends":
		r.Depends = append(r.Depends, items...)
	case "constrains":
		r.Constrains = append(r.Constrains, items...)
	case "features":
		if r.Features == nil {
			r.Features = map[string]bool{}
		}
		for _, f := range items {
			r.Features[f] = true
		}
	case "track_features":
		if r.TrackFeatures == nil {
			r.TrackFeatures = map[string]bool{}
		}
		for _, f := range items {
			r.TrackFeatures[f] = true
		}
	default:
		return fmt.Errorf("unknown field %q", k)
	}
	return nil
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
