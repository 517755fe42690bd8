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
	"strconv"
	"strings"
)

// parser parses the structural portions of a match spec: the optional
// channel/subdir and namespace prefixes, the name, the inline
// version/build suffix, and the trailing bracket key=value section.
// The version grammar itself is delegated to parseVersionConstraint.
type parser struct {
	l *lexer
}

func (p *parser) parseSpec() (Spec, error) {
	s := strings.TrimSpace(p.l.str)
	if s == "" {
		return Spec{}, fmt.Errorf("matchspec: empty spec")
	}

	spec := Spec{OptionalFields: map[string]string{}}

	var bracket string
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Spec{}, fmt.Errorf("matchspec: unterminated bracket section in %q", s)
		}
		bracket = s[i+1 : len(s)-1]
		s = strings.TrimSpace(s[:i])
	}

	if i := strings.Index(s, "::"); i >= 0 {
		prefix := s[:i]
		s = s[i+2:]
		if j := strings.IndexByte(prefix, '/'); j >= 0 {
			spec.Channel = prefix[:j]
			spec.Subdir = prefix[j+1:]
		} else {
			spec.Channel = prefix
		}
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Spec{}, fmt.Errorf("matchspec: missing package name in %q", s)
	}
	head := fields[0]

	if i := strings.IndexByte(head, ':'); i >= 0 {
		spec.Namespace = head[:i]
		head = head[i+1:]
	}

	name, versionText, buildText := splitNameVersionBuild(head)
	if name == "" {
		return Spec{}, fmt.Errorf("matchspec: missing package name in %q", s)
	}
	spec.Name = name

	switch len(fields) {
	case 1:
	case 2:
		if versionText == "" {
			versionText = fields[1]
		} else {
			buildText = fields[1]
		}
	case 3:
		if versionText == "" {
			versionText = fields[1]
		}
		buildText = fields[2]
	default:
		return Spec{}, fmt.Errorf("matchspec: too many space-separated fields in %q", s)
	}

	constraint, err := parseVersionConstraint(versionText)
	if err != nil {
		return Spec{}, err
	}
	spec.Version = constraint
	spec.Build = buildText

	if bracket != "" {
		if err := applyBracket(&spec, bracket); err != nil {
			return Spec{}, err
		}
	}
	return spec, nil
}

// splitNameVersionBuild splits a compact "name[version][ build]" token
// (no surrounding spaces) at the first character that cannot appear in
// a bare package name: a version operator or the start of a numeric
// version run directly glued to the name, e.g. "numpy>=1.7" or
// "numpy1.7.*" is not legal conda syntax, so in practice the split
// point is the first occurrence of an operator character.
func splitNameVersionBuild(head string) (name, version, build string) {
	for i, c := range head {
		if c == '=' || c == '!' || c == '>' || c == '<' {
			return head[:i], head[i:], ""
		}
	}
	return head, "", ""
}

func applyBracket(spec *Spec, bracket string) error {
	for _, part := range splitTopLevel(bracket, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("matchspec: malformed bracket field %q", part)
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `'"`)
		switch key {
		case "version":
			constraint, err := parseVersionConstraint(val)
			if err != nil {
				return err
			}
			spec.Version = constraint
		case "build":
			spec.Build = val
		case "channel":
			spec.Channel = val
		case "subdir":
			spec.Subdir = val
		case "build_number":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("matchspec: invalid build_number %q: %w", val, err)
			}
			spec.BuildNumber = &n
		case "track_features":
			spec.TrackFeatures = splitTopLevel(val, ' ')
		case "features":
			spec.Features = splitTopLevel(val, ' ')
		default:
			spec.OptionalFields[key] = val
		}
	}
	return nil
}

// splitTopLevel splits on sep, trimming empty fields produced by
// repeated separators.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	for _, part := range strings.Split(s, string(sep)) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
