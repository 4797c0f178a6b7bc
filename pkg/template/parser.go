// Copyright 2025 The EnMasse Authors.
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

package template

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Segment is one step of a field path: a map key, or a list index when
// Index is not negative.
type Segment struct {
	Name  string
	Index int
}

// Field is a string field of an object holding one or more ${...}
// expressions.
type Field struct {
	Path []Segment
	// Expressions in order of appearance, without the ${ } delimiters.
	Expressions []string
	// Standalone is true when the whole value is a single expression, in
	// which case the resolved value replaces the string instead of being
	// spliced into it.
	Standalone bool
}

// String renders the path as metadata.labels["app.kubernetes.io/name"] or
// spec.hosts[0].
func (f Field) String() string {
	var b strings.Builder
	for i, s := range f.Path {
		if s.Index >= 0 {
			fmt.Fprintf(&b, "[%d]", s.Index)
			continue
		}
		if strings.Contains(s.Name, ".") || s.Name == "" {
			fmt.Fprintf(&b, "[%q]", s.Name)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

// ParseFields walks obj depth first and returns every field holding an
// expression, with map keys visited in sorted order.
func ParseFields(obj map[string]interface{}) ([]Field, error) {
	return parseValue(obj, nil)
}

func parseValue(v interface{}, path []Segment) ([]Field, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		var fields []Field
		for _, k := range slices.Sorted(maps.Keys(t)) {
			f, err := parseValue(t[k], appendSegment(path, Segment{Name: k, Index: -1}))
			if err != nil {
				return nil, err
			}
			fields = append(fields, f...)
		}
		return fields, nil
	case []interface{}:
		var fields []Field
		for i, e := range t {
			f, err := parseValue(e, appendSegment(path, Segment{Index: i}))
			if err != nil {
				return nil, err
			}
			fields = append(fields, f...)
		}
		return fields, nil
	case string:
		exprs, err := extractExpressions(t)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", Field{Path: path}, err)
		}
		if len(exprs) == 0 {
			return nil, nil
		}
		return []Field{{
			Path:        path,
			Expressions: exprs,
			Standalone:  len(exprs) == 1 && t == "${"+exprs[0]+"}",
		}}, nil
	default:
		return nil, nil
	}
}

func appendSegment(path []Segment, s Segment) []Segment {
	return append(slices.Clone(path), s)
}

// extractExpressions returns the bodies of the ${...} expressions in s.
// Braces nest so that map literals inside an expression are kept whole.
func extractExpressions(s string) ([]string, error) {
	var exprs []string
	for i := 0; i < len(s); {
		start := strings.Index(s[i:], "${")
		if start < 0 {
			break
		}
		start += i + 2
		end := closingBrace(s, start)
		if end < 0 {
			return nil, fmt.Errorf("unterminated expression in %q", s)
		}
		if end == start {
			return nil, fmt.Errorf("empty expression in %q", s)
		}
		exprs = append(exprs, s[start:end])
		i = end + 1
	}
	return exprs, nil
}

func closingBrace(s string, from int) int {
	depth := 1
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
