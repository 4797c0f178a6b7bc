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
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
	"go.uber.org/multierr"
	"k8s.io/apimachinery/pkg/runtime"
)

var celIdentifier = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`)

var celReserved = map[string]bool{
	"false": true, "in": true, "null": true, "true": true,
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"for": true, "function": true, "if": true, "import": true, "let": true,
	"loop": true, "package": true, "namespace": true, "return": true,
	"var": true, "void": true, "while": true,
}

// Summary reports how the expressions of an object were resolved.
type Summary struct {
	TotalExpressions    int
	ResolvedExpressions int
	// Unresolved lists the expressions left in place, either because they
	// name no parameter or because they do not evaluate.
	Unresolved []string
	Errors     []error
}

// Resolver replaces ${...} expressions with parameter values. An expression
// that is exactly a parameter name takes its value directly; anything else
// is evaluated as CEL with every parameter declared as a string variable.
// A Resolver is not safe for concurrent use.
type Resolver struct {
	params   map[string]string
	vars     map[string]interface{}
	env      *cel.Env
	programs map[string]cel.Program
}

// NewResolver builds a Resolver over params.
func NewResolver(params map[string]string) (*Resolver, error) {
	opts := []cel.EnvOption{ext.Strings()}
	vars := make(map[string]interface{}, len(params))
	for name, value := range params {
		if !celIdentifier.MatchString(name) || celReserved[name] {
			continue
		}
		opts = append(opts, cel.Variable(name, cel.StringType))
		vars[name] = value
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}
	return &Resolver{
		params:   params,
		vars:     vars,
		env:      env,
		programs: map[string]cel.Program{},
	}, nil
}

// Substitute returns a copy of obj with its expressions resolved. obj is
// not modified.
func (r *Resolver) Substitute(obj map[string]interface{}) (map[string]interface{}, error) {
	out := runtime.DeepCopyJSON(obj)
	fields, err := ParseFields(out)
	if err != nil {
		return nil, err
	}
	summary := r.Resolve(out, fields)
	if err := multierr.Combine(summary.Errors...); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve writes the value of every resolvable expression of fields back
// into obj.
func (r *Resolver) Resolve(obj map[string]interface{}, fields []Field) Summary {
	var summary Summary
	for _, f := range fields {
		summary.TotalExpressions += len(f.Expressions)
		current, err := getAt(obj, f.Path)
		if err != nil {
			summary.Errors = append(summary.Errors, err)
			continue
		}
		s, ok := current.(string)
		if !ok {
			summary.Errors = append(summary.Errors, fmt.Errorf("expected string value at %s", f))
			continue
		}

		var replacement interface{}
		if f.Standalone {
			value, ok := r.evaluate(f.Expressions[0])
			if !ok {
				summary.Unresolved = append(summary.Unresolved, f.Expressions[0])
				continue
			}
			summary.ResolvedExpressions++
			replacement = value
		} else {
			replaced := s
			for _, expr := range f.Expressions {
				value, ok := r.evaluate(expr)
				if !ok {
					summary.Unresolved = append(summary.Unresolved, expr)
					continue
				}
				summary.ResolvedExpressions++
				replaced = strings.ReplaceAll(replaced, "${"+expr+"}", fmt.Sprint(value))
			}
			replacement = replaced
		}
		if err := setAt(obj, f.Path, replacement); err != nil {
			summary.Errors = append(summary.Errors, err)
		}
	}
	return summary
}

// evaluate returns the value of expr and whether it resolved to a scalar.
func (r *Resolver) evaluate(expr string) (interface{}, bool) {
	if value, ok := r.params[expr]; ok {
		return value, true
	}
	prg, ok := r.programs[expr]
	if !ok {
		ast, iss := r.env.Compile(expr)
		if iss.Err() != nil {
			return nil, false
		}
		var err error
		prg, err = r.env.Program(ast)
		if err != nil {
			return nil, false
		}
		r.programs[expr] = prg
	}
	out, _, err := prg.Eval(r.vars)
	if err != nil {
		return nil, false
	}
	switch v := out.Value().(type) {
	case string, bool, int64, uint64, float64:
		return v, true
	default:
		return nil, false
	}
}

func getAt(obj map[string]interface{}, path []Segment) (interface{}, error) {
	var current interface{} = obj
	for i, s := range path {
		next, err := step(current, s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Field{Path: path[:i+1]}, err)
		}
		current = next
	}
	return current, nil
}

func setAt(obj map[string]interface{}, path []Segment, value interface{}) error {
	if len(path) == 0 {
		return errors.New("cannot replace the root object")
	}
	parent, err := getAt(obj, path[:len(path)-1])
	if err != nil {
		return err
	}
	last := path[len(path)-1]
	switch p := parent.(type) {
	case map[string]interface{}:
		if last.Index < 0 {
			p[last.Name] = value
			return nil
		}
	case []interface{}:
		if last.Index >= 0 && last.Index < len(p) {
			p[last.Index] = value
			return nil
		}
	}
	return fmt.Errorf("%s: no such field", Field{Path: path})
}

func step(v interface{}, s Segment) (interface{}, error) {
	if s.Index >= 0 {
		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		if s.Index >= len(list) {
			return nil, fmt.Errorf("index %d out of bounds", s.Index)
		}
		return list[s.Index], nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected map, got %T", v)
	}
	value, ok := m[s.Name]
	if !ok {
		return nil, fmt.Errorf("key %q not found", s.Name)
	}
	return value, nil
}
