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

// Package template renders parameterized object sets.
package template

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Renderer turns a named template and its parameters into objects.
type Renderer interface {
	Render(ctx context.Context, name string, params map[string]string) ([]*unstructured.Unstructured, error)
}

// Substitute returns a copy of obj with every ${...} expression in its
// string values resolved against params. Expressions naming unknown
// parameters are left as they are.
func Substitute(obj map[string]interface{}, params map[string]string) (map[string]interface{}, error) {
	r, err := NewResolver(params)
	if err != nil {
		return nil, err
	}
	return r.Substitute(obj)
}
