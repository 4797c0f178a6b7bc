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
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/client"
)

var _ Renderer = (*ClusterRenderer)(nil)

// ClusterRenderer processes OpenShift Templates stored on the control plane.
type ClusterRenderer struct {
	cluster   client.Cluster
	namespace string
}

// NewClusterRenderer reads templates from namespace.
func NewClusterRenderer(cluster client.Cluster, namespace string) *ClusterRenderer {
	return &ClusterRenderer{
		cluster:   cluster,
		namespace: namespace,
	}
}

// Render fetches the Template called name and returns its objects with
// every parameter substituted. Parameters not given fall back to the
// template default.
func (r *ClusterRenderer) Render(ctx context.Context, name string, params map[string]string) ([]*unstructured.Unstructured, error) {
	tmpl, err := r.cluster.Get(ctx, enmasse.TemplateGVK, r.namespace, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", name, err)
	}
	return Process(tmpl, params)
}

// Process renders an OpenShift Template object.
func Process(tmpl *unstructured.Unstructured, params map[string]string) ([]*unstructured.Unstructured, error) {
	values := map[string]string{}

	declared, _, err := unstructured.NestedSlice(tmpl.Object, "parameters")
	if err != nil {
		return nil, fmt.Errorf("invalid parameters in template %s: %w", tmpl.GetName(), err)
	}
	for _, p := range declared {
		param, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := param["name"].(string)
		value, _ := param["value"].(string)
		required, _ := param["required"].(bool)
		if given, ok := params[name]; ok {
			value = given
		}
		if required && value == "" {
			return nil, fmt.Errorf("template %s: missing required parameter %s", tmpl.GetName(), name)
		}
		values[name] = value
	}
	for k, v := range params {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}

	objects, _, err := unstructured.NestedSlice(tmpl.Object, "objects")
	if err != nil {
		return nil, fmt.Errorf("invalid objects in template %s: %w", tmpl.GetName(), err)
	}
	resolver, err := NewResolver(values)
	if err != nil {
		return nil, err
	}
	out := make([]*unstructured.Unstructured, 0, len(objects))
	for i, o := range objects {
		m, ok := o.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("template %s: object %d is not a map", tmpl.GetName(), i)
		}
		rendered, err := resolver.Substitute(m)
		if err != nil {
			return nil, fmt.Errorf("template %s: object %d: %w", tmpl.GetName(), i, err)
		}
		out = append(out, &unstructured.Unstructured{Object: rendered})
	}
	return out, nil
}
