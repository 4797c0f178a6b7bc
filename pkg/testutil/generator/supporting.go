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

package generator

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/bordeuax/enmasse/api/enmasse"
)

func newSupporting(gvk schema.GroupVersionKind, namespace, name string, opts ...ObjectOption) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{}}
	obj.SetGroupVersionKind(gvk)
	obj.SetNamespace(namespace)
	obj.SetName(name)
	for _, opt := range opts {
		opt(obj)
	}
	return obj
}

// NewPod creates a Pod whose Ready condition is set to ready
func NewPod(namespace, name string, ready bool, opts ...ObjectOption) *unstructured.Unstructured {
	status := "False"
	if ready {
		status = "True"
	}
	opts = append([]ObjectOption{
		WithField("Running", "status", "phase"),
		WithCondition("Ready", status),
	}, opts...)
	return newSupporting(enmasse.PodGVK, namespace, name, opts...)
}

// NewWorkload creates a Deployment or StatefulSet labeled as belonging to
// the address space infrastructure clusterID
func NewWorkload(gvk schema.GroupVersionKind, namespace, name, clusterID string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithLabels(map[string]string{"cluster_id": clusterID}),
	}, opts...)
	return newSupporting(gvk, namespace, name, opts...)
}

// NewRoute creates an OpenShift Route exposing host
func NewRoute(namespace, name, host string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithField(host, "spec", "host"),
	}, opts...)
	return newSupporting(enmasse.RouteGVK, namespace, name, opts...)
}

// NewTemplate creates an OpenShift Template holding objects. Parameters are
// given as name to default value.
func NewTemplate(namespace, name string, parameters map[string]string, objects ...*unstructured.Unstructured) *unstructured.Unstructured {
	params := make([]interface{}, 0, len(parameters))
	for k, v := range parameters {
		p := map[string]interface{}{"name": k}
		if v != "" {
			p["value"] = v
		}
		params = append(params, p)
	}
	objs := make([]interface{}, 0, len(objects))
	for _, o := range objects {
		objs = append(objs, o.DeepCopy().Object)
	}
	return newSupporting(enmasse.TemplateGVK, namespace, name,
		WithField(params, "parameters"),
		WithField(objs, "objects"),
	)
}
