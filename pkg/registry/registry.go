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

package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/api/enmasse"
)

// ErrUnknownKind is returned when no type is registered for a kind.
var ErrUnknownKind = errors.New("unknown kind")

// Func is an operation applied to a declared object.
type Func func(ctx context.Context, obj *unstructured.Unstructured) error

// ResourceType bundles the operations of one kind.
type ResourceType struct {
	Kind      enmasse.Kind
	Create    Func
	Delete    Func
	WaitReady Func
}

// Registry maps kinds onto their ResourceType. It is populated before use
// and is not safe for concurrent registration.
type Registry struct {
	types []ResourceType
}

// New returns a registry holding types.
func New(types ...ResourceType) *Registry {
	r := &Registry{}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing the type registered for the same kind.
func (r *Registry) Register(t ResourceType) {
	for i := range r.types {
		if r.types[i].Kind == t.Kind {
			r.types[i] = t
			return
		}
	}
	r.types = append(r.types, t)
}

// Resolve returns the type registered for kind.
func (r *Registry) Resolve(kind enmasse.Kind) (ResourceType, bool) {
	return lo.Find(r.types, func(t ResourceType) bool {
		return t.Kind == kind
	})
}

// ResolveObject returns the type of obj, or an error wrapping ErrUnknownKind.
func (r *Registry) ResolveObject(obj *unstructured.Unstructured) (ResourceType, error) {
	t, ok := r.Resolve(enmasse.Kind(obj.GetKind()))
	if !ok {
		return ResourceType{}, fmt.Errorf("%w %q", ErrUnknownKind, obj.GetKind())
	}
	return t, nil
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []enmasse.Kind {
	return lo.Map(r.types, func(t ResourceType, _ int) enmasse.Kind {
		return t.Kind
	})
}
