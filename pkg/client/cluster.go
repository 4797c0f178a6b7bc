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

package client

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/utils/ptr"
	logr "sigs.k8s.io/controller-runtime/pkg/log"
)

// Cluster is the slice of the control plane API the engine works against.
type Cluster interface {
	// CreateOrReplace creates obj, or replaces the live object of the same
	// identity. The stored object is returned.
	CreateOrReplace(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)

	// Delete removes obj. With cascade set dependents are removed first
	// (foreground propagation). Deleting a missing object is not an error.
	Delete(ctx context.Context, obj *unstructured.Unstructured, cascade bool) error

	// Get returns the object or an error satisfying apierrors.IsNotFound.
	Get(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string) (*unstructured.Unstructured, error)

	// List returns the objects of gvk in namespace, all namespaces when
	// namespace is empty. A nil selector matches everything.
	List(ctx context.Context, gvk schema.GroupVersionKind, namespace string, selector labels.Selector) ([]*unstructured.Unstructured, error)

	NamespaceExists(ctx context.Context, name string) (bool, error)
	CreateNamespace(ctx context.Context, name string, labels map[string]string) (*unstructured.Unstructured, error)
}

var _ Cluster = (*DynamicCluster)(nil)

// DynamicCluster implements Cluster on top of a dynamic client.
type DynamicCluster struct {
	client dynamic.Interface
	mapper meta.RESTMapper
}

// NewDynamicCluster creates a Cluster from a dynamic client and the mapper
// used to resolve kinds into resources.
func NewDynamicCluster(client dynamic.Interface, mapper meta.RESTMapper) *DynamicCluster {
	return &DynamicCluster{
		client: client,
		mapper: mapper,
	}
}

func (c *DynamicCluster) resource(gvk schema.GroupVersionKind, namespace string) (dynamic.ResourceInterface, error) {
	mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to get REST mapping for %s: %w", gvk, err)
	}
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		return c.client.Resource(mapping.Resource).Namespace(namespace), nil
	}
	return c.client.Resource(mapping.Resource), nil
}

// CreateOrReplace creates obj or updates the live object in place.
func (c *DynamicCluster) CreateOrReplace(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	log := logr.FromContext(ctx).WithValues("kind", obj.GetKind(), "name", obj.GetName(), "namespace", obj.GetNamespace())

	ri, err := c.resource(obj.GroupVersionKind(), obj.GetNamespace())
	if err != nil {
		return nil, err
	}

	existing, err := ri.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("failed to check for existing %s: %w", obj.GetKind(), err)
		}
		log.V(1).Info("Creating object")
		created, err := ri.Create(ctx, obj, metav1.CreateOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s/%s: %w", obj.GetKind(), obj.GetName(), err)
		}
		return created, nil
	}

	log.V(1).Info("Replacing object")
	desired := obj.DeepCopy()
	desired.SetResourceVersion(existing.GetResourceVersion())
	updated, err := ri.Update(ctx, desired, metav1.UpdateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to replace %s/%s: %w", obj.GetKind(), obj.GetName(), err)
	}
	return updated, nil
}

// Delete removes obj if it exists.
func (c *DynamicCluster) Delete(ctx context.Context, obj *unstructured.Unstructured, cascade bool) error {
	ri, err := c.resource(obj.GroupVersionKind(), obj.GetNamespace())
	if err != nil {
		return err
	}

	opts := metav1.DeleteOptions{}
	if cascade {
		opts.PropagationPolicy = ptr.To(metav1.DeletePropagationForeground)
	}
	err = ri.Delete(ctx, obj.GetName(), opts)
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s/%s: %w", obj.GetKind(), obj.GetName(), err)
	}
	return nil
}

// Get retrieves a single object.
func (c *DynamicCluster) Get(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string) (*unstructured.Unstructured, error) {
	ri, err := c.resource(gvk, namespace)
	if err != nil {
		return nil, err
	}
	return ri.Get(ctx, name, metav1.GetOptions{})
}

// List retrieves every object of gvk matching selector.
func (c *DynamicCluster) List(ctx context.Context, gvk schema.GroupVersionKind, namespace string, selector labels.Selector) ([]*unstructured.Unstructured, error) {
	ri, err := c.resource(gvk, namespace)
	if err != nil {
		return nil, err
	}

	opts := metav1.ListOptions{}
	if selector != nil && !selector.Empty() {
		opts.LabelSelector = selector.String()
	}
	list, err := ri.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", gvk.Kind, err)
	}

	out := make([]*unstructured.Unstructured, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, &list.Items[i])
	}
	return out, nil
}

// NamespaceExists reports whether the namespace is present.
func (c *DynamicCluster) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := c.Get(ctx, namespaceGVK, "", name)
	if err == nil {
		return true, nil
	}
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// CreateNamespace creates a labeled namespace, or relabels an existing one.
func (c *DynamicCluster) CreateNamespace(ctx context.Context, name string, labels map[string]string) (*unstructured.Unstructured, error) {
	ns := &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Namespace",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: labels,
		},
	}
	obj, err := ToUnstructured(ns)
	if err != nil {
		return nil, err
	}
	return c.CreateOrReplace(ctx, obj)
}

var namespaceGVK = schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}

// ToUnstructured converts a typed object into its unstructured form.
func ToUnstructured(obj runtime.Object) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %T to unstructured: %w", obj, err)
	}
	return &unstructured.Unstructured{Object: content}, nil
}
