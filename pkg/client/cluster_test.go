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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	clienttesting "k8s.io/client-go/testing"

	"github.com/bordeuax/enmasse/api/enmasse"
)

func newFakeCluster(objs ...runtime.Object) (*DynamicCluster, *dynamicfake.FakeDynamicClient) {
	fake := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), ListKinds(), objs...)
	return NewDynamicCluster(fake, StaticRESTMapper()), fake
}

func newAddressSpace(namespace, name, plan string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{}}
	obj.SetGroupVersionKind(enmasse.MustLookup(enmasse.KindAddressSpace).GVK)
	obj.SetNamespace(namespace)
	obj.SetName(name)
	_ = unstructured.SetNestedField(obj.Object, plan, "spec", "plan")
	return obj
}

func TestCreateOrReplace(t *testing.T) {
	ctx := context.Background()
	c, fake := newFakeCluster()

	created, err := c.CreateOrReplace(ctx, newAddressSpace("ns1", "as1", "small"))
	require.NoError(t, err)
	assert.Equal(t, "as1", created.GetName())

	replaced, err := c.CreateOrReplace(ctx, newAddressSpace("ns1", "as1", "large"))
	require.NoError(t, err)
	plan, _, _ := unstructured.NestedString(replaced.Object, "spec", "plan")
	assert.Equal(t, "large", plan)

	got, err := c.Get(ctx, enmasse.MustLookup(enmasse.KindAddressSpace).GVK, "ns1", "as1")
	require.NoError(t, err)
	plan, _, _ = unstructured.NestedString(got.Object, "spec", "plan")
	assert.Equal(t, "large", plan)

	var verbs []string
	for _, a := range fake.Actions() {
		verbs = append(verbs, a.GetVerb())
	}
	assert.Equal(t, []string{"get", "create", "get", "update", "get"}, verbs)
}

func TestCreateOrReplaceError(t *testing.T) {
	c, fake := newFakeCluster()
	fake.PrependReactor("create", "addressspaces", func(clienttesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("admission denied")
	})

	_, err := c.CreateOrReplace(context.Background(), newAddressSpace("ns1", "as1", "small"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create AddressSpace/as1")
	assert.Contains(t, err.Error(), "admission denied")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	as := newAddressSpace("ns1", "as1", "small")
	c, fake := newFakeCluster(as)

	require.NoError(t, c.Delete(ctx, as, true))
	_, err := c.Get(ctx, as.GroupVersionKind(), "ns1", "as1")
	assert.True(t, apierrors.IsNotFound(err))

	var propagation *metav1.DeletionPropagation
	for _, a := range fake.Actions() {
		if d, ok := a.(clienttesting.DeleteAction); ok {
			propagation = d.GetDeleteOptions().PropagationPolicy
		}
	}
	require.NotNil(t, propagation)
	assert.Equal(t, metav1.DeletePropagationForeground, *propagation)

	// already gone
	assert.NoError(t, c.Delete(ctx, as, true))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	a := newAddressSpace("ns1", "a", "small")
	a.SetLabels(map[string]string{"team": "x"})
	b := newAddressSpace("ns1", "b", "small")
	other := newAddressSpace("ns2", "c", "small")
	c, _ := newFakeCluster(a, b, other)
	gvk := enmasse.MustLookup(enmasse.KindAddressSpace).GVK

	items, err := c.List(ctx, gvk, "ns1", nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = c.List(ctx, gvk, "", nil)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = c.List(ctx, gvk, "", labels.SelectorFromSet(labels.Set{"team": "x"}))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].GetName())
}

func TestUnknownKind(t *testing.T) {
	c, _ := newFakeCluster()
	_, err := c.Get(context.Background(), schema.GroupVersionKind{Group: "example.com", Version: "v1", Kind: "Widget"}, "ns", "w")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get REST mapping")
}

func TestNamespaces(t *testing.T) {
	ctx := context.Background()
	c, _ := newFakeCluster()

	exists, err := c.NamespaceExists(ctx, "tenant-a")
	require.NoError(t, err)
	assert.False(t, exists)

	ns, err := c.CreateNamespace(ctx, "tenant-a", map[string]string{"type": "instance"})
	require.NoError(t, err)
	assert.Equal(t, "Namespace", ns.GetKind())
	assert.Equal(t, map[string]string{"type": "instance"}, ns.GetLabels())

	exists, err = c.NamespaceExists(ctx, "tenant-a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStaticRESTMapper(t *testing.T) {
	mapper := StaticRESTMapper()

	for _, k := range enmasse.Kinds() {
		mapping, err := mapper.RESTMapping(k.GVK.GroupKind(), k.GVK.Version)
		if k.Virtual {
			assert.Error(t, err, k.Kind)
			continue
		}
		require.NoError(t, err, k.Kind)
		assert.Equal(t, k.GVR(), mapping.Resource)
		assert.Equal(t, k.Namespaced, mapping.Scope.Name() == "namespace", k.Kind)
	}

	for gvk, resource := range map[schema.GroupVersionKind]string{
		enmasse.RouteGVK:       "routes",
		enmasse.StatefulSetGVK: "statefulsets",
		enmasse.ConfigMapGVK:   "configmaps",
		enmasse.RoleBindingGVK: "rolebindings",
	} {
		mapping, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		require.NoError(t, err, gvk.Kind)
		assert.Equal(t, resource, mapping.Resource.Resource)
	}
}
