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

package enmasse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestKindTable(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 14)

	seen := map[Kind]bool{}
	for _, k := range kinds {
		assert.False(t, seen[k.Kind], "duplicate kind %s", k.Kind)
		seen[k.Kind] = true
		assert.Equal(t, string(k.Kind), k.GVK.Kind)
		assert.NotEmpty(t, k.Resource)
	}

	ns := MustLookup(KindNamespace)
	assert.False(t, ns.Namespaced)
	assert.Equal(t, "namespaces", ns.GVR().Resource)

	as := MustLookup(KindAddressSpace)
	assert.True(t, as.Namespaced)
	assert.Equal(t, "enmasse.io", as.GVR().Group)

	_, ok := Lookup("Bogus")
	assert.False(t, ok)
	assert.Panics(t, func() { MustLookup("Bogus") })
}

func TestIdentityOf(t *testing.T) {
	obj := &unstructured.Unstructured{}
	obj.SetKind(string(KindAddressSpace))
	obj.SetNamespace("ns1")
	obj.SetName("as1")

	id := IdentityOf(obj)
	require.Equal(t, Identity{Kind: KindAddressSpace, Namespace: "ns1", Name: "as1"}, id)
	assert.Equal(t, "AddressSpace as1 in namespace ns1", id.String())

	id.Namespace = ""
	assert.Equal(t, "AddressSpace as1 in namespace (not set)", id.String())
}
