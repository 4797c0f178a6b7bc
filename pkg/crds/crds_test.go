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

package crds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/metadata"
)

func TestFor(t *testing.T) {
	crd := For(enmasse.MustLookup(enmasse.KindAddressSpace))

	assert.Equal(t, "addressspaces.enmasse.io", crd.Name)
	assert.True(t, metadata.IsManaged(crd))
	assert.Equal(t, apiextensionsv1.NamespaceScoped, crd.Spec.Scope)
	assert.Equal(t, "AddressSpace", crd.Spec.Names.Kind)
	assert.Equal(t, "addressspace", crd.Spec.Names.Singular)
	assert.Equal(t, "AddressSpaceList", crd.Spec.Names.ListKind)

	require.Len(t, crd.Spec.Versions, 1)
	v := crd.Spec.Versions[0]
	assert.Equal(t, "v1beta1", v.Name)
	assert.True(t, v.Served)
	assert.True(t, v.Storage)
	require.NotNil(t, v.Subresources)
	assert.NotNil(t, v.Subresources.Status)
	status := v.Schema.OpenAPIV3Schema.Properties["status"]
	require.NotNil(t, status.XPreserveUnknownFields)
	assert.True(t, *status.XPreserveUnknownFields)
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, 12)

	names := map[string]bool{}
	for _, crd := range all {
		assert.False(t, names[crd.Name], "duplicate CRD %s", crd.Name)
		names[crd.Name] = true
		assert.NotEmpty(t, crd.Spec.Group)
	}
	assert.True(t, names["messagingusers.user.enmasse.io"])
	assert.True(t, names["iotprojects.iot.enmasse.io"])
	assert.False(t, names["instances.enmasse.io"])
}
