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

// Package crds builds the CustomResourceDefinitions of the messaging
// platform kinds from the kind table.
package crds

import (
	"strings"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/metadata"
)

// Name returns the CRD name of info, <resource>.<group>.
func Name(info enmasse.KindInfo) string {
	return info.Resource + "." + info.GVK.Group
}

// For returns the CRD serving info. The schema preserves unknown fields of
// spec and status; validation is left to the platform's own admission.
func For(info enmasse.KindInfo) *apiextensionsv1.CustomResourceDefinition {
	scope := apiextensionsv1.ClusterScoped
	if info.Namespaced {
		scope = apiextensionsv1.NamespaceScoped
	}

	return &apiextensionsv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiextensionsv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   Name(info),
			Labels: metadata.NewManagedLabeler(),
		},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: info.GVK.Group,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Kind:     info.GVK.Kind,
				ListKind: info.GVK.Kind + "List",
				Plural:   info.Resource,
				Singular: strings.ToLower(info.GVK.Kind),
			},
			Scope: scope,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				{
					Name:    info.GVK.Version,
					Served:  true,
					Storage: true,
					Schema: &apiextensionsv1.CustomResourceValidation{
						OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
							Type: "object",
							Properties: map[string]apiextensionsv1.JSONSchemaProps{
								"spec":   openObject(),
								"status": openObject(),
							},
						},
					},
					Subresources: &apiextensionsv1.CustomResourceSubresources{
						Status: &apiextensionsv1.CustomResourceSubresourceStatus{},
					},
				},
			},
		},
	}
}

func openObject() apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{
		Type:                   "object",
		XPreserveUnknownFields: ptr.To(true),
	}
}

// All returns the CRDs of every declarable kind that is a custom resource.
// Namespaces are built in and instances are virtual.
func All() []*apiextensionsv1.CustomResourceDefinition {
	var out []*apiextensionsv1.CustomResourceDefinition
	for _, info := range enmasse.Kinds() {
		if info.Virtual || info.GVK.Group == "" {
			continue
		}
		out = append(out, For(info))
	}
	return out
}
