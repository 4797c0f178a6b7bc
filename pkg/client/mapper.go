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
	"strings"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/metadata"
)

func resourceOf(k enmasse.KindInfo) schema.GroupVersionResource {
	if k.Resource == "" {
		return metadata.GuessGVR(k.GVK)
	}
	return k.GVR()
}

// StaticRESTMapper returns a mapper that knows every declarable kind and the
// supporting kinds the engine touches, without talking to a server.
func StaticRESTMapper() *meta.DefaultRESTMapper {
	kinds := append(enmasse.Kinds(), enmasse.SupportingKinds()...)

	versions := map[schema.GroupVersion]bool{}
	var gvs []schema.GroupVersion
	for _, k := range kinds {
		gv := k.GVK.GroupVersion()
		if !versions[gv] {
			versions[gv] = true
			gvs = append(gvs, gv)
		}
	}

	mapper := meta.NewDefaultRESTMapper(gvs)
	for _, k := range kinds {
		if k.Virtual {
			continue
		}
		scope := meta.RESTScopeRoot
		if k.Namespaced {
			scope = meta.RESTScopeNamespace
		}
		mapper.AddSpecific(k.GVK, resourceOf(k), k.GVK.GroupVersion().WithResource(strings.ToLower(k.GVK.Kind)), scope)
	}
	return mapper
}

// ListKinds maps every resource known to StaticRESTMapper to its list kind,
// as expected by the dynamic fake client.
func ListKinds() map[schema.GroupVersionResource]string {
	kinds := append(enmasse.Kinds(), enmasse.SupportingKinds()...)
	out := make(map[schema.GroupVersionResource]string, len(kinds))
	for _, k := range kinds {
		if k.Virtual {
			continue
		}
		out[resourceOf(k)] = k.GVK.Kind + "List"
	}
	return out
}
