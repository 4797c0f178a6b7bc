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

import "k8s.io/apimachinery/pkg/runtime/schema"

// Objects the engine reads or writes but never declares directly.
var (
	PodGVK         = schema.GroupVersionKind{Version: "v1", Kind: "Pod"}
	ConfigMapGVK   = schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}
	DeploymentGVK  = schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}
	StatefulSetGVK = schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "StatefulSet"}
	RoleBindingGVK = schema.GroupVersionKind{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "RoleBinding"}
	RouteGVK       = schema.GroupVersionKind{Group: "route.openshift.io", Version: "v1", Kind: "Route"}
	TemplateGVK    = schema.GroupVersionKind{Group: "template.openshift.io", Version: "v1", Kind: "Template"}
)

// SupportingKinds lists the non-declarable kinds together with their scope.
// Resource is left empty; these follow the plural naming convention.
func SupportingKinds() []KindInfo {
	return []KindInfo{
		{Kind: Kind(PodGVK.Kind), GVK: PodGVK, Namespaced: true},
		{Kind: Kind(ConfigMapGVK.Kind), GVK: ConfigMapGVK, Namespaced: true},
		{Kind: Kind(DeploymentGVK.Kind), GVK: DeploymentGVK, Namespaced: true},
		{Kind: Kind(StatefulSetGVK.Kind), GVK: StatefulSetGVK, Namespaced: true},
		{Kind: Kind(RoleBindingGVK.Kind), GVK: RoleBindingGVK, Namespaced: true},
		{Kind: Kind(RouteGVK.Kind), GVK: RouteGVK, Namespaced: true},
		{Kind: Kind(TemplateGVK.Kind), GVK: TemplateGVK, Namespaced: true},
	}
}
