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
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	// DomainName is the API group suffix shared by every messaging platform group.
	DomainName = "enmasse.io"

	GroupCore  = DomainName
	GroupAdmin = "admin." + DomainName
	GroupUser  = "user." + DomainName
	GroupIoT   = "iot." + DomainName
)

// Kind is the tag of a declared resource. Its value is the Kubernetes kind
// string so it can be read straight off an object with GetKind().
type Kind string

const (
	KindNamespace             Kind = "Namespace"
	KindInstance              Kind = "Instance"
	KindAddressSpace          Kind = "AddressSpace"
	KindAddress               Kind = "Address"
	KindUser                  Kind = "MessagingUser"
	KindAddressPlan           Kind = "AddressPlan"
	KindAddressSpacePlan      Kind = "AddressSpacePlan"
	KindStandardInfraConfig   Kind = "StandardInfraConfig"
	KindBrokeredInfraConfig   Kind = "BrokeredInfraConfig"
	KindAuthenticationService Kind = "AuthenticationService"
	KindIoTConfig             Kind = "IoTConfig"
	KindIoTProject            Kind = "IoTProject"
	KindMessagingInfra        Kind = "MessagingInfra"
	KindMessagingTenant       Kind = "MessagingTenant"
)

// KindInfo describes how a Kind maps onto the control plane.
type KindInfo struct {
	Kind     Kind
	GVK      schema.GroupVersionKind
	Resource string
	// Namespaced is false for cluster scoped kinds.
	Namespaced bool
	// Virtual kinds have no object of their own on the control plane; they
	// are materialized by a manager (an Instance is a labeled Namespace).
	Virtual bool
}

// GVR returns the GroupVersionResource of the kind.
func (k KindInfo) GVR() schema.GroupVersionResource {
	return k.GVK.GroupVersion().WithResource(k.Resource)
}

var kindTable = []KindInfo{
	{Kind: KindNamespace, GVK: schema.GroupVersionKind{Version: "v1", Kind: string(KindNamespace)}, Resource: "namespaces"},
	{Kind: KindInstance, GVK: schema.GroupVersionKind{Group: GroupCore, Version: "v1", Kind: string(KindInstance)}, Resource: "instances", Virtual: true},
	{Kind: KindAddressSpace, GVK: schema.GroupVersionKind{Group: GroupCore, Version: "v1beta1", Kind: string(KindAddressSpace)}, Resource: "addressspaces", Namespaced: true},
	{Kind: KindAddress, GVK: schema.GroupVersionKind{Group: GroupCore, Version: "v1beta1", Kind: string(KindAddress)}, Resource: "addresses", Namespaced: true},
	{Kind: KindUser, GVK: schema.GroupVersionKind{Group: GroupUser, Version: "v1beta1", Kind: string(KindUser)}, Resource: "messagingusers", Namespaced: true},
	{Kind: KindAddressPlan, GVK: schema.GroupVersionKind{Group: GroupAdmin, Version: "v1beta2", Kind: string(KindAddressPlan)}, Resource: "addressplans", Namespaced: true},
	{Kind: KindAddressSpacePlan, GVK: schema.GroupVersionKind{Group: GroupAdmin, Version: "v1beta2", Kind: string(KindAddressSpacePlan)}, Resource: "addressspaceplans", Namespaced: true},
	{Kind: KindStandardInfraConfig, GVK: schema.GroupVersionKind{Group: GroupAdmin, Version: "v1beta1", Kind: string(KindStandardInfraConfig)}, Resource: "standardinfraconfigs", Namespaced: true},
	{Kind: KindBrokeredInfraConfig, GVK: schema.GroupVersionKind{Group: GroupAdmin, Version: "v1beta1", Kind: string(KindBrokeredInfraConfig)}, Resource: "brokeredinfraconfigs", Namespaced: true},
	{Kind: KindAuthenticationService, GVK: schema.GroupVersionKind{Group: GroupAdmin, Version: "v1beta1", Kind: string(KindAuthenticationService)}, Resource: "authenticationservices", Namespaced: true},
	{Kind: KindIoTConfig, GVK: schema.GroupVersionKind{Group: GroupIoT, Version: "v1alpha1", Kind: string(KindIoTConfig)}, Resource: "iotconfigs", Namespaced: true},
	{Kind: KindIoTProject, GVK: schema.GroupVersionKind{Group: GroupIoT, Version: "v1alpha1", Kind: string(KindIoTProject)}, Resource: "iotprojects", Namespaced: true},
	{Kind: KindMessagingInfra, GVK: schema.GroupVersionKind{Group: GroupCore, Version: "v1beta2", Kind: string(KindMessagingInfra)}, Resource: "messaginginfras", Namespaced: true},
	{Kind: KindMessagingTenant, GVK: schema.GroupVersionKind{Group: GroupCore, Version: "v1beta2", Kind: string(KindMessagingTenant)}, Resource: "messagingtenants", Namespaced: true},
}

// Kinds returns every declarable kind in registration order.
func Kinds() []KindInfo {
	out := make([]KindInfo, len(kindTable))
	copy(out, kindTable)
	return out
}

// Lookup returns the KindInfo for k.
func Lookup(k Kind) (KindInfo, bool) {
	for _, info := range kindTable {
		if info.Kind == k {
			return info, true
		}
	}
	return KindInfo{}, false
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(k Kind) KindInfo {
	info, ok := Lookup(k)
	if !ok {
		panic(fmt.Sprintf("unknown kind %q", k))
	}
	return info
}

// Identity is the (kind, namespace, name) triple of a declared resource.
// Namespace is empty for cluster scoped kinds.
type Identity struct {
	Kind      Kind
	Namespace string
	Name      string
}

func (i Identity) String() string {
	ns := i.Namespace
	if ns == "" {
		ns = "(not set)"
	}
	return fmt.Sprintf("%s %s in namespace %s", i.Kind, i.Name, ns)
}

// Object is the subset of an object's accessors an Identity is read from.
type Object interface {
	metav1.Object
	GetKind() string
}

// IdentityOf returns the identity of obj.
func IdentityOf(obj Object) Identity {
	return Identity{
		Kind:      Kind(obj.GetKind()),
		Namespace: obj.GetNamespace(),
		Name:      obj.GetName(),
	}
}
