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

	"github.com/bordeuax/enmasse/api/enmasse"
)

// ObjectOption is a functional option for an unstructured object
type ObjectOption func(*unstructured.Unstructured)

// NewObject creates an object of a declarable kind with the given options
func NewObject(kind enmasse.Kind, namespace, name string, opts ...ObjectOption) *unstructured.Unstructured {
	info := enmasse.MustLookup(kind)
	obj := &unstructured.Unstructured{Object: map[string]interface{}{}}
	obj.SetGroupVersionKind(info.GVK)
	obj.SetName(name)
	if info.Namespaced {
		obj.SetNamespace(namespace)
	}

	for _, opt := range opts {
		opt(obj)
	}
	return obj
}

// WithField sets value at the given path
func WithField(value interface{}, fields ...string) ObjectOption {
	return func(obj *unstructured.Unstructured) {
		if err := unstructured.SetNestedField(obj.Object, value, fields...); err != nil {
			panic(err)
		}
	}
}

// WithLabels merges labels into the object labels
func WithLabels(labels map[string]string) ObjectOption {
	return func(obj *unstructured.Unstructured) {
		merged := obj.GetLabels()
		if merged == nil {
			merged = map[string]string{}
		}
		for k, v := range labels {
			merged[k] = v
		}
		obj.SetLabels(merged)
	}
}

// WithReady sets status.isReady
func WithReady(ready bool) ObjectOption {
	return WithField(ready, "status", "isReady")
}

// WithPhase sets status.phase
func WithPhase(phase string) ObjectOption {
	return WithField(phase, "status", "phase")
}

// WithCondition appends a status condition
func WithCondition(conditionType, status string) ObjectOption {
	return func(obj *unstructured.Unstructured) {
		conditions, _, _ := unstructured.NestedSlice(obj.Object, "status", "conditions")
		conditions = append(conditions, map[string]interface{}{
			"type":   conditionType,
			"status": status,
		})
		if err := unstructured.SetNestedSlice(obj.Object, conditions, "status", "conditions"); err != nil {
			panic(err)
		}
	}
}

// NewNamespace creates a Namespace
func NewNamespace(name string, opts ...ObjectOption) *unstructured.Unstructured {
	return NewObject(enmasse.KindNamespace, "", name, opts...)
}

// NewAddressSpacePlan creates an AddressSpacePlan of the given address space type
func NewAddressSpacePlan(namespace, name, addressSpaceType string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithField(addressSpaceType, "spec", "addressSpaceType"),
		WithField(name, "spec", "displayName"),
	}, opts...)
	return NewObject(enmasse.KindAddressSpacePlan, namespace, name, opts...)
}

// NewAddressPlan creates an AddressPlan for the given address type
func NewAddressPlan(namespace, name, addressType string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithField(addressType, "spec", "addressType"),
	}, opts...)
	return NewObject(enmasse.KindAddressPlan, namespace, name, opts...)
}

// NewAddressSpace creates an AddressSpace referencing plan
func NewAddressSpace(namespace, name, addressSpaceType, plan string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithField(addressSpaceType, "spec", "type"),
		WithField(plan, "spec", "plan"),
	}, opts...)
	return NewObject(enmasse.KindAddressSpace, namespace, name, opts...)
}

// NewAddress creates an Address named <addressSpace>.<name>
func NewAddress(namespace, addressSpace, name, address, addressType, plan string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithField(address, "spec", "address"),
		WithField(addressType, "spec", "type"),
		WithField(plan, "spec", "plan"),
	}, opts...)
	return NewObject(enmasse.KindAddress, namespace, addressSpace+"."+name, opts...)
}

// WithAppliedPlan sets status.planStatus.name
func WithAppliedPlan(plan string) ObjectOption {
	return WithField(plan, "status", "planStatus", "name")
}

// WithBrokerStates sets status.brokerStatuses to one entry per state
func WithBrokerStates(states ...string) ObjectOption {
	return func(obj *unstructured.Unstructured) {
		statuses := make([]interface{}, 0, len(states))
		for i, s := range states {
			statuses = append(statuses, map[string]interface{}{
				"clusterId":   "broker-" + string(rune('a'+i)),
				"containerId": "broker-" + string(rune('a'+i)) + "-0",
				"state":       s,
			})
		}
		WithField(statuses, "status", "brokerStatuses")(obj)
	}
}

// WithForwarders sets spec.forwarders and status.forwarders. ready holds the
// readiness of the observed forwarders and may be shorter than names.
func WithForwarders(names []string, ready []bool) ObjectOption {
	return func(obj *unstructured.Unstructured) {
		spec := make([]interface{}, 0, len(names))
		for _, n := range names {
			spec = append(spec, map[string]interface{}{
				"name":          n,
				"remoteAddress": "remote/" + n,
				"direction":     "in",
			})
		}
		status := make([]interface{}, 0, len(ready))
		for i, r := range ready {
			status = append(status, map[string]interface{}{
				"name":    names[i%len(names)],
				"isReady": r,
			})
		}
		WithField(spec, "spec", "forwarders")(obj)
		WithField(status, "status", "forwarders")(obj)
	}
}

// NewUser creates a MessagingUser named <addressSpace>.<username>
func NewUser(namespace, addressSpace, username string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithField(username, "spec", "username"),
		WithField(map[string]interface{}{"type": "password"}, "spec", "authentication"),
	}, opts...)
	return NewObject(enmasse.KindUser, namespace, addressSpace+"."+username, opts...)
}

// NewAuthenticationService creates an AuthenticationService of the given type
func NewAuthenticationService(namespace, name, serviceType string, opts ...ObjectOption) *unstructured.Unstructured {
	opts = append([]ObjectOption{
		WithField(serviceType, "spec", "type"),
	}, opts...)
	return NewObject(enmasse.KindAuthenticationService, namespace, name, opts...)
}

// NewInfraConfig creates a StandardInfraConfig or BrokeredInfraConfig
func NewInfraConfig(kind enmasse.Kind, namespace, name string, opts ...ObjectOption) *unstructured.Unstructured {
	return NewObject(kind, namespace, name, opts...)
}

// NewMessagingInfra creates a MessagingInfra
func NewMessagingInfra(namespace, name string, opts ...ObjectOption) *unstructured.Unstructured {
	return NewObject(enmasse.KindMessagingInfra, namespace, name, opts...)
}

// NewMessagingTenant creates a MessagingTenant
func NewMessagingTenant(namespace, name string, opts ...ObjectOption) *unstructured.Unstructured {
	return NewObject(enmasse.KindMessagingTenant, namespace, name, opts...)
}

// NewIoTProject creates an IoTProject
func NewIoTProject(namespace, name string, opts ...ObjectOption) *unstructured.Unstructured {
	return NewObject(enmasse.KindIoTProject, namespace, name, opts...)
}

// NewIoTConfig creates an IoTConfig
func NewIoTConfig(namespace, name string, opts ...ObjectOption) *unstructured.Unstructured {
	return NewObject(enmasse.KindIoTConfig, namespace, name, opts...)
}

// NewInstance creates an Instance declaration
func NewInstance(id string, opts ...ObjectOption) *unstructured.Unstructured {
	return NewObject(enmasse.KindInstance, "", id, opts...)
}
