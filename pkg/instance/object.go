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

package instance

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/api/enmasse"
)

// FromObject reads an Instance declaration. The object name is the instance
// id; everything else is optional and read from spec.
func FromObject(obj *unstructured.Unstructured) *Instance {
	str := func(field string) string {
		v, _, _ := unstructured.NestedString(obj.Object, "spec", field)
		return v
	}
	return &Instance{
		ID:            ID{ID: obj.GetName(), Namespace: str("namespace")},
		UUID:          str("uuid"),
		MessagingHost: str("messagingHost"),
		MQTTHost:      str("mqttHost"),
		ConsoleHost:   str("consoleHost"),
	}
}

// ToObject is the inverse of FromObject.
func ToObject(inst *Instance) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{}}
	obj.SetGroupVersionKind(enmasse.MustLookup(enmasse.KindInstance).GVK)
	obj.SetName(inst.ID.ID)

	spec := map[string]interface{}{}
	for field, value := range map[string]string{
		"namespace":     inst.ID.Namespace,
		"uuid":          inst.UUID,
		"messagingHost": inst.MessagingHost,
		"mqttHost":      inst.MQTTHost,
		"consoleHost":   inst.ConsoleHost,
	} {
		if value != "" {
			spec[field] = value
		}
	}
	obj.Object["spec"] = spec
	return obj
}
