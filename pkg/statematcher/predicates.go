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

package statematcher

import (
	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// BrokerStateDraining is the broker state of a queue being moved away from a
// broker.
const BrokerStateDraining = "Draining"

// Predicate is a named readiness test over an observed entity.
type Predicate struct {
	Name string
	Test func(obj *unstructured.Unstructured) bool
}

var (
	// Ready holds when status.isReady is set.
	Ready = Predicate{Name: "ready", Test: isReady}
	// PlanApplied holds when the applied plan equals the requested one.
	PlanApplied = Predicate{Name: "plan-applied", Test: isPlanApplied}
	// BrokersDrained holds when no broker reports the Draining state.
	BrokersDrained = Predicate{Name: "brokers-drained", Test: areBrokersDrained}
	// ForwardersReady holds when every requested forwarder is reported ready.
	ForwardersReady = Predicate{Name: "forwarders-ready", Test: areForwardersReady}
)

// Predicates returns the named predicates by name.
func Predicates() map[string]Predicate {
	return lo.KeyBy([]Predicate{Ready, PlanApplied, BrokersDrained, ForwardersReady}, func(p Predicate) string {
		return p.Name
	})
}

func isReady(obj *unstructured.Unstructured) bool {
	ready, _, _ := unstructured.NestedBool(obj.Object, "status", "isReady")
	return ready
}

func isPlanApplied(obj *unstructured.Unstructured) bool {
	plan, _, _ := unstructured.NestedString(obj.Object, "spec", "plan")
	applied, found, _ := unstructured.NestedString(obj.Object, "status", "planStatus", "name")
	return found && plan == applied
}

func areBrokersDrained(obj *unstructured.Unstructured) bool {
	statuses, _, _ := unstructured.NestedSlice(obj.Object, "status", "brokerStatuses")
	return !lo.ContainsBy(statuses, func(s interface{}) bool {
		m, ok := s.(map[string]interface{})
		return ok && m["state"] == BrokerStateDraining
	})
}

func areForwardersReady(obj *unstructured.Unstructured) bool {
	desired, _, _ := unstructured.NestedSlice(obj.Object, "spec", "forwarders")
	observed, _, _ := unstructured.NestedSlice(obj.Object, "status", "forwarders")
	if len(desired) != len(observed) {
		return false
	}
	return lo.EveryBy(observed, func(f interface{}) bool {
		m, ok := f.(map[string]interface{})
		if !ok {
			return false
		}
		ready, _ := m["isReady"].(bool)
		return ready
	})
}
