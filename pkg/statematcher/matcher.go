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
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/pkg/features"
)

// NameMatcher decides whether an observed name belongs to a desired one.
type NameMatcher func(observed, desired string) bool

var (
	// Containment pairs an observed entity whose name contains the desired
	// name. Overlapping names ("queue" and "queue-sharded") both match the
	// shorter desired name; the first observed entity wins.
	Containment NameMatcher = strings.Contains

	// Exact pairs entities with equal names.
	Exact NameMatcher = func(observed, desired string) bool {
		return observed == desired
	}
)

// DefaultNameMatcher returns Exact when the ExactNameMatching gate is on and
// Containment otherwise.
func DefaultNameMatcher() NameMatcher {
	if features.FeatureGate.Enabled(features.ExactNameMatching) {
		return Exact
	}
	return Containment
}

// Unmatched maps the key of every desired entity that is missing or fails
// the predicate to its observed counterpart, nil when missing.
type Unmatched map[string]*unstructured.Unstructured

// Keys returns the keys of the unmatched entities.
func (u Unmatched) Keys() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	return keys
}

// Key is the identity an entity is reported under: spec.address when set,
// the object name otherwise.
func Key(obj *unstructured.Unstructured) string {
	if address, found, _ := unstructured.NestedString(obj.Object, "spec", "address"); found && address != "" {
		return address
	}
	return obj.GetName()
}

// Match returns the desired entities that have no observed counterpart or
// whose counterpart fails pred. A nil matcher means DefaultNameMatcher.
func Match(desired, observed []*unstructured.Unstructured, pred Predicate, matcher NameMatcher) Unmatched {
	if matcher == nil {
		matcher = DefaultNameMatcher()
	}

	unmatched := Unmatched{}
	for _, d := range desired {
		var found *unstructured.Unstructured
		for _, o := range observed {
			if matcher(o.GetName(), d.GetName()) {
				found = o
				break
			}
		}
		if found == nil {
			unmatched[Key(d)] = nil
		} else if !pred.Test(found) {
			unmatched[Key(d)] = found
		}
	}
	return unmatched
}
