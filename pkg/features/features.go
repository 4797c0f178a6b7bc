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

package features

import (
	"k8s.io/component-base/featuregate"
)

const (
	// ExactNameMatching makes the state matcher pair a desired entity with an
	// observed one only when their names are equal. When disabled an observed
	// entity matches if its name contains the desired name.
	ExactNameMatching featuregate.Feature = "ExactNameMatching"

	// NamespaceAutoCreate lets the lifecycle manager declare a missing
	// namespace before a resource that lives in it.
	NamespaceAutoCreate featuregate.Feature = "NamespaceAutoCreate"
)

// defaultFeatureGates consists of all known feature keys.
// To add a new feature, define a Feature constant above and add it here with
// its default state and maturity stage (Alpha, Beta, or GA).
var defaultFeatureGates = map[featuregate.Feature]featuregate.FeatureSpec{
	ExactNameMatching:   {Default: false, PreRelease: featuregate.Alpha},
	NamespaceAutoCreate: {Default: true, PreRelease: featuregate.Beta},
}

// FeatureGate is the shared global MutableFeatureGate.
// It is populated at init time and can be configured via the --feature-gates
// command-line flag of enmasse-provision.
var FeatureGate featuregate.MutableFeatureGate = featuregate.NewFeatureGate()

func init() {
	if err := FeatureGate.Add(defaultFeatureGates); err != nil {
		panic(err)
	}
}
