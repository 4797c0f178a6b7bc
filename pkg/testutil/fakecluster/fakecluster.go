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

// Package fakecluster wires a client.DynamicCluster to the fake dynamic
// client so packages can be tested without a control plane.
package fakecluster

import (
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/bordeuax/enmasse/pkg/client"
)

// New returns a Cluster seeded with objs together with the fake backing it,
// so tests can install reactors and inspect recorded actions.
func New(objs ...runtime.Object) (*client.DynamicCluster, *dynamicfake.FakeDynamicClient) {
	fake := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), client.ListKinds(), objs...)
	return client.NewDynamicCluster(fake, client.StaticRESTMapper()), fake
}
