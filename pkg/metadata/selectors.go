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

package metadata

import (
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

// Instances live in labeled namespaces, so every lookup of an instance is a
// label query against namespaces.

// NewInstancesSelector matches every instance namespace.
func NewInstancesSelector(app string) labels.Selector {
	return labels.SelectorFromSet(labels.Set(NewInstanceTypeLabeler(app)))
}

// NewInstanceSelector matches the namespace of instance id.
func NewInstanceSelector(app, id string) labels.Selector {
	return labels.SelectorFromSet(labels.Set(NewInstanceLabeler(app, id)))
}

// NewInstanceUUIDSelector matches the namespace of the instance with uuid.
func NewInstanceUUIDSelector(app, uuid string) labels.Selector {
	set := labels.Set(NewInstanceTypeLabeler(app))
	set[UUIDLabel] = uuid
	return labels.SelectorFromSet(set)
}

// NewWorkloadSelector matches address space workloads.
func NewWorkloadSelector() labels.Selector {
	req, err := labels.NewRequirement(ClusterIDLabel, selection.Exists, nil)
	if err != nil {
		// the key is a constant and always valid
		panic(err)
	}
	return labels.NewSelector().Add(*req)
}
