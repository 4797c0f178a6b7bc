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
	"errors"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/release-utils/version"
)

const (
	// AppLabel and TypeLabel mark a namespace as a messaging instance.
	AppLabel  = "app"
	TypeLabel = "type"

	// InstanceLabel carries the logical instance id.
	InstanceLabel = "instance"
	// UUIDLabel carries the optional instance uuid and is copied onto every
	// object rendered for the instance.
	UUIDLabel = "uuid"

	// ClusterIDLabel marks workloads provisioned for an address space. An
	// instance namespace holding any of them is in use.
	ClusterIDLabel = "cluster_id"

	ManagedByLabel = "app.kubernetes.io/managed-by"
	VersionLabel   = "enmasse.io/provisioner-version"
)

const (
	DefaultAppValue = "enmasse"
	InstanceType    = "instance"
	ManagedByValue  = "enmasse-provision"
)

var (
	ErrDuplicatedLabels = errors.New("duplicate labels")
)

var _ Labeler = GenericLabeler{}

// Labeler is an interface that defines a set of labels that can be
// applied to a resource.
type Labeler interface {
	Labels() map[string]string
	ApplyLabels(metav1.Object)
	Merge(Labeler) (Labeler, error)
}

// GenericLabeler is a map of labels that can be applied to a resource.
// It implements the Labeler interface.
type GenericLabeler map[string]string

// Labels returns the labels.
func (gl GenericLabeler) Labels() map[string]string {
	return gl
}

// ApplyLabels applies the labels to the resource.
func (gl GenericLabeler) ApplyLabels(meta metav1.Object) {
	for k, v := range gl {
		setLabel(meta, k, v)
	}
}

// Merge merges the labels from the other labeler into the current
// labeler. If there are any duplicate keys, an error is returned.
func (gl GenericLabeler) Merge(other Labeler) (Labeler, error) {
	newLabels := gl.Copy()
	for k, v := range other.Labels() {
		if _, ok := newLabels[k]; ok {
			return nil, fmt.Errorf("%w: found key '%s' in both maps", ErrDuplicatedLabels, k)
		}
		newLabels[k] = v
	}
	return GenericLabeler(newLabels), nil
}

// Copy returns a copy of the labels.
func (gl GenericLabeler) Copy() map[string]string {
	newGenericLabeler := map[string]string{}
	for k, v := range gl {
		newGenericLabeler[k] = v
	}
	return newGenericLabeler
}

// NewInstanceTypeLabeler returns the labels every instance namespace carries.
func NewInstanceTypeLabeler(app string) GenericLabeler {
	if app == "" {
		app = DefaultAppValue
	}
	return map[string]string{
		AppLabel:  app,
		TypeLabel: InstanceType,
	}
}

// NewInstanceLabeler returns the labels of the namespace backing instance id.
func NewInstanceLabeler(app, id string) GenericLabeler {
	gl := NewInstanceTypeLabeler(app)
	gl[InstanceLabel] = id
	return gl
}

// NewUUIDLabeler returns a labeler tagging objects with an instance uuid.
func NewUUIDLabeler(uuid string) GenericLabeler {
	return map[string]string{
		UUIDLabel: uuid,
	}
}

// NewManagedLabeler returns a labeler that marks resources as created by the
// provisioner.
func NewManagedLabeler() GenericLabeler {
	return map[string]string{
		ManagedByLabel: ManagedByValue,
		VersionLabel:   safeVersion(version.GetVersionInfo().GitVersion),
	}
}

// IsManaged returns true if the resource was created by the provisioner.
func IsManaged(meta metav1.Object) bool {
	return meta.GetLabels()[ManagedByLabel] == ManagedByValue
}

func safeVersion(version string) string {
	if validation.IsValidLabelValue(version) == nil {
		return version
	}
	// The script we use might add '+dirty' to development branches,
	// so let's try replacing '+' with '-'.
	return strings.ReplaceAll(version, "+", "-")
}

// Helper function to set a label
func setLabel(meta metav1.Object, key, value string) {
	labels := meta.GetLabels()
	if labels == nil {
		labels = make(map[string]string)
	}
	labels[key] = value
	meta.SetLabels(labels)
}
