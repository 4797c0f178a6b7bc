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

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	v1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/typed/apiextensions/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	logr "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bordeuax/enmasse/pkg/metadata"
)

const (
	// defaultPollInterval is the default interval for polling CRD status
	defaultPollInterval = 150 * time.Millisecond
	// defaultTimeout is the default timeout for waiting for CRD status
	defaultTimeout = 2 * time.Minute
)

type CRDInterface interface {
	// Ensure ensures a CRD exists, up-to-date, and is established. A CRD
	// that exists but is not managed by us is left alone and reported.
	Ensure(ctx context.Context, crd v1.CustomResourceDefinition) error

	// Get retrieves a CRD by name
	Get(ctx context.Context, name string) (*v1.CustomResourceDefinition, error)

	// Delete removes a CRD if it exists
	Delete(ctx context.Context, name string) error
}

type CRDWrapper struct {
	client       apiextensionsv1.CustomResourceDefinitionInterface
	pollInterval time.Duration
	timeout      time.Duration
}

var _ CRDInterface = (*CRDWrapper)(nil)

type CRDWrapperConfig struct {
	Client       apiextensionsv1.ApiextensionsV1Interface
	PollInterval time.Duration
	Timeout      time.Duration
}

func DefaultCRDWrapperConfig() CRDWrapperConfig {
	return CRDWrapperConfig{
		PollInterval: defaultPollInterval,
		Timeout:      defaultTimeout,
	}
}

// NewCRDWrapper returns a CRDInterface on cfg.Client.
func NewCRDWrapper(cfg CRDWrapperConfig) *CRDWrapper {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &CRDWrapper{
		client:       cfg.Client.CustomResourceDefinitions(),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
	}
}

func (w *CRDWrapper) Ensure(ctx context.Context, desired v1.CustomResourceDefinition) error {
	log := logr.FromContext(ctx)
	existing, err := w.Get(ctx, desired.Name)
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to check for existing CRD: %w", err)
		}

		log.Info("Creating CRD", "name", desired.Name)
		if err := w.create(ctx, desired); err != nil {
			return fmt.Errorf("failed to create CRD: %w", err)
		}
	} else {
		if !metadata.IsManaged(existing) {
			return fmt.Errorf("failed to update CRD %s: CRD already exists and is not managed by enmasse", desired.Name)
		}

		// Preserve old CRD versions not present in the desired spec
		w.mergeVersions(&desired, existing)

		if equality.Semantic.DeepEqual(existing.Spec, desired.Spec) {
			log.V(1).Info("CRD is up-to-date", "name", desired.Name)
			return nil
		}

		log.Info("Updating existing CRD", "name", desired.Name)
		if err := w.patch(ctx, desired); err != nil {
			return fmt.Errorf("failed to patch CRD: %w", err)
		}
	}

	return w.waitForReady(ctx, desired.Name)
}

func (w *CRDWrapper) Get(ctx context.Context, name string) (*v1.CustomResourceDefinition, error) {
	return w.client.Get(ctx, name, metav1.GetOptions{})
}

func (w *CRDWrapper) create(ctx context.Context, crd v1.CustomResourceDefinition) error {
	_, err := w.client.Create(ctx, &crd, metav1.CreateOptions{})
	return err
}

func (w *CRDWrapper) patch(ctx context.Context, newCRD v1.CustomResourceDefinition) error {
	patchBytes, err := json.Marshal(newCRD)
	if err != nil {
		return fmt.Errorf("failed to marshal CRD for patch: %w", err)
	}

	_, err = w.client.Patch(
		ctx,
		newCRD.Name,
		types.MergePatchType,
		patchBytes,
		metav1.PatchOptions{},
	)
	return err
}

func (w *CRDWrapper) Delete(ctx context.Context, name string) error {
	log := logr.FromContext(ctx)
	log.Info("Deleting CRD", "name", name)

	err := w.client.Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete CRD: %w", err)
	}
	return nil
}

func (w *CRDWrapper) waitForReady(ctx context.Context, name string) error {
	log := logr.FromContext(ctx)
	log.Info("Waiting for CRD to become established", "name", name)

	return wait.PollUntilContextTimeout(ctx, w.pollInterval, w.timeout, true,
		func(ctx context.Context) (bool, error) {
			crd, err := w.Get(ctx, name)
			if err != nil {
				if apierrors.IsNotFound(err) {
					return false, nil
				}
				return false, err
			}
			return IsEstablished(crd), nil
		})
}

// IsEstablished reports whether crd is being served.
func IsEstablished(crd *v1.CustomResourceDefinition) bool {
	for _, cond := range crd.Status.Conditions {
		if cond.Type == v1.Established && cond.Status == v1.ConditionTrue {
			return true
		}
	}
	return false
}

func (w *CRDWrapper) mergeVersions(newCRD, oldCRD *v1.CustomResourceDefinition) {
	newVersions := make(map[string]bool)
	for _, v := range newCRD.Spec.Versions {
		newVersions[v.Name] = true
	}

	for _, oldVer := range oldCRD.Spec.Versions {
		if !newVersions[oldVer.Name] {
			preservedVer := oldVer
			preservedVer.Storage = false
			newCRD.Spec.Versions = append(newCRD.Spec.Versions, preservedVer)
		}
	}
}
