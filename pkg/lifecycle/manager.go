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

// Package lifecycle declares resources on the control plane and schedules
// their deletion on the active cleanup scope.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/utils/clock"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/client"
	"github.com/bordeuax/enmasse/pkg/features"
	"github.com/bordeuax/enmasse/pkg/registry"
	"github.com/bordeuax/enmasse/pkg/scope"
)

// Config contains configuration for a Manager.
type Config struct {
	// Metrics defaults to DefaultMetrics.
	Metrics *Metrics
	// Clock times ready waits for the metrics. Defaults to the real clock.
	Clock clock.PassiveClock
	// Stacks defaults to fresh stacks owned by the manager.
	Stacks *scope.Stacks
}

// Manager declares resources for one workflow. Every successful create
// pushes the matching delete onto the active scope, so draining a scope
// tears resources down in reverse declaration order.
type Manager struct {
	cluster  client.Cluster
	registry *registry.Registry
	stacks   *scope.Stacks
	metrics  *Metrics
	clock    clock.PassiveClock
	log      logr.Logger

	mu            sync.RWMutex
	defaultInfra  *unstructured.Unstructured
	defaultTenant *unstructured.Unstructured
}

// NewManager creates a Manager. Zero fields of cfg take their defaults.
func NewManager(log logr.Logger, cluster client.Cluster, reg *registry.Registry, cfg Config) *Manager {
	if cfg.Metrics == nil {
		cfg.Metrics = DefaultMetrics
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Stacks == nil {
		cfg.Stacks = scope.NewStacks()
	}
	return &Manager{
		cluster:  cluster,
		registry: reg,
		stacks:   cfg.Stacks,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
		log:      log.WithName("lifecycle"),
	}
}

// Stacks returns the cleanup scopes of the manager.
func (m *Manager) Stacks() *scope.Stacks {
	return m.stacks
}

type declared struct {
	obj *unstructured.Unstructured
	rt  registry.ResourceType
}

// Declare creates objs in order and registers their deletion on the active
// scope. Objects of an unregistered kind are skipped with a warning. A
// namespaced object whose namespace is missing gets that namespace declared
// first, so the namespace is deleted after it.
//
// With waitReady, every created object is awaited once all creates have been
// issued.
func (m *Manager) Declare(ctx context.Context, waitReady bool, objs ...*unstructured.Unstructured) error {
	created := make([]declared, 0, len(objs))
	for _, obj := range objs {
		id := enmasse.IdentityOf(obj)
		log := m.log.WithValues("kind", id.Kind, "name", id.Name, "namespace", id.Namespace)

		rt, err := m.registry.ResolveObject(obj)
		if err != nil {
			log.Info("Skipping resource without a registered type, create it manually")
			continue
		}

		if err := m.ensureNamespace(ctx, waitReady, obj); err != nil {
			return err
		}

		log.Info("Create/Update of resource")
		if err := rt.Create(ctx, obj); err != nil {
			return fmt.Errorf("failed to create %s: %w", id, err)
		}
		m.metrics.observeDeclared(string(id.Kind))

		level := m.stacks.Push(scope.Action{
			Description: "delete " + id.String(),
			Run: func(ctx context.Context) error {
				return m.delete(ctx, rt, obj)
			},
		})
		log.V(1).Info("Scheduled deletion", "scope", level)
		created = append(created, declared{obj: obj, rt: rt})
	}

	if !waitReady {
		return nil
	}
	for _, d := range created {
		if err := m.waitReady(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) waitReady(ctx context.Context, d declared) error {
	id := enmasse.IdentityOf(d.obj)
	start := m.clock.Now()
	err := d.rt.WaitReady(ctx, d.obj)
	m.metrics.observeReadyWait(string(id.Kind), m.clock.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("%s not ready: %w", id, err)
	}
	return nil
}

// ensureNamespace declares the namespace of obj when it does not exist yet.
func (m *Manager) ensureNamespace(ctx context.Context, waitReady bool, obj *unstructured.Unstructured) error {
	if !features.FeatureGate.Enabled(features.NamespaceAutoCreate) {
		return nil
	}
	namespace := obj.GetNamespace()
	if namespace == "" {
		return nil
	}
	if info, ok := enmasse.Lookup(enmasse.Kind(obj.GetKind())); ok && !info.Namespaced {
		return nil
	}

	exists, err := m.cluster.NamespaceExists(ctx, namespace)
	if err != nil {
		return fmt.Errorf("failed to check namespace %s: %w", namespace, err)
	}
	if exists {
		return nil
	}
	m.log.V(1).Info("Declaring missing namespace", "namespace", namespace, "for", enmasse.IdentityOf(obj).String())
	return m.Declare(ctx, waitReady, newNamespace(namespace))
}

func newNamespace(name string) *unstructured.Unstructured {
	ns := &unstructured.Unstructured{Object: map[string]interface{}{}}
	ns.SetGroupVersionKind(enmasse.MustLookup(enmasse.KindNamespace).GVK)
	ns.SetName(name)
	return ns
}

// Remove deletes objs right away, bypassing the scopes. Objects of an
// unregistered kind are skipped with a warning.
func (m *Manager) Remove(ctx context.Context, objs ...*unstructured.Unstructured) error {
	for _, obj := range objs {
		id := enmasse.IdentityOf(obj)
		rt, err := m.registry.ResolveObject(obj)
		if err != nil {
			m.log.Info("Skipping resource without a registered type, delete it manually",
				"kind", id.Kind, "name", id.Name, "namespace", id.Namespace)
			continue
		}
		if err := m.delete(ctx, rt, obj); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) delete(ctx context.Context, rt registry.ResourceType, obj *unstructured.Unstructured) error {
	id := enmasse.IdentityOf(obj)
	m.log.Info("Delete of resource", "kind", id.Kind, "name", id.Name, "namespace", id.Namespace)
	err := rt.Delete(ctx, obj)
	m.metrics.observeDeleted(string(id.Kind), err)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// SetClassScope makes subsequent declarations class scoped.
func (m *Manager) SetClassScope() {
	m.log.Info("Setting pointer to class resources")
	m.stacks.Redirect(scope.Class)
}

// SetMethodScope makes subsequent declarations method scoped.
func (m *Manager) SetMethodScope() {
	m.log.Info("Setting pointer to method resources")
	m.stacks.Redirect(scope.Method)
}

// SetSharedScope makes subsequent declarations shared.
func (m *Manager) SetSharedScope() {
	m.log.Info("Setting pointer to shared resources")
	m.stacks.Redirect(scope.Shared)
}

// DeleteMethodResources tears down the method scope, forgets the default
// infra and tenant, and points subsequent declarations back at the class
// scope.
func (m *Manager) DeleteMethodResources(ctx context.Context) error {
	m.log.Info("Going to clear all method resources")
	err := m.stacks.DrainMethod(ctx, m.log)
	m.metrics.observeTeardown(scope.Method.String(), err)
	m.clearDefaults()
	return err
}

// DeleteClassResources tears down the class scope.
func (m *Manager) DeleteClassResources(ctx context.Context) error {
	m.log.Info("Going to clear all class resources")
	err := m.stacks.DrainClass(ctx, m.log)
	m.metrics.observeTeardown(scope.Class.String(), err)
	return err
}

// DeleteSharedResources tears down the shared scope.
func (m *Manager) DeleteSharedResources(ctx context.Context) error {
	m.log.Info("Going to clear all shared resources")
	err := m.stacks.DrainShared(ctx, m.log)
	m.metrics.observeTeardown(scope.Shared.String(), err)
	return err
}

func (m *Manager) clearDefaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultInfra = nil
	m.defaultTenant = nil
}

// SetDefaultInfra records the MessagingInfra tests in the current method use
// unless told otherwise.
func (m *Manager) SetDefaultInfra(infra *unstructured.Unstructured) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultInfra = infra
}

// DefaultInfra returns the default MessagingInfra, or nil.
func (m *Manager) DefaultInfra() *unstructured.Unstructured {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultInfra
}

// SetDefaultTenant records the default MessagingTenant.
func (m *Manager) SetDefaultTenant(tenant *unstructured.Unstructured) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultTenant = tenant
}

// DefaultTenant returns the default MessagingTenant, or nil.
func (m *Manager) DefaultTenant() *unstructured.Unstructured {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultTenant
}
