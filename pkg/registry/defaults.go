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

package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/client"
	"github.com/bordeuax/enmasse/pkg/instance"
	"github.com/bordeuax/enmasse/pkg/statematcher"
	"github.com/bordeuax/enmasse/pkg/wait"
)

const (
	// PhaseActive is the status phase of a usable namespace, user or IoT resource.
	PhaseActive = "Active"
)

// Options tunes the budgets of the default resource types.
type Options struct {
	ReadyTimeout             time.Duration
	DeleteTimeout            time.Duration
	UserReadyTimeout         time.Duration
	AuthServiceReadyTimeout  time.Duration
	AuthServiceDeleteTimeout time.Duration
	// NameMatcher pairs desired and observed addresses; nil means the
	// default strategy.
	NameMatcher statematcher.NameMatcher
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		ReadyTimeout:             10 * time.Minute,
		DeleteTimeout:            5 * time.Minute,
		UserReadyTimeout:         time.Minute,
		AuthServiceReadyTimeout:  5 * time.Minute,
		AuthServiceDeleteTimeout: time.Minute,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = d.ReadyTimeout
	}
	if o.DeleteTimeout <= 0 {
		o.DeleteTimeout = d.DeleteTimeout
	}
	if o.UserReadyTimeout <= 0 {
		o.UserReadyTimeout = d.UserReadyTimeout
	}
	if o.AuthServiceReadyTimeout <= 0 {
		o.AuthServiceReadyTimeout = d.AuthServiceReadyTimeout
	}
	if o.AuthServiceDeleteTimeout <= 0 {
		o.AuthServiceDeleteTimeout = d.AuthServiceDeleteTimeout
	}
	return o
}

// builder holds what the default resource types close over.
type builder struct {
	cluster   client.Cluster
	waiter    *wait.Waiter
	instances *instance.Manager
	opts      Options
}

// Default returns a registry covering every declarable kind. instances may
// be nil, in which case the Instance kind is left unregistered.
func Default(cluster client.Cluster, waiter *wait.Waiter, instances *instance.Manager, opts Options) *Registry {
	b := &builder{
		cluster:   cluster,
		waiter:    waiter,
		instances: instances,
		opts:      opts.withDefaults(),
	}

	r := New(
		ResourceType{
			Kind:      enmasse.KindNamespace,
			Create:    b.createNamespace,
			Delete:    b.deleteAndWait,
			WaitReady: b.waitPhase(PhaseActive, b.opts.ReadyTimeout, true),
		},
		b.simple(enmasse.KindStandardInfraConfig, b.waitExists),
		b.simple(enmasse.KindBrokeredInfraConfig, b.waitExists),
		b.simple(enmasse.KindAddressPlan, b.waitExists),
		b.simple(enmasse.KindAddressSpacePlan, b.waitExists),
		ResourceType{
			Kind:      enmasse.KindAuthenticationService,
			Create:    b.createOrReplace,
			Delete:    b.deleteAuthService,
			WaitReady: b.waitAuthService,
		},
		b.simple(enmasse.KindAddressSpace, b.waitAddressSpace),
		b.simple(enmasse.KindAddress, b.waitAddress),
		b.simple(enmasse.KindUser, b.waitPhase(PhaseActive, b.opts.UserReadyTimeout, false)),
		b.simple(enmasse.KindIoTConfig, b.waitPhase(PhaseActive, b.opts.ReadyTimeout, false)),
		b.simple(enmasse.KindIoTProject, b.waitPhase(PhaseActive, b.opts.ReadyTimeout, false)),
		b.simple(enmasse.KindMessagingInfra, b.waitConditionReady),
		b.simple(enmasse.KindMessagingTenant, b.waitConditionReady),
	)
	if instances != nil {
		r.Register(ResourceType{
			Kind:      enmasse.KindInstance,
			Create:    b.createInstance,
			Delete:    b.deleteInstance,
			WaitReady: b.waitInstance,
		})
	}
	return r
}

func (b *builder) simple(kind enmasse.Kind, waitReady Func) ResourceType {
	return ResourceType{
		Kind:      kind,
		Create:    b.createOrReplace,
		Delete:    b.deleteAndWait,
		WaitReady: waitReady,
	}
}

func describe(obj *unstructured.Unstructured) string {
	return enmasse.IdentityOf(obj).String()
}

func (b *builder) createOrReplace(ctx context.Context, obj *unstructured.Unstructured) error {
	_, err := b.cluster.CreateOrReplace(ctx, obj)
	return err
}

func (b *builder) createNamespace(ctx context.Context, obj *unstructured.Unstructured) error {
	_, err := b.cluster.CreateNamespace(ctx, obj.GetName(), obj.GetLabels())
	return err
}

// deleteAndWait issues a cascading delete and waits for the object to be gone.
func (b *builder) deleteAndWait(ctx context.Context, obj *unstructured.Unstructured) error {
	if err := b.cluster.Delete(ctx, obj, true); err != nil {
		return err
	}
	return b.waiter.Until(ctx, "deletion of "+describe(obj), wait.Simple(func(ctx context.Context) (bool, error) {
		return b.gone(ctx, obj)
	}), b.waiter.Budget(b.opts.DeleteTimeout))
}

func (b *builder) gone(ctx context.Context, obj *unstructured.Unstructured) (bool, error) {
	_, err := b.cluster.Get(ctx, obj.GroupVersionKind(), obj.GetNamespace(), obj.GetName())
	if apierrors.IsNotFound(err) {
		return true, nil
	}
	return false, err
}

// get fetches the live version of obj. A missing object is not ready yet.
func (b *builder) get(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, bool, error) {
	live, err := b.cluster.Get(ctx, obj.GroupVersionKind(), obj.GetNamespace(), obj.GetName())
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return live, true, nil
}

func (b *builder) waitLive(ctx context.Context, obj *unstructured.Unstructured, timeout time.Duration, ready func(*unstructured.Unstructured) bool) error {
	return b.waiter.Until(ctx, describe(obj)+" ready", wait.Simple(func(ctx context.Context) (bool, error) {
		live, found, err := b.get(ctx, obj)
		if err != nil || !found {
			return false, err
		}
		return ready(live), nil
	}), b.waiter.Budget(timeout))
}

func (b *builder) waitExists(ctx context.Context, obj *unstructured.Unstructured) error {
	return b.waitLive(ctx, obj, b.opts.ReadyTimeout, func(*unstructured.Unstructured) bool {
		return true
	})
}

func (b *builder) waitAddressSpace(ctx context.Context, obj *unstructured.Unstructured) error {
	return b.waitLive(ctx, obj, b.opts.ReadyTimeout, statematcher.Ready.Test)
}

func (b *builder) waitAddress(ctx context.Context, obj *unstructured.Unstructured) error {
	desired := []*unstructured.Unstructured{obj}
	var opts []statematcher.Option
	if b.opts.NameMatcher != nil {
		opts = append(opts, statematcher.WithNameMatcher(b.opts.NameMatcher))
	}
	return statematcher.WaitForMatch(ctx, b.waiter, statematcher.AddressLister(b.cluster, desired...), desired,
		statematcher.Ready, b.waiter.Budget(b.opts.ReadyTimeout), opts...)
}

// waitPhase waits for status.phase to equal phase. With allowUnset a live
// object without a phase counts as ready.
func (b *builder) waitPhase(phase string, timeout time.Duration, allowUnset bool) Func {
	return func(ctx context.Context, obj *unstructured.Unstructured) error {
		return b.waitLive(ctx, obj, timeout, func(live *unstructured.Unstructured) bool {
			current, found, _ := unstructured.NestedString(live.Object, "status", "phase")
			return current == phase || (allowUnset && !found)
		})
	}
}

func (b *builder) waitConditionReady(ctx context.Context, obj *unstructured.Unstructured) error {
	return b.waitLive(ctx, obj, b.opts.ReadyTimeout, func(live *unstructured.Unstructured) bool {
		return hasCondition(live, "Ready", "True")
	})
}

func hasCondition(obj *unstructured.Unstructured, conditionType, status string) bool {
	conditions, _, _ := unstructured.NestedSlice(obj.Object, "status", "conditions")
	for _, c := range conditions {
		m, ok := c.(map[string]interface{})
		if ok && m["type"] == conditionType && m["status"] == status {
			return true
		}
	}
	return false
}

// readyPodsMatching returns the names of the ready pods of namespace whose
// name contains fragment.
func (b *builder) readyPodsMatching(ctx context.Context, namespace, fragment string) ([]string, []string, error) {
	items, err := b.cluster.List(ctx, enmasse.PodGVK, namespace, nil)
	if err != nil {
		return nil, nil, err
	}

	var matching, ready []string
	for _, item := range items {
		pod := &corev1.Pod{}
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(item.Object, pod); err != nil {
			return nil, nil, fmt.Errorf("failed to convert pod %s: %w", item.GetName(), err)
		}
		if !isPodReady(pod) {
			continue
		}
		ready = append(ready, pod.Name)
		if strings.Contains(pod.Name, fragment) {
			matching = append(matching, pod.Name)
		}
	}
	return matching, ready, nil
}

func isPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, c := range pod.Status.Conditions {
		if c.Type == corev1.PodReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

// waitAuthService waits for exactly one ready pod named after the service.
func (b *builder) waitAuthService(ctx context.Context, obj *unstructured.Unstructured) error {
	log := ctrllog.FromContext(ctx).WithValues("name", obj.GetName(), "namespace", obj.GetNamespace())
	return b.waiter.Until(ctx, "authentication service pod "+obj.GetName(), func(ctx context.Context, phase wait.Phase) (bool, error) {
		matching, ready, err := b.readyPodsMatching(ctx, obj.GetNamespace(), obj.GetName())
		if err != nil {
			return false, err
		}
		if len(matching) != 1 {
			l := log.V(1)
			if phase == wait.LastTry {
				l = log
			}
			l.Info("Still awaiting authentication service pod", "matching", len(matching), "readyPods", ready)
		}
		return len(matching) == 1, nil
	}, b.waiter.Budget(b.opts.AuthServiceReadyTimeout))
}

// deleteAuthService deletes the service, then waits for the object and
// for its pods to be gone.
func (b *builder) deleteAuthService(ctx context.Context, obj *unstructured.Unstructured) error {
	if err := b.deleteAndWait(ctx, obj); err != nil {
		return err
	}
	return b.waiter.Until(ctx, "authentication service pods of "+obj.GetName()+" gone", wait.Simple(func(ctx context.Context) (bool, error) {
		matching, _, err := b.readyPodsMatching(ctx, obj.GetNamespace(), obj.GetName())
		if err != nil {
			return false, err
		}
		return len(matching) == 0, nil
	}), b.waiter.Budget(b.opts.AuthServiceDeleteTimeout))
}

func (b *builder) createInstance(ctx context.Context, obj *unstructured.Unstructured) error {
	return b.instances.Create(ctx, instance.FromObject(obj))
}

func (b *builder) deleteInstance(ctx context.Context, obj *unstructured.Unstructured) error {
	inst := instance.FromObject(obj)
	if err := b.instances.Delete(ctx, inst); err != nil {
		return err
	}
	if !b.instances.Multitenant() {
		return nil
	}
	return b.waiter.Until(ctx, "deletion of instance "+inst.ID.ID, wait.Simple(func(ctx context.Context) (bool, error) {
		_, err := b.instances.Get(ctx, inst.ID.ID)
		if instance.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}), b.waiter.Budget(b.opts.DeleteTimeout))
}

func (b *builder) waitInstance(ctx context.Context, obj *unstructured.Unstructured) error {
	id := obj.GetName()
	return b.waiter.Until(ctx, "instance "+id+" ready", wait.Simple(func(ctx context.Context) (bool, error) {
		_, err := b.instances.Get(ctx, id)
		if instance.IsNotFound(err) {
			return false, nil
		}
		return err == nil, err
	}), b.waiter.Budget(b.opts.ReadyTimeout))
}
