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
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/client"
	"github.com/bordeuax/enmasse/pkg/instance"
	"github.com/bordeuax/enmasse/pkg/testutil/fakecluster"
	"github.com/bordeuax/enmasse/pkg/testutil/generator"
	"github.com/bordeuax/enmasse/pkg/testutil/waittest"
	"github.com/bordeuax/enmasse/pkg/wait"
)

type nopRenderer struct{}

func (nopRenderer) Render(context.Context, string, map[string]string) ([]*unstructured.Unstructured, error) {
	return nil, nil
}

// short budgets keep timeouts cheap on the fake clock
var testOptions = Options{
	ReadyTimeout:             3 * time.Second,
	DeleteTimeout:            3 * time.Second,
	UserReadyTimeout:         2 * time.Second,
	AuthServiceReadyTimeout:  2 * time.Second,
	AuthServiceDeleteTimeout: 2 * time.Second,
}

func newDefault(objs ...runtime.Object) (*Registry, *client.DynamicCluster, *clocktesting.FakeClock) {
	cluster, _ := fakecluster.New(objs...)
	waiter, fc := waittest.NewWaiter()
	instances := instance.NewManager(logr.Discard(), cluster, nopRenderer{}, instance.DefaultConfig())
	return Default(cluster, waiter, instances, testOptions), cluster, fc
}

func mustResolve(t *testing.T, r *Registry, kind enmasse.Kind) ResourceType {
	t.Helper()
	rt, ok := r.Resolve(kind)
	require.True(t, ok, kind)
	return rt
}

func TestDefaultCoversEveryKind(t *testing.T) {
	r, _, _ := newDefault()
	assert.ElementsMatch(t, kindsOf(enmasse.Kinds()), r.Kinds())

	cluster, _ := fakecluster.New()
	waiter, _ := waittest.NewWaiter()
	withoutInstances := Default(cluster, waiter, nil, Options{})
	assert.Len(t, withoutInstances.Kinds(), len(enmasse.Kinds())-1)
	_, ok := withoutInstances.Resolve(enmasse.KindInstance)
	assert.False(t, ok)
}

func kindsOf(infos []enmasse.KindInfo) []enmasse.Kind {
	out := make([]enmasse.Kind, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.Kind)
	}
	return out
}

func TestDefaultOptions(t *testing.T) {
	opts := Options{DeleteTimeout: time.Second}.withDefaults()
	assert.Equal(t, time.Second, opts.DeleteTimeout)
	assert.Equal(t, 10*time.Minute, opts.ReadyTimeout)
	assert.Equal(t, 5*time.Minute, opts.AuthServiceReadyTimeout)
	assert.Equal(t, time.Minute, opts.AuthServiceDeleteTimeout)
	assert.Equal(t, time.Minute, opts.UserReadyTimeout)
}

func TestNamespaceLifecycle(t *testing.T) {
	ctx := context.Background()
	r, cluster, _ := newDefault()
	rt := mustResolve(t, r, enmasse.KindNamespace)
	ns := generator.NewNamespace("ns1", generator.WithLabels(map[string]string{"team": "a"}))

	require.NoError(t, rt.Create(ctx, ns))
	require.NoError(t, rt.WaitReady(ctx, ns))
	exists, err := cluster.NamespaceExists(ctx, "ns1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, rt.Delete(ctx, ns))
	exists, err = cluster.NamespaceExists(ctx, "ns1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAddressSpaceReady(t *testing.T) {
	ctx := context.Background()
	ready := generator.NewAddressSpace("ns1", "ready", "standard", "small", generator.WithReady(true))
	pending := generator.NewAddressSpace("ns1", "pending", "standard", "small", generator.WithReady(false))
	r, _, fc := newDefault(ready, pending)
	rt := mustResolve(t, r, enmasse.KindAddressSpace)

	require.NoError(t, rt.WaitReady(ctx, ready))

	err := waittest.Drive(fc, func() error { return rt.WaitReady(ctx, pending) })
	require.Error(t, err)
	assert.True(t, wait.IsTimeout(err))
	assert.Contains(t, err.Error(), "AddressSpace pending in namespace ns1 ready")
}

func TestAddressReady(t *testing.T) {
	ctx := context.Background()
	q := generator.NewAddress("ns1", "as1", "q1", "q1", "queue", "small", generator.WithReady(true))
	r, _, _ := newDefault(q)

	require.NoError(t, mustResolve(t, r, enmasse.KindAddress).WaitReady(ctx, q))
}

func TestPlansOnlyNeedToExist(t *testing.T) {
	ctx := context.Background()
	plan := generator.NewAddressSpacePlan("ns1", "small", "standard")
	r, _, fc := newDefault()
	rt := mustResolve(t, r, enmasse.KindAddressSpacePlan)

	err := waittest.Drive(fc, func() error { return rt.WaitReady(ctx, plan) })
	assert.True(t, wait.IsTimeout(err))

	require.NoError(t, rt.Create(ctx, plan))
	require.NoError(t, rt.WaitReady(ctx, plan))
}

func TestDeleteWaitsUntilGone(t *testing.T) {
	ctx := context.Background()
	plan := generator.NewAddressPlan("ns1", "small-queue", "queue")
	r, cluster, _ := newDefault(plan)

	require.NoError(t, mustResolve(t, r, enmasse.KindAddressPlan).Delete(ctx, plan))
	_, err := cluster.Get(ctx, plan.GroupVersionKind(), "ns1", "small-queue")
	assert.True(t, apierrors.IsNotFound(err))
}

func TestPhaseActive(t *testing.T) {
	ctx := context.Background()
	active := generator.NewIoTProject("ns1", "p1", generator.WithPhase("Active"))
	configuring := generator.NewIoTProject("ns1", "p2", generator.WithPhase("Configuring"))
	unset := generator.NewUser("ns1", "as1", "alice")
	r, _, fc := newDefault(active, configuring, unset)
	rt := mustResolve(t, r, enmasse.KindIoTProject)

	require.NoError(t, rt.WaitReady(ctx, active))
	err := waittest.Drive(fc, func() error { return rt.WaitReady(ctx, configuring) })
	assert.True(t, wait.IsTimeout(err))

	// only namespaces accept a missing phase
	err = waittest.Drive(fc, func() error { return mustResolve(t, r, enmasse.KindUser).WaitReady(ctx, unset) })
	assert.True(t, wait.IsTimeout(err))
}

func TestConditionReady(t *testing.T) {
	ctx := context.Background()
	infra := generator.NewMessagingInfra("ns1", "default", generator.WithCondition("Ready", "True"))
	tenant := generator.NewMessagingTenant("ns1", "default", generator.WithCondition("Ready", "False"))
	r, _, fc := newDefault(infra, tenant)

	require.NoError(t, mustResolve(t, r, enmasse.KindMessagingInfra).WaitReady(ctx, infra))
	err := waittest.Drive(fc, func() error { return mustResolve(t, r, enmasse.KindMessagingTenant).WaitReady(ctx, tenant) })
	assert.True(t, wait.IsTimeout(err))
}

func TestAuthenticationService(t *testing.T) {
	ctx := context.Background()
	svc := generator.NewAuthenticationService("ns1", "standard-authservice", "standard")

	t.Run("exactly one ready pod", func(t *testing.T) {
		r, _, _ := newDefault(svc,
			generator.NewPod("ns1", "standard-authservice-7d9f-abcde", true),
			generator.NewPod("ns1", "standard-authservice-7d9f-old", false),
			generator.NewPod("ns1", "broker-0", true),
		)
		require.NoError(t, mustResolve(t, r, enmasse.KindAuthenticationService).WaitReady(ctx, svc))
	})

	t.Run("two ready pods", func(t *testing.T) {
		r, _, fc := newDefault(svc,
			generator.NewPod("ns1", "standard-authservice-a", true),
			generator.NewPod("ns1", "standard-authservice-b", true),
		)
		err := waittest.Drive(fc, func() error {
			return mustResolve(t, r, enmasse.KindAuthenticationService).WaitReady(ctx, svc)
		})
		assert.True(t, wait.IsTimeout(err))
	})

	t.Run("delete waits for pods", func(t *testing.T) {
		r, _, fc := newDefault(svc, generator.NewPod("ns1", "standard-authservice-a", true))
		err := waittest.Drive(fc, func() error {
			return mustResolve(t, r, enmasse.KindAuthenticationService).Delete(ctx, svc)
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "authentication service pods of standard-authservice gone")
	})

	t.Run("delete", func(t *testing.T) {
		r, cluster, _ := newDefault(svc)
		require.NoError(t, mustResolve(t, r, enmasse.KindAuthenticationService).Delete(ctx, svc))
		_, err := cluster.Get(ctx, svc.GroupVersionKind(), "ns1", svc.GetName())
		assert.True(t, apierrors.IsNotFound(err))
	})
}

func TestInstanceKind(t *testing.T) {
	ctx := context.Background()
	r, cluster, _ := newDefault()
	rt := mustResolve(t, r, enmasse.KindInstance)
	obj := generator.NewInstance("tenant-a")

	require.NoError(t, rt.Create(ctx, obj))
	require.NoError(t, rt.WaitReady(ctx, obj))
	exists, err := cluster.NamespaceExists(ctx, instance.DefaultNamespace("tenant-a"))
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, rt.Delete(ctx, obj))
	exists, err = cluster.NamespaceExists(ctx, instance.DefaultNamespace("tenant-a"))
	require.NoError(t, err)
	assert.False(t, exists)
}
