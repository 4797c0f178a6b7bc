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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/pkg/testutil/fakecluster"
	"github.com/bordeuax/enmasse/pkg/testutil/generator"
	"github.com/bordeuax/enmasse/pkg/testutil/waittest"
	"github.com/bordeuax/enmasse/pkg/wait"
)

func TestWaitForMatchImmediate(t *testing.T) {
	waiter, fc := waittest.NewWaiter()
	start := fc.Now()
	calls := 0
	desired := []*unstructured.Unstructured{queue("q1")}
	lister := ListerFunc(func(context.Context) ([]*unstructured.Unstructured, error) {
		calls++
		return []*unstructured.Unstructured{queue("q1", generator.WithReady(true))}, nil
	})

	err := WaitForMatch(context.Background(), waiter, lister, desired, Ready, waiter.Budget(time.Minute), WithLogger(logr.Discard()))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, start, fc.Now())
}

func TestWaitForMatchTimeoutCarriesUnmatched(t *testing.T) {
	waiter, fc := waittest.NewWaiter()
	desired := []*unstructured.Unstructured{queue("q1"), queue("q2")}
	lister := ListerFunc(func(context.Context) ([]*unstructured.Unstructured, error) {
		return []*unstructured.Unstructured{queue("q1", generator.WithReady(true))}, nil
	})

	err := waittest.Drive(fc, func() error {
		return WaitForMatch(context.Background(), waiter, lister, desired, Ready, waiter.Budget(3*time.Second), WithLogger(logr.Discard()))
	})
	require.Error(t, err)
	te, ok := wait.AsTimeout(err)
	require.True(t, ok)
	assert.Equal(t, "2 ready", te.Description)

	unmatched, ok := te.Diagnostics.(Unmatched)
	require.True(t, ok)
	assert.Equal(t, []string{"q2"}, unmatched.Keys())
}

func TestWaitForMatchListErrors(t *testing.T) {
	waiter, fc := waittest.NewWaiter()
	desired := []*unstructured.Unstructured{queue("q1")}
	calls := 0
	lister := ListerFunc(func(context.Context) ([]*unstructured.Unstructured, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return []*unstructured.Unstructured{queue("q1", generator.WithReady(true))}, nil
	})

	err := waittest.Drive(fc, func() error {
		return WaitForMatch(context.Background(), waiter, lister, desired, Ready, waiter.Budget(time.Minute), WithLogger(logr.Discard()))
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitForMatchLastTryListError(t *testing.T) {
	waiter, fc := waittest.NewWaiter()
	boom := errors.New("connection refused")
	lister := ListerFunc(func(context.Context) ([]*unstructured.Unstructured, error) {
		return nil, boom
	})

	err := waittest.Drive(fc, func() error {
		return WaitForMatch(context.Background(), waiter, lister, []*unstructured.Unstructured{queue("q1")}, Ready, waiter.Budget(2*time.Second), WithLogger(logr.Discard()))
	})
	require.Error(t, err)
	assert.True(t, wait.IsTimeout(err))
	assert.ErrorIs(t, err, boom)
}

func TestAddressLister(t *testing.T) {
	ctx := context.Background()
	cluster, _ := fakecluster.New(
		generator.NewAddress("ns1", "as1", "q1", "q1", "queue", "small"),
		generator.NewAddress("ns1", "as1", "q2", "q2", "queue", "small"),
		generator.NewAddress("ns2", "as2", "q3", "q3", "queue", "small"),
	)

	single := AddressLister(cluster, generator.NewAddress("ns1", "as1", "q1", "q1", "queue", "small"))
	items, err := single.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	spread := AddressLister(cluster,
		generator.NewAddress("ns1", "as1", "q1", "q1", "queue", "small"),
		generator.NewAddress("ns2", "as2", "q3", "q3", "queue", "small"),
	)
	items, err = spread.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestWaitForReadyAgainstCluster(t *testing.T) {
	waiter, _ := waittest.NewWaiter()
	q1 := generator.NewAddress("ns1", "as1", "q1", "q1", "queue", "small", generator.WithReady(true), generator.WithAppliedPlan("small"))
	cluster, _ := fakecluster.New(q1)
	ctx := context.Background()
	budget := waiter.Budget(time.Minute)

	require.NoError(t, WaitForReady(ctx, waiter, cluster, budget, q1))
	require.NoError(t, WaitForPlanApplied(ctx, waiter, cluster, budget, q1))
	require.NoError(t, WaitForBrokersDrained(ctx, waiter, cluster, budget, q1))
	require.NoError(t, WaitForForwardersReady(ctx, waiter, cluster, budget, q1))
}
