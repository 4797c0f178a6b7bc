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
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/client"
	"github.com/bordeuax/enmasse/pkg/wait"
)

// DefaultBudget bounds address waits.
const DefaultBudget = 10 * time.Minute

// Lister returns the current observation of the entities being matched.
type Lister interface {
	List(ctx context.Context) ([]*unstructured.Unstructured, error)
}

// ListerFunc adapts a function into a Lister.
type ListerFunc func(ctx context.Context) ([]*unstructured.Unstructured, error)

func (f ListerFunc) List(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return f(ctx)
}

// AddressLister lists addresses in the namespace shared by every desired
// address, or in all namespaces when they are spread over several.
func AddressLister(cluster client.Cluster, desired ...*unstructured.Unstructured) Lister {
	namespaces := lo.Uniq(lo.Map(desired, func(d *unstructured.Unstructured, _ int) string {
		return d.GetNamespace()
	}))
	namespace := ""
	if len(namespaces) == 1 {
		namespace = namespaces[0]
	}
	gvk := enmasse.MustLookup(enmasse.KindAddress).GVK

	return ListerFunc(func(ctx context.Context) ([]*unstructured.Unstructured, error) {
		return cluster.List(ctx, gvk, namespace, nil)
	})
}

type options struct {
	matcher NameMatcher
	log     logr.Logger
}

// Option customizes WaitForMatch.
type Option func(*options)

// WithNameMatcher overrides the default name matcher.
func WithNameMatcher(m NameMatcher) Option {
	return func(o *options) {
		o.matcher = m
	}
}

// WithLogger overrides the logger taken from the context.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WaitForMatch polls lister until every desired entity satisfies pred. List
// failures count as not matched. On timeout the returned *wait.TimeoutError
// carries the last Unmatched set as its Diagnostics.
func WaitForMatch(ctx context.Context, waiter *wait.Waiter, lister Lister, desired []*unstructured.Unstructured, pred Predicate, budget *wait.TimeoutBudget, opts ...Option) error {
	o := options{matcher: DefaultNameMatcher(), log: ctrllog.FromContext(ctx)}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.WithValues("predicate", pred.Name)

	var last Unmatched
	cond := func(ctx context.Context, phase wait.Phase) (bool, error) {
		observed, err := lister.List(ctx)
		if err != nil {
			if phase == wait.LastTry {
				log.Error(err, "Failed to read observed state")
			} else {
				log.V(1).Info("Failed to read observed state", "error", err.Error())
			}
			return false, err
		}

		last = Match(desired, observed, pred, o.matcher)
		for key, obj := range last {
			if obj == nil {
				log.V(1).Info("Waiting for entity to appear", "key", key)
			} else {
				log.V(1).Info("Waiting for entity", "key", key, "name", obj.GetName())
			}
		}
		if len(last) > 0 && phase == wait.LastTry {
			log.Info(fmt.Sprintf("%d out of %d entities are not matched", len(last), len(desired)), "unmatched", last.Keys())
		}
		return len(last) == 0, nil
	}

	description := fmt.Sprintf("%d %s", len(desired), pred.Name)
	err := waiter.Until(ctx, description, cond, budget)
	if te, ok := wait.AsTimeout(err); ok && last != nil {
		te.Diagnostics = last
	}
	return err
}

// WaitForReady waits until every address reports status.isReady.
func WaitForReady(ctx context.Context, waiter *wait.Waiter, cluster client.Cluster, budget *wait.TimeoutBudget, addresses ...*unstructured.Unstructured) error {
	return WaitForMatch(ctx, waiter, AddressLister(cluster, addresses...), addresses, Ready, budget)
}

// WaitForPlanApplied waits until every address runs its requested plan.
func WaitForPlanApplied(ctx context.Context, waiter *wait.Waiter, cluster client.Cluster, budget *wait.TimeoutBudget, addresses ...*unstructured.Unstructured) error {
	return WaitForMatch(ctx, waiter, AddressLister(cluster, addresses...), addresses, PlanApplied, budget)
}

// WaitForBrokersDrained waits until no address has a draining broker.
func WaitForBrokersDrained(ctx context.Context, waiter *wait.Waiter, cluster client.Cluster, budget *wait.TimeoutBudget, addresses ...*unstructured.Unstructured) error {
	return WaitForMatch(ctx, waiter, AddressLister(cluster, addresses...), addresses, BrokersDrained, budget)
}

// WaitForForwardersReady waits until every address has all forwarders ready.
func WaitForForwardersReady(ctx context.Context, waiter *wait.Waiter, cluster client.Cluster, budget *wait.TimeoutBudget, addresses ...*unstructured.Unstructured) error {
	return WaitForMatch(ctx, waiter, AddressLister(cluster, addresses...), addresses, ForwardersReady, budget)
}
