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

package lifecycle

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	clienttesting "k8s.io/client-go/testing"

	"github.com/bordeuax/enmasse/pkg/registry"
	"github.com/bordeuax/enmasse/pkg/testutil/fakecluster"
	"github.com/bordeuax/enmasse/pkg/testutil/generator"
	"github.com/bordeuax/enmasse/pkg/testutil/waittest"
)

func TestPlanAndAddressSpaceScenario(t *testing.T) {
	ctx := context.Background()
	cluster, fake := fakecluster.New(generator.NewNamespace("ns1"))
	waiter, _ := waittest.NewWaiter()
	reg := registry.Default(cluster, waiter, nil, registry.Options{})
	m := NewManager(logr.Discard(), cluster, reg, Config{Metrics: NewMetrics()})

	plan := generator.NewAddressSpacePlan("ns1", "small", "standard")
	as := generator.NewAddressSpace("ns1", "as1", "standard", "small", generator.WithReady(true))
	require.NoError(t, m.Declare(ctx, true, plan, as))

	var creates []string
	for _, a := range fake.Actions() {
		if a.GetVerb() == "create" {
			creates = append(creates, a.GetResource().Resource)
		}
	}
	assert.Equal(t, []string{"addressspaceplans", "addressspaces"}, creates)

	fake.ClearActions()
	require.NoError(t, m.DeleteClassResources(ctx))

	var deletes []string
	for _, a := range fake.Actions() {
		if d, ok := a.(clienttesting.DeleteAction); ok {
			deletes = append(deletes, d.GetResource().Resource+"/"+d.GetName())
		}
	}
	assert.Equal(t, []string{"addressspaces/as1", "addressspaceplans/small"}, deletes)

	_, err := cluster.Get(ctx, as.GroupVersionKind(), "ns1", "as1")
	assert.True(t, apierrors.IsNotFound(err))
	_, err = cluster.Get(ctx, plan.GroupVersionKind(), "ns1", "small")
	assert.True(t, apierrors.IsNotFound(err))
}
