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

package command_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	k8stesting "k8s.io/client-go/testing"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/testutil/fakecluster"
	"github.com/bordeuax/enmasse/pkg/testutil/generator"
	"github.com/bordeuax/enmasse/pkg/testutil/waittest"
	"github.com/bordeuax/enmasse/pkg/wait"
)

const spaceManifest = `
apiVersion: admin.enmasse.io/v1beta2
kind: AddressSpacePlan
metadata:
  name: small
  namespace: ns1
spec:
  addressSpaceType: standard
---
apiVersion: enmasse.io/v1beta1
kind: AddressSpace
metadata:
  name: as1
  namespace: ns1
spec:
  type: standard
  plan: small
status:
  isReady: true
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: extra
  namespace: ns1
`

const addressManifest = `
apiVersion: enmasse.io/v1beta1
kind: Address
metadata:
  name: as1.q1
  namespace: ns1
spec:
  address: q1
  type: queue
  plan: small-queue
`

func TestApplyAndDelete(t *testing.T) {
	cluster, fake := fakecluster.New()
	path := writeFile(t, "space.yaml", spaceManifest)
	ctx := context.Background()

	root, out, _ := newTestRoot(t, cluster)
	root.SetArgs([]string{"apply", "-f", path})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "declared AddressSpacePlan small in namespace ns1")
	assert.Contains(t, out.String(), "declared AddressSpace as1 in namespace ns1")
	assert.Contains(t, out.String(), "skipped ConfigMap extra in namespace ns1")

	ns, err := cluster.Get(ctx, enmasse.MustLookup(enmasse.KindNamespace).GVK, "", "ns1")
	require.NoError(t, err, "missing namespace should be created")
	assert.Equal(t, "ns1", ns.GetName())
	_, err = cluster.Get(ctx, enmasse.MustLookup(enmasse.KindAddressSpace).GVK, "ns1", "as1")
	require.NoError(t, err)

	fake.ClearActions()
	root, out, _ = newTestRoot(t, cluster)
	root.SetArgs([]string{"delete", "-f", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "deleted AddressSpace as1 in namespace ns1")

	var deleted []string
	for _, a := range fake.Actions() {
		if d, ok := a.(k8stesting.DeleteAction); ok {
			deleted = append(deleted, d.GetResource().Resource+"/"+d.GetName())
		}
	}
	assert.Equal(t, []string{"addressspaces/as1", "addressspaceplans/small"}, deleted)

	_, err = cluster.Get(ctx, enmasse.MustLookup(enmasse.KindAddressSpacePlan).GVK, "ns1", "small")
	assert.True(t, apierrors.IsNotFound(err))
}

func TestApplyTeardownOnError(t *testing.T) {
	cluster, fake := fakecluster.New(generator.NewNamespace("ns1"))
	fake.PrependReactor("create", "addressspaces", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("quota exceeded")
	})
	path := writeFile(t, "space.yaml", spaceManifest)

	root, _, _ := newTestRoot(t, cluster)
	root.SetArgs([]string{"apply", "-f", path, "--teardown-on-error"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create AddressSpace as1 in namespace ns1")

	_, err = cluster.Get(context.Background(), enmasse.MustLookup(enmasse.KindAddressSpacePlan).GVK, "ns1", "small")
	assert.True(t, apierrors.IsNotFound(err), "declared plan should be torn down")
}

func TestApplyEmptyDirectory(t *testing.T) {
	cluster, _ := fakecluster.New()
	root, _, _ := newTestRoot(t, cluster)
	root.SetArgs([]string{"apply", "-f", t.TempDir()})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no resources found")
}

func instanceNamespace(name, id, uuid string) runtime.Object {
	return generator.NewNamespace(name, generator.WithLabels(map[string]string{
		"app":      "enmasse",
		"type":     "instance",
		"instance": id,
		"uuid":     uuid,
	}))
}

func TestInstanceList(t *testing.T) {
	cluster, _ := fakecluster.New(
		instanceNamespace("ns-b", "b", "uuid-b"),
		instanceNamespace("ns-a", "a", "uuid-a"),
		generator.NewRoute("ns-a", "messaging", "messaging.example.com"),
	)

	root, out, _ := newTestRoot(t, cluster)
	root.SetArgs([]string{"instance", "list"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "NAMESPACE")
	assert.Contains(t, out.String(), "messaging.example.com")
	assert.Contains(t, out.String(), "uuid-b")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAMESPACE", "UUID", "MESSAGING", "MQTT", "CONSOLE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"a", "ns-a", "uuid-a", "messaging.example.com", "<none>", "<none>"}, strings.Fields(lines[1]))

	root, out, _ = newTestRoot(t, cluster)
	root.SetArgs([]string{"instance", "list", "-o", "json"})
	require.NoError(t, root.Execute())

	var list struct {
		Items []struct {
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
			Spec map[string]string `json:"spec"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, "a", list.Items[0].Metadata.Name)
	assert.Equal(t, "ns-a", list.Items[0].Spec["namespace"])
	assert.Equal(t, "messaging.example.com", list.Items[0].Spec["messagingHost"])
	assert.Equal(t, "b", list.Items[1].Metadata.Name)
}

func TestInstanceGetByUUID(t *testing.T) {
	cluster, _ := fakecluster.New(instanceNamespace("ns-a", "a", "uuid-a"))

	root, out, _ := newTestRoot(t, cluster)
	root.SetArgs([]string{"instance", "get", "uuid-a", "--uuid", "-o", "yaml"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "name: a")

	root, _, _ = newTestRoot(t, cluster)
	root.SetArgs([]string{"instance", "get"})
	assert.Error(t, root.Execute())
}

func TestWaitAddresses(t *testing.T) {
	path := writeFile(t, "addresses.yaml", addressManifest)

	t.Run("ready", func(t *testing.T) {
		cluster, _ := fakecluster.New(
			generator.NewAddress("ns1", "as1", "q1", "q1", "queue", "small-queue", generator.WithReady(true)),
		)
		root, out, _ := newTestRoot(t, cluster)
		root.SetArgs([]string{"wait", "addresses", "-f", path})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "1 addresses are ready")
	})

	t.Run("unknown predicate", func(t *testing.T) {
		cluster, _ := fakecluster.New()
		root, _, _ := newTestRoot(t, cluster)
		root.SetArgs([]string{"wait", "addresses", "-f", path, "--predicate", "bogus"})
		err := root.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown predicate "bogus"`)
	})

	t.Run("timeout reports unmatched", func(t *testing.T) {
		cluster, _ := fakecluster.New(
			generator.NewAddress("ns1", "as1", "q1", "q1", "queue", "small-queue", generator.WithReady(false)),
		)
		root, out, fc := newTestRoot(t, cluster)
		root.SetArgs([]string{"wait", "addresses", "-f", path, "--timeout", "5s"})
		err := waittest.Drive(fc, root.Execute)
		require.Error(t, err)
		assert.True(t, wait.IsTimeout(err))
		assert.Contains(t, out.String(), "unmatched q1")
	})
}

func TestRouterConfig(t *testing.T) {
	path := writeFile(t, "routes.yaml", `
- name: orders
  prefix: orders/
  direction: in
  containerId: broker-0
`)

	root, out, _ := newTestRoot(t, nil)
	root.SetArgs([]string{"router-config", "-f", path, "--worker-threads", "8"})
	require.NoError(t, root.Execute())

	var entities []json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &entities))
	assert.Len(t, entities, 7)
	assert.Contains(t, out.String(), `"workerThreads":8`)
	assert.Contains(t, out.String(), `"prefix":"orders/"`)

	root, out, _ = newTestRoot(t, nil)
	root.SetArgs([]string{"router-config", "-f", path, "--configmap", "qdrouterd-config", "-n", "infra", "-o", "yaml"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "kind: ConfigMap")
	assert.Contains(t, out.String(), "namespace: infra")
	assert.Contains(t, out.String(), "qdrouterd.json")

	bad := writeFile(t, "bad.yaml", "- name: broken\n")
	root, _, _ = newTestRoot(t, nil)
	root.SetArgs([]string{"router-config", "-f", bad})
	assert.Error(t, root.Execute())
}

func TestTimeoutFlagDefault(t *testing.T) {
	root, _, _ := newTestRoot(t, nil)
	cmd, _, err := root.Find([]string{"wait", "addresses"})
	require.NoError(t, err)
	assert.Equal(t, (10 * time.Minute).String(), cmd.Flags().Lookup("timeout").DefValue)
}
