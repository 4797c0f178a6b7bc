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

package lifecycle_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/rand"
	"k8s.io/utils/clock"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/crds"
	"github.com/bordeuax/enmasse/pkg/lifecycle"
	"github.com/bordeuax/enmasse/pkg/registry"
	"github.com/bordeuax/enmasse/pkg/testutil/generator"
	"github.com/bordeuax/enmasse/pkg/wait"
)

var _ = Describe("CRDs", func() {
	It("should serve every platform kind", func() {
		for _, crd := range crds.All() {
			served, err := set.APIExtensionsV1().CustomResourceDefinitions().Get(ctx, crd.Name, metav1.GetOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(served.Spec.Names.Kind).To(Equal(crd.Spec.Names.Kind))
		}
	})
})

var _ = Describe("Lifecycle", func() {
	var (
		namespace string
		reg       *registry.Registry
		manager   *lifecycle.Manager
	)

	BeforeEach(func() {
		namespace = "lifecycle-" + rand.String(5)
		_, err := set.Cluster().CreateNamespace(ctx, namespace, nil)
		Expect(err).NotTo(HaveOccurred())

		waiter := wait.NewWaiter(wait.Config{
			Clock:    clock.RealClock{},
			Interval: 100 * time.Millisecond,
			Log:      GinkgoLogr,
		})
		reg = registry.Default(set.Cluster(), waiter, nil, registry.Options{
			ReadyTimeout:  20 * time.Second,
			DeleteTimeout: 20 * time.Second,
		})
		manager = lifecycle.NewManager(GinkgoLogr, set.Cluster(), reg, lifecycle.Config{
			Metrics: lifecycle.NewMetrics(),
		})
	})

	get := func(kind enmasse.Kind, name string) (*unstructured.Unstructured, error) {
		return set.Cluster().Get(ctx, enmasse.MustLookup(kind).GVK, namespace, name)
	}

	It("should declare a plan and delete it on teardown", func() {
		plan := generator.NewAddressSpacePlan(namespace, "small", "standard")
		Expect(manager.Declare(ctx, true, plan)).To(Succeed())

		_, err := get(enmasse.KindAddressSpacePlan, "small")
		Expect(err).NotTo(HaveOccurred())

		Expect(manager.DeleteClassResources(ctx)).To(Succeed())
		_, err = get(enmasse.KindAddressSpacePlan, "small")
		Expect(apierrors.IsNotFound(err)).To(BeTrue())
	})

	It("should wait until an address space reports ready", func() {
		plan := generator.NewAddressSpacePlan(namespace, "small", "standard")
		space := generator.NewAddressSpace(namespace, "as1", "standard", "small")
		Expect(manager.Declare(ctx, false, plan, space)).To(Succeed())
		DeferCleanup(func() {
			Expect(manager.DeleteClassResources(ctx)).To(Succeed())
		})

		// status is a subresource, so create dropped it
		live, err := get(enmasse.KindAddressSpace, "as1")
		Expect(err).NotTo(HaveOccurred())
		_, found, _ := unstructured.NestedBool(live.Object, "status", "isReady")
		Expect(found).To(BeFalse())

		go func() {
			defer GinkgoRecover()
			time.Sleep(500 * time.Millisecond)
			Expect(unstructured.SetNestedField(live.Object, true, "status", "isReady")).To(Succeed())
			_, err := set.Dynamic().
				Resource(enmasse.MustLookup(enmasse.KindAddressSpace).GVR()).
				Namespace(namespace).
				UpdateStatus(ctx, live, metav1.UpdateOptions{})
			Expect(err).NotTo(HaveOccurred())
		}()

		rt, err := reg.ResolveObject(space)
		Expect(err).NotTo(HaveOccurred())
		Expect(rt.WaitReady(ctx, space)).To(Succeed())
	})

	It("should report the resource that never became ready", func() {
		reg = registry.Default(set.Cluster(), wait.NewWaiter(wait.Config{
			Clock:    clock.RealClock{},
			Interval: 100 * time.Millisecond,
			Log:      GinkgoLogr,
		}), nil, registry.Options{ReadyTimeout: time.Second})
		manager = lifecycle.NewManager(GinkgoLogr, set.Cluster(), reg, lifecycle.Config{
			Metrics: lifecycle.NewMetrics(),
		})

		space := generator.NewAddressSpace(namespace, "stuck", "standard", "small")
		err := manager.Declare(ctx, true, space)
		Expect(err).To(HaveOccurred())
		Expect(wait.IsTimeout(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(fmt.Sprintf("AddressSpace stuck in namespace %s", namespace)))

		Expect(manager.DeleteClassResources(ctx)).To(Succeed())
		_, err = get(enmasse.KindAddressSpace, "stuck")
		Expect(apierrors.IsNotFound(err)).To(BeTrue())
	})
})
