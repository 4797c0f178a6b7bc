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

// Package suite ties lifecycle scopes to the lifetime of Go tests.
//
//	func TestQueues(t *testing.T) {
//		m := suite.Class(t, manager)
//		... declare class resources ...
//		t.Run("send", func(t *testing.T) {
//			suite.Method(t, m)
//			... declare method resources ...
//		})
//	}
package suite

import (
	"context"
	"testing"

	"github.com/bordeuax/enmasse/pkg/lifecycle"
)

// Class points m at the class scope and drains it once t and its subtests
// are done.
func Class(t testing.TB, m *lifecycle.Manager) *lifecycle.Manager {
	t.Helper()
	m.SetClassScope()
	t.Cleanup(func() {
		if err := m.DeleteClassResources(context.Background()); err != nil {
			t.Errorf("failed to clean up class resources: %v", err)
		}
	})
	return m
}

// Method points m at the method scope until t is done, then drains it and
// points m back at the class scope.
func Method(t testing.TB, m *lifecycle.Manager) *lifecycle.Manager {
	t.Helper()
	m.SetMethodScope()
	t.Cleanup(func() {
		if err := m.DeleteMethodResources(context.Background()); err != nil {
			t.Errorf("failed to clean up method resources: %v", err)
		}
	})
	return m
}

// Shared points m at the shared scope. Shared resources outlive every test;
// drain them from TestMain with DeleteSharedResources.
func Shared(t testing.TB, m *lifecycle.Manager) *lifecycle.Manager {
	t.Helper()
	m.SetSharedScope()
	return m
}
