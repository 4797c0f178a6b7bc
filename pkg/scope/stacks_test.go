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

package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStacksIsolation(t *testing.T) {
	j := &journal{}
	s := NewStacks()
	assert.Equal(t, Class, s.Active())

	assert.Equal(t, Class, s.Push(j.action("c1", nil)))

	s.Redirect(Method)
	assert.Equal(t, Method, s.Push(j.action("m1", nil)))
	s.Push(j.action("m2", nil))

	assert.Equal(t, 1, s.Stack(Class).Len())
	assert.Equal(t, 2, s.Stack(Method).Len())
	assert.Equal(t, []string{"c1"}, s.Stack(Class).Descriptions())

	require.NoError(t, s.DrainMethod(context.Background(), logr.Discard()))
	assert.Equal(t, []string{"m2", "m1"}, j.ran)
	assert.Equal(t, Class, s.Active(), "draining method scope resets to class")
	assert.Equal(t, 1, s.Stack(Class).Len(), "class scope is untouched")

	require.NoError(t, s.DrainClass(context.Background(), logr.Discard()))
	assert.Equal(t, []string{"m2", "m1", "c1"}, j.ran)
}

func TestStacksRedirectKeepsPushedActions(t *testing.T) {
	j := &journal{}
	s := NewStacks()

	s.Redirect(Shared)
	s.Push(j.action("s1", nil))
	s.Redirect(Method)
	s.Redirect(Class)

	assert.Equal(t, 1, s.Stack(Shared).Len())
	assert.Zero(t, s.Stack(Method).Len())
	assert.Zero(t, s.Stack(Class).Len())

	require.NoError(t, s.DrainShared(context.Background(), logr.Discard()))
	assert.Equal(t, []string{"s1"}, j.ran)
}

func TestStacksDrainMethodResetsOnFailure(t *testing.T) {
	j := &journal{}
	s := NewStacks()
	s.Redirect(Method)
	s.Push(j.action("m1", errors.New("boom")))

	require.Error(t, s.DrainMethod(context.Background(), logr.Discard()))
	assert.Equal(t, Class, s.Active())
}

func TestStacksConcurrentPush(t *testing.T) {
	j := &journal{}
	s := NewStacks()
	s.Redirect(Method)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Push(j.action(fmt.Sprintf("a%d", i), nil))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Stack(Method).Len())
	require.NoError(t, s.DrainMethod(context.Background(), logr.Discard()))
	assert.Len(t, j.ran, 50)
}

func TestStacksContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := NewStacks()
	got, ok := FromContext(IntoContext(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "class", Class.String())
	assert.Equal(t, "method", Method.String())
	assert.Equal(t, "shared", Shared.String())
	assert.Equal(t, "Level(7)", Level(7).String())
}
