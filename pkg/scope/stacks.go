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
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// Level selects one of the three stacks of a Stacks.
type Level int

const (
	// Class resources live until the owning group of tests is done.
	Class Level = iota
	// Method resources live for a single test.
	Method
	// Shared resources live for the whole run.
	Shared
)

func (l Level) String() string {
	switch l {
	case Class:
		return "class"
	case Method:
		return "method"
	case Shared:
		return "shared"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Stacks holds the class, method and shared stacks of one workflow and the
// active pointer deciding where new actions land. The active level starts at
// Class.
type Stacks struct {
	class  *Stack
	method *Stack
	shared *Stack

	mu     sync.RWMutex
	active Level
}

// NewStacks returns empty stacks with Class active.
func NewStacks() *Stacks {
	return &Stacks{
		class:  NewStack(Class.String()),
		method: NewStack(Method.String()),
		shared: NewStack(Shared.String()),
		active: Class,
	}
}

// Stack returns the stack of level l.
func (s *Stacks) Stack(l Level) *Stack {
	switch l {
	case Method:
		return s.method
	case Shared:
		return s.shared
	default:
		return s.class
	}
}

// Redirect makes l the target of subsequent pushes. Already pushed actions
// stay where they are.
func (s *Stacks) Redirect(l Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = l
}

// Active returns the level new actions are pushed onto.
func (s *Stacks) Active() Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Push registers a on the active stack and returns the level it landed on.
func (s *Stacks) Push(a Action) Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.Stack(s.active).Push(a)
	return s.active
}

// DrainMethod drains the method stack and makes Class active again.
func (s *Stacks) DrainMethod(ctx context.Context, log logr.Logger) error {
	err := s.method.Drain(ctx, log)
	s.Redirect(Class)
	return err
}

// DrainClass drains the class stack.
func (s *Stacks) DrainClass(ctx context.Context, log logr.Logger) error {
	return s.class.Drain(ctx, log)
}

// DrainShared drains the shared stack.
func (s *Stacks) DrainShared(ctx context.Context, log logr.Logger) error {
	return s.shared.Drain(ctx, log)
}

type contextKey struct{}

// IntoContext returns a copy of ctx carrying s.
func IntoContext(ctx context.Context, s *Stacks) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Stacks carried by ctx, if any.
func FromContext(ctx context.Context) (*Stacks, bool) {
	s, ok := ctx.Value(contextKey{}).(*Stacks)
	return s, ok
}
