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
	"go.uber.org/multierr"
)

// Action is a deferred cleanup step.
type Action struct {
	Description string
	Run         func(ctx context.Context) error
}

// Stack is a LIFO registry of cleanup actions. It is safe for concurrent use.
type Stack struct {
	name string

	mu      sync.Mutex
	actions []Action
}

// NewStack returns an empty stack. name is only used in log lines.
func NewStack(name string) *Stack {
	return &Stack{name: name}
}

// Name returns the name of the stack.
func (s *Stack) Name() string {
	return s.name
}

// Push registers a on top of the stack.
func (s *Stack) Push(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
}

// Len returns the number of pending actions.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

// Descriptions returns the pending actions from top to bottom.
func (s *Stack) Descriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.actions))
	for i := len(s.actions) - 1; i >= 0; i-- {
		out = append(out, s.actions[i].Description)
	}
	return out
}

func (s *Stack) pop() (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.actions) == 0 {
		return Action{}, false
	}
	a := s.actions[len(s.actions)-1]
	s.actions = s.actions[:len(s.actions)-1]
	return a, true
}

// Drain pops and runs every action, most recent first. A failing action is
// logged and the drain goes on; the first failure is returned once the stack
// is empty. Actions pushed while draining are run in the same pass.
func (s *Stack) Drain(ctx context.Context, log logr.Logger) error {
	log = log.WithValues("scope", s.name)

	var first, all error
	for {
		a, ok := s.pop()
		if !ok {
			break
		}
		log.V(1).Info("Running cleanup action", "description", a.Description)
		if err := a.Run(ctx); err != nil {
			err = fmt.Errorf("%s: %w", a.Description, err)
			log.Error(err, "Cleanup action failed", "description", a.Description)
			if first == nil {
				first = err
			}
			all = multierr.Append(all, err)
		}
	}

	if errs := multierr.Errors(all); len(errs) > 1 {
		log.Info("Cleanup finished with failures", "failures", len(errs), "errors", all.Error())
	}
	return first
}
