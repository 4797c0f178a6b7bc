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

package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
)

const (
	// DefaultInterval is the fixed pause between two evaluations.
	DefaultInterval = time.Second
)

// ConditionFunc reports whether the awaited state has been reached. An error
// means "not yet" unless it is returned on the LastTry, where it becomes the
// cause of the timeout.
type ConditionFunc func(ctx context.Context, phase Phase) (bool, error)

// Simple adapts a phase-agnostic check into a ConditionFunc.
func Simple(f func(ctx context.Context) (bool, error)) ConditionFunc {
	return func(ctx context.Context, _ Phase) (bool, error) {
		return f(ctx)
	}
}

// Config contains configuration for a Waiter.
type Config struct {
	Clock    clock.Clock
	Interval time.Duration
	// Log defaults to the logger carried by the context of each wait.
	Log logr.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Clock:    clock.RealClock{},
		Interval: DefaultInterval,
	}
}

// Waiter polls conditions at a fixed interval until they hold or their
// budget runs out.
type Waiter struct {
	clock    clock.Clock
	interval time.Duration
	log      logr.Logger
}

// NewWaiter creates a Waiter. Zero fields of cfg take their defaults.
func NewWaiter(cfg Config) *Waiter {
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Waiter{
		clock:    cfg.Clock,
		interval: cfg.Interval,
		log:      cfg.Log,
	}
}

var defaultWaiter = NewWaiter(DefaultConfig())

// Until waits on the real clock with the default interval.
func Until(ctx context.Context, description string, cond ConditionFunc, budget *TimeoutBudget) error {
	return defaultWaiter.Until(ctx, description, cond, budget)
}

// Budget returns a budget of d measured on the waiter's clock.
func (w *Waiter) Budget(d time.Duration) *TimeoutBudget {
	return NewTimeoutBudgetWithClock(w.clock, d)
}

// Until evaluates cond with NormalTry until it returns true or budget
// expires, sleeping the waiter's interval between evaluations. Once the
// budget has expired cond is evaluated exactly once more with LastTry.
//
// A *TimeoutError is returned if the final evaluation does not succeed. If
// ctx is cancelled while sleeping the context error is returned instead.
func (w *Waiter) Until(ctx context.Context, description string, cond ConditionFunc, budget *TimeoutBudget) error {
	log := w.log
	if log.GetSink() == nil {
		log = ctrllog.FromContext(ctx)
	}
	log = log.WithValues("description", description)

	for !budget.Expired() {
		ok, err := cond(ctx, NormalTry)
		if err != nil {
			log.V(1).Info("Condition not met", "error", err.Error(), "remaining", budget.Remaining())
		} else if ok {
			return nil
		}

		if err := w.sleep(ctx); err != nil {
			return fmt.Errorf("waiting for %s: %w", description, err)
		}
	}

	ok, err := cond(ctx, LastTry)
	if err == nil && ok {
		return nil
	}
	log.Info("Timed out", "budget", budget.Duration(), "elapsed", budget.Elapsed())
	return &TimeoutError{
		Description: description,
		Budget:      budget.Duration(),
		Cause:       err,
	}
}

func (w *Waiter) sleep(ctx context.Context) error {
	t := w.clock.NewTimer(w.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
