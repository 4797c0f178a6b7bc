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
	"time"

	"k8s.io/utils/clock"
)

// Phase classifies a single evaluation of a condition.
type Phase int

const (
	// NormalTry is any evaluation made while the budget has time left.
	NormalTry Phase = iota
	// LastTry is the single evaluation made after the budget expired.
	LastTry
)

func (p Phase) String() string {
	switch p {
	case NormalTry:
		return "NormalTry"
	case LastTry:
		return "LastTry"
	default:
		return "Unknown"
	}
}

// TimeoutBudget is an absolute deadline measured on a clock.
type TimeoutBudget struct {
	clock    clock.PassiveClock
	start    time.Time
	deadline time.Time
	duration time.Duration
}

// NewTimeoutBudget returns a budget of d starting now on the real clock.
func NewTimeoutBudget(d time.Duration) *TimeoutBudget {
	return NewTimeoutBudgetWithClock(clock.RealClock{}, d)
}

// NewTimeoutBudgetWithClock returns a budget of d starting now on clk.
func NewTimeoutBudgetWithClock(clk clock.PassiveClock, d time.Duration) *TimeoutBudget {
	now := clk.Now()
	return &TimeoutBudget{
		clock:    clk,
		start:    now,
		deadline: now.Add(d),
		duration: d,
	}
}

// Duration is the total allowance of the budget.
func (b *TimeoutBudget) Duration() time.Duration {
	return b.duration
}

// Elapsed is the time spent since the budget was created.
func (b *TimeoutBudget) Elapsed() time.Duration {
	return b.clock.Since(b.start)
}

// Remaining is the time left before the deadline, never negative.
func (b *TimeoutBudget) Remaining() time.Duration {
	r := b.deadline.Sub(b.clock.Now())
	if r < 0 {
		return 0
	}
	return r
}

// Expired reports whether the deadline has been reached.
func (b *TimeoutBudget) Expired() bool {
	return !b.clock.Now().Before(b.deadline)
}
