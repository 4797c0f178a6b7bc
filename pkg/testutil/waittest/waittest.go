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

// Package waittest runs waits on a fake clock.
package waittest

import (
	"time"

	"github.com/go-logr/logr"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/bordeuax/enmasse/pkg/wait"
)

// Interval is the poll interval of the waiters returned by NewWaiter.
const Interval = time.Second

// NewWaiter returns a waiter polling every Interval on a fake clock.
func NewWaiter() (*wait.Waiter, *clocktesting.FakeClock) {
	fc := clocktesting.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return wait.NewWaiter(wait.Config{Clock: fc, Interval: Interval, Log: logr.Discard()}), fc
}

// Drive runs f and advances fc by one Interval each time something sleeps
// on it, until f returns.
func Drive(fc *clocktesting.FakeClock, f func() error) error {
	done := make(chan error, 1)
	go func() { done <- f() }()
	for {
		select {
		case err := <-done:
			return err
		case <-time.After(time.Millisecond):
			if fc.HasWaiters() {
				fc.Step(Interval)
			}
		}
	}
}
