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

package instance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no instance matches a lookup.
var ErrNotFound = errors.New("instance not found")

// ResourceInUseError is returned when an instance still runs address space
// workloads and cannot be deleted. Retrying does not help until the address
// spaces are gone.
type ResourceInUseError struct {
	Instance  ID
	Workloads []string
}

func (e *ResourceInUseError) Error() string {
	return fmt.Sprintf("instance %s still has active workloads: %s", e.Instance, strings.Join(e.Workloads, ", "))
}

// IsRetryable always reports false.
func (e *ResourceInUseError) IsRetryable() bool {
	return false
}

// IsResourceInUse reports whether err is, or wraps, a *ResourceInUseError.
func IsResourceInUse(err error) bool {
	var e *ResourceInUseError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
