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
	"fmt"
	"strings"
)

// ID identifies an instance and the namespace backing it.
type ID struct {
	ID        string
	Namespace string
}

// NewID returns the id of an instance living in its default namespace.
func NewID(id string) ID {
	return ID{ID: id, Namespace: DefaultNamespace(id)}
}

func (id ID) String() string {
	return fmt.Sprintf("%s (namespace %s)", id.ID, id.Namespace)
}

// Instance is a tenant of the messaging platform. Host fields are empty when
// the matching route does not exist.
type Instance struct {
	ID            ID
	UUID          string
	MessagingHost string
	MQTTHost      string
	ConsoleHost   string
}

const maxNameLength = 63

// SanitizeName turns s into a valid DNS-1123 label.
func SanitizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	out := b.String()
	if len(out) > maxNameLength {
		out = out[:maxNameLength]
	}
	return strings.Trim(out, "-")
}

// DefaultNamespace is the namespace an instance gets when none is given.
func DefaultNamespace(id string) string {
	return SanitizeName("enmasse-" + id)
}
