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

// Package router models link routes and renders them into router
// configuration.
package router

import (
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"
)

// Direction is the link direction a link route applies to, seen from the
// router.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// LinkRoute routes links on addresses matching Prefix or Pattern, in
// Direction, to the container or connection it names. LinkRoute is a value
// type: two routes are equal when all their fields are.
type LinkRoute struct {
	Name              string    `json:"name,omitempty"`
	Prefix            string    `json:"prefix,omitempty"`
	Pattern           string    `json:"pattern,omitempty"`
	DelExternalPrefix string    `json:"delExternalPrefix,omitempty"`
	Direction         Direction `json:"direction,omitempty"`
	ContainerID       string    `json:"containerId,omitempty"`
	Connection        string    `json:"connection,omitempty"`
}

// HasMatchRule reports whether l matches addresses by prefix or pattern.
func (l LinkRoute) HasMatchRule() bool {
	return l.Prefix != "" || l.Pattern != ""
}

// Equal reports whether l and o are the same route.
func (l LinkRoute) Equal(o LinkRoute) bool {
	return l == o
}

func (l LinkRoute) String() string {
	return fmt.Sprintf("LinkRoute{name=%q, prefix=%q, pattern=%q, delExternalPrefix=%q, direction=%s, containerId=%q, connection=%q}",
		l.Name, l.Prefix, l.Pattern, l.DelExternalPrefix, l.Direction, l.ContainerID, l.Connection)
}

var (
	errNoName      = errors.New("name is required")
	errNoMatchRule = errors.New("one of prefix or pattern is required")
)

// Validate checks that the router would accept l. Prefix and Pattern may
// both be set.
func (l LinkRoute) Validate() error {
	switch {
	case l.Name == "":
		return errNoName
	case !l.HasMatchRule():
		return fmt.Errorf("link route %s: %w", l.Name, errNoMatchRule)
	case !l.Direction.Valid():
		return fmt.Errorf("link route %s: invalid direction %q", l.Name, l.Direction)
	}
	return nil
}

// LoadLinkRoutes decodes a YAML or JSON list of link routes.
func LoadLinkRoutes(data []byte) ([]LinkRoute, error) {
	var routes []LinkRoute
	if err := yaml.UnmarshalStrict(data, &routes); err != nil {
		return nil, fmt.Errorf("failed to decode link routes: %w", err)
	}
	for _, r := range routes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return routes, nil
}
