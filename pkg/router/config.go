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

package router

import (
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/bordeuax/enmasse/pkg/metadata"
)

const (
	// ConfigKey is the ConfigMap key holding the router configuration.
	ConfigKey = "qdrouterd.json"

	// InfraTLSProfile is the sslProfile used by internal components.
	InfraTLSProfile = "infra_tls"

	defaultWorkerThreads = 4
	defaultRouterID      = "${HOSTNAME}"
	defaultCertDir       = "/etc/enmasse-certs"

	InterRouterPort = 55672
	InternalPort    = 55671
	AdminPort       = 7777
	HealthPort      = 7778
)

// Entity types of the router configuration.
const (
	EntityRouter     = "router"
	EntitySSLProfile = "sslProfile"
	EntityListener   = "listener"
	EntityLinkRoute  = "linkRoute"
)

// RouterSpec holds the router settings that vary between deployments.
type RouterSpec struct {
	WorkerThreads int
	// ID defaults to the pod hostname, expanded by the router at startup.
	ID string
	// CertDir holds tls.key, tls.crt and ca.crt of the internal profile.
	CertDir string
}

func (s RouterSpec) withDefaults() RouterSpec {
	if s.WorkerThreads <= 0 {
		s.WorkerThreads = defaultWorkerThreads
	}
	if s.ID == "" {
		s.ID = defaultRouterID
	}
	if s.CertDir == "" {
		s.CertDir = defaultCertDir
	}
	return s
}

// Entity is one [type, attributes] pair of the router configuration.
type Entity struct {
	Type       string
	Attributes map[string]interface{}
}

// MarshalJSON encodes e the way the router reads it: as a two element array.
func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Type, e.Attributes})
}

// Config is an ordered router configuration.
type Config struct {
	Entities []Entity
}

// GenerateConfig returns the configuration of a router: its generic
// settings, the internal TLS profile and listeners, followed by one linkRoute
// entity per route in order.
func GenerateConfig(spec RouterSpec, routes []LinkRoute) (*Config, error) {
	spec = spec.withDefaults()
	c := &Config{
		Entities: []Entity{
			{
				Type: EntityRouter,
				Attributes: map[string]interface{}{
					"workerThreads":           spec.WorkerThreads,
					"timestampsInUTC":         true,
					"defaultDistribution":     "unavailable",
					"mode":                    "interior",
					"id":                      spec.ID,
					"allowResumableLinkRoute": false,
				},
			},
			{
				Type: EntitySSLProfile,
				Attributes: map[string]interface{}{
					"name":           InfraTLSProfile,
					"privateKeyFile": spec.CertDir + "/tls.key",
					"certFile":       spec.CertDir + "/tls.crt",
					"caCertFile":     spec.CertDir + "/ca.crt",
				},
			},
			{
				// inter-router traffic only
				Type: EntityListener,
				Attributes: map[string]interface{}{
					"host":             "0.0.0.0",
					"port":             InterRouterPort,
					"requireSsl":       true,
					"role":             "inter-router",
					"saslMechanisms":   "EXTERNAL",
					"sslProfile":       InfraTLSProfile,
					"authenticatePeer": true,
				},
			},
			{
				// internal management
				Type: EntityListener,
				Attributes: map[string]interface{}{
					"host":             "0.0.0.0",
					"port":             InternalPort,
					"requireSsl":       true,
					"saslMechanisms":   "EXTERNAL",
					"sslProfile":       InfraTLSProfile,
					"authenticatePeer": true,
				},
			},
			{
				Type: EntityListener,
				Attributes: map[string]interface{}{
					"host":             "0.0.0.0",
					"port":             AdminPort,
					"authenticatePeer": false,
				},
			},
			{
				// liveness probe and metrics
				Type: EntityListener,
				Attributes: map[string]interface{}{
					"host":             "127.0.0.1",
					"port":             HealthPort,
					"authenticatePeer": false,
					"http":             true,
					"metrics":          true,
					"healthz":          true,
					"websockets":       false,
					"httpRootDir":      "invalid",
				},
			},
		},
	}

	names := map[string]bool{}
	for _, r := range routes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if names[r.Name] {
			return nil, fmt.Errorf("duplicate link route %s", r.Name)
		}
		names[r.Name] = true
		c.Entities = append(c.Entities, Entity{Type: EntityLinkRoute, Attributes: linkRouteAttributes(r)})
	}
	return c, nil
}

func linkRouteAttributes(r LinkRoute) map[string]interface{} {
	attrs := map[string]interface{}{
		"name":      r.Name,
		"direction": string(r.Direction),
	}
	for key, value := range map[string]string{
		"prefix":            r.Prefix,
		"pattern":           r.Pattern,
		"delExternalPrefix": r.DelExternalPrefix,
		"containerId":       r.ContainerID,
		"connection":        r.Connection,
	} {
		if value != "" {
			attrs[key] = value
		}
	}
	return attrs
}

// EntitiesOf returns the entities of the given type in order.
func (c *Config) EntitiesOf(entityType string) []Entity {
	var out []Entity
	for _, e := range c.Entities {
		if e.Type == entityType {
			out = append(out, e)
		}
	}
	return out
}

// Serialize encodes c as router JSON.
func (c *Config) Serialize() ([]byte, error) {
	return json.Marshal(c.Entities)
}

// ConfigMap wraps the serialized configuration in a ConfigMap.
func (c *Config) ConfigMap(namespace, name string) (*corev1.ConfigMap, error) {
	data, err := c.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize router config: %w", err)
	}
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "ConfigMap",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    metadata.NewManagedLabeler(),
		},
		Data: map[string]string{
			ConfigKey: string(data),
		},
	}, nil
}
