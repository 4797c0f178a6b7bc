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

package client

import (
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/typed/apiextensions/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	defaultQPS   = 100
	defaultBurst = 150
)

// Config contains configuration for building a client Set.
type Config struct {
	// RestConfig takes precedence over Kubeconfig and Context.
	RestConfig *rest.Config
	Kubeconfig string
	Context    string
	QPS        float32
	Burst      int
	UserAgent  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		QPS:       defaultQPS,
		Burst:     defaultBurst,
		UserAgent: "enmasse-provision",
	}
}

// Set bundles the clients of one control plane.
type Set struct {
	config        *rest.Config
	dynamic       dynamic.Interface
	apiExtensions apiextensionsv1.ApiextensionsV1Interface
	mapper        meta.ResettableRESTMapper
	cluster       *DynamicCluster
}

// NewSet creates a client Set. The kubeconfig is resolved the way kubectl
// does it when cfg.RestConfig is nil.
func NewSet(cfg Config) (*Set, error) {
	restConfig := cfg.RestConfig
	if restConfig == nil {
		var err error
		restConfig, err = loadRESTConfig(cfg.Kubeconfig, cfg.Context)
		if err != nil {
			return nil, err
		}
	}
	restConfig = rest.CopyConfig(restConfig)

	if cfg.QPS == 0 {
		cfg.QPS = defaultQPS
	}
	if cfg.Burst == 0 {
		cfg.Burst = defaultBurst
	}
	restConfig.QPS = cfg.QPS
	restConfig.Burst = cfg.Burst
	if cfg.UserAgent != "" {
		restConfig.UserAgent = cfg.UserAgent
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	apiExtensionsClient, err := apiextensionsv1.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create api extensions client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(discoveryClient))

	return &Set{
		config:        restConfig,
		dynamic:       dynamicClient,
		apiExtensions: apiExtensionsClient,
		mapper:        mapper,
		cluster:       NewDynamicCluster(dynamicClient, mapper),
	}, nil
}

func loadRESTConfig(kubeconfig, context string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: context}

	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return config, nil
}

// RESTConfig returns a copy of the rest config of the set.
func (s *Set) RESTConfig() *rest.Config {
	return rest.CopyConfig(s.config)
}

// Dynamic returns the dynamic client.
func (s *Set) Dynamic() dynamic.Interface {
	return s.dynamic
}

// APIExtensionsV1 returns the API extensions client.
func (s *Set) APIExtensionsV1() apiextensionsv1.ApiextensionsV1Interface {
	return s.apiExtensions
}

// CRD returns a CRD wrapper on the set. A zero PollInterval or Timeout in
// cfg falls back to the defaults.
func (s *Set) CRD(cfg CRDWrapperConfig) CRDInterface {
	cfg.Client = s.apiExtensions
	return NewCRDWrapper(cfg)
}

// RESTMapper returns the discovery backed mapper.
func (s *Set) RESTMapper() meta.ResettableRESTMapper {
	return s.mapper
}

// Cluster returns the Cluster view of the set.
func (s *Set) Cluster() *DynamicCluster {
	return s.cluster
}
