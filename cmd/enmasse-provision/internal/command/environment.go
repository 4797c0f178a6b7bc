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

package command

import (
	"github.com/bordeuax/enmasse/pkg/client"
	"github.com/bordeuax/enmasse/pkg/instance"
	"github.com/bordeuax/enmasse/pkg/lifecycle"
	"github.com/bordeuax/enmasse/pkg/registry"
	"github.com/bordeuax/enmasse/pkg/template"
	"github.com/bordeuax/enmasse/pkg/wait"
)

// environment is the engine wired for one command run.
type environment struct {
	cluster   client.Cluster
	waiter    *wait.Waiter
	instances *instance.Manager
	registry  *registry.Registry
	lifecycle *lifecycle.Manager
}

func (c *CLI) environment(opts registry.Options) (*environment, error) {
	cluster, err := c.NewCluster(c.Options)
	if err != nil {
		return nil, err
	}

	waiter := c.Waiter
	if waiter == nil {
		cfg := wait.DefaultConfig()
		cfg.Log = c.log
		waiter = wait.NewWaiter(cfg)
	}

	var renderer template.Renderer = template.NewClusterRenderer(cluster, c.Options.Namespace)
	if c.Options.TemplateDir != "" {
		renderer = template.NewDirRenderer(c.Options.TemplateDir)
	}
	cfg := instance.DefaultConfig()
	cfg.Multitenant = c.Options.Multitenant
	cfg.Namespace = c.Options.Namespace
	cfg.TemplateName = c.Options.TemplateName
	instances := instance.NewManager(c.log, cluster, renderer, cfg)

	reg := registry.Default(cluster, waiter, instances, opts)
	return &environment{
		cluster:   cluster,
		waiter:    waiter,
		instances: instances,
		registry:  reg,
		lifecycle: lifecycle.NewManager(c.log, cluster, reg, lifecycle.Config{}),
	}, nil
}
