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
	"context"
	"fmt"
	"sort"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/client"
	"github.com/bordeuax/enmasse/pkg/metadata"
	"github.com/bordeuax/enmasse/pkg/template"
)

// Names of the routes exposing an instance.
const (
	MessagingRoute = "messaging"
	MQTTRoute      = "mqtt"
	ConsoleRoute   = "console"
)

// Template parameters passed when rendering the instance infrastructure.
const (
	ParamInstance              = "INSTANCE"
	ParamMessagingHostname     = "MESSAGING_HOSTNAME"
	ParamMQTTHostname          = "MQTT_HOSTNAME"
	ParamConsoleHostname       = "CONSOLE_HOSTNAME"
	ParamKafkaBootstrapServers = "KAFKA_BOOTSTRAP_SERVERS"
)

const (
	defaultTemplateName = "enmasse-instance-infra"
	defaultViewRole     = "view"
	defaultParallelism  = 8
)

// Config contains configuration for the instance Manager.
type Config struct {
	// Multitenant maps every instance onto its own labeled namespace. When
	// false the manager serves a single instance living in Namespace.
	Multitenant bool
	// Namespace holds the single instance when Multitenant is false.
	Namespace string
	// InstanceID is the id of the single instance; defaults to Namespace.
	InstanceID   string
	TemplateName string
	// App is the value of the app label selecting instance namespaces.
	App string
	// Parallelism bounds concurrent endpoint lookups while listing.
	Parallelism int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Multitenant:  true,
		TemplateName: defaultTemplateName,
		App:          metadata.DefaultAppValue,
		Parallelism:  defaultParallelism,
	}
}

// Manager maps instances onto namespaces.
type Manager struct {
	cluster  client.Cluster
	renderer template.Renderer
	cfg      Config
	log      logr.Logger
}

// NewManager creates a Manager. Zero fields of cfg take their defaults.
func NewManager(log logr.Logger, cluster client.Cluster, renderer template.Renderer, cfg Config) *Manager {
	if cfg.TemplateName == "" {
		cfg.TemplateName = defaultTemplateName
	}
	if cfg.App == "" {
		cfg.App = metadata.DefaultAppValue
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = cfg.Namespace
	}
	return &Manager{
		cluster:  cluster,
		renderer: renderer,
		cfg:      cfg,
		log:      log.WithName("instance-manager"),
	}
}

// Multitenant reports the mode of the manager.
func (m *Manager) Multitenant() bool {
	return m.cfg.Multitenant
}

// Get returns the instance with the given id. In single tenant mode the
// configured instance is returned whatever the id.
func (m *Manager) Get(ctx context.Context, id string) (*Instance, error) {
	if !m.cfg.Multitenant {
		return m.buildInstance(ctx, ID{ID: m.cfg.InstanceID, Namespace: m.cfg.Namespace}, "")
	}
	return m.findOne(ctx, metadata.NewInstanceSelector(m.cfg.App, id), id)
}

// GetByUUID returns the instance tagged with uuid. Instances are never
// tagged in single tenant mode.
func (m *Manager) GetByUUID(ctx context.Context, uuid string) (*Instance, error) {
	if !m.cfg.Multitenant {
		return nil, fmt.Errorf("uuid %s: %w", uuid, ErrNotFound)
	}
	return m.findOne(ctx, metadata.NewInstanceUUIDSelector(m.cfg.App, uuid), uuid)
}

func (m *Manager) findOne(ctx context.Context, selector labels.Selector, what string) (*Instance, error) {
	instances, err := m.list(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return instances[0], nil
}

// List returns every instance, sorted by id.
func (m *Manager) List(ctx context.Context) ([]*Instance, error) {
	if !m.cfg.Multitenant {
		inst, err := m.Get(ctx, m.cfg.InstanceID)
		if err != nil {
			return nil, err
		}
		return []*Instance{inst}, nil
	}
	return m.list(ctx, metadata.NewInstancesSelector(m.cfg.App))
}

func (m *Manager) list(ctx context.Context, selector labels.Selector) ([]*Instance, error) {
	namespaces, err := m.cluster.List(ctx, enmasse.MustLookup(enmasse.KindNamespace).GVK, "", selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list instance namespaces: %w", err)
	}

	instances := make([]*Instance, len(namespaces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Parallelism)
	for i, ns := range namespaces {
		g.Go(func() error {
			nsLabels := ns.GetLabels()
			id := ID{ID: nsLabels[metadata.InstanceLabel], Namespace: ns.GetName()}
			inst, err := m.buildInstance(gctx, id, nsLabels[metadata.UUIDLabel])
			if err != nil {
				return err
			}
			instances[i] = inst
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].ID.ID < instances[j].ID.ID
	})
	return instances, nil
}

func (m *Manager) buildInstance(ctx context.Context, id ID, uuid string) (*Instance, error) {
	routes, err := m.cluster.List(ctx, enmasse.RouteGVK, id.Namespace, nil)
	if err != nil {
		if !meta.IsNoMatchError(err) {
			return nil, fmt.Errorf("failed to list routes of instance %s: %w", id, err)
		}
		// no route API, so no public endpoints
		routes = nil
	}

	hosts := map[string]string{}
	for _, r := range routes {
		host, _, _ := unstructured.NestedString(r.Object, "spec", "host")
		hosts[r.GetName()] = host
	}
	return &Instance{
		ID:            id,
		UUID:          uuid,
		MessagingHost: hosts[MessagingRoute],
		MQTTHost:      hosts[MQTTRoute],
		ConsoleHost:   hosts[ConsoleRoute],
	}, nil
}

// Create provisions inst: in multitenant mode its namespace and a default
// view policy, then the rendered infrastructure template.
func (m *Manager) Create(ctx context.Context, inst *Instance) error {
	id := m.resolveID(inst.ID)
	log := m.log.WithValues("instance", id.ID, "namespace", id.Namespace)

	if m.cfg.Multitenant {
		var nsLabeler metadata.Labeler = metadata.NewInstanceLabeler(m.cfg.App, id.ID)
		if inst.UUID != "" {
			merged, err := nsLabeler.Merge(metadata.NewUUIDLabeler(inst.UUID))
			if err != nil {
				return fmt.Errorf("failed to label namespace of instance %s: %w", id, err)
			}
			nsLabeler = merged
		}
		log.Info("Creating instance namespace")
		if _, err := m.cluster.CreateNamespace(ctx, id.Namespace, nsLabeler.Labels()); err != nil {
			return fmt.Errorf("failed to create namespace of instance %s: %w", id, err)
		}
		if err := m.addDefaultViewPolicy(ctx, id); err != nil {
			return err
		}
	}

	params := map[string]string{
		ParamInstance:              SanitizeName(id.ID),
		ParamMessagingHostname:     inst.MessagingHost,
		ParamMQTTHostname:          inst.MQTTHost,
		ParamConsoleHostname:       inst.ConsoleHost,
		ParamKafkaBootstrapServers: "",
	}
	objs, err := m.renderer.Render(ctx, m.cfg.TemplateName, params)
	if err != nil {
		return fmt.Errorf("failed to render infrastructure of instance %s: %w", id, err)
	}

	for _, obj := range objs {
		if inst.UUID != "" {
			metadata.NewUUIDLabeler(inst.UUID).ApplyLabels(obj)
		}
		obj.SetNamespace(id.Namespace)
		log.V(1).Info("Creating infrastructure object", "kind", obj.GetKind(), "name", obj.GetName())
		if _, err := m.cluster.CreateOrReplace(ctx, obj); err != nil {
			return fmt.Errorf("failed to create %s/%s for instance %s: %w", obj.GetKind(), obj.GetName(), id, err)
		}
	}
	log.Info("Instance created", "objects", len(objs))
	return nil
}

func (m *Manager) addDefaultViewPolicy(ctx context.Context, id ID) error {
	rb := &rbacv1.RoleBinding{
		TypeMeta: metav1.TypeMeta{
			APIVersion: rbacv1.SchemeGroupVersion.String(),
			Kind:       "RoleBinding",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      defaultViewRole,
			Namespace: id.Namespace,
			Labels:    metadata.NewManagedLabeler(),
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     defaultViewRole,
		},
		Subjects: []rbacv1.Subject{{
			APIGroup: rbacv1.GroupName,
			Kind:     rbacv1.GroupKind,
			Name:     "system:serviceaccounts:" + id.Namespace,
		}},
	}
	obj, err := client.ToUnstructured(rb)
	if err != nil {
		return err
	}
	if _, err := m.cluster.CreateOrReplace(ctx, obj); err != nil {
		return fmt.Errorf("failed to add view policy to instance %s: %w", id, err)
	}
	return nil
}

// Delete removes the namespace of inst with everything in it. It fails with
// a *ResourceInUseError and touches nothing while address space workloads
// still run in the namespace.
func (m *Manager) Delete(ctx context.Context, inst *Instance) error {
	id := m.resolveID(inst.ID)
	log := m.log.WithValues("instance", id.ID, "namespace", id.Namespace)

	workloads, err := m.activeWorkloads(ctx, id.Namespace)
	if err != nil {
		return err
	}
	if len(workloads) > 0 {
		log.Info("Refusing to delete instance with active workloads", "workloads", workloads)
		return &ResourceInUseError{Instance: id, Workloads: workloads}
	}

	ns := &unstructured.Unstructured{}
	ns.SetGroupVersionKind(enmasse.MustLookup(enmasse.KindNamespace).GVK)
	ns.SetName(id.Namespace)
	log.Info("Deleting instance namespace")
	if err := m.cluster.Delete(ctx, ns, true); err != nil {
		return fmt.Errorf("failed to delete instance %s: %w", id, err)
	}
	return nil
}

func (m *Manager) activeWorkloads(ctx context.Context, namespace string) ([]string, error) {
	var names []string
	for _, gvk := range workloadKinds {
		items, err := m.cluster.List(ctx, gvk, namespace, metadata.NewWorkloadSelector())
		if err != nil {
			if apierrors.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s in %s: %w", gvk.Kind, namespace, err)
		}
		for _, item := range items {
			names = append(names, fmt.Sprintf("%s/%s", gvk.Kind, item.GetName()))
		}
	}
	return names, nil
}

var workloadKinds = []schema.GroupVersionKind{enmasse.DeploymentGVK, enmasse.StatefulSetGVK}

func (m *Manager) resolveID(id ID) ID {
	if !m.cfg.Multitenant {
		if id.ID == "" {
			id.ID = m.cfg.InstanceID
		}
		id.Namespace = m.cfg.Namespace
		return id
	}
	if id.Namespace == "" {
		id.Namespace = DefaultNamespace(id.ID)
	}
	return id
}
