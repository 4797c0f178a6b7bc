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
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/manifest"
	"github.com/bordeuax/enmasse/pkg/registry"
)

// ApplyOptions holds the options for the apply command.
type ApplyOptions struct {
	Path            string
	Wait            bool
	TeardownOnError bool
	Timeout         time.Duration
}

func NewApplyCommand(cli *CLI) *cobra.Command {
	opts := ApplyOptions{Wait: true}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Declare resources from manifests",
		Long: Highlight("enmasse-provision apply -f <path>") + "\n\n" +
			"Create or replace every resource found in a manifest file or directory,\n" +
			"then wait for all of them to become ready.\n\n" +
			"A resource in a namespace that does not exist yet gets the namespace\n" +
			"created first.\n\n" +
			"Examples:\n" +
			"  # Declare a plan and an address space and wait for them\n" +
			"  enmasse-provision apply -f ./resources\n\n" +
			"  # Declare without waiting\n" +
			"  enmasse-provision apply -f space.yaml --wait=false\n",
		Args: ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunApply(cmd.Context(), cli, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "file", "f", "", "Path to a manifest file or directory")
	cmd.Flags().BoolVar(&opts.Wait, "wait", opts.Wait, "Wait for every resource to become ready")
	cmd.Flags().BoolVar(&opts.TeardownOnError, "teardown-on-error", false,
		"Delete what was declared, in reverse order, when a create or wait fails")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Readiness budget per resource (default per kind)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func loadObjects(path string) ([]*unstructured.Unstructured, error) {
	objs, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("no resources found in %q", path)
	}
	return manifest.Unstructured(objs), nil
}

func RunApply(ctx context.Context, cli *CLI, opts ApplyOptions) error {
	objs, err := loadObjects(opts.Path)
	if err != nil {
		return err
	}

	env, err := cli.environment(registry.Options{ReadyTimeout: opts.Timeout})
	if err != nil {
		return err
	}

	if err := env.lifecycle.Declare(ctx, opts.Wait, objs...); err != nil {
		if opts.TeardownOnError {
			cli.Println(color.YellowString("Tearing down declared resources"))
			if terr := env.lifecycle.DeleteClassResources(ctx); terr != nil {
				cli.log.Error(terr, "Teardown left resources behind")
			}
		}
		return err
	}

	cli.report("declared", env, objs)
	return nil
}

// DeleteOptions holds the options for the delete command.
type DeleteOptions struct {
	Path    string
	Timeout time.Duration
}

func NewDeleteCommand(cli *CLI) *cobra.Command {
	var opts DeleteOptions

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete resources declared in manifests",
		Long: Highlight("enmasse-provision delete -f <path>") + "\n\n" +
			"Delete every resource found in a manifest file or directory, last one\n" +
			"first, waiting for each to be gone before the next.\n",
		Args: ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunDelete(cmd.Context(), cli, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "file", "f", "", "Path to a manifest file or directory")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Deletion budget per resource (default per kind)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func RunDelete(ctx context.Context, cli *CLI, opts DeleteOptions) error {
	objs, err := loadObjects(opts.Path)
	if err != nil {
		return err
	}

	env, err := cli.environment(registry.Options{DeleteTimeout: opts.Timeout})
	if err != nil {
		return err
	}

	slices.Reverse(objs)
	if err := env.lifecycle.Remove(ctx, objs...); err != nil {
		return err
	}
	cli.report("deleted", env, objs)
	return nil
}

// report prints verb for every object the registry knows how to handle.
func (c *CLI) report(verb string, env *environment, objs []*unstructured.Unstructured) {
	for _, obj := range objs {
		id := enmasse.IdentityOf(obj)
		if _, ok := env.registry.Resolve(id.Kind); !ok {
			c.Printf("%s %s\n", color.YellowString("skipped"), id)
			continue
		}
		c.Printf("%s %s\n", color.GreenString(verb), id)
	}
}
