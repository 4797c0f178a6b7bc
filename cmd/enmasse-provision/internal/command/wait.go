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
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/registry"
	"github.com/bordeuax/enmasse/pkg/statematcher"
	"github.com/bordeuax/enmasse/pkg/wait"
)

func NewWaitCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait [subcommand]",
		Short: "Wait for resources to converge",
	}
	cmd.AddCommand(newWaitAddressesCommand(cli))
	return cmd
}

// WaitAddressesOptions holds the options for the wait addresses command.
type WaitAddressesOptions struct {
	Path      string
	Predicate string
	Timeout   time.Duration
	Exact     bool
}

func newWaitAddressesCommand(cli *CLI) *cobra.Command {
	opts := WaitAddressesOptions{
		Predicate: statematcher.Ready.Name,
		Timeout:   statematcher.DefaultBudget,
	}
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Wait until addresses satisfy a predicate",
		Long: Highlight("enmasse-provision wait addresses -f <path> --predicate <name>") + "\n\n" +
			"Poll the addresses of the cluster until every address declared in the\n" +
			"manifests satisfies the predicate, one of:\n" +
			"  " + predicateNames() + "\n",
		Args: ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunWaitAddresses(cmd.Context(), cli, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Path, "file", "f", "", "Path to a manifest file or directory")
	cmd.Flags().StringVar(&opts.Predicate, "predicate", opts.Predicate, "Predicate every address must satisfy")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "How long to wait")
	cmd.Flags().BoolVar(&opts.Exact, "exact", false, "Match observed addresses by exact name instead of containment")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func predicateNames() string {
	names := lo.Keys(statematcher.Predicates())
	sort.Strings(names)
	return fmt.Sprint(names)
}

func RunWaitAddresses(ctx context.Context, cli *CLI, opts WaitAddressesOptions) error {
	pred, ok := statematcher.Predicates()[opts.Predicate]
	if !ok {
		return fmt.Errorf("unknown predicate %q, expected one of %s", opts.Predicate, predicateNames())
	}

	objs, err := loadObjects(opts.Path)
	if err != nil {
		return err
	}
	addresses := lo.Filter(objs, func(obj *unstructured.Unstructured, _ int) bool {
		return obj.GetKind() == string(enmasse.KindAddress)
	})
	if len(addresses) == 0 {
		return fmt.Errorf("no addresses found in %q", opts.Path)
	}

	env, err := cli.environment(registry.Options{})
	if err != nil {
		return err
	}

	waitOpts := []statematcher.Option{statematcher.WithLogger(cli.log)}
	if opts.Exact {
		waitOpts = append(waitOpts, statematcher.WithNameMatcher(statematcher.Exact))
	}
	err = statematcher.WaitForMatch(ctx, env.waiter, statematcher.AddressLister(env.cluster, addresses...),
		addresses, pred, env.waiter.Budget(opts.Timeout), waitOpts...)
	if te, ok := wait.AsTimeout(err); ok {
		if unmatched, ok := te.Diagnostics.(statematcher.Unmatched); ok {
			for _, key := range unmatched.Keys() {
				cli.Printf("%s %s\n", color.RedString("unmatched"), key)
			}
		}
		return err
	}
	if err != nil {
		return err
	}
	cli.Printf("%s %d addresses are %s\n", color.GreenString("ok"), len(addresses), pred.Name)
	return nil
}
