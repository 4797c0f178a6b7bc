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
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/bordeuax/enmasse/pkg/client"
	"github.com/bordeuax/enmasse/pkg/wait"
)

// CLI holds shared state and is propagated from root to subcommands.
type CLI struct {
	Out    io.Writer
	ErrOut io.Writer

	Options GlobalOptions

	// NewCluster builds the control plane client from the global options.
	NewCluster func(opts GlobalOptions) (client.Cluster, error)
	// NewCRDClient builds the CRD client from the global options.
	NewCRDClient func(opts GlobalOptions) (client.CRDInterface, error)
	// Waiter polls for convergence. Nil means a waiter on the real clock.
	Waiter *wait.Waiter

	log logr.Logger
}

// NewCLI returns a CLI writing to out and errOut and talking to the cluster
// of the resolved kubeconfig.
func NewCLI(out, errOut io.Writer) *CLI {
	return &CLI{
		Out:          out,
		ErrOut:       errOut,
		Options:      DefaultGlobalOptions(),
		NewCluster:   newCluster,
		NewCRDClient: newCRDClient,
		log:          logr.Discard(),
	}
}

func newSet(opts GlobalOptions) (*client.Set, error) {
	cfg := client.DefaultConfig()
	cfg.Kubeconfig = opts.Kubeconfig
	cfg.Context = opts.Context
	if opts.QPS > 0 {
		cfg.QPS = opts.QPS
	}
	if opts.Burst > 0 {
		cfg.Burst = opts.Burst
	}
	set, err := client.NewSet(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client set: %w", err)
	}
	return set, nil
}

func newCluster(opts GlobalOptions) (client.Cluster, error) {
	set, err := newSet(opts)
	if err != nil {
		return nil, err
	}
	return set.Cluster(), nil
}

func newCRDClient(opts GlobalOptions) (client.CRDInterface, error) {
	set, err := newSet(opts)
	if err != nil {
		return nil, err
	}
	return set.CRD(client.DefaultCRDWrapperConfig()), nil
}

// Println writes arguments to the output with a newline.
func (c *CLI) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Printf writes formatted output.
func (c *CLI) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Highlight applies a blue color to the given format and arguments.
func Highlight(format string, a ...any) string {
	return color.RGB(50, 108, 229).Sprintf(format, a...)
}

// ExactArgs returns an error if there is not the exact number of args.
func ExactArgs(number int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == number {
			return nil
		}
		return fmt.Errorf("expected %d arguments, got %d", number, len(args))
	}
}

// MaxArgs returns an error if there are more than the max number of args.
func MaxArgs(number int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) <= number {
			return nil
		}
		return fmt.Errorf("expected at most %d arguments, got %d", number, len(args))
	}
}
