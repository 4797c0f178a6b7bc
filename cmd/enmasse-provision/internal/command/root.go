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
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"
	"sigs.k8s.io/release-utils/version"
)

// NewRootCommand returns the enmasse-provision command with its global
// options bound to cli.
func NewRootCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enmasse-provision",
		Short: "Declare, wait for and tear down messaging platform resources",
		Long: Highlight("Usage: enmasse-provision [global options] <subcommand> [args]") + "\n\n" +
			"enmasse-provision drives the control plane of a multi-tenant messaging\n" +
			"platform: it declares address spaces, addresses, plans, users and\n" +
			"instances, waits for them to converge and tears them down again in\n" +
			"reverse order.\n",
		Version:       version.GetVersionInfo().GitVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				_ = cmd.Help()
			}
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cli.Options.AddFlags(cmd.PersistentFlags())
	return cmd
}

// setup resolves the global options of the command about to run and
// installs the logger.
func (c *CLI) setup(cmd *cobra.Command) error {
	var file map[string]interface{}
	if c.Options.ConfigFile != "" {
		var err error
		if file, err = LoadConfigFile(c.Options.ConfigFile); err != nil {
			return err
		}
	}
	if err := ApplyOverrides(cmd.Flags(), file, os.LookupEnv); err != nil {
		return err
	}
	if err := c.Options.Validate(); err != nil {
		return err
	}

	c.log = newLogger(c.ErrOut, c.Options.LogLevel)
	ctrllog.SetLogger(c.log)
	cmd.SetContext(ctrllog.IntoContext(cmd.Context(), c.log))
	return nil
}

func setCobraUsageTemplate(root *cobra.Command) {
	cobra.AddTemplateFunc("StyleHeading", color.RGB(50, 108, 229).SprintFunc())
	usageTemplate := root.UsageTemplate()
	usageTemplate = strings.NewReplacer(
		`Usage:`, `{{StyleHeading "Usage:"}}`,
		`Examples:`, `{{StyleHeading "Examples:"}}`,
		`Available Commands:`, `{{StyleHeading "Available Commands:"}}`,
		`Flags:`, `{{StyleHeading "Options:"}}`,
		`Global Flags:`, `{{StyleHeading "Global Options:"}}`,
	).Replace(usageTemplate)
	root.SetUsageTemplate(usageTemplate)
}

// AddCommands registers all subcommands to the root command.
func AddCommands(root *cobra.Command, cli *CLI) {
	root.AddCommand(
		NewApplyCommand(cli),
		NewDeleteCommand(cli),
		NewInstanceCommand(cli),
		NewWaitCommand(cli),
		NewRouterConfigCommand(cli),
		NewCRDsCommand(cli),
		NewVersionCommand(cli),
	)
}

// Execute runs the command line and exits.
func Execute() {
	cli := NewCLI(os.Stdout, os.Stderr)
	root := NewRootCommand(cli)
	setCobraUsageTemplate(root)
	AddCommands(root, cli)

	// Disable color output if NO_COLOR is set in the environment
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		color.NoColor = true
	}

	if err := root.ExecuteContext(signals.SetupSignalHandler()); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(cli.ErrOut, color.RedString("Error:"), msg)
		}
		os.Exit(1)
	}
}
