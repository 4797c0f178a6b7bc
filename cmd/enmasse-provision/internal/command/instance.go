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

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bordeuax/enmasse/api/enmasse"
	"github.com/bordeuax/enmasse/pkg/instance"
	"github.com/bordeuax/enmasse/pkg/registry"
)

func NewInstanceCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance [subcommand]",
		Short: "Manage messaging platform instances",
		Long: Highlight("enmasse-provision instance [subcommand]") + "\n\n" +
			"Inspect, create and delete instances. In multitenant mode every\n" +
			"instance owns a labeled namespace; otherwise the single instance lives\n" +
			"in --namespace.\n",
	}

	cmd.AddCommand(
		newInstanceGetCommand(cli),
		newInstanceListCommand(cli),
		newInstanceCreateCommand(cli),
		newInstanceDeleteCommand(cli),
	)
	return cmd
}

func newInstanceGetCommand(cli *CLI) *cobra.Command {
	var uuid bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an instance",
		Args:  ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.environment(registry.Options{})
			if err != nil {
				return err
			}
			var inst *instance.Instance
			if uuid {
				inst, err = env.instances.GetByUUID(cmd.Context(), args[0])
			} else {
				inst, err = env.instances.Get(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return cli.printInstances([]*instance.Instance{inst})
		},
	}
	cmd.Flags().BoolVar(&uuid, "uuid", false, "Look the instance up by uuid instead of id")
	return cmd
}

func newInstanceListCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instances",
		Args:  ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.environment(registry.Options{})
			if err != nil {
				return err
			}
			instances, err := env.instances.List(cmd.Context())
			if err != nil {
				return err
			}
			return cli.printInstances(instances)
		},
	}
}

// InstanceCreateOptions holds the options for the instance create command.
type InstanceCreateOptions struct {
	ID            string
	Namespace     string
	UUID          string
	MessagingHost string
	MQTTHost      string
	ConsoleHost   string
	Wait          bool
}

func newInstanceCreateCommand(cli *CLI) *cobra.Command {
	var opts InstanceCreateOptions
	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create an instance",
		Long: Highlight("enmasse-provision instance create <id>") + "\n\n" +
			"Provision the namespace of an instance and render its infrastructure\n" +
			"template into it.\n",
		Args: ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ID = args[0]
			return RunInstanceCreate(cmd.Context(), cli, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Namespace, "instance-namespace", "", "Namespace of the instance (default enmasse-<id>)")
	cmd.Flags().StringVar(&opts.UUID, "uuid", "", "Unique id to tag the instance with")
	cmd.Flags().StringVar(&opts.MessagingHost, "messaging-host", "", "Public hostname of the messaging endpoint")
	cmd.Flags().StringVar(&opts.MQTTHost, "mqtt-host", "", "Public hostname of the MQTT endpoint")
	cmd.Flags().StringVar(&opts.ConsoleHost, "console-host", "", "Public hostname of the console")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "Wait until the instance can be looked up")
	return cmd
}

func RunInstanceCreate(ctx context.Context, cli *CLI, opts InstanceCreateOptions) error {
	env, err := cli.environment(registry.Options{})
	if err != nil {
		return err
	}
	inst := &instance.Instance{
		ID:            instance.ID{ID: opts.ID, Namespace: opts.Namespace},
		UUID:          opts.UUID,
		MessagingHost: opts.MessagingHost,
		MQTTHost:      opts.MQTTHost,
		ConsoleHost:   opts.ConsoleHost,
	}
	if err := env.instances.Create(ctx, inst); err != nil {
		return err
	}
	if opts.Wait {
		rt, ok := env.registry.Resolve(enmasse.KindInstance)
		if !ok {
			return fmt.Errorf("no resource type for instances")
		}
		if err := rt.WaitReady(ctx, instance.ToObject(inst)); err != nil {
			return err
		}
	}
	cli.Printf("%s instance %s\n", color.GreenString("created"), opts.ID)
	return nil
}

func newInstanceDeleteCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an instance",
		Long: Highlight("enmasse-provision instance delete <id>") + "\n\n" +
			"Delete the namespace of an instance. Refused while address space\n" +
			"workloads still run in it.\n",
		Args: ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.environment(registry.Options{})
			if err != nil {
				return err
			}
			inst, err := env.instances.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := env.instances.Delete(cmd.Context(), inst); err != nil {
				if instance.IsResourceInUse(err) {
					cli.Println(color.YellowString("Delete the address spaces of the instance first"))
				}
				return err
			}
			cli.Printf("%s instance %s\n", color.GreenString("deleted"), args[0])
			return nil
		},
	}
}
