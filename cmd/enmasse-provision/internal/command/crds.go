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

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"sigs.k8s.io/yaml"

	"github.com/bordeuax/enmasse/pkg/crds"
)

func NewCRDsCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crds [subcommand]",
		Short: "Manage the CustomResourceDefinitions of the platform kinds",
	}
	cmd.AddCommand(
		newCRDsPrintCommand(cli),
		newCRDsInstallCommand(cli),
		newCRDsUninstallCommand(cli),
	)
	return cmd
}

func newCRDsPrintCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the CRD manifests",
		Args:  ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			all := crds.All()
			if cli.Options.Output != OutputHuman {
				return cli.printStructured(map[string]interface{}{
					"apiVersion": "v1",
					"kind":       "List",
					"items":      all,
				})
			}
			for _, crd := range all {
				data, err := yaml.Marshal(crd)
				if err != nil {
					return fmt.Errorf("failed to encode %s: %w", crd.Name, err)
				}
				cli.Printf("---\n%s", data)
			}
			return nil
		},
	}
}

func newCRDsInstallCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Create or update the CRDs and wait until they are established",
		Long: Highlight("enmasse-provision crds install") + "\n\n" +
			"Create every platform CRD that is missing and update the ones managed\n" +
			"by enmasse whose definition changed. CRDs owned by someone else are\n" +
			"reported and left alone.\n",
		Args: ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			crdClient, err := cli.NewCRDClient(cli.Options)
			if err != nil {
				return err
			}
			var errs error
			for _, crd := range crds.All() {
				if err := crdClient.Ensure(cmd.Context(), *crd); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s: %w", crd.Name, err))
					continue
				}
				cli.Printf("%s %s\n", color.GreenString("installed"), crd.Name)
			}
			return errs
		},
	}
}

func newCRDsUninstallCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Delete the CRDs, and with them every platform resource",
		Args:  ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			crdClient, err := cli.NewCRDClient(cli.Options)
			if err != nil {
				return err
			}
			all := crds.All()
			for i := len(all) - 1; i >= 0; i-- {
				if err := crdClient.Delete(cmd.Context(), all[i].Name); err != nil {
					return err
				}
				cli.Printf("%s %s\n", color.GreenString("deleted"), all[i].Name)
			}
			return nil
		},
	}
}
