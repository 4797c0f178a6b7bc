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

	"github.com/spf13/cobra"

	"github.com/bordeuax/enmasse/pkg/router"
)

// RouterConfigOptions holds the options for the router-config command.
type RouterConfigOptions struct {
	Path          string
	ConfigMap     string
	WorkerThreads int
	RouterID      string
	CertDir       string
}

func NewRouterConfigCommand(cli *CLI) *cobra.Command {
	var opts RouterConfigOptions
	cmd := &cobra.Command{
		Use:   "router-config",
		Short: "Generate router configuration from link routes",
		Long: Highlight("enmasse-provision router-config -f <linkroutes.yaml>") + "\n\n" +
			"Render a list of link routes into router configuration JSON, or into a\n" +
			"ConfigMap manifest with --configmap.\n\n" +
			"Examples:\n" +
			"  enmasse-provision router-config -f linkroutes.yaml\n" +
			"  enmasse-provision router-config -f linkroutes.yaml --configmap qdrouterd-config -n infra -o yaml\n",
		Args: ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunRouterConfig(cli, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Path, "file", "f", "", "Path to a YAML list of link routes")
	cmd.Flags().StringVar(&opts.ConfigMap, "configmap", "", "Wrap the configuration in a ConfigMap of this name")
	cmd.Flags().IntVar(&opts.WorkerThreads, "worker-threads", 0, "Router worker threads (default 4)")
	cmd.Flags().StringVar(&opts.RouterID, "router-id", "", "Router id (default the pod hostname)")
	cmd.Flags().StringVar(&opts.CertDir, "cert-dir", "", "Directory of the internal TLS material")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func RunRouterConfig(cli *CLI, opts RouterConfigOptions) error {
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return fmt.Errorf("failed to read link routes: %w", err)
	}
	routes, err := router.LoadLinkRoutes(data)
	if err != nil {
		return err
	}

	cfg, err := router.GenerateConfig(router.RouterSpec{
		WorkerThreads: opts.WorkerThreads,
		ID:            opts.RouterID,
		CertDir:       opts.CertDir,
	}, routes)
	if err != nil {
		return err
	}

	if opts.ConfigMap != "" {
		cm, err := cfg.ConfigMap(cli.Options.Namespace, opts.ConfigMap)
		if err != nil {
			return err
		}
		return cli.printStructured(cm)
	}

	out, err := cfg.Serialize()
	if err != nil {
		return err
	}
	cli.Println(string(out))
	return nil
}
