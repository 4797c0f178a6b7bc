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
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/bordeuax/enmasse/pkg/features"
	"github.com/bordeuax/enmasse/pkg/instance"
)

// EnvPrefix prefixes the environment variables overriding global flags.
const EnvPrefix = "ENMASSE_"

// Output formats.
const (
	OutputHuman = "human"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// GlobalOptions are the settings shared by every subcommand. Each one can be
// set by flag, by ENMASSE_<FLAG> environment variable or in the --config
// TOML file, in that order of precedence.
type GlobalOptions struct {
	Kubeconfig string
	Context    string
	QPS        float32
	Burst      int

	// Namespace holds the single instance and its template when not
	// multitenant.
	Namespace    string
	Multitenant  bool
	TemplateName string
	// TemplateDir renders instance templates from local files instead of
	// Template objects on the cluster.
	TemplateDir string

	LogLevel   int
	Output     string
	ConfigFile string
}

// DefaultGlobalOptions returns GlobalOptions with default values.
func DefaultGlobalOptions() GlobalOptions {
	cfg := instance.DefaultConfig()
	return GlobalOptions{
		Namespace:    "enmasse-infra",
		Multitenant:  cfg.Multitenant,
		TemplateName: cfg.TemplateName,
		Output:       OutputHuman,
	}
}

// AddFlags registers the options on fs.
func (o *GlobalOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Kubeconfig, "kubeconfig", o.Kubeconfig, "Path to the kubeconfig file. Defaults to the kubectl resolution rules.")
	fs.StringVar(&o.Context, "context", o.Context, "Kubeconfig context to use.")
	fs.Float32Var(&o.QPS, "client-qps", o.QPS, "The number of queries per second to allow.")
	fs.IntVar(&o.Burst, "client-burst", o.Burst, "The number of requests that can be queued before enforcing the QPS limit.")
	fs.StringVarP(&o.Namespace, "namespace", "n", o.Namespace, "Namespace of the infrastructure in single tenant mode.")
	fs.BoolVar(&o.Multitenant, "multitenant", o.Multitenant, "Map every instance onto its own namespace.")
	fs.StringVar(&o.TemplateName, "template", o.TemplateName, "Name of the instance infrastructure template.")
	fs.StringVar(&o.TemplateDir, "template-dir", o.TemplateDir, "Render instance templates from <dir>/<template>.yaml.")
	fs.IntVar(&o.LogLevel, "log-level", o.LogLevel, "The log level verbosity. 0 is the least verbose, 5 is the most verbose.")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (human | json | yaml)")
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to a TOML file with default values for these flags.")
	features.FeatureGate.AddFlag(fs)
}

// Validate checks the options once every source has been applied.
func (o *GlobalOptions) Validate() error {
	switch o.Output {
	case OutputHuman, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format %q", o.Output)
	}
	if !o.Multitenant && o.Namespace == "" {
		return fmt.Errorf("--namespace is required in single tenant mode")
	}
	return nil
}

// EnvName returns the environment variable overriding flag.
func EnvName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// LoadConfigFile decodes a TOML file of flag name to value.
func LoadConfigFile(path string) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return values, nil
}

// ApplyOverrides sets every flag of fs not given on the command line from
// the environment, then from file.
func ApplyOverrides(fs *pflag.FlagSet, file map[string]interface{}, lookupEnv func(string) (string, bool)) error {
	for key := range file {
		if fs.Lookup(key) == nil {
			return fmt.Errorf("unknown config key %q", key)
		}
	}

	var errs error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "config" {
			return
		}
		if v, ok := lookupEnv(EnvName(f.Name)); ok {
			if err := fs.Set(f.Name, v); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", EnvName(f.Name), err))
			}
			return
		}
		v, ok := file[f.Name]
		if !ok {
			return
		}
		switch v.(type) {
		case map[string]interface{}, []interface{}, []map[string]interface{}:
			errs = multierr.Append(errs, fmt.Errorf("config key %q: expected a scalar value", f.Name))
			return
		}
		if err := fs.Set(f.Name, fmt.Sprint(v)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("config key %q: %w", f.Name, err))
		}
	})
	return errs
}
