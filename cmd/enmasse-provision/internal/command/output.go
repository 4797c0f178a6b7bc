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
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/bordeuax/enmasse/pkg/instance"
)

// printStructured writes v as JSON or YAML, following --output.
func (c *CLI) printStructured(v interface{}) error {
	var (
		data []byte
		err  error
	)
	if c.Options.Output == OutputYAML {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = c.Out.Write(data)
	return err
}

func (c *CLI) printInstances(instances []*instance.Instance) error {
	if c.Options.Output != OutputHuman {
		list := &unstructured.UnstructuredList{Object: map[string]interface{}{
			"apiVersion": "v1",
			"kind":       "List",
		}}
		for _, inst := range instances {
			list.Items = append(list.Items, *instance.ToObject(inst))
		}
		return c.printStructured(list)
	}

	headerFmt := color.New(color.FgGreen, color.Bold).SprintfFunc()
	tbl := table.New("ID", "NAMESPACE", "UUID", "MESSAGING", "MQTT", "CONSOLE").
		WithWriter(c.Out).
		WithHeaderFormatter(headerFmt)
	for _, inst := range instances {
		tbl.AddRow(inst.ID.ID, inst.ID.Namespace, orNone(inst.UUID),
			orNone(inst.MessagingHost), orNone(inst.MQTTHost), orNone(inst.ConsoleHost))
	}
	tbl.Print()
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
