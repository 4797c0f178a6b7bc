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

// Package manifest reads multi-document YAML manifests into unstructured
// objects.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	yamlutil "sigs.k8s.io/yaml"

	"github.com/bordeuax/enmasse/pkg/metadata"
)

// Object is a decoded manifest document and the file it came from.
type Object struct {
	*unstructured.Unstructured
	Filename string
}

// String returns a string representation of the object
func (o Object) String() string {
	return fmt.Sprintf("%s/%s[%s]", o.GetKind(), o.GetName(), o.Filename)
}

// Decode splits content into YAML documents and decodes each of them.
// Empty documents are skipped.
func Decode(content []byte) ([]*unstructured.Unstructured, error) {
	var out []*unstructured.Unstructured

	// Split content into multiple documents
	docs := bytes.Split(content, []byte("\n---"))
	for i, doc := range docs {
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}

		var obj unstructured.Unstructured
		if err := yamlutil.Unmarshal(doc, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", i, err)
		}
		if obj.Object == nil {
			continue
		}
		if _, err := metadata.ExtractGVKFromUnstructured(obj.Object); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, &obj)
	}
	return out, nil
}

// LoadFile decodes every document of a single file.
func LoadFile(path string) ([]Object, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	objs, err := Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file %s: %w", path, err)
	}

	out := make([]Object, 0, len(objs))
	for _, obj := range objs {
		out = append(out, Object{Unstructured: obj, Filename: filepath.Base(path)})
	}
	return out, nil
}

// Load reads path, a single file or a directory walked recursively. Files
// are read in lexical order and documents keep their order within a file.
func Load(path string) ([]Object, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return LoadFile(path)
	}

	var files []string
	err = filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isYAML(info.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	sort.Strings(files)

	var out []Object
	for _, f := range files {
		objs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, objs...)
	}
	return out, nil
}

// Unstructured strips the file information off objs.
func Unstructured(objs []Object) []*unstructured.Unstructured {
	out := make([]*unstructured.Unstructured, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Unstructured)
	}
	return out
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
