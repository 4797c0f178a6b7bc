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

package template

import (
	"context"
	"fmt"
	"path/filepath"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bordeuax/enmasse/pkg/manifest"
)

var _ Renderer = (*DirRenderer)(nil)

// DirRenderer renders <dir>/<name>.yaml manifests.
type DirRenderer struct {
	dir string
}

func NewDirRenderer(dir string) *DirRenderer {
	return &DirRenderer{dir: dir}
}

// Render loads the manifest file of the template and substitutes params.
func (r *DirRenderer) Render(_ context.Context, name string, params map[string]string) ([]*unstructured.Unstructured, error) {
	objs, err := manifest.LoadFile(filepath.Join(r.dir, name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", name, err)
	}

	resolver, err := NewResolver(params)
	if err != nil {
		return nil, err
	}
	out := make([]*unstructured.Unstructured, 0, len(objs))
	for _, o := range objs {
		rendered, err := resolver.Substitute(o.Object)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		out = append(out, &unstructured.Unstructured{Object: rendered})
	}
	return out, nil
}
