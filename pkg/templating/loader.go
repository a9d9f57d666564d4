// Copyright 2025 Philipp Hossner
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

package templating

import (
	"io"
	"strings"

	"github.com/nikolalohinski/gonja/v2/loaders"
	"github.com/pkg/errors"
)

// SimpleLoader serves templates from an in-memory map under flat names.
// The synthesizer's templates ("main", platform modules) have no
// directory hierarchy, so gonja's filesystem-flavored MemoryLoader and
// its mandatory '/' prefixes don't fit.
type SimpleLoader struct {
	templates map[string]string
}

// NewSimpleLoader wraps templates in a loader gonja can compile from.
func NewSimpleLoader(templates map[string]string) loaders.Loader {
	return &SimpleLoader{templates: templates}
}

// Read returns the template source for path.
func (l *SimpleLoader) Read(path string) (io.Reader, error) {
	content, ok := l.templates[path]
	if !ok {
		return nil, errors.Errorf("template not found: %s", path)
	}
	return strings.NewReader(content), nil
}

// Resolve checks existence and returns path unchanged; names are flat.
func (l *SimpleLoader) Resolve(path string) (string, error) {
	if _, ok := l.templates[path]; !ok {
		return "", errors.Errorf("template not found: %s", path)
	}
	return path, nil
}

// Inherit returns the same loader; a flat namespace has no relative
// path context to carry between templates.
func (l *SimpleLoader) Inherit(from string) (loaders.Loader, error) {
	return l, nil
}
