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
	"encoding/base64"
	"path/filepath"

	"github.com/pkg/errors"
)

// PathResolver backs the get_path filter: it maps an embedded data name
// to the absolute path the runtime will stage it at on a target host,
// by kind. The kinds mirror the data embedder's blob table: static
// files, decrypted secrets, and module binaries.
type PathResolver struct {
	// StaticFilesDir holds embedded static files, e.g. /var/lib/<binary>/files.
	StaticFilesDir string

	// SecretsDir holds decrypted embedded secrets.
	SecretsDir string

	// ModulesDir holds embedded module binaries.
	ModulesDir string
}

// GetPath resolves an embedded data name to its target-host path.
//
//	{{ "inventory.json" | get_path("file") }}   -> /var/lib/app/files/inventory.json
//	{{ "vault-token" | get_path("secret") }}    -> /var/lib/app/secrets/vault-token
//	{{ "copy" | get_path("module") }}           -> /var/lib/app/modules/copy
func (pr *PathResolver) GetPath(name interface{}, args ...interface{}) (interface{}, error) {
	nameStr, ok := name.(string)
	if !ok {
		return nil, errors.Errorf("get_path: name must be a string, got %T", name)
	}
	if nameStr == "" {
		return nil, errors.New("get_path: name cannot be empty")
	}
	if len(args) == 0 {
		return nil, errors.New(`get_path: kind argument required ("file", "secret", or "module")`)
	}
	kind, ok := args[0].(string)
	if !ok {
		return nil, errors.Errorf("get_path: kind must be a string, got %T", args[0])
	}

	var base string
	switch kind {
	case "file":
		base = pr.StaticFilesDir
	case "secret":
		base = pr.SecretsDir
	case "module":
		base = pr.ModulesDir
	default:
		return nil, errors.Errorf(`get_path: invalid kind %q, must be "file", "secret", or "module"`, kind)
	}

	return filepath.Join(base, nameStr), nil
}

// GlobMatch filters a list of strings by glob pattern, e.g. selecting
// the subset of embedded file names a platform module should stage:
//
//	{% set units = embedded_files | glob_match("*.service") %}
//
// Non-string list items are skipped.
func GlobMatch(in interface{}, args ...interface{}) (interface{}, error) {
	var list []interface{}
	switch v := in.(type) {
	case []interface{}:
		list = v
	case []string:
		list = make([]interface{}, len(v))
		for i, s := range v {
			list[i] = s
		}
	default:
		return nil, errors.Errorf("glob_match: input must be a list, got %T", in)
	}

	if len(args) == 0 {
		return nil, errors.New("glob_match: pattern argument required")
	}
	pattern, ok := args[0].(string)
	if !ok {
		return nil, errors.Errorf("glob_match: pattern must be a string, got %T", args[0])
	}

	var matched []interface{}
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		ok, err := filepath.Match(pattern, s)
		if err != nil {
			return nil, errors.Wrapf(err, "glob_match: invalid pattern %q", pattern)
		}
		if ok {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// B64Decode decodes a base64 string. Secret values travel through the
// plan as base64 text, so templates need this to reach the plain
// content:
//
//	{{ secrets.registry_password | b64decode }}
func B64Decode(in interface{}, args ...interface{}) (interface{}, error) {
	s, ok := in.(string)
	if !ok {
		return nil, errors.Errorf("b64decode: input must be a string, got %T", in)
	}

	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "b64decode")
	}
	return string(decoded), nil
}
