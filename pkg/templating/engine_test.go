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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CompilesAllTemplates(t *testing.T) {
	engine, err := New(EngineTypeGonja, map[string]string{
		"main":     "package main\n",
		"platform": "package main // {{ os_name }}\n",
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"main", "platform"}, engine.TemplateNames())
	assert.True(t, engine.HasTemplate("main"))
	assert.False(t, engine.HasTemplate("manifest"))
	assert.Equal(t, EngineTypeGonja, engine.EngineType())
}

func TestNew_SyntaxErrorSurfacesAtConstruction(t *testing.T) {
	_, err := New(EngineTypeGonja, map[string]string{
		"main": "{% for task in tasks %}{{ task.id }}",
	}, nil, nil)
	require.Error(t, err)

	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "main", compErr.TemplateName)
}

func TestNew_UnsupportedEngineType(t *testing.T) {
	_, err := New(EngineType(42), map[string]string{}, nil, nil)

	var engErr *UnsupportedEngineError
	require.ErrorAs(t, err, &engErr)
}

func TestRender_SubstitutesContext(t *testing.T) {
	engine, err := New(EngineTypeGonja, map[string]string{
		"main": "var runtimeConfig = RuntimeConfig{Endpoint: {{ endpoint }}}",
	}, nil, nil)
	require.NoError(t, err)

	out, err := engine.Render("main", map[string]interface{}{"endpoint": `"http://controller:8080"`})
	require.NoError(t, err)
	assert.Equal(t, `var runtimeConfig = RuntimeConfig{Endpoint: "http://controller:8080"}`, out)
}

func TestRender_ForLoopOverModules(t *testing.T) {
	engine, err := New(EngineTypeGonja, map[string]string{
		"dispatch": `var moduleDispatch = map[string]handler{
{% for module in modules %}
	{{ module.literal }}: dispatch_{{ module.name }},
{% endfor %}
}`,
	}, nil, nil)
	require.NoError(t, err)

	out, err := engine.Render("dispatch", map[string]interface{}{
		"modules": []map[string]interface{}{
			{"name": "debug", "literal": `"debug"`},
			{"name": "copy", "literal": `"copy"`},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"debug": dispatch_debug,`)
	assert.Contains(t, out, `"copy": dispatch_copy,`)
}

func TestRender_MissingTemplate(t *testing.T) {
	engine, err := New(EngineTypeGonja, map[string]string{"main": "x"}, nil, nil)
	require.NoError(t, err)

	_, err = engine.Render("manifest", nil)

	var notFound *TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "manifest", notFound.TemplateName)
	assert.Equal(t, []string{"main"}, notFound.AvailableTemplates)
}

func TestRender_NilContext(t *testing.T) {
	engine, err := New(EngineTypeGonja, map[string]string{"main": "static output"}, nil, nil)
	require.NoError(t, err)

	out, err := engine.Render("main", nil)
	require.NoError(t, err)
	assert.Equal(t, "static output", out)
}

func TestRender_CustomFilters(t *testing.T) {
	resolver := &PathResolver{
		StaticFilesDir: "/var/lib/zerohop/files",
		SecretsDir:     "/var/lib/zerohop/secrets",
		ModulesDir:     "/var/lib/zerohop/modules",
	}

	engine, err := New(EngineTypeGonja, map[string]string{
		"paths": `{{ "inventory.json" | get_path("file") }}`,
	}, map[string]FilterFunc{"get_path": resolver.GetPath}, nil)
	require.NoError(t, err)

	out, err := engine.Render("paths", nil)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/zerohop/files/inventory.json", out)
}

func TestRender_CustomFilterErrorPropagates(t *testing.T) {
	resolver := &PathResolver{}
	engine, err := New(EngineTypeGonja, map[string]string{
		"paths": `{{ "inventory.json" | get_path("volume") }}`,
	}, map[string]FilterFunc{"get_path": resolver.GetPath}, nil)
	require.NoError(t, err)

	_, err = engine.Render("paths", nil)
	require.Error(t, err)

	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)
}

func TestRender_TrimBlocksKeepsGeneratedSourceClean(t *testing.T) {
	engine, err := New(EngineTypeGonja, map[string]string{
		"main": "{% if verbose %}\nverbose = true\n{% endif %}\ndone",
	}, nil, nil)
	require.NoError(t, err)

	out, err := engine.Render("main", map[string]interface{}{"verbose": true})
	require.NoError(t, err)
	assert.Equal(t, "verbose = true\ndone", out)
}

func TestGetRawTemplate(t *testing.T) {
	src := "package main // generated"
	engine, err := New(EngineTypeGonja, map[string]string{"main": src}, nil, nil)
	require.NoError(t, err)

	raw, err := engine.GetRawTemplate("main")
	require.NoError(t, err)
	assert.Equal(t, src, raw)

	_, err = engine.GetRawTemplate("missing")
	assert.Error(t, err)
}
