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
	"sort"

	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/pkg/errors"
)

// FilterFunc is the signature for custom template filters. The input is
// the piped value; args are the filter's positional arguments.
//
// Example, registering the embedded-path resolver:
//
//	resolver := &PathResolver{StaticFilesDir: "/var/lib/zerohop/files"}
//	engine, err := New(EngineTypeGonja, sources,
//		map[string]FilterFunc{"get_path": resolver.GetPath}, nil)
type FilterFunc func(in interface{}, args ...interface{}) (interface{}, error)

// TemplateEngine renders the synthesizer's source-tree templates. All
// templates are compiled at construction so a syntax error surfaces
// before any plan is embedded or any backend is invoked, and rendering
// is a pure lookup-and-execute.
type TemplateEngine struct {
	engineType        EngineType
	rawTemplates      map[string]string
	compiledTemplates map[string]*exec.Template
	postProcessors    map[string][]PostProcessor
}

// New compiles every template in templates and returns an engine ready
// to render them. customFilters are registered on top of gonja's
// builtins; postProcessorConfigs attach output transformations per
// template name (applied in order after rendering).
func New(engineType EngineType, templates map[string]string, customFilters map[string]FilterFunc, postProcessorConfigs map[string][]PostProcessorConfig) (*TemplateEngine, error) {
	if engineType != EngineTypeGonja {
		return nil, NewUnsupportedEngineError(engineType)
	}

	e := &TemplateEngine{
		engineType:        engineType,
		rawTemplates:      make(map[string]string, len(templates)),
		compiledTemplates: make(map[string]*exec.Template, len(templates)),
		postProcessors:    make(map[string][]PostProcessor, len(postProcessorConfigs)),
	}

	loader := NewSimpleLoader(templates)
	cfg := gonjaConfig()
	environment := buildEnvironment(customFilters)

	for name, content := range templates {
		e.rawTemplates[name] = content
		compiled, err := exec.NewTemplate(name, cfg, loader, environment)
		if err != nil {
			return nil, NewCompilationError(name, content, err)
		}
		e.compiledTemplates[name] = compiled
	}

	for name, configs := range postProcessorConfigs {
		processors := make([]PostProcessor, 0, len(configs))
		for _, pc := range configs {
			processor, err := NewPostProcessor(pc)
			if err != nil {
				return nil, errors.Wrapf(err, "post-processor for template %q", name)
			}
			processors = append(processors, processor)
		}
		e.postProcessors[name] = processors
	}

	return e, nil
}

// gonjaConfig returns the delimiter and whitespace settings shared by
// every synthesized source template. TrimBlocks and LeftStripBlocks keep
// {% for %} scaffolding from leaving blank lines and stray indentation
// in generated Go source.
func gonjaConfig() *config.Config {
	return &config.Config{
		BlockStartString:    "{%",
		BlockEndString:      "%}",
		VariableStartString: "{{",
		VariableEndString:   "}}",
		CommentStartString:  "{#",
		CommentEndString:    "#}",
		AutoEscape:          false,
		StrictUndefined:     false,
		TrimBlocks:          true,
		LeftStripBlocks:     true,
	}
}

// buildEnvironment layers customFilters over gonja's builtin filter set.
// The builtin set is cloned first; FilterSet.Update mutates in place and
// the builtins are package-global, so registering directly on them would
// leak one engine's filters into every other engine in the process.
func buildEnvironment(customFilters map[string]FilterFunc) *exec.Environment {
	filters := exec.NewFilterSet(map[string]exec.FilterFunction{}).Update(builtins.Filters)

	if len(customFilters) > 0 {
		wrapped := make(map[string]exec.FilterFunction, len(customFilters))
		for name, fn := range customFilters {
			wrapped[name] = wrapCustomFilter(fn)
		}
		filters = filters.Update(exec.NewFilterSet(wrapped))
	}

	return &exec.Environment{
		Filters:           filters,
		Tests:             builtins.Tests,
		ControlStructures: builtins.ControlStructures,
		Methods:           builtins.Methods,
		Context:           builtins.GlobalFunctions,
	}
}

// wrapCustomFilter adapts a FilterFunc to gonja's evaluator-level filter
// signature. Errors already flowing through the pipe are passed along
// untouched so the first failure in a chain is the one reported.
func wrapCustomFilter(fn FilterFunc) exec.FilterFunction {
	return func(e *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
		if in.IsError() {
			return in
		}

		var args []interface{}
		if params != nil {
			for _, arg := range params.Args {
				args = append(args, arg.Interface())
			}
		}

		result, err := fn(in.Interface(), args...)
		if err != nil {
			return exec.AsValue(err)
		}
		return exec.AsValue(result)
	}
}

// Render executes templateName against context and applies any
// post-processors configured for it.
func (e *TemplateEngine) Render(templateName string, context map[string]interface{}) (string, error) {
	compiled, ok := e.compiledTemplates[templateName]
	if !ok {
		return "", NewTemplateNotFoundError(templateName, e.TemplateNames())
	}

	if context == nil {
		context = map[string]interface{}{}
	}

	output, err := compiled.ExecuteToString(exec.NewContext(context))
	if err != nil {
		return "", NewRenderError(templateName, err)
	}

	for _, processor := range e.postProcessors[templateName] {
		output, err = processor.Process(output)
		if err != nil {
			return "", errors.Wrapf(err, "post-processor failed for template %q", templateName)
		}
	}

	return output, nil
}

// EngineType returns the engine type this instance was built with.
func (e *TemplateEngine) EngineType() EngineType {
	return e.engineType
}

// TemplateNames returns every compiled template name, sorted.
func (e *TemplateEngine) TemplateNames() []string {
	names := make([]string, 0, len(e.rawTemplates))
	for name := range e.rawTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTemplate reports whether templateName was compiled into this engine.
func (e *TemplateEngine) HasTemplate(templateName string) bool {
	_, ok := e.compiledTemplates[templateName]
	return ok
}

// GetRawTemplate returns the uncompiled source of templateName.
func (e *TemplateEngine) GetRawTemplate(templateName string) (string, error) {
	raw, ok := e.rawTemplates[templateName]
	if !ok {
		return "", NewTemplateNotFoundError(templateName, e.TemplateNames())
	}
	return raw, nil
}
