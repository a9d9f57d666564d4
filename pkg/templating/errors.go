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

import "fmt"

// CompilationError reports a source template that failed to compile.
// Raised at engine construction, before any rendering happens, so a bad
// synthesizer template never makes it into a build.
type CompilationError struct {
	TemplateName    string
	TemplateSnippet string // first 200 characters of the failing source
	Cause           error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile template '%s': %v", e.TemplateName, e.Cause)
}

func (e *CompilationError) Unwrap() error { return e.Cause }

// NewCompilationError builds a CompilationError, truncating the source
// to a snippet.
func NewCompilationError(templateName, templateContent string, cause error) *CompilationError {
	snippet := templateContent
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	return &CompilationError{TemplateName: templateName, TemplateSnippet: snippet, Cause: cause}
}

// RenderError reports a compiled template that failed during execution,
// typically a missing context variable or a bad expression over the
// module list or runtime-config literals.
type RenderError struct {
	TemplateName string
	Cause        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template '%s': %v", e.TemplateName, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// NewRenderError builds a RenderError.
func NewRenderError(templateName string, cause error) *RenderError {
	return &RenderError{TemplateName: templateName, Cause: cause}
}

// TemplateNotFoundError reports a render request for a name the engine
// never compiled.
type TemplateNotFoundError struct {
	TemplateName       string
	AvailableTemplates []string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template '%s' not found", e.TemplateName)
}

// NewTemplateNotFoundError builds a TemplateNotFoundError carrying the
// names that do exist, for the caller's error message.
func NewTemplateNotFoundError(templateName string, availableTemplates []string) *TemplateNotFoundError {
	return &TemplateNotFoundError{TemplateName: templateName, AvailableTemplates: availableTemplates}
}

// UnsupportedEngineError reports an EngineType the package has no
// implementation for.
type UnsupportedEngineError struct {
	EngineType EngineType
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported template engine type: %s", e.EngineType)
}

// NewUnsupportedEngineError builds an UnsupportedEngineError.
func NewUnsupportedEngineError(engineType EngineType) *UnsupportedEngineError {
	return &UnsupportedEngineError{EngineType: engineType}
}
