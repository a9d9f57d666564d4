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
	"fmt"
	"regexp"
	"strings"
)

// errorLocation is a position extracted from a gonja error message.
type errorLocation struct {
	Line   int
	Column int
}

// Gonja buries the useful part of a render failure inside a nested
// error chain. These patterns pull out the position and the root
// problem so a broken synthesizer template reports the line of the
// template, not a wall of evaluator internals.
var (
	lineColPattern       = regexp.MustCompile(`Line=(\d+)\s+Col=(\d+)`)
	linePattern          = regexp.MustCompile(`at line (\d+)`)
	unknownMethodPattern = regexp.MustCompile(`unknown method '([^']+)'`)
	undefinedVarPattern  = regexp.MustCompile(`undefined variable '([^']+)'`)
	invalidCallPattern   = regexp.MustCompile(`invalid call to method '([^']+)'`)
	typeMismatchPattern  = regexp.MustCompile(`expected (\w+), got (\w+)`)
)

// FormatRenderError renders err as a multi-line report: header,
// extracted location, the root problem, the offending template line
// with a column caret, and fix hints. templateContent supplies the
// quoted source line; pass "" to skip the context block.
func FormatRenderError(err error, templateName, templateContent string) string {
	if err == nil {
		return ""
	}

	errorStr := err.Error()
	location := extractLocation(errorStr)
	problem := extractProblem(errorStr)

	var b strings.Builder
	fmt.Fprintf(&b, "Template Rendering Error: %s\n", templateName)
	b.WriteString(strings.Repeat("-", 60))
	b.WriteString("\n")

	if location != nil {
		fmt.Fprintf(&b, "Location: Line %d, Column %d\n", location.Line, location.Column)
	}

	if problem == "" {
		problem = truncate(errorStr, 100)
	}
	fmt.Fprintf(&b, "Problem:  %s\n", problem)

	if location != nil && templateContent != "" {
		if context := extractTemplateContext(templateContent, location.Line, location.Column); context != "" {
			b.WriteString("\nTemplate Context:\n")
			b.WriteString(context)
		}
	}

	hints := generateHints(errorStr)
	b.WriteString("\nHint: ")
	b.WriteString(strings.Join(hints, "\n      "))
	b.WriteString("\n")

	return b.String()
}

// FormatRenderErrorShort is the single-line form for log lines:
// template name, position, problem, pipe-separated.
func FormatRenderErrorShort(err error, templateName string) string {
	if err == nil {
		return ""
	}

	errorStr := err.Error()
	parts := []string{fmt.Sprintf("Template: %s", templateName)}

	if location := extractLocation(errorStr); location != nil {
		parts = append(parts, fmt.Sprintf("Line %d Col %d", location.Line, location.Column))
	}

	problem := extractProblem(errorStr)
	if problem == "" {
		problem = truncate(errorStr, 60)
	}
	parts = append(parts, problem)

	return strings.Join(parts, " | ")
}

// extractLocation finds the most specific position in errorStr: the
// Line=X Col=Y form the expression evaluator emits wins over the bare
// "at line N" the control-structure layer emits.
func extractLocation(errorStr string) *errorLocation {
	if m := lineColPattern.FindStringSubmatch(errorStr); len(m) == 3 {
		loc := &errorLocation{}
		fmt.Sscanf(m[1], "%d", &loc.Line)
		fmt.Sscanf(m[2], "%d", &loc.Column)
		return loc
	}
	if m := linePattern.FindStringSubmatch(errorStr); len(m) == 2 {
		loc := &errorLocation{}
		fmt.Sscanf(m[1], "%d", &loc.Line)
		return loc
	}
	return nil
}

// extractProblem reduces errorStr to its root cause, or "" when no
// known pattern matches.
func extractProblem(errorStr string) string {
	if m := unknownMethodPattern.FindStringSubmatch(errorStr); len(m) == 2 {
		if strings.Contains(errorStr, "invalid call to method") {
			return fmt.Sprintf("Unknown method '%s' - cannot call methods on this type", m[1])
		}
		return fmt.Sprintf("Unknown method '%s'", m[1])
	}
	if m := undefinedVarPattern.FindStringSubmatch(errorStr); len(m) == 2 {
		return fmt.Sprintf("Undefined variable '%s'", m[1])
	}
	if m := invalidCallPattern.FindStringSubmatch(errorStr); len(m) == 2 {
		return fmt.Sprintf("Invalid method call '%s()' on this type", m[1])
	}
	if m := typeMismatchPattern.FindStringSubmatch(errorStr); len(m) == 3 {
		return fmt.Sprintf("Type mismatch: expected %s, got %s", m[1], m[2])
	}

	if idx := strings.Index(errorStr, "unable to evaluate"); idx >= 0 {
		rest := errorStr[idx+len("unable to evaluate"):]
		if colon := strings.Index(rest, ":"); colon > 0 {
			return fmt.Sprintf("Unable to evaluate expression: %s", strings.TrimSpace(rest[:colon]))
		}
	}

	return ""
}

// generateHints maps error patterns to fix suggestions. The common
// trap is Python-style .get() surviving in a template ported from a
// Jinja2 playbook filter; gonja maps have no methods.
func generateHints(errorStr string) []string {
	var hints []string

	if strings.Contains(errorStr, "unknown method 'get'") || strings.Contains(errorStr, "invalid call to method 'get'") {
		hints = append(hints,
			"Map access should use dot notation (e.g., 'map.key') or",
			"bracket syntax (e.g., 'map[\"key\"]'), not method calls like '.get()'.")
	}
	if strings.Contains(errorStr, "undefined variable") {
		hints = append(hints,
			"Check that the variable is defined in the rendering context.",
			"Verify spelling and that the variable exists in the data passed to the template.")
	}
	if strings.Contains(errorStr, "invalid call to method") && !strings.Contains(errorStr, "get") {
		hints = append(hints,
			"You may be trying to call a method on a type that doesn't support it.",
			"Check the type of the variable and use appropriate syntax for that type.")
	}
	if strings.Contains(errorStr, "expected") && strings.Contains(errorStr, "got") {
		hints = append(hints,
			"The template expects a different data type than what was provided.",
			"Verify the types of variables in your rendering context.")
	}
	if strings.Contains(errorStr, "controlStructure") || strings.Contains(errorStr, "ForControlStructure") {
		hints = append(hints,
			"Check the syntax of your loop or conditional statement.",
			"Ensure you're iterating over a list/array, not a single value.")
	}

	if len(hints) == 0 {
		hints = append(hints,
			"Check your template syntax and the data passed to the template.",
			"See Jinja2 template documentation for syntax help.")
	}
	return hints
}

// extractTemplateContext quotes the failing source line, prefixed with
// its number, and points a caret at the column when one is known.
func extractTemplateContext(templateContent string, line, column int) string {
	lines := strings.Split(templateContent, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}

	errorLine := lines[line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "%d | %s\n", line, errorLine)

	if column > 0 && column <= len(errorLine)+1 {
		padding := len(fmt.Sprintf("%d", line)) + 3 + column - 1
		b.WriteString(strings.Repeat(" ", padding))
		b.WriteString("^\n")
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
