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

func TestRegexReplaceProcessor_NormalizesPerLine(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		replace  string
		input    string
		expected string
	}{
		{
			name:     "leading spaces collapse to two",
			pattern:  "^[ ]+",
			replace:  "  ",
			input:    "    timeout: 300s\n        level: info",
			expected: "  timeout: 300s\n  level: info",
		},
		{
			name:     "trailing whitespace stripped",
			pattern:  "[ \t]+$",
			replace:  "",
			input:    "moduleDispatch := map[string]handler{}   \n",
			expected: "moduleDispatch := map[string]handler{}\n",
		},
		{
			name:     "empty input passes through",
			pattern:  "^[ ]+",
			replace:  "  ",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewRegexReplaceProcessor(tt.pattern, tt.replace)
			require.NoError(t, err)

			got, err := p.Process(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewRegexReplaceProcessor_InvalidPattern(t *testing.T) {
	_, err := NewRegexReplaceProcessor("[unclosed", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regex pattern")
}

func TestNewPostProcessor_RequiresParams(t *testing.T) {
	_, err := NewPostProcessor(PostProcessorConfig{
		Type:   PostProcessorTypeRegexReplace,
		Params: map[string]string{"replace": "  "},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'pattern'")

	_, err = NewPostProcessor(PostProcessorConfig{
		Type:   PostProcessorTypeRegexReplace,
		Params: map[string]string{"pattern": "^[ ]+"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'replace'")
}

func TestNewPostProcessor_UnknownType(t *testing.T) {
	_, err := NewPostProcessor(PostProcessorConfig{Type: "rot13"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown post-processor type")
}

func TestTemplateEngine_WithPostProcessors(t *testing.T) {
	templates := map[string]string{
		"runtime.yaml": `execution:
    timeout: 300s
    report_interval: 30s

logging:
    level: info
        format: text
    verbose: false`,
	}

	postProcessorConfigs := map[string][]PostProcessorConfig{
		"runtime.yaml": {
			{
				Type: PostProcessorTypeRegexReplace,
				Params: map[string]string{
					"pattern": "^[ ]+",
					"replace": "  ",
				},
			},
		},
	}

	engine, err := New(EngineTypeGonja, templates, nil, postProcessorConfigs)
	require.NoError(t, err)

	output, err := engine.Render("runtime.yaml", nil)
	require.NoError(t, err)

	expected := `execution:
  timeout: 300s
  report_interval: 30s

logging:
  level: info
  format: text
  verbose: false`

	assert.Equal(t, expected, output)
}

func TestNew_InvalidPostProcessorConfigFails(t *testing.T) {
	templates := map[string]string{"main": "x"}
	postProcessorConfigs := map[string][]PostProcessorConfig{
		"main": {{Type: "rot13"}},
	}

	_, err := New(EngineTypeGonja, templates, nil, postProcessorConfigs)
	require.Error(t, err)
}
