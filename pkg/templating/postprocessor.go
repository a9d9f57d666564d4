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
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// PostProcessor transforms rendered output before it is returned, for
// cleanup the template itself can't express cleanly: indentation
// normalization in generated config files, stripping trailing
// whitespace from generated source. Processors configured for one
// template run in order, each feeding the next.
type PostProcessor interface {
	Process(input string) (string, error)
}

// PostProcessorType identifies a PostProcessor implementation.
type PostProcessorType string

// PostProcessorTypeRegexReplace applies a per-line regex find/replace.
const PostProcessorTypeRegexReplace PostProcessorType = "regex_replace"

// PostProcessorConfig selects and parameterizes one post-processor.
// For regex_replace, Params carries "pattern" and "replace".
type PostProcessorConfig struct {
	Type   PostProcessorType `yaml:"type" json:"type"`
	Params map[string]string `yaml:"params" json:"params"`
}

// NewPostProcessor builds the processor cfg describes.
func NewPostProcessor(cfg PostProcessorConfig) (PostProcessor, error) {
	switch cfg.Type {
	case PostProcessorTypeRegexReplace:
		pattern, ok := cfg.Params["pattern"]
		if !ok {
			return nil, errors.New("regex_replace processor requires 'pattern' parameter")
		}
		replace, ok := cfg.Params["replace"]
		if !ok {
			return nil, errors.New("regex_replace processor requires 'replace' parameter")
		}
		return NewRegexReplaceProcessor(pattern, replace)
	default:
		return nil, errors.Errorf("unknown post-processor type: %s", cfg.Type)
	}
}

// RegexReplaceProcessor applies a regex replacement line by line, so
// anchors like ^ and $ work per line. The common use is normalizing
// whatever indentation a loop-heavy template produced.
type RegexReplaceProcessor struct {
	pattern *regexp.Regexp
	replace string
}

// NewRegexReplaceProcessor compiles pattern and returns the processor.
func NewRegexReplaceProcessor(pattern, replace string) (*RegexReplaceProcessor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regex pattern %q", pattern)
	}
	return &RegexReplaceProcessor{pattern: re, replace: replace}, nil
}

// Process rewrites each line of input through the replacement.
func (p *RegexReplaceProcessor) Process(input string) (string, error) {
	if input == "" {
		return input, nil
	}

	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = p.pattern.ReplaceAllString(line, p.replace)
	}
	return strings.Join(lines, "\n"), nil
}
