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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config file at path, fills unset fields with
// defaults, and validates the result. This is the path every subcommand
// takes when --config or ZEROHOP_CONFIG is set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := LoadConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("load config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// LoadConfig parses configYAML and applies defaults, leaving validation
// to the caller. Load calls it and then validates the result.
func LoadConfig(configYAML string) (*Config, error) {
	cfg, err := parseConfig(configYAML)
	if err != nil {
		return nil, err
	}
	SetDefaults(cfg)
	return cfg, nil
}

// parseConfig unmarshals YAML without validation. The only defaults it
// applies are the ones SetDefaults cannot tell apart from zero values
// (the boolean switches and the log verbosity); they are seeded before
// unmarshal so an explicit false or 0 in the file still wins. Split out
// so parse behavior is testable on its own.
func parseConfig(configYAML string) (*Config, error) {
	if configYAML == "" {
		return nil, fmt.Errorf("config YAML is empty")
	}

	cfg := &Config{
		Compilation: CompilationConfig{ZigBuildFallback: DefaultZigBuildFallback},
		Strategy:    StrategyConfig{AllowPartial: DefaultAllowPartial},
		Logging:     LoggingConfig{Verbose: DefaultVerbose},
	}
	if err := yaml.Unmarshal([]byte(configYAML), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return cfg, nil
}
