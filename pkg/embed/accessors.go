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

package embed

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateAccessors emits the runtime accessor source fragment: a
// getPlan() accessor, a getRuntimeConfig() accessor, and one get_<path>()
// accessor per embedded static file. The per-file accessors are backed by
// a lazy process-wide map the fragment also declares. The fragment is
// spliced into the generated `main` source by pkg/template at the
// embedded-data-accessors slot.
func GenerateAccessors(data EmbeddedData) string {
	var b strings.Builder

	b.WriteString("var (\n")
	b.WriteString("\tembeddedOnce sync.Once\n")
	b.WriteString("\tembeddedFiles map[string][]byte\n")
	b.WriteString(")\n\n")

	b.WriteString("func loadEmbedded() {\n")
	b.WriteString("\tembeddedFiles = make(map[string][]byte, len(rawStaticFiles))\n")
	b.WriteString("\tfor path, blob := range rawStaticFiles {\n")
	b.WriteString("\t\tembeddedFiles[path] = mustDecompress(blob)\n")
	b.WriteString("\t}\n")
	b.WriteString("}\n\n")

	b.WriteString("func getPlan() []byte {\n")
	b.WriteString("\treturn mustDecompress(rawExecutionPlan)\n")
	b.WriteString("}\n\n")

	b.WriteString("func getRuntimeConfig() RuntimeConfig {\n")
	b.WriteString("\treturn runtimeConfig\n")
	b.WriteString("}\n\n")

	paths := make([]string, 0, len(data.StaticFiles))
	for p := range data.StaticFiles {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		b.WriteString(fmt.Sprintf("func get_%s() []byte {\n", accessorName(p)))
		b.WriteString("\tembeddedOnce.Do(loadEmbedded)\n")
		b.WriteString(fmt.Sprintf("\treturn embeddedFiles[%q]\n", p))
		b.WriteString("}\n\n")
	}

	return b.String()
}

// accessorName converts an embedded file path into a valid Go
// identifier fragment for its accessor function name.
func accessorName(path string) string {
	replacer := strings.NewReplacer("/", "_", ".", "_", "-", "_")
	return replacer.Replace(path)
}
