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

// Package embed implements the data embedder: it turns the
// execution plan, static files, module binaries, and secrets into the
// blob table a generated binary carries with it, plus the accessor code
// that reads that table back out at runtime.
package embed

// CompressionAlgorithm names how a blob is compressed before embedding.
type CompressionAlgorithm string

const (
	CompressionNone CompressionAlgorithm = "none"
	CompressionGzip CompressionAlgorithm = "gzip"
	CompressionLZ4  CompressionAlgorithm = "lz4"
	CompressionZstd CompressionAlgorithm = "zstd"
)

// StaticFile is one file embedded into the produced binary.
type StaticFile struct {
	EmbeddedPath string `json:"embedded_path"`
	TargetPath   string `json:"target_path"`
	Content      []byte `json:"content"`
	Mode         uint32 `json:"mode"`
}

// Blob is a compressed payload plus the metadata needed to decompress it
// at runtime.
type Blob struct {
	Algorithm        CompressionAlgorithm `json:"algorithm"`
	Data             []byte               `json:"data"`
	UncompressedSize int                  `json:"uncompressed_size"`
}

// RuntimeConfig is the literal embedded into the generated `main` source
// as the runtime-config slot.
type RuntimeConfig struct {
	ControllerEndpoint  string `json:"controller_endpoint"`
	ExecutionTimeout    string `json:"execution_timeout"`
	ReportInterval      string `json:"report_interval"`
	CleanupOnCompletion bool   `json:"cleanup_on_completion"`
	LogLevel            string `json:"log_level"`
	Verbose             bool   `json:"verbose"`
}

// Secret is one vault-sourced value encrypted at embed time under a
// per-target key id.
type Secret struct {
	Name             string `json:"name"`
	EncryptionKeyID  string `json:"encryption_key_id"`
	DecryptionMethod string `json:"decryption_method"`
	Ciphertext       []byte `json:"ciphertext"`
}

// EncryptedSecrets is the embedded secrets table.
type EncryptedSecrets struct {
	Secrets map[string]Secret `json:"secrets"`
}

// EmbeddedData is the complete blob table handed to the template
// synthesizer for one (plan, target) pair.
type EmbeddedData struct {
	ExecutionPlan  Blob             `json:"execution_plan"`
	StaticFiles    map[string]Blob  `json:"static_files"`
	ModuleBinaries map[string]Blob  `json:"module_binaries"`
	RuntimeConfig  RuntimeConfig    `json:"runtime_config"`
	Secrets        EncryptedSecrets `json:"secrets"`
}
