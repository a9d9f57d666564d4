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
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"zerohop/pkg/core/errs"
	"zerohop/pkg/plan"
)

// Config controls the embedder's compression and secret-handling policy
// (mirrors pkg/core/config.EmbeddingConfig without importing it, keeping
// this package free of YAML concerns).
type Config struct {
	CompressionAlgorithm      CompressionAlgorithm
	CompressionThresholdBytes int
	AllowPlaintextSecrets     bool
}

// Embedder turns plan data, static files, module binaries, and secrets
// into the blob table a generated binary carries with it.
type Embedder struct {
	cfg Config
}

// New builds an Embedder for cfg.
func New(cfg Config) *Embedder {
	return &Embedder{cfg: cfg}
}

// EmbedPlan serializes p to canonical JSON and compresses it per the
// embedder's configured algorithm and threshold.
func (e *Embedder) EmbedPlan(p *plan.ExecutionPlan) (Blob, error) {
	data, err := plan.CanonicalJSON(p)
	if err != nil {
		return Blob{}, &errs.EmbedError{Kind: errs.EmbedErrorSerialization, Message: "failed to serialize execution plan", Cause: err}
	}
	return compress(data, e.cfg.CompressionAlgorithm, e.cfg.CompressionThresholdBytes)
}

// EmbedRuntimeConfig builds the runtime-config literal from a plan's
// deployment config and the controller endpoint the binary reports to.
// This is embedded as a source-level literal, not a blob,
// so it is never compressed.
func EmbedRuntimeConfig(dc plan.DeploymentConfig, controllerEndpoint, executionTimeout, reportInterval, logLevel string, verbose bool) RuntimeConfig {
	if executionTimeout == "" {
		executionTimeout = "300s"
	}
	if reportInterval == "" {
		reportInterval = "30s"
	}
	if logLevel == "" {
		logLevel = "info"
	}
	return RuntimeConfig{
		ControllerEndpoint:  controllerEndpoint,
		ExecutionTimeout:    executionTimeout,
		ReportInterval:      reportInterval,
		CleanupOnCompletion: dc.CleanupOnSuccess,
		LogLevel:            logLevel,
		Verbose:             verbose,
	}
}

// EmbedStaticFile compresses one static file's content per the
// per-file gating.
func (e *Embedder) EmbedStaticFile(content []byte) (Blob, error) {
	return compress(content, e.cfg.CompressionAlgorithm, e.cfg.CompressionThresholdBytes)
}

// EmbedModuleBinary compresses one compiled module binary fragment for
// inclusion in the module_binaries table.
func (e *Embedder) EmbedModuleBinary(data []byte) (Blob, error) {
	return compress(data, e.cfg.CompressionAlgorithm, e.cfg.CompressionThresholdBytes)
}

// EmbedSecret encrypts value under keyID using method and returns the
// embeddable Secret. method "none" is only accepted when
// AllowPlaintextSecrets is true; any other method derives a
// per-target key from keyID and seals value with ChaCha20-Poly1305.
func (e *Embedder) EmbedSecret(name, value, keyID, method string) (Secret, error) {
	if method == "" {
		method = "none"
	}
	if method == "none" {
		if !e.cfg.AllowPlaintextSecrets {
			return Secret{}, errs.NewPlaintextSecretError(name)
		}
		return Secret{Name: name, EncryptionKeyID: keyID, DecryptionMethod: "none", Ciphertext: []byte(value)}, nil
	}

	key := deriveKey(keyID)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return Secret{}, &errs.EmbedError{Kind: errs.EmbedErrorEncryption, Message: "failed to initialize cipher", Cause: err}
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Secret{}, &errs.EmbedError{Kind: errs.EmbedErrorEncryption, Message: "failed to generate nonce", Cause: err}
	}

	ciphertext := aead.Seal(nonce, nonce, []byte(value), nil)
	return Secret{Name: name, EncryptionKeyID: keyID, DecryptionMethod: "chacha20poly1305", Ciphertext: ciphertext}, nil
}

// DecryptSecret reverses EmbedSecret for method "chacha20poly1305", used
// by tests to confirm round-tripping.
func DecryptSecret(s Secret) (string, error) {
	if s.DecryptionMethod == "none" {
		return string(s.Ciphertext), nil
	}
	if s.DecryptionMethod != "chacha20poly1305" {
		return "", &errs.EmbedError{Kind: errs.EmbedErrorEncryption, Message: "unsupported decryption method: " + s.DecryptionMethod}
	}

	key := deriveKey(s.EncryptionKeyID)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", &errs.EmbedError{Kind: errs.EmbedErrorEncryption, Message: "failed to initialize cipher", Cause: err}
	}
	if len(s.Ciphertext) < aead.NonceSize() {
		return "", &errs.EmbedError{Kind: errs.EmbedErrorEncryption, Message: "ciphertext too short"}
	}

	nonce, sealed := s.Ciphertext[:aead.NonceSize()], s.Ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &errs.EmbedError{Kind: errs.EmbedErrorEncryption, Message: "decryption failed", Cause: err}
	}
	return string(plaintext), nil
}

// deriveKey expands an operator-chosen key id into a 32-byte ChaCha20-
// Poly1305 key. Real deployments back this with a vault-managed key;
// this derivation keeps the interface concrete without depending on a
// specific vault backend.
func deriveKey(keyID string) []byte {
	sum := sha256.Sum256([]byte(fmt.Sprintf("zerohop-embed-key:%s", keyID)))
	return sum[:]
}
