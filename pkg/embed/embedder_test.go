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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerohop/pkg/core/errs"
	"zerohop/pkg/plan"
)

func samplePlan() *plan.ExecutionPlan {
	return &plan.ExecutionPlan{
		Metadata: plan.PlanMetadata{Version: "1", PlanID: "p1", PlanVersion: "1"},
		Tasks:    []plan.Task{{ID: "t1", ModuleName: "debug"}},
	}
}

func TestEmbedPlan_SmallPayloadStaysUncompressed(t *testing.T) {
	e := New(Config{CompressionAlgorithm: CompressionGzip, CompressionThresholdBytes: 1 << 20})
	blob, err := e.EmbedPlan(samplePlan())
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, blob.Algorithm)

	raw, err := decompress(blob)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "t1")
}

func TestEmbedPlan_LargePayloadCompressedWithEachAlgorithm(t *testing.T) {
	for _, algo := range []CompressionAlgorithm{CompressionGzip, CompressionLZ4, CompressionZstd} {
		t.Run(string(algo), func(t *testing.T) {
			e := New(Config{CompressionAlgorithm: algo, CompressionThresholdBytes: 1})
			p := samplePlan()
			for i := 0; i < 200; i++ {
				p.Tasks = append(p.Tasks, plan.Task{ID: "t", Name: strings.Repeat("x", 64)})
			}

			blob, err := e.EmbedPlan(p)
			require.NoError(t, err)
			assert.Equal(t, algo, blob.Algorithm)

			raw, err := decompress(blob)
			require.NoError(t, err)
			assert.Equal(t, blob.UncompressedSize, len(raw))
		})
	}
}

func TestEmbedSecret_PlaintextRejectedByDefault(t *testing.T) {
	e := New(Config{})
	_, err := e.EmbedSecret("db-password", "hunter2", "", "none")
	require.Error(t, err)
	var embedErr *errs.EmbedError
	require.ErrorAs(t, err, &embedErr)
	assert.Equal(t, errs.EmbedErrorEncryption, embedErr.Kind)
}

func TestEmbedSecret_PlaintextAllowedWhenConfigured(t *testing.T) {
	e := New(Config{AllowPlaintextSecrets: true})
	secret, err := e.EmbedSecret("db-password", "hunter2", "dev", "none")
	require.NoError(t, err)
	assert.Equal(t, "none", secret.DecryptionMethod)

	value, err := DecryptSecret(secret)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestEmbedSecret_EncryptedRoundTrips(t *testing.T) {
	e := New(Config{})
	secret, err := e.EmbedSecret("db-password", "hunter2", "prod-key-1", "chacha20poly1305")
	require.NoError(t, err)
	assert.Equal(t, "chacha20poly1305", secret.DecryptionMethod)
	assert.NotContains(t, string(secret.Ciphertext), "hunter2")

	value, err := DecryptSecret(secret)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestEmbedRuntimeConfig_AppliesDefaults(t *testing.T) {
	rc := EmbedRuntimeConfig(plan.DeploymentConfig{CleanupOnSuccess: true}, "https://controller.example", "", "", "", false)
	assert.Equal(t, "300s", rc.ExecutionTimeout)
	assert.Equal(t, "30s", rc.ReportInterval)
	assert.Equal(t, "info", rc.LogLevel)
	assert.True(t, rc.CleanupOnCompletion)
}

func TestGenerateAccessors_EmitsPerFileFunction(t *testing.T) {
	data := EmbeddedData{
		StaticFiles: map[string]Blob{
			"configs/app.conf": {Algorithm: CompressionNone, Data: []byte("x")},
		},
	}
	src := GenerateAccessors(data)
	assert.Contains(t, src, "func get_configs_app_conf()")
	assert.Contains(t, src, "func getPlan()")
	assert.Contains(t, src, "func getRuntimeConfig()")
}
