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
	"bytes"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"zerohop/pkg/core/errs"
)

// DefaultCompressionThresholdBytes is the stated size gate: payloads
// smaller than this are stored uncompressed regardless of the configured
// algorithm, since compression overhead would outweigh the savings.
const DefaultCompressionThresholdBytes = 1024

// compress produces a Blob for data using algo, unless data is smaller
// than threshold, in which case it is stored with CompressionNone
// regardless of the requested algorithm.
func compress(data []byte, algo CompressionAlgorithm, threshold int) (Blob, error) {
	if threshold <= 0 {
		threshold = DefaultCompressionThresholdBytes
	}
	if len(data) < threshold {
		algo = CompressionNone
	}

	switch algo {
	case "", CompressionNone:
		return Blob{Algorithm: CompressionNone, Data: data, UncompressedSize: len(data)}, nil

	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return Blob{}, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "gzip compression failed", Cause: err}
		}
		if err := w.Close(); err != nil {
			return Blob{}, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "gzip compression failed", Cause: err}
		}
		return Blob{Algorithm: CompressionGzip, Data: buf.Bytes(), UncompressedSize: len(data)}, nil

	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return Blob{}, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "lz4 compression failed", Cause: err}
		}
		if err := w.Close(); err != nil {
			return Blob{}, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "lz4 compression failed", Cause: err}
		}
		return Blob{Algorithm: CompressionLZ4, Data: buf.Bytes(), UncompressedSize: len(data)}, nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return Blob{}, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "zstd encoder init failed", Cause: err}
		}
		defer enc.Close()
		out := enc.EncodeAll(data, nil)
		return Blob{Algorithm: CompressionZstd, Data: out, UncompressedSize: len(data)}, nil

	default:
		return Blob{}, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "unknown compression algorithm: " + string(algo)}
	}
}

// decompress reverses compress, used by tests and by the generated
// accessor code's runtime counterpart to validate round-tripping here.
func decompress(b Blob) ([]byte, error) {
	switch b.Algorithm {
	case "", CompressionNone:
		return b.Data, nil

	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(b.Data))
		if err != nil {
			return nil, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "gzip decompression failed", Cause: err}
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "gzip decompression failed", Cause: err}
		}
		return out, nil

	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(b.Data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "lz4 decompression failed", Cause: err}
		}
		return out, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "zstd decoder init failed", Cause: err}
		}
		defer dec.Close()
		out, err := dec.DecodeAll(b.Data, nil)
		if err != nil {
			return nil, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "zstd decompression failed", Cause: err}
		}
		return out, nil

	default:
		return nil, &errs.EmbedError{Kind: errs.EmbedErrorCompression, Message: "unknown compression algorithm: " + string(b.Algorithm)}
	}
}
