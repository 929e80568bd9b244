/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package metrics provides Prometheus-compatible metrics for LogCask.

METRIC CATEGORIES:
==================
- Files: decoded, failed
- Frames: decoded, payload/decoded bytes
- Recovery: sequence gaps, resynchronizations, decompress errors,
  chunk failures

Metrics are exposed at /metrics in Prometheus text format by the
logcask-serve binary.
*/
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"logcask/internal/decode"
)

// Metrics holds all LogCask counters. All fields are safe for
// concurrent update.
type Metrics struct {
	FilesDecoded atomic.Uint64
	FilesFailed  atomic.Uint64

	FramesDecoded atomic.Uint64
	PayloadBytes  atomic.Uint64
	DecodedBytes  atomic.Uint64

	SequenceGaps     atomic.Uint64
	Resyncs          atomic.Uint64
	DecompressErrors atomic.Uint64
	ChunkFailures    atomic.Uint64
}

// New creates a Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// RecordDecode folds one decode's statistics into the counters.
func (m *Metrics) RecordDecode(st decode.Stats) {
	m.FilesDecoded.Add(1)
	m.FramesDecoded.Add(uint64(st.Frames))
	m.PayloadBytes.Add(uint64(st.PayloadBytes))
	m.DecodedBytes.Add(uint64(st.DecodedBytes))
	m.SequenceGaps.Add(uint64(st.Gaps))
	m.Resyncs.Add(uint64(st.Resyncs))
	m.DecompressErrors.Add(uint64(st.DecompressErrors))
	m.ChunkFailures.Add(uint64(st.ChunkFailures))
}

// RecordFailure counts a file that could not be read at all.
func (m *Metrics) RecordFailure() {
	m.FilesFailed.Add(1)
}

// Handler returns an http.Handler serving the counters in Prometheus
// text exposition format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		write := func(name, help string, value uint64) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, value)
		}
		write("logcask_files_decoded_total", "Container files decoded.", m.FilesDecoded.Load())
		write("logcask_files_failed_total", "Container files that could not be read.", m.FilesFailed.Load())
		write("logcask_frames_decoded_total", "Frames decoded across all files.", m.FramesDecoded.Load())
		write("logcask_payload_bytes_total", "Raw payload bytes consumed.", m.PayloadBytes.Load())
		write("logcask_decoded_bytes_total", "Bytes produced after expansion.", m.DecodedBytes.Load())
		write("logcask_sequence_gaps_total", "Detected sequence-number gaps.", m.SequenceGaps.Load())
		write("logcask_resyncs_total", "Corruption resynchronizations.", m.Resyncs.Load())
		write("logcask_decompress_errors_total", "Per-frame decompression failures.", m.DecompressErrors.Load())
		write("logcask_chunk_failures_total", "Chunks replaced by an error marker.", m.ChunkFailures.Load())
	})
}
