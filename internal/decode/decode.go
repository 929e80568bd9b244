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
Package decode turns a binary log container into an ordered sequence of
plaintext lines.

PIPELINE:
=========

	file bytes -> frame-start scan (alignment)
	           -> chunk plan (frame-aligned byte ranges)
	           -> per-chunk frame walk on a bounded worker pool
	           -> merge by planned chunk index
	           -> []string

Output order is always file order, regardless of which chunk finishes
first: results are collected into a slice addressed by the chunk's index
in the plan, never by completion order.

ERROR POLICY:
=============
A corrupt file must still yield the maximum recoverable content, so
frame- and chunk-scoped failures are surfaced as data rather than
errors:

	[F]decode error at offset N       structural corruption, resynced
	[F]log seq A-B is missing         dropped records (sequence gap)
	[F]decompress error: cause        one frame's payload was unreadable
	Error processing chunk N: cause   whole chunk timed out or panicked

Downstream consumers treat the "[F]" prefix as a decoder-generated
notice rather than original log content. Only file-level I/O failure is
returned as an actual error.

The sole cross-chunk mutable state is the file-wide sequence counter,
a single atomic scalar (see seqTracker). The raw buffer is shared
read-only across workers.
*/
package decode

import (
	"runtime"
	"time"

	"logcask/internal/config"
	"logcask/internal/logging"
)

// Options are the decode tunables. The zero value is not usable; start
// from DefaultOptions or FromConfig.
type Options struct {
	// Workers bounds the chunk worker pool for one file decode.
	Workers int
	// ChunkFloorBytes is the minimum planned chunk size. Files smaller
	// than this decode as a single chunk.
	ChunkFloorBytes int
	// ResyncWindowBytes bounds the forward scan when recovering from
	// corruption and when snapping chunk boundaries. The cap is what
	// keeps fully corrupt input from degrading into an O(n*h) scan of
	// the whole file per bad byte.
	ResyncWindowBytes int
	// ChunkTimeout bounds the orchestrator's wait for a single chunk.
	ChunkTimeout time.Duration
}

// DefaultOptions returns the standard decode tunables.
func DefaultOptions() Options {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	return Options{
		Workers:           workers,
		ChunkFloorBytes:   config.DefaultChunkFloorBytes,
		ResyncWindowBytes: config.DefaultResyncWindowBytes,
		ChunkTimeout:      config.DefaultChunkTimeoutSecs * time.Second,
	}
}

// FromConfig builds Options from a loaded configuration.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Workers:           cfg.Workers,
		ChunkFloorBytes:   cfg.ChunkFloorBytes,
		ResyncWindowBytes: cfg.ResyncWindowBytes,
		ChunkTimeout:      cfg.ChunkTimeout(),
	}
}

// Stats counts what one decode encountered.
type Stats struct {
	Chunks           int
	Frames           int64
	PayloadBytes     int64
	DecodedBytes     int64
	Gaps             int64
	Resyncs          int64
	StrayBytes       int64
	DecompressErrors int64
	ChunkFailures    int64
}

func (s *Stats) add(o Stats) {
	s.Frames += o.Frames
	s.PayloadBytes += o.PayloadBytes
	s.DecodedBytes += o.DecodedBytes
	s.Gaps += o.Gaps
	s.Resyncs += o.Resyncs
	s.StrayBytes += o.StrayBytes
	s.DecompressErrors += o.DecompressErrors
}

// Result is the complete outcome of decoding one container.
type Result struct {
	// Lines holds decoded payloads and inline diagnostic markers, in
	// file order.
	Lines []string
	Stats Stats
}

// ProgressFunc receives decode progress for one file, in percent.
// Called at most once per completed chunk, monotonically non-decreasing,
// with a final call at 100.
type ProgressFunc func(percent float64)

// BatchProgressFunc receives composite progress across a file set. The
// message is non-empty only at file-start and completion boundaries.
type BatchProgressFunc func(percent float64, message string)

// Decoder decodes log containers. Safe for concurrent use; each decode
// carries its own state.
type Decoder struct {
	opts Options
	log  *logging.Logger
}

// New creates a Decoder with the given options. Zero or negative
// tunables fall back to their defaults.
func New(opts Options) *Decoder {
	def := DefaultOptions()
	if opts.Workers < 1 {
		opts.Workers = def.Workers
	}
	if opts.ChunkFloorBytes < 1 {
		opts.ChunkFloorBytes = def.ChunkFloorBytes
	}
	if opts.ResyncWindowBytes < 1 {
		opts.ResyncWindowBytes = def.ResyncWindowBytes
	}
	if opts.ChunkTimeout <= 0 {
		opts.ChunkTimeout = def.ChunkTimeout
	}
	return &Decoder{
		opts: opts,
		log:  logging.NewLogger("decode"),
	}
}
