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

package decode

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// DecodeFile decodes one container file. The only hard failure is an
// unreadable file; everything below that surfaces inline in the result.
func (d *Decoder) DecodeFile(path string, progress ProgressFunc) (*Result, error) {
	buf, err := openFileBuffer(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", path, err)
	}
	size := len(buf.data)

	start := time.Now()
	res, drain := d.decodeBuffer(buf.data, progress)
	if drain != nil {
		// Abandoned workers are still walking the mapping. Unmapping
		// under them is a memory fault, not an error anything can
		// recover from, so the buffer outlives the call and is released
		// only once the last worker exits.
		go func() {
			drain()
			buf.Close()
			d.log.Warn("released buffer after abandoned chunk workers", "path", path)
		}()
	} else {
		buf.Close()
	}
	d.log.Info("file decoded",
		"path", path,
		"bytes", size,
		"lines", len(res.Lines),
		"frames", res.Stats.Frames,
		"gaps", res.Stats.Gaps,
		"resyncs", res.Stats.Resyncs,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return res, nil
}

// DecodeBuffer decodes an in-memory container image. The buffer is
// treated as immutable for the duration of the call; after a chunk
// timeout its abandoned worker may keep reading the buffer until it
// finishes on its own, so callers must not recycle the backing array.
func (d *Decoder) DecodeBuffer(data []byte, progress ProgressFunc) *Result {
	res, _ := d.decodeBuffer(data, progress)
	return res
}

// decodeBuffer runs the chunked decode. The returned drain func is
// non-nil when at least one chunk timed out and its worker was left
// running; it blocks until every worker has exited, after which the
// buffer is safe to unmap or recycle.
func (d *Decoder) decodeBuffer(data []byte, progress ProgressFunc) (*Result, func()) {
	res := &Result{}
	chunks := planChunks(data, d.opts.Workers, d.opts.ChunkFloorBytes, d.opts.ResyncWindowBytes)
	res.Stats.Chunks = len(chunks)
	if len(chunks) == 0 {
		if len(data) > 0 {
			d.log.Warn("no valid frame start in buffer", "bytes", len(data))
		}
		if progress != nil {
			progress(100)
		}
		return res, nil
	}

	type chunkOut struct {
		lines []string
		stats Stats
		err   error
	}
	done := make([]chan chunkOut, len(chunks))
	for i := range done {
		done[i] = make(chan chunkOut, 1)
	}

	tracker := &seqTracker{}
	var pool errgroup.Group
	pool.SetLimit(d.opts.Workers)
	// Submission runs off the collection loop: with a limit set, Go
	// blocks while the pool is full, and a stalled worker must not keep
	// a queued chunk's timeout clock from even starting.
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i, c := range chunks {
			i, c := i, c
			pool.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						done[i] <- chunkOut{err: fmt.Errorf("%v", r)}
					}
				}()
				lines, st := decodeChunk(data, c.start, c.end, d.opts.ResyncWindowBytes, tracker)
				done[i] <- chunkOut{lines: lines, stats: st}
				return nil
			})
		}
	}()

	// Parallel map, sequential reduce-by-index: collect each chunk's
	// output by its position in the plan so the merge order never
	// depends on completion order.
	ordered := make([][]string, len(chunks))
	timedOut := false
	for i := range chunks {
		select {
		case out := <-done[i]:
			if out.err != nil {
				d.log.Error("chunk worker failed", "chunk", i, "error", out.err.Error())
				ordered[i] = []string{fmt.Sprintf("Error processing chunk %d: %v", i, out.err)}
				res.Stats.ChunkFailures++
			} else {
				ordered[i] = out.lines
				res.Stats.add(out.stats)
			}
		case <-time.After(d.opts.ChunkTimeout):
			d.log.Error("chunk worker timed out", "chunk", i, "timeout", d.opts.ChunkTimeout.String())
			ordered[i] = []string{fmt.Sprintf("Error processing chunk %d: timed out after %s", i, d.opts.ChunkTimeout)}
			res.Stats.ChunkFailures++
			timedOut = true
		}
		if progress != nil {
			progress(float64(i+1) / float64(len(chunks)) * 100)
		}
	}

	for _, lines := range ordered {
		res.Lines = append(res.Lines, lines...)
	}

	drain := func() {
		<-submitted
		_ = pool.Wait()
	}
	if !timedOut {
		// All results were received, so this returns immediately.
		drain()
		return res, nil
	}
	// A timed-out worker is left to finish on its own; its send still
	// lands in the buffered channel.
	return res, drain
}
