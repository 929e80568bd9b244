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
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"logcask/internal/container"
)

// seqTracker holds the highest non-sentinel sequence number observed so
// far across the whole file. It is the only mutable state shared between
// chunk workers; a CAS loop on a single atomic keeps the hot path free
// of locks.
type seqTracker struct {
	last atomic.Uint32
}

// observe records seq and reports the missing range when the file-wide
// counter shows records were dropped. Sequence values 0 and 1 are
// sentinels the SDK writes around restarts; they neither arm nor
// trigger the gap check.
func (t *seqTracker) observe(seq uint16) (from, to uint16, gap bool) {
	if seq <= 1 {
		return 0, 0, false
	}
	for {
		last := t.last.Load()
		if !t.last.CompareAndSwap(last, uint32(seq)) {
			continue
		}
		if last != 0 && uint32(seq) != last+1 {
			return uint16(last + 1), seq - 1, true
		}
		return 0, 0, false
	}
}

// decodeChunk walks one frame-aligned byte range and returns its output
// units in frame order. Bounds checks run against the whole buffer, not
// the range: the final chunk may legitimately own a frame that reaches
// the end of the file past its planned size.
func decodeChunk(buf []byte, start, end, window int, seq *seqTracker) ([]string, Stats) {
	var (
		lines  []string
		st     Stats
		cursor = start
	)
	for cursor < end {
		if container.Validate(buf, cursor, 1) != nil {
			fix := container.ScanFrameStart(buf, cursor, window, 1)
			if fix == -1 {
				// Nothing recoverable within the window; the rest of
				// this range is garbage.
				break
			}
			lines = append(lines, fmt.Sprintf("[F]decode error at offset %d", cursor))
			st.Resyncs++
			cursor = fix
			continue
		}
		if cursor >= len(buf) {
			break
		}
		if _, ok := container.KeyLen(buf[cursor]); !ok {
			// Single stray byte between frames.
			cursor++
			st.StrayBytes++
			continue
		}
		frame, err := container.ParseFrame(buf, cursor)
		if err != nil {
			break
		}
		// A frame crossing the planned boundary belongs to the next
		// chunk, whose start the planner snapped to this exact offset.
		// Skipping it here is what makes decoding exactly-once.
		if frame.End() > end && end != len(buf) {
			break
		}

		if from, to, gapped := seq.observe(frame.Seq); gapped {
			lines = append(lines, fmt.Sprintf("[F]log seq %d-%d is missing", from, to))
			st.Gaps++
		}

		payload := buf[frame.PayloadStart : frame.PayloadStart+frame.PayloadLen]
		expanded, err := container.Expand(frame.Magic, payload)
		if err != nil {
			lines = append(lines, fmt.Sprintf("[F]decompress error: %v", err))
			st.DecompressErrors++
		} else {
			lines = append(lines, sanitizeUTF8(expanded))
			st.DecodedBytes += int64(len(expanded))
		}
		st.Frames++
		st.PayloadBytes += int64(frame.PayloadLen)
		cursor = frame.End()
	}
	return lines, st
}

// sanitizeUTF8 returns b as a string, substituting one replacement rune
// per invalid byte so the output length still reflects how much of the
// payload was unreadable.
func sanitizeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}
