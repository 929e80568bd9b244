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

import "logcask/internal/container"

// chunk is a half-open byte range [start, end) assigned to one worker.
type chunk struct {
	start int
	end   int
}

// planChunks splits the buffer into near-equal frame-aligned ranges.
//
// The plan starts at the first offset where two consecutive frames
// validate; requiring two keeps random bytes that happen to look like a
// single frame header from mis-aligning the whole decode. Each boundary
// after that is snapped forward to the next verified frame start within
// the snap window, so no frame is split across two ranges. If no frame
// start exists within the window, the chunk extends to end of file.
//
// The resulting ranges are contiguous and non-overlapping; together with
// the decoder's boundary rule this gives each frame to exactly one chunk.
func planChunks(buf []byte, workers, floorBytes, window int) []chunk {
	start := container.ScanFrameStart(buf, 0, 0, 2)
	if start == -1 {
		return nil
	}

	size := len(buf) / workers
	if size < floorBytes {
		size = floorBytes
	}

	var chunks []chunk
	for off := start; off < len(buf); {
		end := off + size
		if end >= len(buf) {
			end = len(buf)
		} else if next := container.ScanFrameStart(buf, end, window, 1); next != -1 {
			end = next
		} else {
			end = len(buf)
		}
		chunks = append(chunks, chunk{start: off, end: end})
		off = end
	}
	return chunks
}
