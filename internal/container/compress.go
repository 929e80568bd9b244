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

package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Payload encodings selected by the frame magic.
const (
	// EncodingPlain payloads are used as-is.
	EncodingPlain = iota
	// EncodingDeflate payloads are a single raw-deflate stream (no zlib
	// or gzip wrapper).
	EncodingDeflate
	// EncodingSubBlocks payloads are a run of sub-blocks, each prefixed
	// with a 2-byte little-endian length. The concatenated sub-block
	// contents form one raw-deflate stream. The SDK writes this variant
	// when it flushes its compressor incrementally.
	EncodingSubBlocks
)

var ErrSubBlockTruncated = errors.New("container: sub-block truncated")

// Encoding returns the payload encoding for a magic byte. Unknown magics
// report plain; callers gate on KeyLen first.
func Encoding(magic byte) int {
	switch magic {
	case 0x04, 0x07, 0x09:
		return EncodingDeflate
	case 0x05:
		return EncodingSubBlocks
	default:
		return EncodingPlain
	}
}

// Expand decodes a frame payload according to its magic: inflates the
// deflate variants, reassembles and inflates the sub-block variant, and
// passes plain payloads through untouched.
func Expand(magic byte, payload []byte) ([]byte, error) {
	switch Encoding(magic) {
	case EncodingDeflate:
		return inflate(payload)
	case EncodingSubBlocks:
		joined, err := joinSubBlocks(payload)
		if err != nil {
			return nil, err
		}
		return inflate(joined)
	default:
		return payload, nil
	}
}

// inflate decompresses a raw-deflate stream.
func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

// joinSubBlocks strips the 2-byte length prefixes and concatenates the
// sub-block contents.
func joinSubBlocks(payload []byte) ([]byte, error) {
	joined := make([]byte, 0, len(payload))
	for pos := 0; pos < len(payload); {
		if pos+2 > len(payload) {
			return nil, fmt.Errorf("%w: length prefix at %d", ErrSubBlockTruncated, pos)
		}
		n := int(binary.LittleEndian.Uint16(payload[pos:]))
		pos += 2
		if pos+n > len(payload) {
			return nil, fmt.Errorf("%w: %d bytes at %d", ErrSubBlockTruncated, n, pos)
		}
		joined = append(joined, payload[pos:pos+n]...)
		pos += n
	}
	return joined, nil
}
