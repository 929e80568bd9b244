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
Package container defines the binary log-container wire format produced by
the mobile logging SDK, and the structural validation primitives the
decoder builds on.

FRAME FORMAT:
=============
A container file is a flat sequence of frames. Each frame is:

	+-------+---------+-------+-------+-------------------+
	| Magic | Seq (2) | Aux 1 | Aux 2 | Length (4 bytes)  |
	+-------+---------+-------+-------+-------------------+
	|            Crypt key (4 or 64 bytes)                |
	+-----------------------------------------------------+
	|            Payload (Length bytes)                   |
	+-----------------------------------------------------+
	| End   |
	+-------+

All multi-byte integers are little-endian.

HEADER FIELDS:
==============
- Magic (1 byte): selects the payload encoding and the crypt-key length
  class (see the magic table below)
- Seq (2 bytes): per-frame counter used only to detect dropped records.
  Values 0 and 1 are sentinels written by the SDK on startup and carry
  no loss information
- Aux (2 bytes): producer-private flags, carried through uninterpreted
- Length (4 bytes): payload size in bytes
- Crypt key (4 or 64 bytes): key material for producers that encrypt;
  this decoder skips over it (see Frame.KeyLen)
- End (1 byte): must equal EndMarker (0x00)

MAGIC TABLE:
============

	Magic | Payload encoding               | Key bytes
	------|--------------------------------|----------
	0x03  | plain                          | 4
	0x04  | raw deflate                    | 4
	0x05  | sub-block framed raw deflate   | 4
	0x06  | plain                          | 64
	0x07  | raw deflate                    | 64
	0x08  | plain                          | 64
	0x09  | raw deflate                    | 64

There is no file-level header and no trailer: alignment is recovered by
scanning for an offset at which one or more consecutive frames validate
structurally. Validate and ScanFrameStart implement that; they never
touch payload contents.
*/
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// EndMarker terminates every frame.
const EndMarker byte = 0x00

// Header field offsets relative to the frame start.
const (
	seqOffset    = 1
	lengthOffset = 5
	keyOffset    = 9

	// fixedHeaderLen is the header size excluding the crypt key.
	fixedHeaderLen = keyOffset
)

// Structural validation errors. Validate wraps these with offset context;
// callers match with errors.Is.
var (
	ErrInvalidMagic   = errors.New("container: invalid magic byte")
	ErrTruncatedFrame = errors.New("container: frame truncated")
	ErrBadTerminator  = errors.New("container: missing end marker")
	ErrBadOffset      = errors.New("container: offset out of range")
)

// KeyLen returns the crypt-key length class for a magic byte, or false if
// the byte is not a known frame magic.
func KeyLen(magic byte) (int, bool) {
	switch magic {
	case 0x03, 0x04, 0x05:
		return 4, true
	case 0x06, 0x07, 0x08, 0x09:
		return 64, true
	default:
		return 0, false
	}
}

// isMagic reports whether b can start a frame. Used by the scanner to
// skip non-candidate bytes without running the full validator.
func isMagic(b byte) bool {
	return b >= 0x03 && b <= 0x09
}

// HeaderLen returns the full header size (fixed fields plus crypt key)
// for a magic byte, or false for an unknown magic.
func HeaderLen(magic byte) (int, bool) {
	keyLen, ok := KeyLen(magic)
	if !ok {
		return 0, false
	}
	return fixedHeaderLen + keyLen, true
}

// Frame describes one parsed frame header. Payload bytes stay in the
// backing buffer; PayloadStart/PayloadLen locate them.
type Frame struct {
	Offset       int
	Magic        byte
	Seq          uint16
	Aux          [2]byte
	KeyLen       int
	PayloadStart int
	PayloadLen   int
}

// End returns the offset one past the frame's terminator byte, i.e. the
// offset of the next frame.
func (f Frame) End() int {
	return f.PayloadStart + f.PayloadLen + 1
}

// ParseFrame reads the frame header at off. It assumes the frame has
// already passed Validate; it still bounds-checks so a stale offset
// cannot read out of range.
func ParseFrame(buf []byte, off int) (Frame, error) {
	if off < 0 || off >= len(buf) {
		return Frame{}, fmt.Errorf("%w: %d", ErrBadOffset, off)
	}
	headerLen, ok := HeaderLen(buf[off])
	if !ok {
		return Frame{}, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidMagic, buf[off], off)
	}
	if off+headerLen > len(buf) {
		return Frame{}, fmt.Errorf("%w: header at offset %d", ErrTruncatedFrame, off)
	}
	payloadLen := int(binary.LittleEndian.Uint32(buf[off+lengthOffset:]))
	if off+headerLen+payloadLen+1 > len(buf) {
		return Frame{}, fmt.Errorf("%w: payload at offset %d", ErrTruncatedFrame, off)
	}
	keyLen, _ := KeyLen(buf[off])
	return Frame{
		Offset:       off,
		Magic:        buf[off],
		Seq:          binary.LittleEndian.Uint16(buf[off+seqOffset:]),
		Aux:          [2]byte{buf[off+3], buf[off+4]},
		KeyLen:       keyLen,
		PayloadStart: off + headerLen,
		PayloadLen:   payloadLen,
	}, nil
}

// Validate checks that count consecutive frames starting at off are
// structurally well-formed: known magic, header and payload within the
// buffer, terminator in place. Payloads are not decoded. An offset at
// exactly the end of the buffer validates trivially (clean end of
// stream), which is what lets the final frame of a file chain-validate.
//
// The returned error describes the first structural problem; callers
// that only need a yes/no treat nil as good.
func Validate(buf []byte, off, count int) error {
	for i := 0; i < count; i++ {
		if off == len(buf) {
			return nil
		}
		if off < 0 || off > len(buf) {
			return fmt.Errorf("%w: %d", ErrBadOffset, off)
		}
		headerLen, ok := HeaderLen(buf[off])
		if !ok {
			return fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidMagic, buf[off], off)
		}
		if off+headerLen+2 > len(buf) {
			return fmt.Errorf("%w: header at offset %d", ErrTruncatedFrame, off)
		}
		payloadLen := int(binary.LittleEndian.Uint32(buf[off+lengthOffset:]))
		if off+headerLen+payloadLen+1 > len(buf) {
			return fmt.Errorf("%w: payload of %d bytes at offset %d", ErrTruncatedFrame, payloadLen, off)
		}
		if buf[off+headerLen+payloadLen] != EndMarker {
			return fmt.Errorf("%w: offset %d", ErrBadTerminator, off+headerLen+payloadLen)
		}
		off += headerLen + payloadLen + 1
	}
	return nil
}

// ScanFrameStart scans forward from `from`, trying at most window
// candidate offsets, for the first offset at which count consecutive
// frames validate. Returns -1 if no such offset exists within the
// window. Pass window <= 0 to scan to the end of the buffer.
//
// Worst case this is O(window * header length) when nothing validates,
// which is why resynchronization callers must keep the window bounded on
// corrupt input.
func ScanFrameStart(buf []byte, from, window, count int) int {
	if from < 0 {
		from = 0
	}
	limit := len(buf)
	if window > 0 && from+window < limit {
		limit = from + window
	}
	for off := from; off < limit; off++ {
		if !isMagic(buf[off]) {
			continue
		}
		if Validate(buf, off, count) == nil {
			return off
		}
	}
	return -1
}

// Inspect walks the buffer from its first aligned frame and returns the
// parsed header of every structurally valid frame, skipping corrupt
// regions the same way the decoder does. Payloads are not expanded.
func Inspect(buf []byte) []Frame {
	var frames []Frame
	off := ScanFrameStart(buf, 0, 0, 2)
	if off == -1 {
		return nil
	}
	for off < len(buf) {
		if Validate(buf, off, 1) != nil {
			next := ScanFrameStart(buf, off, 0, 1)
			if next == -1 {
				break
			}
			off = next
			continue
		}
		f, err := ParseFrame(buf, off)
		if err != nil {
			break
		}
		frames = append(frames, f)
		off = f.End()
	}
	return frames
}
