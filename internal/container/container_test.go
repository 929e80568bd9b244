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
	"testing"

	"github.com/klauspost/compress/flate"
)

// rawFrame assembles one frame with the given magic, sequence number and
// payload bytes (already in wire encoding for the compressed magics).
func rawFrame(t *testing.T, magic byte, seq uint16, payload []byte) []byte {
	t.Helper()
	keyLen, ok := KeyLen(magic)
	if !ok {
		t.Fatalf("rawFrame: bad magic 0x%02x", magic)
	}
	buf := make([]byte, fixedHeaderLen+keyLen)
	buf[0] = magic
	binary.LittleEndian.PutUint16(buf[seqOffset:], seq)
	binary.LittleEndian.PutUint32(buf[lengthOffset:], uint32(len(payload)))
	buf = append(buf, payload...)
	return append(buf, EndMarker)
}

// deflateBytes produces a raw-deflate stream for the given data.
func deflateBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w, err := flate.NewWriter(&b, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}
	return b.Bytes()
}

// subBlocks splits data into 2-byte length-prefixed blocks of the given size.
func subBlocks(t *testing.T, data []byte, blockSize int) []byte {
	t.Helper()
	var out []byte
	for pos := 0; pos < len(data); pos += blockSize {
		end := pos + blockSize
		if end > len(data) {
			end = len(data)
		}
		var prefix [2]byte
		binary.LittleEndian.PutUint16(prefix[:], uint16(end-pos))
		out = append(out, prefix[:]...)
		out = append(out, data[pos:end]...)
	}
	return out
}

func TestKeyLen(t *testing.T) {
	tests := []struct {
		magic  byte
		keyLen int
		ok     bool
	}{
		{0x03, 4, true},
		{0x04, 4, true},
		{0x05, 4, true},
		{0x06, 64, true},
		{0x07, 64, true},
		{0x08, 64, true},
		{0x09, 64, true},
		{0x00, 0, false},
		{0x02, 0, false},
		{0x0A, 0, false},
		{0xFF, 0, false},
	}
	for _, tt := range tests {
		keyLen, ok := KeyLen(tt.magic)
		if keyLen != tt.keyLen || ok != tt.ok {
			t.Errorf("KeyLen(0x%02x) = (%d, %v), want (%d, %v)", tt.magic, keyLen, ok, tt.keyLen, tt.ok)
		}
	}
}

func TestValidate(t *testing.T) {
	f1 := rawFrame(t, 0x03, 2, []byte("hello"))
	f2 := rawFrame(t, 0x06, 3, []byte("world"))
	good := append(append([]byte{}, f1...), f2...)

	t.Run("single frame", func(t *testing.T) {
		if err := Validate(good, 0, 1); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("two frame chain", func(t *testing.T) {
		if err := Validate(good, 0, 2); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("chain hitting end of stream", func(t *testing.T) {
		// Second iteration lands exactly on len(buf).
		if err := Validate(good, len(f1), 2); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("offset at end of buffer", func(t *testing.T) {
		if err := Validate(good, len(good), 1); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("invalid magic", func(t *testing.T) {
		bad := append([]byte{}, good...)
		bad[0] = 0x42
		if err := Validate(bad, 0, 1); !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("Validate() = %v, want ErrInvalidMagic", err)
		}
	})

	t.Run("truncated header", func(t *testing.T) {
		if err := Validate(f1[:5], 0, 1); !errors.Is(err, ErrTruncatedFrame) {
			t.Errorf("Validate() = %v, want ErrTruncatedFrame", err)
		}
	})

	t.Run("truncated payload", func(t *testing.T) {
		if err := Validate(f1[:len(f1)-2], 0, 1); !errors.Is(err, ErrTruncatedFrame) {
			t.Errorf("Validate() = %v, want ErrTruncatedFrame", err)
		}
	})

	t.Run("bad terminator", func(t *testing.T) {
		bad := append([]byte{}, good...)
		bad[len(f1)-1] = 0xEE
		if err := Validate(bad, 0, 2); !errors.Is(err, ErrBadTerminator) {
			t.Errorf("Validate() = %v, want ErrBadTerminator", err)
		}
	})

	t.Run("chain broken by garbage", func(t *testing.T) {
		bad := append(append([]byte{}, f1...), 0xDE, 0xAD, 0xBE, 0xEF)
		if err := Validate(bad, 0, 2); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})
}

func TestScanFrameStart(t *testing.T) {
	frame := rawFrame(t, 0x03, 2, []byte("payload"))
	next := rawFrame(t, 0x03, 3, []byte("payload2"))

	t.Run("aligned at zero", func(t *testing.T) {
		buf := append(append([]byte{}, frame...), next...)
		if got := ScanFrameStart(buf, 0, 0, 2); got != 0 {
			t.Errorf("ScanFrameStart() = %d, want 0", got)
		}
	})

	t.Run("garbage prefix", func(t *testing.T) {
		garbage := []byte{0xFF, 0x01, 0xAB, 0x03, 0xFF}
		buf := append(append(append([]byte{}, garbage...), frame...), next...)
		if got := ScanFrameStart(buf, 0, 0, 2); got != len(garbage) {
			t.Errorf("ScanFrameStart() = %d, want %d", got, len(garbage))
		}
	})

	t.Run("nothing valid", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0x03, 0xFF}, 200)
		if got := ScanFrameStart(buf, 0, 0, 1); got != -1 {
			t.Errorf("ScanFrameStart() = %d, want -1", got)
		}
	})

	t.Run("window excludes frame", func(t *testing.T) {
		buf := append(bytes.Repeat([]byte{0xFF}, 50), frame...)
		if got := ScanFrameStart(buf, 0, 10, 1); got != -1 {
			t.Errorf("ScanFrameStart() = %d, want -1", got)
		}
		if got := ScanFrameStart(buf, 0, 60, 1); got != 50 {
			t.Errorf("ScanFrameStart() = %d, want 50", got)
		}
	})
}

func TestParseFrame(t *testing.T) {
	payload := []byte("some log text")
	frame := rawFrame(t, 0x07, 9, payload)

	f, err := ParseFrame(frame, 0)
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}
	if f.Magic != 0x07 || f.Seq != 9 || f.KeyLen != 64 {
		t.Errorf("ParseFrame() = %+v", f)
	}
	if f.PayloadStart != fixedHeaderLen+64 || f.PayloadLen != len(payload) {
		t.Errorf("payload bounds = (%d, %d)", f.PayloadStart, f.PayloadLen)
	}
	if f.End() != len(frame) {
		t.Errorf("End() = %d, want %d", f.End(), len(frame))
	}

	if _, err := ParseFrame(frame, len(frame)); !errors.Is(err, ErrBadOffset) {
		t.Errorf("ParseFrame(end) error = %v, want ErrBadOffset", err)
	}
}

func TestInspect(t *testing.T) {
	var buf []byte
	for i := 2; i <= 5; i++ {
		buf = append(buf, rawFrame(t, 0x03, uint16(i), []byte{byte('a' + i)})...)
	}
	frames := Inspect(buf)
	if len(frames) != 4 {
		t.Fatalf("Inspect() returned %d frames, want 4", len(frames))
	}
	for i, f := range frames {
		if f.Seq != uint16(i+2) {
			t.Errorf("frame %d seq = %d, want %d", i, f.Seq, i+2)
		}
	}

	if frames := Inspect([]byte{0x01, 0x02, 0xFF}); frames != nil {
		t.Errorf("Inspect(garbage) = %v, want nil", frames)
	}
}
