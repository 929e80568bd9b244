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
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"

	"logcask/internal/container"
)

// frameBytes assembles one frame around an already wire-encoded payload.
func frameBytes(t *testing.T, magic byte, seq uint16, payload []byte) []byte {
	t.Helper()
	keyLen, ok := container.KeyLen(magic)
	if !ok {
		t.Fatalf("frameBytes: bad magic 0x%02x", magic)
	}
	buf := make([]byte, 9+keyLen)
	buf[0] = magic
	binary.LittleEndian.PutUint16(buf[1:], seq)
	binary.LittleEndian.PutUint32(buf[5:], uint32(len(payload)))
	buf = append(buf, payload...)
	return append(buf, container.EndMarker)
}

// textFrame assembles a frame whose payload, after expansion, is text.
// The payload is encoded to match the magic's compression variant.
func textFrame(t *testing.T, magic byte, seq uint16, text string) []byte {
	t.Helper()
	var payload []byte
	switch container.Encoding(magic) {
	case container.EncodingDeflate:
		payload = deflateBytes(t, []byte(text))
	case container.EncodingSubBlocks:
		payload = subBlocks(t, deflateBytes(t, []byte(text)), 8)
	default:
		payload = []byte(text)
	}
	return frameBytes(t, magic, seq, payload)
}

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

// diagnosticCount returns how many lines are decoder-generated markers.
func diagnosticCount(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "[F]") || strings.HasPrefix(l, "Error processing chunk") {
			n++
		}
	}
	return n
}
