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
	"os"

	"github.com/tysonmote/gommap"
)

// fileBuffer is the raw container image for one decode. Preferably a
// read-only memory mapping shared by all chunk workers; a plain read is
// the fallback for filesystems that refuse mmap. The data is never
// written through either way.
type fileBuffer struct {
	data []byte
	mmap gommap.MMap
	file *os.File
}

// openFileBuffer loads path for decoding.
func openFileBuffer(path string) (*fileBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return &fileBuffer{}, nil
	}

	m, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
	if err == nil {
		return &fileBuffer{data: m, mmap: m, file: f}, nil
	}

	data, rerr := os.ReadFile(path)
	f.Close()
	if rerr != nil {
		return nil, rerr
	}
	return &fileBuffer{data: data}, nil
}

// Close releases the mapping. The buffer's data must not be used after.
func (b *fileBuffer) Close() error {
	var err error
	if b.mmap != nil {
		err = b.mmap.UnsafeUnmap()
		b.mmap = nil
	}
	if b.file != nil {
		if cerr := b.file.Close(); err == nil {
			err = cerr
		}
		b.file = nil
	}
	b.data = nil
	return err
}
