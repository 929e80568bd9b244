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
	"path/filepath"
)

// DecodeFiles decodes each file in order and returns a map from path to
// its result. Progress is composed across the set: each file owns an
// equal share of the percentage, and the message is populated at each
// file start and once at the end. An unreadable file stops the batch;
// files decoded before it are still returned.
func (d *Decoder) DecodeFiles(paths []string, progress BatchProgressFunc) (map[string]*Result, error) {
	results := make(map[string]*Result, len(paths))
	total := float64(len(paths))
	for i, path := range paths {
		base := float64(i) / total * 100
		if progress != nil {
			progress(base, fmt.Sprintf("decoding %s", filepath.Base(path)))
		}
		res, err := d.DecodeFile(path, func(p float64) {
			if progress != nil {
				progress(base+p/total, "")
			}
		})
		if err != nil {
			return results, err
		}
		results[path] = res
	}
	if progress != nil {
		progress(100, "done")
	}
	return results, nil
}
