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
Package export writes decode results in interchange formats for
downstream pipelines. The Avro object-container format keeps the line
order and flags decoder-generated diagnostics so consumers can filter
them without re-parsing the "[F]" convention.
*/
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/hamba/avro/v2/ocf"

	"logcask/internal/decode"
)

// LineSchema is the Avro schema for one decoded line.
const LineSchema = `{
  "type": "record",
  "name": "DecodedLine",
  "namespace": "logcask",
  "fields": [
    {"name": "file", "type": "string"},
    {"name": "index", "type": "long"},
    {"name": "line", "type": "string"},
    {"name": "diagnostic", "type": "boolean"}
  ]
}`

// Line is one record in the export stream.
type Line struct {
	File       string `avro:"file"`
	Index      int64  `avro:"index"`
	Line       string `avro:"line"`
	Diagnostic bool   `avro:"diagnostic"`
}

// IsDiagnostic reports whether a decoded line is a decoder-generated
// marker rather than original log content.
func IsDiagnostic(line string) bool {
	return strings.HasPrefix(line, "[F]") || strings.HasPrefix(line, "Error processing chunk")
}

// WriteAvro writes one file's decode result to w as an Avro
// object-container stream.
func WriteAvro(w io.Writer, file string, res *decode.Result) error {
	enc, err := ocf.NewEncoder(LineSchema, w, ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return fmt.Errorf("export: create encoder: %w", err)
	}
	for i, line := range res.Lines {
		rec := Line{
			File:       file,
			Index:      int64(i),
			Line:       line,
			Diagnostic: IsDiagnostic(line),
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("export: encode line %d: %w", i, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: close: %w", err)
	}
	return nil
}

// WriteAvroBatch writes a batch decode result, iterating files in the
// given order so the stream is reproducible.
func WriteAvroBatch(w io.Writer, order []string, results map[string]*decode.Result) error {
	enc, err := ocf.NewEncoder(LineSchema, w, ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return fmt.Errorf("export: create encoder: %w", err)
	}
	for _, file := range order {
		res, ok := results[file]
		if !ok {
			continue
		}
		for i, line := range res.Lines {
			rec := Line{
				File:       file,
				Index:      int64(i),
				Line:       line,
				Diagnostic: IsDiagnostic(line),
			}
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("export: encode %s line %d: %w", file, i, err)
			}
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: close: %w", err)
	}
	return nil
}
