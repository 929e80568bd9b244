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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeContainer(t *testing.T, dir, name string, lineCount int) (string, []string) {
	t.Helper()
	var buf []byte
	var lines []string
	for i := 0; i < lineCount; i++ {
		text := fmt.Sprintf("%s line %d", name, i)
		buf = append(buf, textFrame(t, 0x04, 0, text)...)
		lines = append(lines, text)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path, lines
}

func TestDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	pathA, linesA := writeContainer(t, dir, "a.logcask", 12)
	pathB, linesB := writeContainer(t, dir, "b.logcask", 7)

	type call struct {
		pct float64
		msg string
	}
	var calls []call
	d := New(testOptions())
	results, err := d.DecodeFiles([]string{pathA, pathB}, func(p float64, msg string) {
		calls = append(calls, call{p, msg})
	})
	if err != nil {
		t.Fatalf("DecodeFiles() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d entries, want 2", len(results))
	}
	if got := results[pathA].Lines; len(got) != len(linesA) || got[0] != linesA[0] {
		t.Errorf("results[a] = %v", got)
	}
	if got := results[pathB].Lines; len(got) != len(linesB) || got[len(got)-1] != linesB[len(linesB)-1] {
		t.Errorf("results[b] = %v", got)
	}

	var messages []string
	for _, c := range calls {
		if c.msg != "" {
			messages = append(messages, c.msg)
		}
	}
	want := []string{"decoding a.logcask", "decoding b.logcask", "done"}
	if len(messages) != len(want) {
		t.Fatalf("messages = %v, want %v", messages, want)
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Errorf("messages[%d] = %q, want %q", i, messages[i], want[i])
		}
	}

	for i := 1; i < len(calls); i++ {
		if calls[i].pct < calls[i-1].pct {
			t.Errorf("composite progress not monotonic: %v", calls)
		}
	}
	if last := calls[len(calls)-1]; last.pct != 100 || last.msg != "done" {
		t.Errorf("final call = %+v", last)
	}
}

func TestDecodeFilesMissingFileStopsBatch(t *testing.T) {
	dir := t.TempDir()
	pathA, _ := writeContainer(t, dir, "ok.logcask", 3)
	missing := filepath.Join(dir, "missing.logcask")

	d := New(testOptions())
	results, err := d.DecodeFiles([]string{pathA, missing}, nil)
	if err == nil {
		t.Fatal("DecodeFiles() = nil error, want failure")
	}
	if !strings.Contains(err.Error(), "missing.logcask") {
		t.Errorf("error = %v", err)
	}
	// The file decoded before the failure is still returned.
	if _, ok := results[pathA]; !ok {
		t.Errorf("results missing %s: %v", pathA, results)
	}
}

func TestDecodeFilesEmptySet(t *testing.T) {
	var finals []float64
	d := New(testOptions())
	results, err := d.DecodeFiles(nil, func(p float64, msg string) { finals = append(finals, p) })
	if err != nil || len(results) != 0 {
		t.Errorf("DecodeFiles(nil) = (%v, %v)", results, err)
	}
	if len(finals) != 1 || finals[0] != 100 {
		t.Errorf("progress = %v, want [100]", finals)
	}
}
