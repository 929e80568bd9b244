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
Package banner provides the startup banner display for LogCask.
The banner text is embedded at compile time from banner.txt.
*/
package banner

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
)

//go:embed banner.txt
var bannerText string

// ANSI escape codes for terminal text formatting.
const (
	AnsiGreen = "\033[32m"
	AnsiCyan  = "\033[36m"
	AnsiReset = "\033[0m"
	AnsiBold  = "\033[1m"
	AnsiDim   = "\033[2m"
)

// Version information.
const (
	Version   = "1.4.2"
	Copyright = "Copyright (c) 2026 Firefly Software Solutions Inc."
)

// Lines returns the banner as individual lines.
func Lines() []string {
	return strings.Split(strings.TrimRight(bannerText, "\n"), "\n")
}

// Print displays the startup banner with version and copyright information.
func Print() {
	PrintTo(nil)
}

// PrintTo writes the banner to w; nil means stdout.
func PrintTo(w io.Writer) {
	out := func(format string, args ...interface{}) {
		if w == nil {
			fmt.Printf(format+"\n", args...)
		} else {
			fmt.Fprintf(w, format+"\n", args...)
		}
	}
	out("")
	out("%s%s", AnsiCyan, AnsiBold)
	for _, line := range Lines() {
		out("  %s", line)
	}
	out("%s", AnsiReset)
	out("  %s%sLogCask%s %sv%s%s", AnsiGreen, AnsiBold, AnsiReset, AnsiDim, Version, AnsiReset)
	out("%s  Binary Log Container Decoder%s", AnsiDim, AnsiReset)
	out("")
	out("%s  %s%s", AnsiDim, Copyright, AnsiReset)
	out("")
}

// PrintCompact prints a one-line version of the banner.
func PrintCompact() {
	fmt.Println(AnsiCyan + AnsiBold + "LogCask" + AnsiReset + " v" + Version)
}
