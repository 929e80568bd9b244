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
LogCask CLI - decode binary log containers to plaintext.

USAGE:
======

	logcask [options] FILE [FILE...]

OPTIONS:
========

	-config string    Path to configuration file (JSON format)
	-workers int      Chunk worker count (overrides config)
	-inspect          Print per-frame structure instead of decoding
	-export string    Write results to an Avro object-container file
	-ship             Publish decoded lines to the configured Kafka topic
	-quiet            Skip the banner, output decoded lines only
	-json-log         JSON log output
	-version          Show version information

Decoded lines go to stdout; logs and progress go to stderr, so piping
the output stays clean.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"logcask/internal/banner"
	"logcask/internal/bridge"
	"logcask/internal/config"
	"logcask/internal/container"
	"logcask/internal/decode"
	"logcask/internal/export"
	"logcask/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to configuration file (JSON)")
		workers    = flag.Int("workers", 0, "chunk worker count (overrides config)")
		inspect    = flag.Bool("inspect", false, "print per-frame structure instead of decoding")
		exportPath = flag.String("export", "", "write results to an Avro object-container file")
		ship       = flag.Bool("ship", false, "publish decoded lines to the configured Kafka topic")
		quiet      = flag.Bool("quiet", false, "skip the banner, output decoded lines only")
		jsonLog    = flag.Bool("json-log", false, "JSON log output")
		version    = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *version {
		banner.PrintCompact()
		return
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: logcask [options] FILE [FILE...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON || *jsonLog)
	log := logging.NewLogger("main")

	if !*quiet {
		banner.PrintTo(os.Stderr)
	}

	if *inspect {
		if err := inspectFiles(flag.Args()); err != nil {
			log.Error("inspect failed", "error", err.Error())
			os.Exit(1)
		}
		return
	}

	d := decode.New(decode.FromConfig(cfg))
	paths := flag.Args()
	results, err := d.DecodeFiles(paths, func(percent float64, message string) {
		if *quiet {
			return
		}
		if message != "" {
			fmt.Fprintf(os.Stderr, "\r%5.1f%%  %s\n", percent, message)
		} else {
			fmt.Fprintf(os.Stderr, "\r%5.1f%%", percent)
		}
	})
	if err != nil {
		log.Error("decode failed", "error", err.Error())
		os.Exit(1)
	}

	if *exportPath != "" {
		if err := exportResults(*exportPath, paths, results); err != nil {
			log.Error("export failed", "error", err.Error())
			os.Exit(1)
		}
		log.Info("exported results", "path", *exportPath)
	}

	if *ship {
		if len(cfg.Kafka.Brokers) == 0 {
			log.Error("ship requested but no kafka brokers configured")
			os.Exit(1)
		}
		if err := shipResults(cfg, paths, results); err != nil {
			log.Error("ship failed", "error", err.Error())
			os.Exit(1)
		}
	}

	if *exportPath == "" {
		for _, path := range paths {
			res, ok := results[path]
			if !ok {
				continue
			}
			for _, line := range res.Lines {
				fmt.Println(line)
			}
		}
	}
}

func inspectFiles(paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d bytes\n", path, len(data))
		for _, f := range container.Inspect(data) {
			fmt.Printf("  offset=%-10d magic=0x%02x seq=%-5d key=%-2d payload=%d\n",
				f.Offset, f.Magic, f.Seq, f.KeyLen, f.PayloadLen)
		}
	}
	return nil
}

func exportResults(path string, order []string, results map[string]*decode.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteAvroBatch(f, order, results)
}

func shipResults(cfg *config.Config, order []string, results map[string]*decode.Result) error {
	shipper := bridge.NewShipper(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer shipper.Close()
	for _, path := range order {
		res, ok := results[path]
		if !ok {
			continue
		}
		if err := shipper.Ship(context.Background(), path, res.Lines); err != nil {
			return err
		}
	}
	return nil
}
