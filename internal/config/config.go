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
Package config provides configuration management for LogCask.

CONFIGURATION SOURCES (in order of precedence):
===============================================
1. Command-line flags (highest priority, applied by the binaries)
2. Environment variables (LOGCASK_* prefix)
3. Configuration file (JSON format)
4. Default values (lowest priority)

EXAMPLE CONFIGURATION FILE:
===========================

	{
	  "workers": 4,
	  "chunk_timeout_secs": 30,
	  "log_level": "info",
	  "listen_addr": ":8632",
	  "kafka": {
	    "brokers": ["localhost:9092"],
	    "topic": "decoded-logs"
	  }
	}
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvWorkers      = "LOGCASK_WORKERS"
	EnvChunkFloor   = "LOGCASK_CHUNK_FLOOR_BYTES"
	EnvResyncWindow = "LOGCASK_RESYNC_WINDOW_BYTES"
	EnvChunkTimeout = "LOGCASK_CHUNK_TIMEOUT_SECS"
	EnvLogLevel     = "LOGCASK_LOG_LEVEL"
	EnvLogJSON      = "LOGCASK_LOG_JSON"
	EnvListenAddr   = "LOGCASK_LISTEN_ADDR"
	EnvOrigins      = "LOGCASK_ALLOWED_ORIGINS"
	EnvKafkaBrokers = "LOGCASK_KAFKA_BROKERS"
	EnvKafkaTopic   = "LOGCASK_KAFKA_TOPIC"
)

// Default values.
const (
	DefaultChunkFloorBytes   = 1 << 20 // 1 MiB
	DefaultResyncWindowBytes = 1000
	DefaultChunkTimeoutSecs  = 30
	DefaultListenAddr        = ":8632"
)

// KafkaConfig configures the optional decoded-line shipper.
type KafkaConfig struct {
	Brokers []string `json:"brokers,omitempty"`
	Topic   string   `json:"topic,omitempty"`
}

// Config holds all LogCask settings.
type Config struct {
	// Decode settings.
	Workers           int `json:"workers"`
	ChunkFloorBytes   int `json:"chunk_floor_bytes"`
	ResyncWindowBytes int `json:"resync_window_bytes"`
	ChunkTimeoutSecs  int `json:"chunk_timeout_secs"`

	// Logging settings.
	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`

	// Gateway settings (logcask-serve).
	ListenAddr     string   `json:"listen_addr"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`

	// Optional Kafka shipping.
	Kafka KafkaConfig `json:"kafka"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	return &Config{
		Workers:           workers,
		ChunkFloorBytes:   DefaultChunkFloorBytes,
		ResyncWindowBytes: DefaultResyncWindowBytes,
		ChunkTimeoutSecs:  DefaultChunkTimeoutSecs,
		LogLevel:          "info",
		LogJSON:           false,
		ListenAddr:        DefaultListenAddr,
	}
}

// Load builds a Config from defaults, an optional JSON file, and
// environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvChunkFloor); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkFloorBytes = n
		}
	}
	if v := os.Getenv(EnvResyncWindow); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ResyncWindowBytes = n
		}
	}
	if v := os.Getenv(EnvChunkTimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkTimeoutSecs = n
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		c.LogJSON = v == "true" || v == "1"
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvOrigins); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv(EnvKafkaTopic); v != "" {
		c.Kafka.Topic = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	if c.ChunkFloorBytes < 1 {
		return fmt.Errorf("config: chunk_floor_bytes must be >= 1, got %d", c.ChunkFloorBytes)
	}
	if c.ResyncWindowBytes < 1 {
		return fmt.Errorf("config: resync_window_bytes must be >= 1, got %d", c.ResyncWindowBytes)
	}
	if c.ChunkTimeoutSecs < 1 {
		return fmt.Errorf("config: chunk_timeout_secs must be >= 1, got %d", c.ChunkTimeoutSecs)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("config: kafka.topic is required when kafka.brokers is set")
	}
	return nil
}

// ChunkTimeout returns the per-chunk timeout as a Duration.
func (c *Config) ChunkTimeout() time.Duration {
	return time.Duration(c.ChunkTimeoutSecs) * time.Second
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
