// Copyright 2025 The Mongoward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config defines the mongoward configuration schema and its
// resolution to concrete defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Resolve for fields left at their zero value.
const (
	// DefaultBinaryPath is resolved against PATH at launch time.
	DefaultBinaryPath = "mongod"
	// DefaultPort is the well-known mongod listen port.
	DefaultPort uint16 = 27017
	// DefaultDataDir is relative to the working directory.
	DefaultDataDir = ".mongoward-data"
	// DefaultLogFilePath is where mongod writes its own log.
	DefaultLogFilePath = "logs/mongod.log"
)

// Config describes one supervised mongod instance.
//
// A Config produced by Resolve is fully populated and must be treated as
// immutable; every other package reads only resolved values.
type Config struct {
	// Enabled controls whether the supervisor does anything at all.
	// When false, Start and Stop are silent no-ops.
	Enabled bool `yaml:"enabled"`

	// BinaryPath is the mongod executable. A bare name is looked up on PATH.
	BinaryPath string `yaml:"binary_path"`

	// DataDir is mongod's storage directory, created if absent.
	DataDir string `yaml:"data_dir"`

	// Port is the loopback port mongod listens on.
	Port uint16 `yaml:"port"`

	// LogFilePath is where mongod writes its server log. The parent
	// directory is created if absent.
	LogFilePath string `yaml:"log_file_path"`

	// CacheSizeGB caps the WiredTiger cache. Nil lets the engine decide.
	CacheSizeGB *float64 `yaml:"cache_size_gb,omitempty"`
}

// Resolve fills every unset field of c with its default and returns the
// fully-populated configuration. The input is not modified.
func Resolve(c Config) (Config, error) {
	if c.BinaryPath == "" {
		c.BinaryPath = DefaultBinaryPath
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(".", DefaultDataDir)
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogFilePath == "" {
		c.LogFilePath = filepath.Join(".", DefaultLogFilePath)
	}
	if c.CacheSizeGB != nil && *c.CacheSizeGB <= 0 {
		return Config{}, fmt.Errorf("cache_size_gb must be positive, got %v", *c.CacheSizeGB)
	}
	return c, nil
}

// Load reads a YAML configuration file. A missing file yields a zero Config
// so callers can run on pure defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return c, nil
}
