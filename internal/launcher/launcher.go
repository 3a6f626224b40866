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

// Package launcher spawns the supervised mongod process with captured
// output streams.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/calloway/mongoward/internal/config"
)

var (
	// ErrSpawn is returned when the operating system cannot create the
	// process (binary not found, permission denied, pipe failure).
	ErrSpawn = errors.New("failed to spawn process")
)

// BuildArgs derives the mongod command line from a resolved configuration.
// The bind address is always loopback; the supervisor never exposes the
// server beyond localhost. The cache-size flag is emitted only when set.
func BuildArgs(cfg config.Config) []string {
	args := []string{
		"--dbpath", cfg.DataDir,
		"--port", strconv.Itoa(int(cfg.Port)),
		"--logpath", cfg.LogFilePath,
		"--bind_ip", "127.0.0.1",
	}
	if cfg.CacheSizeGB != nil {
		args = append(args, "--wiredTigerCacheSizeGB",
			strconv.FormatFloat(*cfg.CacheSizeGB, 'f', -1, 64))
	}
	return args
}

// Launcher spawns mongod processes for the supervisor.
type Launcher struct {
	logger *slog.Logger

	// Additional environment variables for the child process.
	Env []string
}

// New creates a launcher. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		logger: logger,
		Env:    os.Environ(),
	}
}

// Launch spawns the configured binary with stdout and stderr captured as
// pipes, never inherited, so host logs stay clean and the readiness
// detector can scan the output. The data directory and the log file's
// parent directory are created recursively if absent.
//
// The child runs in its own process group so a forced kill can take down
// any helpers it forks.
func (l *Launcher) Launch(cfg config.Config) (*Process, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create data directory: %v", ErrSpawn, err)
	}
	logDir := filepath.Dir(cfg.LogFilePath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create log directory: %v", ErrSpawn, err)
	}

	binary := cfg.BinaryPath
	if !strings.ContainsRune(binary, os.PathSeparator) {
		resolved, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not found in PATH: %v", ErrSpawn, binary, err)
		}
		binary = resolved
	}

	args := BuildArgs(cfg)
	cmd := exec.Command(binary, args...)
	cmd.Env = l.Env
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		// Own process group, so Kill can signal the whole group.
		Setpgid: true,
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to capture stdout: %v", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to capture stderr: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	l.logger.Debug("process spawned",
		slog.Int("pid", cmd.Process.Pid),
		slog.String("binary", binary),
		slog.Any("args", args),
	)

	return newProcess(cmd, stdout, stderr), nil
}
