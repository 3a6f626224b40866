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

package launcher

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calloway/mongoward/internal/config"
)

// skipOnSpawnError skips when the environment forbids fork/exec
// (sandboxed test runners, some containers).
func skipOnSpawnError(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(err.Error(), "operation not permitted") {
		t.Skipf("Skipping: spawn not permitted in this environment: %v", err)
	}
}

// fakeBinary writes an executable shell script into dir and returns its path.
func fakeBinary(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-mongod")
	body := "#!/bin/sh\n" + script + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0700))
	return path
}

func testConfig(t *testing.T, binary string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Resolve(config.Config{
		Enabled:     true,
		BinaryPath:  binary,
		DataDir:     filepath.Join(dir, "data"),
		Port:        27017,
		LogFilePath: filepath.Join(dir, "logs", "mongod.log"),
	})
	require.NoError(t, err)
	return cfg
}

func TestBuildArgs(t *testing.T) {
	t.Run("base flags", func(t *testing.T) {
		cfg := config.Config{
			DataDir:     "/data/db",
			Port:        28017,
			LogFilePath: "/var/log/mongod.log",
		}

		args := BuildArgs(cfg)
		assert.Equal(t, []string{
			"--dbpath", "/data/db",
			"--port", "28017",
			"--logpath", "/var/log/mongod.log",
			"--bind_ip", "127.0.0.1",
		}, args)
	})

	t.Run("cache flag only when configured", func(t *testing.T) {
		cache := 0.25
		cfg := config.Config{DataDir: "d", Port: 1, LogFilePath: "l", CacheSizeGB: &cache}

		args := BuildArgs(cfg)
		assert.Contains(t, args, "--wiredTigerCacheSizeGB")
		assert.Contains(t, args, "0.25")

		cfg.CacheSizeGB = nil
		assert.NotContains(t, BuildArgs(cfg), "--wiredTigerCacheSizeGB")
	})
}

func TestLaunch(t *testing.T) {
	t.Run("creates data and log directories", func(t *testing.T) {
		bin := fakeBinary(t, t.TempDir(), "exit 0")
		cfg := testConfig(t, bin)

		proc, err := New(nil).Launch(cfg)
		skipOnSpawnError(t, err)
		require.NoError(t, err)
		<-proc.Done()

		for _, dir := range []string{cfg.DataDir, filepath.Dir(cfg.LogFilePath)} {
			info, err := os.Stat(dir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	})

	t.Run("captures stdout and stderr", func(t *testing.T) {
		bin := fakeBinary(t, t.TempDir(), "echo out-line; echo err-line >&2")
		cfg := testConfig(t, bin)

		proc, err := New(nil).Launch(cfg)
		skipOnSpawnError(t, err)
		require.NoError(t, err)

		out, _ := io.ReadAll(proc.Stdout())
		errOut, _ := io.ReadAll(proc.Stderr())
		<-proc.Done()

		assert.Contains(t, string(out), "out-line")
		assert.Contains(t, string(errOut), "err-line")
	})

	t.Run("passes derived arguments", func(t *testing.T) {
		bin := fakeBinary(t, t.TempDir(), `echo "$@"`)
		cfg := testConfig(t, bin)

		proc, err := New(nil).Launch(cfg)
		skipOnSpawnError(t, err)
		require.NoError(t, err)

		out, _ := io.ReadAll(proc.Stdout())
		<-proc.Done()

		assert.Contains(t, string(out), "--dbpath "+cfg.DataDir)
		assert.Contains(t, string(out), "--bind_ip 127.0.0.1")
	})

	t.Run("missing binary yields ErrSpawn", func(t *testing.T) {
		cfg := testConfig(t, "mongoward-no-such-binary")

		_, err := New(nil).Launch(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSpawn)
	})

	t.Run("exit status visible after done", func(t *testing.T) {
		bin := fakeBinary(t, t.TempDir(), "exit 3")
		cfg := testConfig(t, bin)

		proc, err := New(nil).Launch(cfg)
		skipOnSpawnError(t, err)
		require.NoError(t, err)

		select {
		case <-proc.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("process did not exit")
		}

		assert.Error(t, proc.ExitErr())
		assert.Equal(t, 3, proc.ExitCode())
	})

	t.Run("kill terminates a lingering process", func(t *testing.T) {
		bin := fakeBinary(t, t.TempDir(), "sleep 60")
		cfg := testConfig(t, bin)

		proc, err := New(nil).Launch(cfg)
		skipOnSpawnError(t, err)
		require.NoError(t, err)

		require.NoError(t, proc.Kill())

		select {
		case <-proc.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("process survived SIGKILL")
		}
	})
}
