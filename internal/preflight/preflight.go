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

// Package preflight performs pre-launch checks for the supervised process.
//
// The port probe is inherently racy: another process may grab the port
// between the probe and mongod's own bind. The check is a best-effort
// diagnostic to fail fast on obvious conflicts; the spawn itself remains the
// authoritative signal of a true conflict.
package preflight

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrPortInUse is returned when the target port is already bound.
	ErrPortInUse = errors.New("port already in use")
)

// CheckPort verifies that 127.0.0.1:port can be bound. The transient
// listener is closed immediately; the real server binds the port later.
func CheckPort(port uint16) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: %s", ErrPortInUse, addr)
		}
		return fmt.Errorf("port preflight probe on %s failed: %w", addr, err)
	}

	if err := ln.Close(); err != nil {
		return fmt.Errorf("failed to close preflight probe on %s: %w", addr, err)
	}
	return nil
}
