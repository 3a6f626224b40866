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

package readiness

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitReady(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("readiness signal never fired")
	}
}

func assertNotReady(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("readiness fired unexpectedly")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMarkerMatcher(t *testing.T) {
	m := MarkerMatcher(DefaultMarker)

	assert.True(t, m("2024-01-01T00:00:00.000+0000 I NETWORK  waiting for connections on port 27017"))
	assert.True(t, m("WAITING FOR CONNECTIONS"), "match is case-insensitive")
	assert.False(t, m("initializing storage engine"))
}

func TestDetectorWatch(t *testing.T) {
	t.Run("marker on stdout", func(t *testing.T) {
		stdout := strings.NewReader("starting up\nwaiting for connections on port 27017\n")
		stderr := strings.NewReader("")

		ready := NewDetector(nil).Watch(stdout, stderr)
		waitReady(t, ready)
	})

	t.Run("marker on stderr", func(t *testing.T) {
		stdout := strings.NewReader("starting up\n")
		stderr := strings.NewReader("note: Waiting For Connections\n")

		ready := NewDetector(nil).Watch(stdout, stderr)
		waitReady(t, ready)
	})

	t.Run("no marker means no signal", func(t *testing.T) {
		stdout := strings.NewReader("starting up\nshutting down\n")
		stderr := strings.NewReader("some error\n")

		ready := NewDetector(nil).Watch(stdout, stderr)
		assertNotReady(t, ready)
	})

	t.Run("single fire with marker on both streams", func(t *testing.T) {
		stdout := strings.NewReader("waiting for connections\n")
		stderr := strings.NewReader("waiting for connections\n")

		ready := NewDetector(nil).Watch(stdout, stderr)
		waitReady(t, ready)
		// Channel stays closed; a second receive must not block or panic.
		<-ready
	})

	t.Run("keeps draining after the signal", func(t *testing.T) {
		pr, pw := io.Pipe()
		stderr := strings.NewReader("")

		ready := NewDetector(nil).Watch(pr, stderr)

		go func() {
			_, _ = io.WriteString(pw, "waiting for connections\n")
			// A blocked write here would mean the scanner stopped reading.
			for i := 0; i < 100; i++ {
				_, _ = io.WriteString(pw, "trailing log line\n")
			}
			pw.Close()
		}()

		waitReady(t, ready)
	})

	t.Run("custom matcher", func(t *testing.T) {
		m := func(line string) bool { return strings.HasPrefix(line, "READY") }
		stdout := strings.NewReader("warming up\nREADY to serve\n")

		ready := NewDetector(m).Watch(stdout, strings.NewReader(""))
		waitReady(t, ready)
	})
}
