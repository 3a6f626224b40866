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

// Package readiness detects when a supervised process starts accepting
// connections by scanning its output streams.
package readiness

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultMarker is the phrase mongod logs once it accepts connections.
const DefaultMarker = "waiting for connections"

// Matcher decides whether a single output line signals readiness.
type Matcher func(line string) bool

// MarkerMatcher returns a Matcher that does a case-insensitive substring
// match on the given phrase.
func MarkerMatcher(marker string) Matcher {
	lower := strings.ToLower(marker)
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), lower)
	}
}

// Detector watches process output for a readiness signal.
type Detector struct {
	match Matcher
}

// NewDetector creates a detector. A nil matcher uses MarkerMatcher(DefaultMarker).
func NewDetector(m Matcher) *Detector {
	if m == nil {
		m = MarkerMatcher(DefaultMarker)
	}
	return &Detector{match: m}
}

// Watch scans stdout and stderr concurrently and closes the returned
// channel the first time either stream contains a line the matcher accepts.
// The channel fires at most once; the marker may appear on either stream.
//
// Watch never blocks the caller. Both streams are drained to EOF even after
// the signal so the child process never stalls on a full pipe. Read errors
// end the affected scan silently; the pipes are closed out from under the
// scanners when the process exits, and that is not a readiness outcome.
func (d *Detector) Watch(stdout, stderr io.Reader) <-chan struct{} {
	ready := make(chan struct{})
	var once sync.Once

	scan := func(r io.Reader) func() error {
		return func() error {
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				if d.match(scanner.Text()) {
					once.Do(func() { close(ready) })
				}
			}
			return nil
		}
	}

	var g errgroup.Group
	g.Go(scan(stdout))
	g.Go(scan(stderr))
	go func() {
		// scan never returns an error; Wait just releases the goroutines.
		_ = g.Wait()
	}()

	return ready
}
