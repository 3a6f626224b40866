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

// Package history persists supervisor lifecycle events. Recording is
// best-effort: failures here must never change a lifecycle outcome.
package history

import (
	"context"
	"time"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	// EventStart marks the beginning of a startup attempt.
	EventStart EventType = "start"
	// EventReady marks a successful startup (readiness observed).
	EventReady EventType = "ready"
	// EventStartFailure marks a rejected startup attempt.
	EventStartFailure EventType = "start_failure"
	// EventStop marks a graceful shutdown.
	EventStop EventType = "stop"
	// EventForcedKill marks a shutdown that escalated to SIGKILL.
	EventForcedKill EventType = "forced_kill"
	// EventCrash marks a process exit while the supervisor was running it.
	EventCrash EventType = "crash"
)

// Event is one recorded lifecycle occurrence.
type Event struct {
	// AttemptID correlates events belonging to one startup attempt.
	AttemptID string
	// Type is the event classification.
	Type EventType
	// PID is the supervised process ID, if one existed at the time.
	PID int
	// Detail carries free-form context, usually an error string.
	Detail string
	// OccurredAt is when the event happened, UTC.
	OccurredAt time.Time
}

// Recorder is a destination for lifecycle events.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Event) error
	Close() error
}

// Nop is a Recorder that discards all events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

// Close implements Recorder.
func (Nop) Close() error { return nil }
