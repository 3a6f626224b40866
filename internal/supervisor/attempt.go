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

package supervisor

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// startAttempt is the single in-flight startup attempt shared by every
// concurrent Start caller. Its outcome is a one-shot cell: readiness, spawn
// failure, premature exit, timeout and stop-during-start all race to claim
// it, and only the first claimer decides the result. The claimer performs
// its cleanup and state transition before completing the attempt, so
// waiters only wake once the supervisor is in its final state.
type startAttempt struct {
	id      string
	claimed atomic.Bool
	err     error
	done    chan struct{}
}

func newStartAttempt() *startAttempt {
	return &startAttempt{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// claim marks the attempt as decided. It returns true for exactly one
// caller; every later signal source gets false and must treat its signal
// as a no-op.
func (a *startAttempt) claim() bool {
	return a.claimed.CompareAndSwap(false, true)
}

// settled reports whether some signal has already claimed the attempt.
func (a *startAttempt) settled() bool {
	return a.claimed.Load()
}

// complete publishes the outcome and wakes all waiters. Only the claimer
// may call it, exactly once, after cleanup is finished.
func (a *startAttempt) complete(err error) {
	a.err = err
	close(a.done)
}

// wait blocks until the attempt completes or ctx is canceled. A canceled
// context abandons only this caller's wait; the attempt keeps running and
// other callers still observe its real outcome.
func (a *startAttempt) wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
