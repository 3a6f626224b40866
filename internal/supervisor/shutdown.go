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
	"log/slog"
	"syscall"
	"time"

	"github.com/calloway/mongoward/internal/history"
	"github.com/calloway/mongoward/internal/launcher"
	"github.com/calloway/mongoward/internal/log"
)

// Stop shuts the process down and always succeeds once it returns: a
// graceful termination request first, then forced termination of the whole
// process group after the grace period. Shutdown failures are absorbed,
// never surfaced, so Stop is unconditionally reliable even against an
// unresponsive process.
//
// Stop is valid from any state. Called during Starting it rejects the
// pending attempt with ErrStopped before terminating. With no process and
// no pending attempt it is a no-op. After Stop the supervisor is Stopped
// and a later Start begins a fresh attempt.
func (s *Supervisor) Stop(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()

	if pending != nil {
		if pending.claim() {
			s.abortStartup(pending)
			return nil
		}
		// Another signal settled the attempt first; let its transition
		// finish, then stop whatever state resulted.
		<-pending.done
	}

	s.mu.Lock()
	proc := s.proc
	if proc == nil {
		// A concurrent Stop may still be terminating the process it took
		// ownership of; leave its Stopping state alone.
		if s.state != StateStopping {
			s.setStateLocked(StateStopped)
		}
		s.mu.Unlock()
		return nil
	}
	s.proc = nil
	s.setStateLocked(StateStopping)
	s.mu.Unlock()

	forced := s.terminate(proc)

	s.mu.Lock()
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	recordStop(forced)
	typ := history.EventStop
	if forced {
		typ = history.EventForcedKill
	}
	s.record("", typ, proc.PID(), "")
	return nil
}

// abortStartup is the stop path for a claimed in-flight attempt. Any
// process the startup goroutine has already published is terminated; one
// still mid-spawn is reaped by the startup goroutine's own settled check.
func (s *Supervisor) abortStartup(attempt *startAttempt) {
	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.pending = nil
	s.setStateLocked(StateStopping)
	s.mu.Unlock()

	forced := false
	if proc != nil {
		forced = s.terminate(proc)
	}

	s.mu.Lock()
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	recordStartOutcome(startOutcome(ErrStopped))
	s.record(attempt.id, history.EventStartFailure, pidOf(proc), ErrStopped.Error())
	if proc != nil {
		recordStop(forced)
	}
	s.logger.Info("startup aborted by stop request",
		slog.String(log.AttemptIDKey, attempt.id))

	attempt.complete(ErrStopped)
}

// terminate drives one process to exit: SIGTERM, a grace period, then
// SIGKILL of the process group. Reports whether force was needed.
func (s *Supervisor) terminate(proc *launcher.Process) (forced bool) {
	pid := proc.PID()
	s.logger.Info("stopping process", slog.Int(log.PIDKey, pid))

	// Signal errors mean the process is already gone; Done tells us for sure.
	_ = proc.Signal(syscall.SIGTERM)

	timer := time.NewTimer(s.gracePeriod)
	defer timer.Stop()

	select {
	case <-proc.Done():
		s.logger.Info("process exited gracefully", slog.Int(log.PIDKey, pid))
		return false
	case <-timer.C:
	}

	s.logger.Warn("grace period elapsed, forcing termination",
		slog.Int(log.PIDKey, pid))
	_ = proc.Kill()
	<-proc.Done()
	return true
}
