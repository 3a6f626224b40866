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

/*
Package supervisor owns the lifecycle of a single supervised mongod
process: preflight, launch, readiness detection, and orderly shutdown with
forced-kill escalation.

The central correctness property is exactly-once resolution of a startup
attempt. Readiness, spawn failure, premature exit, the startup timeout and
a concurrent Stop all originate from independent goroutines; whichever
claims the attempt first decides the outcome, and every later signal is a
no-op. Concurrent Start calls share the in-flight attempt and observe its
single outcome, so at most one process is ever spawned per attempt.
*/
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calloway/mongoward/internal/config"
	"github.com/calloway/mongoward/internal/history"
	"github.com/calloway/mongoward/internal/launcher"
	"github.com/calloway/mongoward/internal/log"
	"github.com/calloway/mongoward/internal/preflight"
	"github.com/calloway/mongoward/internal/readiness"
)

const (
	// DefaultStartupTimeout bounds how long a startup attempt may wait
	// for the readiness marker.
	DefaultStartupTimeout = 30 * time.Second

	// DefaultGracePeriod is how long Stop waits after SIGTERM before
	// escalating to SIGKILL.
	DefaultGracePeriod = 5 * time.Second
)

// portChecker allows tests to substitute the preflight probe.
type portChecker func(port uint16) error

// Supervisor controls one external mongod process. All methods are safe
// for concurrent use. The zero value is not usable; construct with New.
type Supervisor struct {
	cfg            config.Config
	logger         *slog.Logger
	launcher       *launcher.Launcher
	detector       *readiness.Detector
	recorder       history.Recorder
	checkPort      portChecker
	startupTimeout time.Duration
	gracePeriod    time.Duration

	mu      sync.Mutex
	state   State
	proc    *launcher.Process
	pending *startAttempt
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// WithRecorder sets the lifecycle history recorder.
func WithRecorder(r history.Recorder) Option {
	return func(s *Supervisor) { s.recorder = r }
}

// WithMatcher overrides the readiness matcher, mainly for tests and for
// engines with a different readiness phrase.
func WithMatcher(m readiness.Matcher) Option {
	return func(s *Supervisor) { s.detector = readiness.NewDetector(m) }
}

// WithStartupTimeout overrides the startup timeout.
func WithStartupTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.startupTimeout = d }
}

// WithGracePeriod overrides the graceful-shutdown grace period.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) { s.gracePeriod = d }
}

// New resolves cfg and builds a Supervisor around it. The resolved
// configuration is fixed for the life of the Supervisor.
func New(cfg config.Config, opts ...Option) (*Supervisor, error) {
	resolved, err := config.Resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Supervisor{
		cfg:            resolved,
		logger:         slog.Default(),
		detector:       readiness.NewDetector(nil),
		recorder:       history.Nop{},
		checkPort:      preflight.CheckPort,
		startupTimeout: DefaultStartupTimeout,
		gracePeriod:    DefaultGracePeriod,
		state:          StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.launcher = launcher.New(s.logger)
	return s, nil
}

// Config returns the resolved, immutable configuration.
func (s *Supervisor) Config() config.Config {
	return s.cfg
}

// ConnectionURI returns the endpoint clients connect to. It is a pure
// function of the configuration and is valid in any state.
func (s *Supervisor) ConnectionURI() string {
	return fmt.Sprintf("mongodb://127.0.0.1:%d", s.cfg.Port)
}

// IsRunning reports whether the process has signaled readiness and has not
// yet stopped or crashed.
func (s *Supervisor) IsRunning() bool {
	return s.StateSnapshot() == StateRunning
}

// StateSnapshot returns the current lifecycle state.
func (s *Supervisor) StateSnapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start brings the process up and blocks until it is ready or the attempt
// fails. It is idempotent: while Running it returns nil immediately, and
// while Starting every caller joins the in-flight attempt and observes its
// single outcome. With Enabled=false it is a silent no-op.
//
// On failure the supervisor has already killed any partially-started
// process and returned to Stopped before Start returns, so a subsequent
// Start begins a fresh attempt.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	s.mu.Lock()
	switch {
	case s.state == StateRunning:
		s.mu.Unlock()
		return nil
	case s.pending != nil:
		attempt := s.pending
		s.mu.Unlock()
		return attempt.wait(ctx)
	case s.state == StateStopping:
		s.mu.Unlock()
		return ErrStopInProgress
	}

	attempt := newStartAttempt()
	s.pending = attempt
	s.setStateLocked(StateStarting)
	s.mu.Unlock()

	go s.runStartup(attempt)
	return attempt.wait(ctx)
}

// runStartup drives one startup attempt to its single outcome.
func (s *Supervisor) runStartup(attempt *startAttempt) {
	begin := time.Now()
	logger := log.WithAttempt(s.logger, attempt.id)
	logger.Info("starting process",
		slog.String(log.StateKey, StateStarting.String()),
		slog.Int(log.PortKey, int(s.cfg.Port)),
	)
	s.record(attempt.id, history.EventStart, 0, "")

	if err := s.checkPort(s.cfg.Port); err != nil {
		s.failStartup(attempt, logger, err)
		return
	}
	if attempt.settled() {
		// Stop won while we were probing; nothing was spawned.
		return
	}

	proc, err := s.launcher.Launch(s.cfg)
	if err != nil {
		s.failStartup(attempt, logger, err)
		return
	}

	s.mu.Lock()
	if attempt.settled() {
		// Stop claimed the attempt during the spawn window. The stop
		// path never saw this process, so reap it here.
		s.mu.Unlock()
		_ = proc.Kill()
		<-proc.Done()
		return
	}
	s.proc = proc
	s.mu.Unlock()

	ready := s.detector.Watch(proc.Stdout(), proc.Stderr())
	timer := time.NewTimer(s.startupTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		if !attempt.claim() {
			return
		}
		s.mu.Lock()
		s.pending = nil
		s.setStateLocked(StateRunning)
		s.mu.Unlock()

		recordStartReady(time.Since(begin))
		s.record(attempt.id, history.EventReady, proc.PID(), "")
		logger.Info("process ready",
			slog.Int(log.PIDKey, proc.PID()),
			slog.String(log.StateKey, StateRunning.String()),
		)
		go s.monitor(proc, attempt.id)
		attempt.complete(nil)

	case <-proc.Done():
		s.failStartup(attempt, logger, fmt.Errorf("%w: %v", ErrPrematureExit, exitDetail(proc)))

	case <-timer.C:
		s.failStartup(attempt, logger, fmt.Errorf("%w after %s", ErrStartupTimeout, s.startupTimeout))

	case <-attempt.done:
		// Settled externally by Stop, which owns cleanup of the handle
		// it observed.
	}
}

// failStartup rejects the attempt if no other signal has won the race.
// Cleanup runs before the attempt completes, so no waiter ever observes a
// failed Start with a process still alive.
func (s *Supervisor) failStartup(attempt *startAttempt, logger *slog.Logger, err error) {
	if !attempt.claim() {
		return
	}

	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.mu.Unlock()

	if proc != nil {
		_ = proc.Kill()
		<-proc.Done()
	}

	recordStartOutcome(startOutcome(err))
	s.record(attempt.id, history.EventStartFailure, pidOf(proc), err.Error())
	logger.Error("startup failed", log.Error(err))

	s.mu.Lock()
	s.pending = nil
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	attempt.complete(err)
}

// monitor watches a running process for an unsupervised exit.
func (s *Supervisor) monitor(proc *launcher.Process, attemptID string) {
	<-proc.Done()

	s.mu.Lock()
	if s.proc != proc {
		// A stop took ownership of the handle; the exit is expected.
		s.mu.Unlock()
		return
	}
	s.proc = nil
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	detail := exitDetail(proc)
	s.record(attemptID, history.EventCrash, proc.PID(), detail)
	s.logger.Warn("process exited unexpectedly",
		slog.Int(log.PIDKey, proc.PID()),
		slog.String("exit", detail),
	)
}

// setStateLocked updates the state and its gauge. Caller holds s.mu.
func (s *Supervisor) setStateLocked(state State) {
	s.state = state
	recordState(state)
}

// record persists a lifecycle event, logging (never propagating) failures.
func (s *Supervisor) record(attemptID string, typ history.EventType, pid int, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e := history.Event{
		AttemptID:  attemptID,
		Type:       typ,
		PID:        pid,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.recorder.Record(ctx, e); err != nil {
		s.logger.Warn("failed to record lifecycle event",
			slog.String(log.EventKey, string(typ)), log.Error(err))
	}
}

// startOutcome maps a startup error to its metrics label.
func startOutcome(err error) string {
	switch {
	case errors.Is(err, preflight.ErrPortInUse):
		return "port_conflict"
	case errors.Is(err, launcher.ErrSpawn):
		return "spawn_error"
	case errors.Is(err, ErrPrematureExit):
		return "premature_exit"
	case errors.Is(err, ErrStartupTimeout):
		return "timeout"
	case errors.Is(err, ErrStopped):
		return "stopped"
	default:
		return "error"
	}
}

func exitDetail(proc *launcher.Process) string {
	if err := proc.ExitErr(); err != nil {
		return err.Error()
	}
	return "exit status 0"
}

func pidOf(proc *launcher.Process) int {
	if proc == nil {
		return 0
	}
	return proc.PID()
}
