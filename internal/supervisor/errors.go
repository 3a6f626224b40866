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

import "errors"

var (
	// ErrPrematureExit is returned when the process exits before
	// signaling readiness.
	ErrPrematureExit = errors.New("process exited before becoming ready")

	// ErrStartupTimeout is returned when neither readiness nor a terminal
	// signal arrives within the startup timeout.
	ErrStartupTimeout = errors.New("timed out waiting for process readiness")

	// ErrStopped is returned to startup waiters when Stop is called while
	// the attempt is still in flight.
	ErrStopped = errors.New("startup aborted by stop request")

	// ErrStopInProgress is returned by Start while a shutdown is running.
	ErrStopInProgress = errors.New("cannot start while a stop is in progress")
)
