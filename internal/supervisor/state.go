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

// State is the lifecycle state of a Supervisor. Exactly one state value is
// owned by each Supervisor at any time.
type State int

const (
	// StateStopped means no process exists and no startup is in flight.
	StateStopped State = iota
	// StateStarting means a startup attempt is in flight.
	StateStarting
	// StateRunning means the process has signaled readiness.
	StateRunning
	// StateStopping means a shutdown is in progress.
	StateStopping
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
