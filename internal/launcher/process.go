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
	"os/exec"
	"sync"
	"syscall"
)

// Process is a handle to a live spawned process. It fans the single
// underlying exec.Cmd.Wait out to any number of observers via Done, so the
// readiness path, the crash monitor, and the shutdown path can all watch
// the same exit event.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	waitOnce sync.Once
	done     chan struct{}
	exitErr  error
}

func newProcess(cmd *exec.Cmd, stdout, stderr io.ReadCloser) *Process {
	p := &Process{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	p.waitOnce.Do(func() {
		go func() {
			p.exitErr = cmd.Wait()
			close(p.done)
		}()
	})
	return p
}

// PID returns the operating-system process ID.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Stdout is the captured standard output stream.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr is the captured standard error stream.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// Done is closed once the process has exited for any reason.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitErr reports the exec.Cmd.Wait result. Only meaningful after Done has
// been closed; nil means a clean zero exit.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

// ExitCode returns the process exit code, or -1 if it has not exited or
// was terminated by a signal.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
		return p.cmd.ProcessState.ExitCode()
	default:
		return -1
	}
}

// Signal delivers sig to the process itself.
func (p *Process) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

// Kill force-terminates the whole process group. The negative PID targets
// the group created at spawn time.
func (p *Process) Kill() error {
	err := syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL)
	if err == syscall.ESRCH {
		// Already gone.
		return nil
	}
	return err
}
