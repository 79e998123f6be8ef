package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/stackmesh/dnsrig/pkg/log"
)

// gracePeriod is how long Stop waits between the interrupt signal and the
// forced kill
const gracePeriod = 1 * time.Second

// NewProcess creates a new Process instance
func NewProcess(binary string, args ...string) *Process {
	ctx, cancel := context.WithCancel(context.Background())
	return &Process{
		Binary: binary,
		Args:   args,
		Env:    []string{},
		Ctx:    ctx,
		Cancel: cancel,
		logs:   &LogBuffer{},
	}
}

// Process manages one spawned service process with output capture and
// lifecycle control. The caller is responsible for starting it inside the
// right network namespace.
type Process struct {
	Binary string
	Args   []string
	Env    []string
	Ctx    context.Context
	Cancel context.CancelFunc
	PID    int

	// Echo mirrors every captured output line into the harness log
	Echo bool

	cmd     *exec.Cmd
	logs    *LogBuffer
	mu      sync.Mutex
	readers sync.WaitGroup

	waitOnce sync.Once
	waitErr  error
}

// Start starts the process. It must be called from the goroutine that holds
// the target network namespace when namespace placement matters: the child
// inherits the namespace of the spawning thread.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil && p.cmd.Process != nil {
		return fmt.Errorf("process already running with PID %d", p.cmd.Process.Pid)
	}

	p.cmd = exec.CommandContext(p.Ctx, p.Binary, p.Args...)
	p.cmd.Env = append(os.Environ(), p.Env...)

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	p.PID = p.cmd.Process.Pid

	p.readers.Add(2)
	go p.captureOutput("stdout", stdout)
	go p.captureOutput("stderr", stderr)

	return nil
}

// wait reaps the process exactly once, after the output pipes are fully
// drained. Calling cmd.Wait while the capture goroutines still read would
// close the pipes under them and lose the output tail.
func (p *Process) wait() error {
	p.waitOnce.Do(func() {
		p.readers.Wait()
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

// Stop interrupts the process, waits out the grace period, then kills it.
// Stopping a process that already exited is not an error.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return fmt.Errorf("process not running")
	}

	if err := p.cmd.Process.Signal(syscall.SIGINT); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("failed to send SIGINT: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- p.wait()
	}()

	select {
	case <-done:
		// Exit status of an interrupted process carries no information
		return nil
	case <-time.After(gracePeriod):
		return p.kill()
	}
}

// Kill forcefully kills the process with SIGKILL
func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kill()
}

func (p *Process) kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return fmt.Errorf("process not running")
	}

	if err := p.cmd.Process.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("failed to kill process: %w", err)
	}

	_ = p.wait() // Ignore error since we killed it
	p.Cancel()

	return nil
}

// IsRunning returns true if the process is currently running
func (p *Process) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return false
	}

	err := p.cmd.Process.Signal(syscall.Signal(0))
	return err == nil
}

// Wait waits for the process to exit
func (p *Process) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil {
		return fmt.Errorf("process not started")
	}

	return p.wait()
}

// Logs returns all captured output as a string
func (p *Process) Logs() string {
	return p.logs.String()
}

// OutputTail returns the last n lines of captured output
func (p *Process) OutputTail(n int) []string {
	return p.logs.Tail(n)
}

// OutputLines returns every captured output line in order
func (p *Process) OutputLines() []string {
	return p.logs.Tail(p.logs.Lines())
}

func (p *Process) captureOutput(source string, reader io.Reader) {
	defer p.readers.Done()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		p.logs.Append(line)

		if p.Echo {
			log.Logger.Debug().
				Str("component", "launcher").
				Str("stream", source).
				Int("pid", p.PID).
				Msg(line)
		}
	}
}
