package launcher

import (
	"testing"
	"time"
)

func TestProcessCapturesBothStreams(t *testing.T) {
	p := NewProcess("sh", "-c", "echo from-stdout; echo from-stderr 1>&2")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if !p.logs.Contains("from-stdout") {
		t.Errorf("stdout line missing from capture: %q", p.Logs())
	}
	if !p.logs.Contains("from-stderr") {
		t.Errorf("stderr line missing from capture: %q", p.Logs())
	}
	if got := len(p.OutputLines()); got != 2 {
		t.Errorf("OutputLines() returned %d lines, want 2", got)
	}
}

func TestProcessOutputTail(t *testing.T) {
	p := NewProcess("sh", "-c", "echo one; echo two; echo three")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	tail := p.OutputTail(2)
	if len(tail) != 2 || tail[0] != "two" || tail[1] != "three" {
		t.Errorf("OutputTail(2) = %v, want [two three]", tail)
	}
}

func TestProcessStopInterrupts(t *testing.T) {
	p := NewProcess("sleep", "30")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.IsRunning() {
		t.Fatal("IsRunning() = false right after Start()")
	}

	start := time.Now()
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Stop() took %v, the interrupt should end sleep immediately", elapsed)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
}

func TestProcessKill(t *testing.T) {
	p := NewProcess("sleep", "30")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Kill(); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Kill()")
	}
}

func TestProcessStopAfterExit(t *testing.T) {
	p := NewProcess("true")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// Stopping a process that already exited must not be an error
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() after exit error = %v", err)
	}
}

func TestProcessStartTwice(t *testing.T) {
	p := NewProcess("sleep", "30")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Kill()

	if err := p.Start(); err == nil {
		t.Error("second Start() should fail while the process is running")
	}
}

func TestProcessStopNotStarted(t *testing.T) {
	p := NewProcess("sleep", "30")
	if err := p.Stop(); err == nil {
		t.Error("Stop() on a never-started process should fail")
	}
}
