package launcher

import (
	"bytes"
	"strings"
	"sync"
	"time"
)

// LogBuffer provides thread-safe buffering of captured service output with
// timestamps. The launcher drains it into the harness log when an instance
// fails to become ready, and again when the instance is stopped.
type LogBuffer struct {
	mu      sync.RWMutex
	lines   []logLine
	buffer  bytes.Buffer
	changed bool
}

type logLine struct {
	timestamp time.Time
	content   string
}

// Append adds a log line to the buffer
func (lb *LogBuffer) Append(line string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, logLine{
		timestamp: time.Now(),
		content:   line,
	})
	lb.changed = true
}

// String returns all captured lines as a single string
func (lb *LogBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.changed {
		lb.buffer.Reset()
		for _, line := range lb.lines {
			lb.buffer.WriteString(line.content)
			lb.buffer.WriteString("\n")
		}
		lb.changed = false
	}

	return lb.buffer.String()
}

// Tail returns the last n captured lines
func (lb *LogBuffer) Tail(n int) []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	start := len(lb.lines) - n
	if start < 0 {
		start = 0
	}

	tail := make([]string, 0, len(lb.lines)-start)
	for _, line := range lb.lines[start:] {
		tail = append(tail, line.content)
	}
	return tail
}

// Contains checks if the captured output contains a specific pattern
func (lb *LogBuffer) Contains(pattern string) bool {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	for _, line := range lb.lines {
		if strings.Contains(line.content, pattern) {
			return true
		}
	}

	return false
}

// Clear clears all captured output
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = nil
	lb.buffer.Reset()
	lb.changed = false
}

// Lines returns the number of captured lines
func (lb *LogBuffer) Lines() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	return len(lb.lines)
}
