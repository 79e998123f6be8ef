package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPChecker_HealthyEndpoint(t *testing.T) {
	// Create test HTTP server that returns 200 OK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL)

	ctx := context.Background()
	result := checker.Check(ctx)

	if !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}

	if result.Failure != FailureNone {
		t.Errorf("Expected no failure class, got %q", result.Failure)
	}

	if result.Duration <= 0 {
		t.Error("Expected positive duration")
	}
}

func TestHTTPChecker_UnhealthyStatus(t *testing.T) {
	// Create test HTTP server that returns 500 Internal Server Error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("error"))
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL)

	ctx := context.Background()
	result := checker.Check(ctx)

	if result.Healthy {
		t.Errorf("Expected unhealthy, got healthy: %s", result.Message)
	}

	if result.Failure != FailureStatus {
		t.Errorf("Expected failure class %q, got %q", FailureStatus, result.Failure)
	}
}

func TestHTTPChecker_CustomStatusRange(t *testing.T) {
	// Create test HTTP server that returns 304 Not Modified
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL).WithStatusRange(200, 399)

	ctx := context.Background()
	result := checker.Check(ctx)

	if !result.Healthy {
		t.Errorf("Expected healthy for 304 status, got unhealthy: %s", result.Message)
	}
}

func TestHTTPChecker_ConnectionRefused(t *testing.T) {
	// Reserve a port, then close the listener so the connection is refused
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to allocate port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	checker := NewHTTPChecker("http://" + addr + "/status")

	ctx := context.Background()
	result := checker.Check(ctx)

	if result.Healthy {
		t.Errorf("Expected unhealthy, got healthy: %s", result.Message)
	}

	if result.Failure != FailureRefused {
		t.Errorf("Expected failure class %q, got %q: %s", FailureRefused, result.Failure, result.Message)
	}
}

func TestHTTPChecker_Timeout(t *testing.T) {
	// Create test HTTP server that sleeps longer than timeout
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL).WithTimeout(50 * time.Millisecond)

	ctx := context.Background()
	result := checker.Check(ctx)

	if result.Healthy {
		t.Errorf("Expected unhealthy due to timeout, got healthy: %s", result.Message)
	}

	if result.Failure != FailureTimeout {
		t.Errorf("Expected failure class %q, got %q: %s", FailureTimeout, result.Failure, result.Message)
	}
}

func TestHTTPChecker_ContextCancellation(t *testing.T) {
	// Create test HTTP server that sleeps
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := checker.Check(ctx)

	if result.Healthy {
		t.Errorf("Expected unhealthy due to cancelled context, got healthy: %s", result.Message)
	}
}

func TestHTTPChecker_Type(t *testing.T) {
	checker := NewHTTPChecker("http://example.com")
	if checker.Type() != CheckTypeHTTP {
		t.Errorf("Expected type %s, got %s", CheckTypeHTTP, checker.Type())
	}
}

func TestExecChecker_Success(t *testing.T) {
	checker := NewExecChecker("true")

	result := checker.Check(context.Background())

	if !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}
}

func TestExecChecker_Failure(t *testing.T) {
	checker := NewExecChecker("false")

	result := checker.Check(context.Background())

	if result.Healthy {
		t.Errorf("Expected unhealthy, got healthy: %s", result.Message)
	}

	if result.Failure != FailureOther {
		t.Errorf("Expected failure class %q, got %q", FailureOther, result.Failure)
	}
}

func TestExecChecker_CapturesOutput(t *testing.T) {
	checker := NewExecChecker("echo", "64 bytes from 10.0.0.2")

	result := checker.Check(context.Background())

	if !result.Healthy {
		t.Fatalf("Expected healthy, got unhealthy: %s", result.Message)
	}

	if result.Output != "64 bytes from 10.0.0.2" {
		t.Errorf("Output = %q, want %q", result.Output, "64 bytes from 10.0.0.2")
	}
}

func TestExecChecker_NoCommand(t *testing.T) {
	checker := NewExecChecker()

	result := checker.Check(context.Background())

	if result.Healthy {
		t.Error("Expected unhealthy for empty command")
	}
}
