package launcher

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestLogBufferAppendAndString(t *testing.T) {
	lb := &LogBuffer{}

	if got := lb.String(); got != "" {
		t.Errorf("String() on empty buffer = %q, want empty", got)
	}

	lb.Append("first")
	lb.Append("second")

	want := "first\nsecond\n"
	if got := lb.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := lb.Lines(); got != 2 {
		t.Errorf("Lines() = %d, want 2", got)
	}

	// Cached rendering must pick up later appends
	lb.Append("third")
	want = "first\nsecond\nthird\n"
	if got := lb.String(); got != want {
		t.Errorf("String() after append = %q, want %q", got, want)
	}
}

func TestLogBufferTail(t *testing.T) {
	lb := &LogBuffer{}
	lb.Append("one")
	lb.Append("two")
	lb.Append("three")

	tests := []struct {
		n    int
		want []string
	}{
		{n: 2, want: []string{"two", "three"}},
		{n: 3, want: []string{"one", "two", "three"}},
		{n: 10, want: []string{"one", "two", "three"}},
		{n: 0, want: nil},
		{n: -1, want: nil},
	}

	for _, tt := range tests {
		got := lb.Tail(tt.n)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tail(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestLogBufferContains(t *testing.T) {
	lb := &LogBuffer{}
	lb.Append("listening on 10.0.0.1:6785")

	if !lb.Contains("6785") {
		t.Error("Contains(\"6785\") = false, want true")
	}
	if lb.Contains("nope") {
		t.Error("Contains(\"nope\") = true, want false")
	}
}

func TestLogBufferClear(t *testing.T) {
	lb := &LogBuffer{}
	lb.Append("something")
	lb.Clear()

	if got := lb.Lines(); got != 0 {
		t.Errorf("Lines() after Clear = %d, want 0", got)
	}
	if got := lb.String(); got != "" {
		t.Errorf("String() after Clear = %q, want empty", got)
	}
}

func TestLogBufferConcurrentAppend(t *testing.T) {
	lb := &LogBuffer{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				lb.Append(fmt.Sprintf("writer %d line %d", n, j))
				_ = lb.String()
				_ = lb.Tail(5)
			}
		}(i)
	}
	wg.Wait()

	if got := lb.Lines(); got != 1000 {
		t.Errorf("Lines() = %d, want 1000", got)
	}
}
