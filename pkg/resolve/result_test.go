package resolve

import (
	"reflect"
	"testing"
)

// TestNewResultSetSemantics tests duplicate collapse and ordering
func TestNewResultSetSemantics(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{
			name:   "duplicates collapse",
			values: []string{"10.0.0.9", "10.0.0.9", "10.0.0.7"},
			want:   []string{"10.0.0.7", "10.0.0.9"},
		},
		{
			name:   "already unique",
			values: []string{"10.0.0.1", "10.0.0.2"},
			want:   []string{"10.0.0.1", "10.0.0.2"},
		},
		{
			name:   "empty input",
			values: nil,
			want:   nil,
		},
		{
			name:   "single value",
			values: []string{"something.weave.local."},
			want:   []string{"something.weave.local."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newResult(StatusNoError, 0, tt.values)
			if !reflect.DeepEqual(got.Values, tt.want) {
				t.Errorf("newResult(%v).Values = %v, want %v", tt.values, got.Values, tt.want)
			}
		})
	}
}

// TestResultEmpty tests emptiness reporting
func TestResultEmpty(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{"no values", nil, true},
		{"one value", []string{"10.0.0.9"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResult(StatusNoError, 0, tt.values)
			if got := r.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestResultContains tests set membership
func TestResultContains(t *testing.T) {
	r := newResult(StatusNoError, 0, []string{"10.0.0.9", "10.0.0.7"})

	tests := []struct {
		value string
		want  bool
	}{
		{"10.0.0.9", true},
		{"10.0.0.7", true},
		{"10.0.0.1", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := r.Contains(tt.value); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
