package scenario

import (
	"context"
	"fmt"
	"sort"
)

// Scenario is one end-to-end test sequence run against a prepared
// environment
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

var registry = make(map[string]Scenario)

// Register adds a scenario by name. Call from init() in scenario files.
func Register(s Scenario) {
	registry[s.Name] = s
}

// Get returns the named scenario
func Get(name string) (Scenario, bool) {
	s, ok := registry[name]
	return s, ok
}

// All returns the registered scenarios sorted by name
func All() []Scenario {
	out := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered scenario names sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownScenarioError is returned when the requested scenario name is not
// registered
type UnknownScenarioError struct {
	Name string
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario: %s", e.Name)
}
