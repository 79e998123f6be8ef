package scenario

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinScenariosRegistered(t *testing.T) {
	names := Names()
	for _, want := range []string{"forward-expiry", "reverse-expiry", "resolution"} {
		assert.Contains(t, names, want)
	}
	assert.True(t, sort.StringsAreSorted(names))
}

func TestRegisterAndGet(t *testing.T) {
	Register(Scenario{
		Name:        "zz-registry-probe",
		Description: "registered by the registry test",
		Run:         func(ctx context.Context, env *Env) error { return nil },
	})

	s, ok := Get("zz-registry-probe")
	assert.True(t, ok)
	assert.Equal(t, "zz-registry-probe", s.Name)

	_, ok = Get("never-registered")
	assert.False(t, ok)
}

func TestAllSortedByName(t *testing.T) {
	all := All()
	assert.NotEmpty(t, all)
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	}))
}

func TestUnknownScenarioError(t *testing.T) {
	err := &UnknownScenarioError{Name: "bogus"}
	assert.Equal(t, "unknown scenario: bogus", err.Error())
}
