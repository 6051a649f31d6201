package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/internal/testutil"
)

func TestRegister_RejectsDuplicateID(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(testutil.NewStubAgent("echo-1", "echo"), false))

	err := r.Register(testutil.NewStubAgent("echo-1", "echo"), false)
	assert.ErrorIs(t, err, ErrDuplicateAgent)
	assert.Contains(t, err.Error(), "echo-1")
	assert.Equal(t, 1, r.Len())
}

func TestRegister_ReplaceKeepsPosition(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(testutil.NewStubAgent("a", "echo"), false))
	assert.NoError(t, r.Register(testutil.NewStubAgent("b", "echo"), false))

	replacement := testutil.NewStubAgent("a", "research")
	assert.NoError(t, r.Register(replacement, true))

	assert.Equal(t, []string{"a", "b"}, r.IDs())
	got, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"research"}, got.Capabilities())
}

func TestUnregister(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(testutil.NewStubAgent("a", "echo"), false))

	agent, ok := r.Unregister("a")
	assert.True(t, ok)
	assert.Equal(t, "a", agent.ID())
	assert.False(t, r.Contains("a"))
	assert.Empty(t, r.IDs())

	_, ok = r.Unregister("a")
	assert.False(t, ok)
}

func TestFindByCapability_RegistrationOrder(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(testutil.NewStubAgent("second", "research"), false))
	assert.NoError(t, r.Register(testutil.NewStubAgent("first", "research", "analysis"), false))
	assert.NoError(t, r.Register(testutil.NewStubAgent("other", "echo"), false))

	found := r.FindByCapability("research")
	assert.Len(t, found, 2)
	assert.Equal(t, "second", found[0].ID())
	assert.Equal(t, "first", found[1].ID())

	assert.Empty(t, r.FindByCapability("telepathy"))
}

func TestFindByCapability_Idempotent(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(testutil.NewStubAgent("a", "research"), false))

	first := r.FindByCapability("research")
	second := r.FindByCapability("research")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.Len(), "lookup must not change registry state")
}

func TestFindByCapabilities(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(testutil.NewStubAgent("both", "research", "analysis"), false))
	assert.NoError(t, r.Register(testutil.NewStubAgent("one", "research"), false))

	all := r.FindByCapabilities([]string{"research", "analysis"}, true)
	assert.Len(t, all, 1)
	assert.Equal(t, "both", all[0].ID())

	any := r.FindByCapabilities([]string{"research", "analysis"}, false)
	assert.Len(t, any, 2)
}

func TestInfoSnapshots(t *testing.T) {
	r := New()
	stub := testutil.NewStubAgent("a", "echo")
	stub.AgentName = "Echo Agent"
	assert.NoError(t, r.Register(stub, false))

	info, ok := r.Info("a")
	assert.True(t, ok)
	assert.Equal(t, "Echo Agent", info.Name)
	assert.Equal(t, []string{"echo"}, info.Capabilities)

	_, ok = r.Info("missing")
	assert.False(t, ok)

	all := r.AllInfo()
	assert.Len(t, all, 1)
	assert.Equal(t, "a", all[0].ID)
}
