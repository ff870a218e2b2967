package agent

import (
	"context"
	"os/user"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puetzp/pullconf/internal/catalog"
)

// These cover only the no-op branches of userApplier.Apply: a present user
// whose account already matches the declared state, and an absent user that
// is already absent. Both return before any useradd/usermod/userdel
// invocation, so they're safe to run without those binaries present.

func TestUserApplierUnchangedWhenAccountMatches(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)
	primaryGroup, err := user.LookupGroupId(current.Gid)
	require.NoError(t, err)
	groups, err := currentSupplementaryGroups(current)
	require.NoError(t, err)

	a := &userApplier{params: catalog.UserParameters{
		Ensure: catalog.EnsurePresent,
		Name:   current.Username,
		Home:   current.HomeDir,
		Group:  primaryGroup.Name,
		Groups: groups,
	}}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, action)
}

func TestUserApplierUnchangedWhenAlreadyAbsent(t *testing.T) {
	a := &userApplier{params: catalog.UserParameters{Ensure: catalog.EnsureAbsent, Name: "pullconf-test-nonexistent-user"}}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, action)
}
