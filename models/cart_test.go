package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartItemOperations(t *testing.T) {
	cart := &Cart{}

	cart.Add("p1", 2)
	cart.Add("p2", 1)
	cart.Add("p1", 3)

	require.Len(t, cart.Items, 2)
	qty, ok := cart.Quantity("p1")
	assert.True(t, ok)
	assert.Equal(t, 5, qty)

	assert.True(t, cart.Set("p2", 7))
	assert.False(t, cart.Set("missing", 1))
	qty, _ = cart.Quantity("p2")
	assert.Equal(t, 7, qty)

	assert.True(t, cart.Remove("p1"))
	assert.False(t, cart.Remove("p1"))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.NotNil(t, cart.Items)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("admin")
	assert.Error(t, err)
}
