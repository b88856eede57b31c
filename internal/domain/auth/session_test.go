package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire(t *testing.T) {
	ctx := context.Background()

	require.ErrorIs(t, Require(ctx), ErrUnauthorized)

	noScope := WithSession(ctx, Session{KeyID: "k1"})
	require.ErrorIs(t, Require(noScope), ErrUnauthorized)

	admin := WithSession(ctx, Session{KeyID: "k1", Scopes: []string{ScopeAdmin}})
	require.NoError(t, Require(admin))

	s, ok := SessionFrom(admin)
	require.True(t, ok)
	assert.Equal(t, "k1", s.KeyID)
}

func TestHashKey(t *testing.T) {
	a := HashKey([]byte("pepper"), "secret")
	b := HashKey([]byte("pepper"), "secret")
	c := HashKey([]byte("other"), "secret")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
