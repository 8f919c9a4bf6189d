package slot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RocketShoes/internal/cart"
)

type backend interface {
	cart.Slot
	Ping(ctx context.Context) error
}

// exerciseSlot runs the behaviour every backend must share.
func exerciseSlot(t *testing.T, s backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	_, ok, err := s.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "@RocketShoes:cart", `[{"id":1,"amount":1}]`))
	v, ok, err := s.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1,"amount":1}]`, v)

	require.NoError(t, s.Set(ctx, "@RocketShoes:cart", `[]`))
	v, _, err = s.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	_, ok, err = s.Get(ctx, "@RocketShoes:cart:other")
	require.NoError(t, err)
	assert.False(t, ok, "keys are independent")

	assert.ErrorIs(t, s.Set(ctx, "", "x"), ErrBadKey)
	_, _, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrBadKey)
}

func TestMemSlot(t *testing.T) {
	exerciseSlot(t, NewMemSlot())
}

func TestFileSlot(t *testing.T) {
	s, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)
	exerciseSlot(t, s)
}

func TestFileSlot_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewFileSlot(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "@RocketShoes:cart:abc", `[{"id":2,"amount":3}]`))

	s2, err := NewFileSlot(dir)
	require.NoError(t, err)
	v, ok, err := s2.Get(ctx, "@RocketShoes:cart:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":2,"amount":3}]`, v)
}
