package sealbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/storage"
)

func newBox(t *testing.T) *Box {
	t.Helper()
	master, err := Rand(KeyLen)
	require.NoError(t, err)
	box, err := New(master)
	require.NoError(t, err)
	return box
}

func TestStore_SealsAtRest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner := storage.NewMemory()
	s := Wrap(inner, newBox(t))

	require.NoError(t, s.Put(ctx, map[string]string{storage.KeyToken: "tok", storage.KeyUser: `{"uri":"u"}`}))

	raw, err := inner.Get(ctx, storage.SessionKeys...)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.NotEqual(t, "tok", raw[storage.KeyToken])

	got, err := s.Get(ctx, storage.SessionKeys...)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{storage.KeyToken: "tok", storage.KeyUser: `{"uri":"u"}`}, got)

	require.NoError(t, s.Delete(ctx, storage.SessionKeys...))
	got, err = s.Get(ctx, storage.SessionKeys...)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_TamperedValueIsCorrupt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner := storage.NewMemory()
	s := Wrap(inner, newBox(t))

	require.NoError(t, s.Put(ctx, map[string]string{storage.KeyToken: "tok"}))
	require.NoError(t, inner.Put(ctx, map[string]string{storage.KeyUser: "plain"}))

	_, err := s.Get(ctx, storage.SessionKeys...)
	require.ErrorIs(t, err, errs.ErrCorruptState)
}
