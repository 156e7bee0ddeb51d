package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/internal/storage"
)

func TestStore_GetMissing(t *testing.T) {
	_, err := New().Get(context.Background(), "products")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestStore_SetGet_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := []byte(`[]`)
	require.NoError(t, s.Set(ctx, "products", in))
	in[0] = 'x'

	got, err := s.Get(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	got[0] = 'y'
	again, err := s.Get(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), again)
}

func TestStore_Ping(t *testing.T) {
	assert.NoError(t, New().Ping(context.Background()))
}
