package snapshot

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract — общий набор проверок для любой реализации Store.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))
	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, []byte(`{"version":1}`)))
	require.NoError(t, s.Save(ctx, []byte(`{"version":2}`)))
	blob, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"version":2}`, string(blob))

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_CopiesBlob(t *testing.T) {
	s := NewMemoryStore()
	in := []byte("abc")
	require.NoError(t, s.Save(context.Background(), in))
	in[0] = 'x'

	out, _, _ := s.Load(context.Background())
	assert.Equal(t, "abc", string(out))
	out[1] = 'y'
	again, _, _ := s.Load(context.Background())
	assert.Equal(t, "abc", string(again))
}

func TestNop(t *testing.T) {
	require.NoError(t, Nop{}.Save(context.Background(), []byte("x")))
	_, ok, err := Nop{}.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

// Интеграционный тест: выполняется только при заданном REDIS_ADDR.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	storeContract(t, NewRedisStore(client, "booking-core:test:"+t.Name()))
}
