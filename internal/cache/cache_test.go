package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Total  int    `json:"total"`
	Status string `json:"status"`
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "dashboard:u1", summary{Total: 3, Status: "ok"}, time.Minute))

	var got summary
	ok, err := m.Get(ctx, "dashboard:u1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary{Total: 3, Status: "ok"}, got)

	require.NoError(t, m.Delete(ctx, "dashboard:u1"))
	ok, err = m.Get(ctx, "dashboard:u1", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", 1, time.Second))
	now = now.Add(2 * time.Second)

	var v int
	ok, err := m.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewWithoutURLIsMemory(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	_, isMem := c.(*Memory)
	assert.True(t, isMem)
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t)

	var got summary
	ok, err := r.Get(ctx, "dashboard:u1", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "dashboard:u1", summary{Total: 1, Status: "ok"}, time.Minute))
	ok, err = r.Get(ctx, "dashboard:u1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary{Total: 1, Status: "ok"}, got)

	require.NoError(t, r.Delete(ctx, "dashboard:u1"))
	require.NoError(t, r.Delete(ctx))
	ok, err = r.Get(ctx, "dashboard:u1", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	require.NoError(t, r.Set(ctx, "k", 1, time.Second))
	mr.FastForward(2 * time.Second)

	var v int
	ok, err := r.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewWithURLIsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	c, err := New("redis://" + addr)
	require.NoError(t, err)
	defer c.Close()
	_, isRedis := c.(*Redis)
	assert.True(t, isRedis)

	mr.Close()
	_, err = New("redis://" + addr)
	assert.Error(t, err)
}
