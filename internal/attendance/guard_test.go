package attendance

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard(t *testing.T) {
	g := NewMemoryGuard()

	release, err := g.Acquire(context.Background(), "t1")
	require.NoError(t, err)

	_, err = g.Acquire(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrMarkInProgress)

	other, err := g.Acquire(context.Background(), "t2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := g.Acquire(context.Background(), "t1")
	require.NoError(t, err)
	again()
}

func TestRedisGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g := NewRedisGuard(client, "", 30*time.Second)
	release, err := g.Acquire(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("attendance:inflight:t1"))

	_, err = g.Acquire(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrMarkInProgress)

	release()
	assert.False(t, mr.Exists("attendance:inflight:t1"))

	_, err = g.Acquire(context.Background(), "t1")
	require.NoError(t, err)
}

func TestRedisGuard_ExpiredHolderDoesNotReleaseNewOwner(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g := NewRedisGuard(client, "lock:", time.Second)
	stale, err := g.Acquire(context.Background(), "t1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = g.Acquire(context.Background(), "t1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("lock:t1"))
}

func TestRedisGuard_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisGuard(client, "", time.Second).Acquire(context.Background(), "t1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMarkInProgress)
}

func TestRedisGuard_FailedReleaseIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	var buf bytes.Buffer
	g := NewRedisGuard(client, "", time.Minute).WithLogger(zerolog.New(&buf))
	release, err := g.Acquire(context.Background(), "t1")
	require.NoError(t, err)

	mr.Close()
	release()

	assert.Contains(t, buf.String(), `"teacher_id":"t1"`)
	assert.Contains(t, buf.String(), "release in-flight guard")
}
