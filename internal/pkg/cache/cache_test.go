package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tree struct {
	Names []string `json:"names"`
}

func TestRemember_LoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(nil), "test:")

	var calls int32
	load := func() (tree, error) {
		atomic.AddInt32(&calls, 1)
		return tree{Names: []string{"Engineering", "Medical"}}, nil
	}

	first, err := Remember(ctx, c, "categories", time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, "categories", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRemember_ExpiresWithClock(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c := New(NewMemoryStore(clock), "")

	var calls int
	load := func() (int, error) {
		calls++
		return calls, nil
	}

	v, _ := Remember(ctx, c, "k", time.Minute, load)
	assert.Equal(t, 1, v)

	clock.Advance(30 * time.Second)
	v, _ = Remember(ctx, c, "k", time.Minute, load)
	assert.Equal(t, 1, v)

	clock.Advance(31 * time.Second)
	v, _ = Remember(ctx, c, "k", time.Minute, load)
	assert.Equal(t, 2, v)
}

func TestRemember_LoaderErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(nil), "")
	boom := errors.New("db down")

	_, err := Remember(ctx, c, "k", time.Minute, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	v, err := Remember(ctx, c, "k", time.Minute, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestRemember_ConcurrentCallersShareLoad(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(nil), "")

	release := make(chan struct{})
	var calls int32
	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Remember(ctx, c, "shared", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	c := New(store, "p:")

	_, _ = Remember(ctx, c, "settings:site", time.Minute, func() (int, error) { return 1, nil })
	_, _ = Remember(ctx, c, "settings:tax", time.Minute, func() (int, error) { return 1, nil })
	_, _ = Remember(ctx, c, "categories", time.Minute, func() (int, error) { return 1, nil })
	require.Equal(t, 3, store.Len())

	c.Forget(ctx, "categories")
	assert.Equal(t, 2, store.Len())

	c.ForgetPrefix(ctx, "settings:")
	assert.Equal(t, 0, store.Len())
}

func TestRedisStore_BreakerOpensAndRememberFallsBack(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
	c := New(store, "")

	for i := 0; i < 5; i++ {
		_, _, err := store.Get(ctx, "k")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, store.State())

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	v, err := Remember(ctx, c, "k", time.Minute, func() (string, error) { return "from-db", nil })
	require.NoError(t, err)
	assert.Equal(t, "from-db", v)
}
