package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run only against a disposable Redis.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := NewClient(Config{URL: url, KeyPrefix: "statuswatch-test-" + uuid.NewString()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
}

func TestLock_Exclusive(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := client.NewLock("cycle", time.Minute)
	unlock, ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = client.NewLock("cycle", time.Minute).TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire a held lock")

	require.NoError(t, unlock(ctx))

	unlock, ok, err = client.NewLock("cycle", time.Minute).TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock must be free after unlock")
	require.NoError(t, unlock(ctx))
}

func TestLock_StaleUnlockKeepsNewHolder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	staleUnlock, ok, err := client.NewLock("cycle", 100*time.Millisecond).TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		n, err := client.rdb.Exists(ctx, client.lockKey("cycle")).Result()
		return err == nil && n == 0
	}, 5*time.Second, 20*time.Millisecond, "lock did not expire")

	unlock, ok, err := client.NewLock("cycle", time.Minute).TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, staleUnlock(ctx))

	_, ok, err = client.NewLock("cycle", time.Minute).TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "stale unlock released the new holder's lock")

	require.NoError(t, unlock(ctx))
}
