package pending_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	expo "dezeto/expo-push-dispatch"
	"dezeto/expo-push-dispatch/internal/pending"
)

// --- Mocks ---
type MockHashClient struct {
	mock.Mock
}

func (m *MockHashClient) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	args := m.Called(ctx, key, values)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *MockHashClient) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	args := m.Called(ctx, key)
	return redis.NewMapStringStringResult(args.Get(0).(map[string]string), args.Error(1))
}

func (m *MockHashClient) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	args := m.Called(ctx, key, fields)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *MockHashClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, expiration)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := pending.NewMemoryStore()

	require.NoError(t, store.Save(ctx, map[string]expo.Token{"r1": "ExpoPushToken[a]", "r2": "ExpoPushToken[b]"}))
	require.NoError(t, store.Save(ctx, map[string]expo.Token{"r3": "ExpoPushToken[c]"}))
	require.NoError(t, store.Remove(ctx, "r2", "unknown"))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]expo.Token{"r1": "ExpoPushToken[a]", "r3": "ExpoPushToken[c]"}, entries)

	// Load hands out a copy.
	entries["r9"] = "ExpoPushToken[z]"
	again, _ := store.Load(ctx)
	assert.NotContains(t, again, "r9")
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	const key = "expo:pending-receipts"

	t.Run("Save writes the hash and refreshes the expiry", func(t *testing.T) {
		rdb := new(MockHashClient)
		store := pending.NewRedisStore(rdb, key, time.Hour)

		rdb.On("HSet", ctx, key, []interface{}{map[string]interface{}{"r1": "ExpoPushToken[a]"}}).Return(1, nil)
		rdb.On("Expire", ctx, key, time.Hour).Return(true, nil)

		require.NoError(t, store.Save(ctx, map[string]expo.Token{"r1": "ExpoPushToken[a]"}))
		rdb.AssertExpectations(t)
	})

	t.Run("Save of nothing is a no-op", func(t *testing.T) {
		rdb := new(MockHashClient)
		store := pending.NewRedisStore(rdb, key, time.Hour)
		require.NoError(t, store.Save(ctx, nil))
		rdb.AssertNotCalled(t, "HSet", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Load maps fields to tokens", func(t *testing.T) {
		rdb := new(MockHashClient)
		store := pending.NewRedisStore(rdb, key, 0)
		rdb.On("HGetAll", ctx, key).Return(map[string]string{"r1": "ExpoPushToken[a]"}, nil)

		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]expo.Token{"r1": "ExpoPushToken[a]"}, entries)
	})

	t.Run("Load surfaces redis errors", func(t *testing.T) {
		rdb := new(MockHashClient)
		store := pending.NewRedisStore(rdb, key, 0)
		rdb.On("HGetAll", ctx, key).Return(map[string]string{}, assert.AnError)

		_, err := store.Load(ctx)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("Remove deletes fields", func(t *testing.T) {
		rdb := new(MockHashClient)
		store := pending.NewRedisStore(rdb, key, 0)
		rdb.On("HDel", ctx, key, []string{"r1", "r2"}).Return(2, nil)

		require.NoError(t, store.Remove(ctx, "r1", "r2"))
		rdb.AssertExpectations(t)
	})
}
