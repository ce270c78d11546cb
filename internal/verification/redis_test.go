package verification

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return NewRedisStore(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	expiresAt := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)
	rec := Record{
		Key:       "user@example.com|15550100",
		Code:      "654321",
		Email:     "user@example.com",
		Phone:     "15550100",
		ExpiresAt: expiresAt,
		Attempts:  0,
	}
	require.NoError(t, store.Save(ctx, rec))

	got, ok, err := store.Get(ctx, rec.Key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.Code, got.Code)
	require.Equal(t, rec.Email, got.Email)
	require.Equal(t, rec.Phone, got.Phone)
	require.True(t, expiresAt.Equal(got.ExpiresAt))
	require.Zero(t, got.Attempts)
}

func TestRedisStoreMissingKey(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, ok, err := store.Get(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreConsumeOutcomes(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	// Keep expiry in the future of the real clock so native TTL cannot
	// reap the hash mid-test.
	now := time.Now()

	rec := Record{Key: "k", Code: "111111", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Save(ctx, rec))

	// Wrong code counts an attempt against the record.
	status, err := store.Consume(ctx, "k", "222222", now, 5)
	require.NoError(t, err)
	require.Equal(t, StatusMismatch, status)

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, got.Attempts)

	// The right code consumes the record; a repeat finds nothing.
	status, err = store.Consume(ctx, "k", "111111", now, 5)
	require.NoError(t, err)
	require.Equal(t, StatusValid, status)

	status, err = store.Consume(ctx, "k", "111111", now, 5)
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, status)

	// A mismatch against a missing key must not create one.
	status, err = store.Consume(ctx, "ghost", "000000", now, 5)
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, status)

	_, ok, err = store.Get(ctx, "ghost")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreConsumeExpiredAndLocked(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	// Keep expiry in the future of the real clock so native TTL cannot
	// reap the hash mid-test.
	now := time.Now()

	rec := Record{Key: "k", Code: "111111", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Save(ctx, rec))

	// Past the expiry the record is reported expired and removed, even
	// though the hash still exists within the grace window.
	status, err := store.Consume(ctx, "k", "111111", now.Add(2*time.Minute), 5)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, status)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	// Exhausting the attempt budget locks even the correct code out.
	require.NoError(t, store.Save(ctx, rec))
	for i := 0; i < 2; i++ {
		status, err = store.Consume(ctx, "k", "999999", now, 2)
		require.NoError(t, err)
		require.Equal(t, StatusMismatch, status)
	}

	status, err = store.Consume(ctx, "k", "111111", now, 2)
	require.NoError(t, err)
	require.Equal(t, StatusLocked, status)

	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreSaveResetsAttempts(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	rec := Record{Key: "k", Code: "111111", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, store.Save(ctx, rec))

	status, err := store.Consume(ctx, "k", "000000", time.Now(), 5)
	require.NoError(t, err)
	require.Equal(t, StatusMismatch, status)

	// Reissuing a code overwrites the whole record, counter included.
	rec.Code = "222222"
	require.NoError(t, store.Save(ctx, rec))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "222222", got.Code)
	require.Zero(t, got.Attempts)
}

func TestRedisStoreNativeExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	rec := Record{Key: "k", Code: "111111", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, store.Save(ctx, rec))

	// Within the grace window the hash survives so validation can report
	// EXPIRED instead of NOT_FOUND.
	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	// Past the grace window Redis reaps the hash; no sweep required.
	mr.FastForward(redisExpiryGrace)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	removed, err := store.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestServiceOnRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	// Anchor the clock to the present so native Redis expiry stays in the
	// future for the life of the test.
	clock := &fakeClock{current: time.Now()}
	svc := newTestService(t, store, clock)

	code, err := svc.Issue(context.Background(), "User@Example.com", "+1 555 0100")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	status, err := svc.Validate(context.Background(), "user@example.com", "+15550100", wrong)
	require.NoError(t, err)
	require.Equal(t, StatusMismatch, status)

	status, err = svc.Validate(context.Background(), "user@example.com", "+15550100", code)
	require.NoError(t, err)
	require.Equal(t, StatusValid, status)

	status, err = svc.Validate(context.Background(), "user@example.com", "+15550100", code)
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, status)
}
