package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisClient "github.com/go-redis/redis/v8"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/model"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisOrderRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisClient.NewClient(&redisClient.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisOrderRepository(client, ttl), mr
}

func TestRedisRepository_CreateGet(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Hour)
	ctx := context.Background()
	o := newOrder("a", time.UnixMilli(1_700_000_000_000).UTC())

	require.NoError(t, repo.Create(ctx, o))
	assert.Equal(t, time.Hour, mr.TTL(redisOrderPrefix+"a"))

	err := repo.Create(ctx, o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	if diff := cmp.Diff(o, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRedisRepository_MutationsKeepTTL(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Hour)
	fixed := time.UnixMilli(1_700_000_500_000).UTC()
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newOrder("a", fixed.Add(-time.Minute))))

	mr.FastForward(10 * time.Minute)
	require.NoError(t, repo.UpdateStatus(ctx, "a", model.StatusProcessing))
	require.NoError(t, repo.SetAudioURL(ctx, "a", "https://cdn.test/a.mp3"))
	assert.Equal(t, 50*time.Minute, mr.TTL(redisOrderPrefix+"a"))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, got.Status)
	assert.Equal(t, "https://cdn.test/a.mp3", got.AudioURL)
	assert.Equal(t, fixed, got.UpdatedAt)

	assert.True(t, errors.Is(repo.UpdateStatus(ctx, "nope", model.StatusFailed), apperr.ErrNotFound))

	mr.FastForward(time.Hour)
	assert.True(t, errors.Is(repo.SetAudioURL(ctx, "a", "x"), apperr.ErrNotFound), "expired orders cannot be updated")
}

func TestRedisRepository_ListPrunesExpired(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Hour)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()
	for i, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, repo.Create(ctx, newOrder(id, base.Add(time.Duration(i)*time.Second))))
	}
	mr.Del(redisOrderPrefix + "o2")

	page, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o1"}, ids(page))

	members, err := mr.ZMembers(redisOrderIndex)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"o1", "o3"}, members)

	page, err = repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, ids(page))
}

func TestRedisRepository_CountTrimsByCutoff(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want int
	}{
		{name: "old entries trimmed", ttl: time.Hour, want: 1},
		{name: "no ttl keeps everything", ttl: 0, want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mr := newRedisRepo(t, tc.ttl)
			now := time.UnixMilli(1_700_010_000_000).UTC()
			repo.now = func() time.Time { return now }
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, newOrder("old", now.Add(-2*time.Hour))))
			require.NoError(t, repo.Create(ctx, newOrder("recent", now.Add(-time.Minute))))

			n, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)

			members, err := mr.ZMembers(redisOrderIndex)
			require.NoError(t, err)
			assert.Len(t, members, tc.want)
		})
	}
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, NewRedisOrderRepository(client, time.Hour).Ping(context.Background()))

	_, err = OpenRedis(context.Background(), "http://not-redis")
	assert.Error(t, err)
}
