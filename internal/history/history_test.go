package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouadelabbassi/dashboard/internal/domain"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_RecordAndTrending(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	s.now = fixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	for _, q := range []string{"casque sony", "livre", "casque sony", "iphone", "livre", "casque sony"} {
		require.NoError(t, s.Record(ctx, "", q))
	}

	got, err := s.Trending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.TrendingQuery{
		{Query: "casque sony", Count: 3},
		{Query: "livre", Count: 2},
	}, got)
}

func TestStore_TrendingWithoutHistory(t *testing.T) {
	s, _ := setupTestRedis(t)

	got, err := s.Trending(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_TrendingAggregatesWindow(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.now = fixedClock(day)
	require.NoError(t, s.Record(ctx, "", "old"))
	require.NoError(t, s.Record(ctx, "", "tablette"))

	s.now = fixedClock(day.AddDate(0, 0, 6))
	require.NoError(t, s.Record(ctx, "", "tablette"))

	got, err := s.Trending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.TrendingQuery{
		{Query: "tablette", Count: 2},
		{Query: "old", Count: 1},
	}, got)

	s.now = fixedClock(day.AddDate(0, 0, 7))
	got, err = s.Trending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.TrendingQuery{{Query: "tablette", Count: 1}}, got)
}

func TestStore_DailyKeyExpires(t *testing.T) {
	s, mr := setupTestRedis(t)
	s.now = fixedClock(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.Record(context.Background(), "", "montre"))
	assert.Equal(t, 7*24*time.Hour, mr.TTL("smartsearch:trending:20260310"))

	mr.FastForward(7*24*time.Hour + time.Second)
	assert.False(t, mr.Exists("smartsearch:trending:20260310"))
}

func TestStore_Recent(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, q := range []string{"a1", "b2", "c3", "a1"} {
		require.NoError(t, s.Record(ctx, "user-1", q))
	}

	got, err := s.Recent(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "c3", "b2"}, got)

	got, err = s.Recent(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, got)

	got, err = s.Recent(ctx, "someone-else", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Recent(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_RecentIsCapped(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < RecentLimit+5; i++ {
		require.NoError(t, s.Record(ctx, "u", string(rune('a'+i))))
	}
	list, err := mr.List("smartsearch:recent:u")
	require.NoError(t, err)
	assert.Len(t, list, RecentLimit)
	assert.Equal(t, string(rune('a'+RecentLimit+4)), list[0])
}

func TestStore_RecordIgnoresBlank(t *testing.T) {
	s, mr := setupTestRedis(t)

	require.NoError(t, s.Record(context.Background(), "u", ""))
	assert.Empty(t, mr.Keys())
}

func TestStore_ConnectionError(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, s.Record(ctx, "u", "casque"))
	_, err := s.Trending(ctx, 5)
	assert.Error(t, err)
	_, err = s.Recent(ctx, "u", 5)
	assert.Error(t, err)
	assert.Error(t, s.Ping(ctx))
}
