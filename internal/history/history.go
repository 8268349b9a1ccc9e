// Package history keeps search history in Redis: trending normalized
// queries over a rolling week and the latest queries of each user.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mouadelabbassi/dashboard/internal/domain"
)

const (
	trendingPrefix = "smartsearch:trending:"
	recentPrefix   = "smartsearch:recent:"

	// TrendingWindow is how many daily buckets Trending aggregates.
	TrendingWindow = 7
	// RecentLimit is how many queries are kept per user.
	RecentLimit = 20
)

// Store records and reads search history.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a Redis-backed history store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func trendingKey(day time.Time) string {
	return trendingPrefix + day.UTC().Format("20060102")
}

func recentKey(userID string) string {
	return recentPrefix + userID
}

// Record counts one search of normalized and, when userID is set, pushes it
// to the front of that user's recent list. Blank queries are ignored.
func (s *Store) Record(ctx context.Context, userID, normalized string) error {
	if normalized == "" {
		return nil
	}
	key := trendingKey(s.now())

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, key, 1, normalized)
		pipe.Expire(ctx, key, TrendingWindow*24*time.Hour)
		if userID != "" {
			rk := recentKey(userID)
			pipe.LRem(ctx, rk, 0, normalized)
			pipe.LPush(ctx, rk, normalized)
			pipe.LTrim(ctx, rk, 0, RecentLimit-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record search: %w", err)
	}
	return nil
}

// Trending returns the most searched queries of the last TrendingWindow
// days, highest count first. Ties are ordered by query.
func (s *Store) Trending(ctx context.Context, limit int) ([]domain.TrendingQuery, error) {
	if limit <= 0 {
		return []domain.TrendingQuery{}, nil
	}

	today := s.now()
	cmds := make([]*redis.ZSliceCmd, 0, TrendingWindow)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := 0; i < TrendingWindow; i++ {
			key := trendingKey(today.AddDate(0, 0, -i))
			cmds = append(cmds, pipe.ZRangeWithScores(ctx, key, 0, -1))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis read trending: %w", err)
	}

	counts := make(map[string]int64)
	for _, cmd := range cmds {
		for _, z := range cmd.Val() {
			member, ok := z.Member.(string)
			if !ok {
				continue
			}
			counts[member] += int64(z.Score)
		}
	}

	out := make([]domain.TrendingQuery, 0, len(counts))
	for q, c := range counts {
		out = append(out, domain.TrendingQuery{Query: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recent returns up to limit of the user's latest queries, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]string, error) {
	if userID == "" || limit <= 0 {
		return []string{}, nil
	}
	if limit > RecentLimit {
		limit = RecentLimit
	}
	items, err := s.client.LRange(ctx, recentKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read recent searches: %w", err)
	}
	return items, nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
