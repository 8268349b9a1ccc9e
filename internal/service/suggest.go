package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	apperrors "github.com/mouadelabbassi/dashboard/pkg/errors"
)

// Suggest returns product names starting a word with prefix plus trending
// queries that start with it. Trending failures only drop the trending part.
func (s *SmartSearch) Suggest(ctx context.Context, prefix string, limit int) (*domain.SuggestResult, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, apperrors.InvalidInput("prefix is required")
	}
	if limit <= 0 {
		limit = 10
	}

	names, err := s.store.SuggestNames(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest product names: %w", err)
	}
	if names == nil {
		names = []string{}
	}

	result := &domain.SuggestResult{Suggestions: names, Trending: []string{}}
	if s.history == nil {
		return result, nil
	}

	trending, err := s.history.Trending(ctx, trendingScan)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load trending queries",
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	normalized := nlp.Normalize(prefix)
	for _, t := range trending {
		if len(result.Trending) == limit {
			break
		}
		if strings.HasPrefix(t.Query, normalized) {
			result.Trending = append(result.Trending, t.Query)
		}
	}
	return result, nil
}

// Trending returns the most searched queries. It is empty when history is
// disabled.
func (s *SmartSearch) Trending(ctx context.Context, limit int) ([]domain.TrendingQuery, error) {
	if s.history == nil {
		return []domain.TrendingQuery{}, nil
	}
	out, err := s.history.Trending(ctx, limit)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("search history", err)
	}
	return out, nil
}

// Recent returns the latest normalized queries of userID.
func (s *SmartSearch) Recent(ctx context.Context, userID string, limit int) ([]string, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}
	if s.history == nil {
		return []string{}, nil
	}
	out, err := s.history.Recent(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("search history", err)
	}
	return out, nil
}

// Ready checks the product store.
func (s *SmartSearch) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
