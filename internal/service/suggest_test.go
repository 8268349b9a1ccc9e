package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	apperrors "github.com/mouadelabbassi/dashboard/pkg/errors"
)

func TestSuggest_NamesAndTrending(t *testing.T) {
	h := &mockHistory{}
	h.On("Trending", mock.Anything, trendingScan).Return([]domain.TrendingQuery{
		{Query: "casque sony", Count: 9},
		{Query: "livre", Count: 5},
		{Query: "casque jbl", Count: 2},
	}, nil)

	svc := newTestService(t, WithHistory(h))
	res, err := svc.Suggest(context.Background(), "  Casque ", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"JBL Tune 510BT Casque Bluetooth", "Sony WH-1000XM5 Casque Bluetooth"}, res.Suggestions)
	assert.Equal(t, []string{"casque sony", "casque jbl"}, res.Trending)
}

func TestSuggest_TrendingLimitedAndBestEffort(t *testing.T) {
	h := &mockHistory{}
	h.On("Trending", mock.Anything, trendingScan).Return(nil, errors.New("redis down")).Once()
	h.On("Trending", mock.Anything, trendingScan).Return([]domain.TrendingQuery{
		{Query: "samsung s23"}, {Query: "samsung tv"},
	}, nil)

	svc := newTestService(t, WithHistory(h))

	res, err := svc.Suggest(context.Background(), "sam", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Samsung Galaxy S23 Smartphone"}, res.Suggestions)
	assert.Empty(t, res.Trending)

	res, err = svc.Suggest(context.Background(), "sam", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"samsung s23"}, res.Trending)
}

func TestSuggest_Validation(t *testing.T) {
	_, err := newTestService(t).Suggest(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSuggest_WithoutHistory(t *testing.T) {
	res, err := newTestService(t).Suggest(context.Background(), "zzz", 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Suggestions)
	assert.Empty(t, res.Suggestions)
	assert.NotNil(t, res.Trending)
}

func TestSuggest_StoreError(t *testing.T) {
	svc := NewSmartSearch(nlp.NewParser(nlp.MustLibrary()), &failingStore{err: errors.New("down")}, newTestLogger())
	_, err := svc.Suggest(context.Background(), "cas", 5)
	require.Error(t, err)
}

func TestTrendingAndRecent(t *testing.T) {
	h := &mockHistory{}
	h.On("Trending", mock.Anything, 3).Return([]domain.TrendingQuery{{Query: "livre", Count: 4}}, nil)
	h.On("Recent", mock.Anything, "u1", 5).Return([]string{"livre", "casque"}, nil)
	svc := newTestService(t, WithHistory(h))
	ctx := context.Background()

	trending, err := svc.Trending(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []domain.TrendingQuery{{Query: "livre", Count: 4}}, trending)

	recent, err := svc.Recent(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"livre", "casque"}, recent)

	_, err = svc.Recent(ctx, "", 5)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestTrendingAndRecent_HistoryErrors(t *testing.T) {
	h := &mockHistory{}
	h.On("Trending", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))
	h.On("Recent", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))
	svc := newTestService(t, WithHistory(h))

	_, err := svc.Trending(context.Background(), 3)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	_, err = svc.Recent(context.Background(), "u", 3)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestTrendingAndRecent_HistoryDisabled(t *testing.T) {
	svc := newTestService(t)

	trending, err := svc.Trending(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, trending)

	recent, err := svc.Recent(context.Background(), "u", 3)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestReady(t *testing.T) {
	assert.NoError(t, newTestService(t).Ready(context.Background()))
}
