package usecase_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	loc := buenosAires(t)
	res := usecase.Resolution{
		Date:          "2025-10-24",
		Hour:          10,
		Now:           time.Date(2025, 10, 24, 10, 5, 0, 0, loc),
		TargetInstant: time.Date(2025, 10, 24, 10, 0, 0, 0, loc),
	}
	observed := time.Date(2025, 10, 24, 12, 58, 0, 0, time.UTC)

	testCases := []struct {
		name         string
		source       entity.Source
		quote        *entity.Quote
		wantErr      bool
		wantObserved time.Time
	}{
		{
			name:         "valid quote keeps source timestamp",
			source:       entity.SourceCoinGecko,
			quote:        &entity.Quote{Price: 43250.75, ObservedAt: observed},
			wantObserved: observed,
		},
		{
			name:         "missing timestamp falls back to target instant",
			source:       entity.SourceGoldAPI,
			quote:        &entity.Quote{Price: 2738.15},
			wantObserved: res.TargetInstant.UTC(),
		},
		{name: "nil quote", source: entity.SourceCoinGecko, quote: nil, wantErr: true},
		{name: "zero price", source: entity.SourceCoinGecko, quote: &entity.Quote{Price: 0}, wantErr: true},
		{name: "negative price", source: entity.SourceCoinGecko, quote: &entity.Quote{Price: -5}, wantErr: true},
		{name: "NaN", source: entity.SourceCoinGecko, quote: &entity.Quote{Price: math.NaN()}, wantErr: true},
		{name: "Inf", source: entity.SourceGoldAPI, quote: &entity.Quote{Price: math.Inf(1)}, wantErr: true},
		{name: "unknown source", source: "metals-api", quote: &entity.Quote{Price: 1}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := usecase.Normalize(entity.AssetBTC, tc.source, tc.quote, res)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrNormalization))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 10, got.Hour)
			assert.Equal(t, tc.quote.Price, got.Price)
			assert.Equal(t, tc.source, got.Source)
			assert.Equal(t, tc.wantObserved, got.ObservedAt)
			assert.Equal(t, time.UTC, got.ObservedAt.Location())
			assert.True(t, got.CollectedAt.Equal(res.Now))
		})
	}
}
