package usecase

import (
	"math"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
)

// Normalize は価格ソースの生の結果を PriceEntry に変換します。
// 価格が欠損・非有限・0以下の場合は NormalizationError を返します。
// 通貨換算は行いません（アダプター側で USD に揃えている前提）。
func Normalize(asset entity.Asset, source entity.Source, q *entity.Quote, res Resolution) (entity.PriceEntry, error) {
	fail := func(reason string) (entity.PriceEntry, error) {
		return entity.PriceEntry{}, &domain.NormalizationError{Asset: asset, Source: source, Reason: reason}
	}

	if !source.Valid() {
		return fail("unknown source")
	}
	if q == nil {
		return fail("missing price")
	}
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		return fail("price is not finite")
	}
	if q.Price <= 0 {
		return fail("price is not positive")
	}

	// ソースが時刻を返さない場合は対象時刻を観測時刻とする
	observed := q.ObservedAt
	if observed.IsZero() {
		observed = res.TargetInstant
	}

	return entity.PriceEntry{
		Hour:        res.Hour,
		Price:       q.Price,
		ObservedAt:  observed.UTC(),
		Source:      source,
		CollectedAt: res.Now,
	}, nil
}
