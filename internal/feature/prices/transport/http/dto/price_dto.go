package dto

import (
	"time"

	"price_backend/internal/feature/prices/domain/entity"
)

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// TriggerRequest は POST /api/v1/prices/fetch の任意のリクエストボディです。
type TriggerRequest struct {
	Hour *int `json:"hour"` // 省略時は現在時刻から決定
}

// PriceEntryResponse は1時刻分の価格です。
type PriceEntryResponse struct {
	Hour        int     `json:"hour"`
	Price       float64 `json:"price"`
	ObservedAt  string  `json:"observed_at"`  // RFC3339 (UTC)
	Source      string  `json:"source"`       // 取得元API
	CollectedAt string  `json:"collected_at"` // RFC3339 (対象タイムゾーン)
}

// DailyRecordResponse は日次レコードのレスポンスDTOです。
type DailyRecordResponse struct {
	Date              string                          `json:"date"`
	DateLocalMidnight string                          `json:"date_local_midnight"`
	EntriesByAsset    map[string][]PriceEntryResponse `json:"entries_by_asset"`
	CreatedAt         string                          `json:"created_at,omitempty"`
	UpdatedAt         string                          `json:"updated_at,omitempty"`
}

// NewDailyRecordResponse はエンティティをレスポンスDTOに変換します。
func NewDailyRecordResponse(rec *entity.DailyPriceRecord) DailyRecordResponse {
	out := DailyRecordResponse{
		Date:              rec.Date,
		DateLocalMidnight: rec.DateLocalMidnight.Format(time.RFC3339),
		EntriesByAsset:    make(map[string][]PriceEntryResponse, len(rec.EntriesByAsset)),
		CreatedAt:         formatOptional(rec.CreatedAt),
		UpdatedAt:         formatOptional(rec.UpdatedAt),
	}
	for _, asset := range rec.Assets() {
		entries := rec.AllEntries(asset)
		rs := make([]PriceEntryResponse, 0, len(entries))
		for _, e := range entries {
			rs = append(rs, PriceEntryResponse{
				Hour:        e.Hour,
				Price:       e.Price,
				ObservedAt:  e.ObservedAt.UTC().Format(time.RFC3339),
				Source:      string(e.Source),
				CollectedAt: e.CollectedAt.Format(time.RFC3339),
			})
		}
		out.EntriesByAsset[string(asset)] = rs
	}
	return out
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
