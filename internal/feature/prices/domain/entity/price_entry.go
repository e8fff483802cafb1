package entity

import "time"

const (
	MinHour = 0
	MaxHour = 23
)

// ValidHour reports whether h is an hour of day in [0, 23].
func ValidHour(h int) bool {
	return h >= MinHour && h <= MaxHour
}

// PriceEntry is one observation of one asset, filed under one hour of one day.
// Hour is the bucket chosen by the caller and may differ from ObservedAt's hour
// when the source lags.
type PriceEntry struct {
	Hour        int       `json:"hour"`
	Price       float64   `json:"price"`
	ObservedAt  time.Time `json:"observed_at"`  // UTC
	Source      Source    `json:"source"`
	CollectedAt time.Time `json:"collected_at"` // target timezone
}
