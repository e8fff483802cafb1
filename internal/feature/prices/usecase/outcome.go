package usecase

import "time"

// ServiceOutcome は1サイクルの結果です。HTTP レスポンスと CLI の出力にそのまま使われます。
type ServiceOutcome struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	Date            string    `json:"date,omitempty"`
	TargetHour      int       `json:"target_hour"`
	AssetsProcessed int       `json:"assets_processed"`
	Errors          []string  `json:"errors"`
	Persisted       bool      `json:"persisted"`
	CompletedAt     time.Time `json:"completed_at"`
}

func failedOutcome(msg string, now time.Time) ServiceOutcome {
	return ServiceOutcome{
		Success:     false,
		Message:     msg,
		Errors:      []string{msg},
		CompletedAt: now,
	}
}
