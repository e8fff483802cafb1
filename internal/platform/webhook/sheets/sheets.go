// Package sheets forwards daily price records to a spreadsheet web-app endpoint.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

// Config holds configuration for the spreadsheet forwarder.
type Config struct {
	URL string // Web-app endpoint that accepts the record as a JSON POST
}

// LoadConfig loads the spreadsheet configuration from environment variables.
func LoadConfig() Config {
	return Config{URL: os.Getenv("GOOGLE_SHEET_API_URL")}
}

// Forwarder は日次レコード全体を JSON でそのまま POST します。
type Forwarder struct {
	cfg    Config
	client *http.Client
}

var _ usecase.RecordForwarder = (*Forwarder)(nil)

func NewForwarder(cfg Config, client *http.Client) *Forwarder {
	return &Forwarder{cfg: cfg, client: client}
}

func (f *Forwarder) Name() string { return "spreadsheet" }

func (f *Forwarder) Forward(ctx context.Context, record *entity.DailyPriceRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("spreadsheet http %d", res.StatusCode)
	}
	slog.Info("record sent to spreadsheet", "date", record.Date)
	return nil
}
