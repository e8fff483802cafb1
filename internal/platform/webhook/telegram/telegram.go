// Package telegram sends one price notification per cycle to a broadcast bot endpoint.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

// ErrNothingToSend は通知する価格が1件もない場合に返されます。
// FetchUsecase は価格が0件なら Notify を呼ばないため、Notifier を直接使う呼び出し元向けのガードです。
var ErrNothingToSend = errors.New("telegram: no prices to notify")

// Config holds configuration for the broadcast endpoint.
type Config struct {
	URL    string
	APIKey string // Sent as x-api-key
}

// LoadConfig loads the notification configuration from environment variables.
func LoadConfig() Config {
	return Config{
		URL:    os.Getenv("TELEGRAM_API_URL"),
		APIKey: os.Getenv("TELEGRAM_API_KEY"),
	}
}

type entry struct {
	Subscription string `json:"subscription"`
	Message      string `json:"message"`
}

type payload struct {
	FirstMessage string  `json:"first_message"`
	Entries      []entry `json:"entries"`
}

// Notifier は取得できた資産ごとに購読チャンネル "prices:<ASSET>" 向けのメッセージを送ります。
type Notifier struct {
	cfg    Config
	client *http.Client
}

var _ usecase.Notifier = (*Notifier)(nil)

func NewNotifier(cfg Config, client *http.Client) *Notifier {
	return &Notifier{cfg: cfg, client: client}
}

func (n *Notifier) Notify(ctx context.Context, hour int, prices []usecase.AssetPrice) error {
	p := buildPayload(hour, prices)
	if len(p.Entries) == 0 {
		return ErrNothingToSend
	}

	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", n.cfg.APIKey)

	res, err := n.client.Do(req)
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
		return fmt.Errorf("telegram http %d", res.StatusCode)
	}
	slog.Info("price notification sent", "hour", hour, "entries", len(p.Entries))
	return nil
}

func buildPayload(hour int, prices []usecase.AssetPrice) payload {
	p := payload{
		FirstMessage: fmt.Sprintf("📊 Prices updated at %02d:00", hour),
		Entries:      make([]entry, 0, len(prices)),
	}
	for _, ap := range prices {
		p.Entries = append(p.Entries, entry{
			Subscription: "prices:" + string(ap.Asset),
			Message:      messageFor(ap),
		})
	}
	return p
}

func messageFor(ap usecase.AssetPrice) string {
	price := FormatPrice(ap.Price)
	switch ap.Asset {
	case entity.AssetBTC:
		return fmt.Sprintf("₿ Bitcoin: $%s USD", price)
	case entity.AssetXAU:
		return fmt.Sprintf("🥇 Gold (XAU): $%s USD/oz", price)
	default:
		return fmt.Sprintf("%s: $%s USD", ap.Asset, price)
	}
}

// FormatPrice は価格を小数点以下2桁・3桁区切りの文字列にします（例: 43,250.75）。
func FormatPrice(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
