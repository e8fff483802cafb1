package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price_backend/internal/feature/prices/domain/entity"
)

func sampleRecord(t *testing.T) *entity.DailyPriceRecord {
	t.Helper()
	rec, err := entity.NewDailyPriceRecord("2025-10-24", time.UTC)
	require.NoError(t, err)
	require.NoError(t, rec.UpsertEntry(entity.AssetBTC, entity.PriceEntry{
		Hour: 10, Price: 43250.75, Source: entity.SourceCoinGecko,
		ObservedAt: time.Date(2025, 10, 24, 12, 58, 0, 0, time.UTC), CollectedAt: time.Date(2025, 10, 24, 13, 5, 0, 0, time.UTC),
	}))
	return rec
}

func TestForwarder_Forward(t *testing.T) {
	t.Parallel()

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := NewForwarder(Config{URL: server.URL}, server.Client())
	assert.Equal(t, "spreadsheet", f.Name())
	require.NoError(t, f.Forward(context.Background(), sampleRecord(t)))

	assert.Equal(t, "2025-10-24", got["date"])
	btc := got["entries_by_asset"].(map[string]any)["BTC"].([]any)
	assert.Equal(t, 43250.75, btc[0].(map[string]any)["price"])
}

func TestForwarder_Forward_HTTPError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewForwarder(Config{URL: server.URL}, server.Client())
	err := f.Forward(context.Background(), sampleRecord(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
