package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// 本番ルータと同じく /healthz は GET/HEAD、/health と /api/v1/health は GET
func setupRouter(info Info) *gin.Engine {
	r := gin.New()
	health := Health(info)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)
	r.GET("/health", health)
	r.GET("/api/v1/health", health)
	return r
}

func TestHealth_ReportsActiveStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store string
	}{
		{"sql store", "gorm/postgres"},
		{"mongo store", "mongo"},
		{"in-memory store", "memory"},
		// 起動時にストアへ接続できず永続化なしで動いている
		{"degraded without persistence", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := setupRouter(Info{Service: "price-collector", Version: "1.4.0", Store: tt.store})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			// ストアが落ちていてもサイクルは転送だけで動くため status は ok のまま
			assert.Equal(t, map[string]string{
				"status":  "ok",
				"service": "price-collector",
				"version": "1.4.0",
				"store":   tt.store,
			}, body)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		})
	}
}

func TestHealth_Aliases(t *testing.T) {
	t.Parallel()
	router := setupRouter(Info{Service: "price-collector", Version: "dev", Store: "none"})

	for _, path := range []string{"/healthz", "/health", "/api/v1/health"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"status":"ok","service":"price-collector","version":"dev","store":"none"}`, w.Body.String())
		})
	}
}

func TestHealth_HeadAndOptions(t *testing.T) {
	t.Parallel()
	router := setupRouter(Info{Service: "price-collector", Version: "dev", Store: "memory"})

	t.Run("HEAD has no body", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, w.Body.Len())
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	})

	t.Run("OPTIONS is no content", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/healthz", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	})
}
