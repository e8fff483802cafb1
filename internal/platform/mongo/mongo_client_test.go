package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB_NAME", "")
	t.Setenv("MONGO_COLLECTION", "")

	cfg := LoadConfig()
	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.Equal(t, "prices", cfg.Database)
	assert.Equal(t, "asset_prices", cfg.Collection)
}

func TestNewClient_MissingURI(t *testing.T) {
	t.Parallel()
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}
