// Package entity defines the domain models for the prices feature.
package entity

import (
	"time"
	"unicode"
)

// Asset identifies a tracked instrument by its short code (e.g. "BTC", "XAU").
// The set of assets is open; any code satisfying Valid may be stored.
type Asset string

const (
	AssetBTC Asset = "BTC" // Bitcoin
	AssetXAU Asset = "XAU" // Gold, one troy ounce
)

// maxAssetLen matches the column size used by the relational store.
const maxAssetLen = 16

// Valid reports whether the asset code is non-empty, at most 16 characters,
// and made only of letters, digits and underscores. Dots and dollar signs are
// rejected because the code is used as a document field name.
func (a Asset) Valid() bool {
	if a == "" || len(a) > maxAssetLen {
		return false
	}
	for _, r := range string(a) {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Source identifies the adapter that produced a price. The set is closed:
// adding a price source means adding a constant here.
type Source string

const (
	SourceCoinGecko Source = "coingecko"
	SourceGoldAPI   Source = "goldapi"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceCoinGecko, SourceGoldAPI:
		return true
	default:
		return false
	}
}

// Quote is the raw result of one price source call, before normalization.
type Quote struct {
	Price      float64   // Price in the quote currency (USD)
	ObservedAt time.Time // Timestamp reported by the source
}
