package entity

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// DateLayout is the format of the calendar-date key of a DailyPriceRecord.
const DateLayout = "2006-01-02"

// DailyPriceRecord is the consolidated document for one calendar date in the
// target timezone. For each asset it holds at most one entry per hour, sorted
// ascending by hour.
type DailyPriceRecord struct {
	Date              string                 `json:"date"`
	DateLocalMidnight time.Time              `json:"date_local_midnight"`
	EntriesByAsset    map[Asset][]PriceEntry `json:"entries_by_asset"`
	CreatedAt         time.Time              `json:"created_at,omitzero"`
	UpdatedAt         time.Time              `json:"updated_at,omitzero"`
}

// ParseDate validates a YYYY-MM-DD key and returns the start of that day in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// DateKey returns the calendar-date key of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// NewDailyPriceRecord creates an empty record for date, with its local midnight
// derived in loc.
func NewDailyPriceRecord(date string, loc *time.Location) (*DailyPriceRecord, error) {
	midnight, err := ParseDate(date, loc)
	if err != nil {
		return nil, err
	}
	return &DailyPriceRecord{
		Date:              date,
		DateLocalMidnight: midnight,
		EntriesByAsset:    map[Asset][]PriceEntry{},
	}, nil
}

// UpsertEntry files entry under asset. An existing entry with the same hour is
// replaced in place; otherwise the entry is appended and the sequence re-sorted.
// Entries for other hours are never touched. Applying the same pair twice
// leaves the record as it was after the first call.
func (r *DailyPriceRecord) UpsertEntry(asset Asset, entry PriceEntry) error {
	if !asset.Valid() {
		return fmt.Errorf("%w: asset %q", ErrInvalidEntry, asset)
	}
	if !ValidHour(entry.Hour) {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidEntry, entry.Hour)
	}
	if r.EntriesByAsset == nil {
		r.EntriesByAsset = map[Asset][]PriceEntry{}
	}

	entries := r.EntriesByAsset[asset]
	for i := range entries {
		if entries[i].Hour == entry.Hour {
			entries[i] = entry
			return nil
		}
	}

	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Hour < entries[j].Hour })
	r.EntriesByAsset[asset] = entries
	return nil
}

// GetEntry returns the entry filed for asset at hour, if any.
func (r *DailyPriceRecord) GetEntry(asset Asset, hour int) (PriceEntry, bool) {
	for _, e := range r.EntriesByAsset[asset] {
		if e.Hour == hour {
			return e, true
		}
	}
	return PriceEntry{}, false
}

// AllEntries returns a copy of the asset's entries in ascending hour order.
// Unknown assets yield an empty slice.
func (r *DailyPriceRecord) AllEntries(asset Asset) []PriceEntry {
	entries := r.EntriesByAsset[asset]
	out := make([]PriceEntry, len(entries))
	copy(out, entries)
	return out
}

// Assets returns the asset codes present in the record, sorted.
func (r *DailyPriceRecord) Assets() []Asset {
	out := make([]Asset, 0, len(r.EntriesByAsset))
	for a := range r.EntriesByAsset {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// Clone returns a deep copy of the record.
func (r *DailyPriceRecord) Clone() *DailyPriceRecord {
	c := *r
	c.EntriesByAsset = make(map[Asset][]PriceEntry, len(r.EntriesByAsset))
	for a, es := range r.EntriesByAsset {
		c.EntriesByAsset[a] = slices.Clone(es)
	}
	return &c
}
