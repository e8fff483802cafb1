package dto

// MarketChartResponse is the body of /coins/{id}/market_chart/range.
// Each point is [unix_millis, value].
type MarketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}
