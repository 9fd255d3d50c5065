package domain

import (
	"encoding/json"
	"fmt"
)

// Metrics is the source-native metric bag consumed by the scorer.
// Exactly one variant exists per source.
type Metrics interface {
	metricsSource() Source
}

// DiscussionMetrics come from discussion sites (Hacker News).
type DiscussionMetrics struct {
	Points   int `json:"points"`
	Comments int `json:"comments"`
}

// MarketMetrics come from market data (CoinGecko trending).
type MarketMetrics struct {
	Rank           int     `json:"market_cap_rank"`
	PriceChange24h float64 `json:"price_change_24h"`
	Symbol         string  `json:"symbol,omitempty"`
}

// LaunchMetrics come from launch feeds (Product Hunt).
type LaunchMetrics struct {
	Upvotes int `json:"upvotes"`
}

// NoMetrics is used by sources without native metrics (seeds).
type NoMetrics struct{}

func (DiscussionMetrics) metricsSource() Source { return SourceHackerNews }
func (MarketMetrics) metricsSource() Source     { return SourceCoinGecko }
func (LaunchMetrics) metricsSource() Source     { return SourceProductHunt }
func (NoMetrics) metricsSource() Source         { return SourceSeed }

// EncodeMetrics serializes a metrics variant for storage.
func EncodeMetrics(m Metrics) ([]byte, error) {
	if m == nil {
		m = NoMetrics{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}
	return raw, nil
}

// DecodeMetrics restores the variant that belongs to source.
func DecodeMetrics(source Source, raw []byte) (Metrics, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var (
		m   Metrics
		err error
	)
	switch source {
	case SourceHackerNews:
		var v DiscussionMetrics
		err = json.Unmarshal(raw, &v)
		m = v
	case SourceCoinGecko:
		var v MarketMetrics
		err = json.Unmarshal(raw, &v)
		m = v
	case SourceProductHunt:
		var v LaunchMetrics
		err = json.Unmarshal(raw, &v)
		m = v
	default:
		return NoMetrics{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s metrics: %w", source, err)
	}
	return m, nil
}
