package sources

import (
	"context"
	"fmt"
	"math"
	"strings"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/scanner"
)

const (
	coinGeckoCoinBase = "https://www.coingecko.com/en/coins/"
	unrankedCoin      = 9999
)

// CoinGeckoOptions configures the market-data adapter.
type CoinGeckoOptions struct {
	URL      string
	MaxCoins int
}

// CoinGeckoScanner turns the trending list into crypto topics. It applies no
// keyword filter: every trending coin is a candidate.
type CoinGeckoScanner struct {
	deps     Deps
	url      string
	maxCoins int
}

var _ scanner.Scanner = (*CoinGeckoScanner)(nil)

// NewCoinGeckoScanner keeps the top 8 coins unless configured otherwise.
func NewCoinGeckoScanner(deps Deps, opts CoinGeckoOptions) *CoinGeckoScanner {
	if opts.MaxCoins <= 0 {
		opts.MaxCoins = 8
	}
	return &CoinGeckoScanner{deps: deps, url: opts.URL, maxCoins: opts.MaxCoins}
}

// Name identifies the adapter inside the registry.
func (c *CoinGeckoScanner) Name() domain.Source {
	return domain.SourceCoinGecko
}

type trendingResponse struct {
	Coins []struct {
		Item trendingCoin `json:"item"`
	} `json:"coins"`
}

type trendingCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Data          struct {
		PriceChange24h struct {
			USD *float64 `json:"usd"`
		} `json:"price_change_percentage_24h"`
	} `json:"data"`
}

// Scan fetches the trending list once.
func (c *CoinGeckoScanner) Scan(ctx context.Context) ([]domain.ScoredTopic, error) {
	var resp trendingResponse
	if err := c.deps.Fetcher.GetJSON(ctx, c.url, &resp); err != nil {
		return nil, fmt.Errorf("%w: coingecko trending: %w", domain.ErrSourceUnavailable, err)
	}

	coins := resp.Coins
	if len(coins) > c.maxCoins {
		coins = coins[:c.maxCoins]
	}

	candidates := make([]domain.ScoredTopic, 0, len(coins))
	for _, entry := range coins {
		coin := entry.Item
		if coin.ID == "" && coin.Symbol == "" {
			continue
		}
		candidates = append(candidates, c.deps.Scorer.Score(normalizeCoin(coin)))
	}
	return candidates, nil
}

func normalizeCoin(coin trendingCoin) domain.NormalizedTopic {
	change := 0.0
	if coin.Data.PriceChange24h.USD != nil {
		change = *coin.Data.PriceChange24h.USD
	}
	rank := unrankedCoin
	if coin.MarketCapRank != nil && *coin.MarketCapRank > 0 {
		rank = *coin.MarketCapRank
	}

	slug := coin.ID
	if slug == "" {
		slug = strings.ToLower(coin.Symbol)
	}

	niches := domain.NewNicheSet(domain.NicheCrypto)
	if math.Abs(change) > 15 || rank < 100 {
		niches = niches.With(domain.NicheGTM)
	}
	contentType := domain.ContentExpert
	if math.Abs(change) > 25 {
		contentType = domain.ContentViral
	}

	velocity := signedPercent(change)
	return domain.NormalizedTopic{
		ID:          "cg-" + slug,
		Title:       fmt.Sprintf("%s (%s): %s in 24h, rank #%d", coin.Name, coin.Symbol, velocity, rank),
		Source:      domain.SourceCoinGecko,
		Niches:      niches,
		ContentType: contentType,
		AgeHours:    0,
		Velocity:    velocity,
		Hook:        coinHook(coin.Name, change, rank),
		PostIdea:    fmt.Sprintf("Reverse-engineer %s trending momentum. Tie to market sentiment and crypto/growth narrative.", coin.Name),
		SourceURL:   coinGeckoCoinBase + slug,
		SourceTitle: "CoinGecko Trending",
		Metrics: domain.MarketMetrics{
			Rank:           rank,
			PriceChange24h: change,
			Symbol:         coin.Symbol,
		},
	}
}

func coinHook(name string, change float64, rank int) string {
	if math.Abs(change) > 5 {
		direction := "down"
		if change > 0 {
			direction = "up"
		}
		return fmt.Sprintf("%s %s %.1f%% in 24h. I dug into what's driving it.", name, direction, math.Abs(change))
	}
	return fmt.Sprintf("%s trending on CoinGecko (rank #%d). I dug into the story.", name, rank)
}

// signedPercent renders +45.0% for gains and -3.2% for losses.
func signedPercent(change float64) string {
	if change > 0 {
		return fmt.Sprintf("+%.1f%%", change)
	}
	return fmt.Sprintf("%.1f%%", change)
}
