package config

import "time"

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "data/topics.db"},
		Scheduler: SchedulerConfig{
			Interval:     30 * time.Minute,
			InitialDelay: 2 * time.Second,
			Timezone:     defaultTimezone,
			location:     tz,
		},
		HTTP: HTTPConfig{Addr: ":3000"},
		Fetch: FetchConfig{
			Timeout:     10 * time.Second,
			MaxRetries:  1,
			BaseDelay:   250 * time.Millisecond,
			MaxDelay:    2 * time.Second,
			Concurrency: 10,
			UserAgent:   "TopicScanner/1.0",
		},
		Sources: SourcesConfig{
			HackerNews: HackerNewsConfig{
				TopN:    30,
				APIBase: "https://hacker-news.firebaseio.com/v0",
			},
			CoinGecko: CoinGeckoConfig{
				URL:      "https://api.coingecko.com/api/v3/search/trending",
				MaxCoins: 8,
			},
			ProductHunt: ProductHuntConfig{
				FeedURL: "https://www.producthunt.com/feed",
			},
		},
		Keywords: KeywordConfig{
			AI:     []string{"ai", "llm", "gpt", "claude", "openai", "anthropic", "ml", "agent", "automation", "rag", "chatbot", "gemini", "copilot"},
			Crypto: []string{"crypto", "blockchain", "web3", "token", "defi", "prediction", "airdrop", "tvl", "l2", "rollup", "staking"},
			Growth: []string{"growth", "marketing", "startup", "saas", "fundrais", "series", "valuation", "revenue", "arr", "cac", "ltv", "retention", "gtm"},
		},
		StrongKeywords: []string{
			"growth hack", "gtm", "zero budget", "tvl", "arr", "valuation", "fundrais",
			"airdrop", "ai agent", "retention", "cac", "ltv", "prediction market",
			"product-led", "viral loop", "series a", "series b", "ipo", "acquisition",
		},
		LLM: LLMConfig{
			Provider:     "anthropic",
			Endpoint:     "https://api.anthropic.com/v1/messages",
			Model:        "claude-sonnet-4-5",
			MaxTokens:    1500,
			Timeout:      90 * time.Second,
			SystemPrompt: DefaultSystemPrompt,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBase: "https://api.telegram.org", MinScore: 70},
		},
		Seeds: defaultSeeds(),
	}
}

func defaultSeeds() []SeedConfig {
	return []SeedConfig{
		{
			ID:          "seed-polymarket",
			Title:       "Polymarket: $3.3B wagered, $980K ad spend. 3,300x ratio.",
			Niches:      []string{"Crypto / Web3", "GTM Strategy"},
			ContentType: "expert",
			AgeHours:    36,
			Velocity:    "+340%",
			Hook:        "$3.3B wagered on one election. $980K in ad spend. That's a 3,300x return on marketing.",
			PostIdea:    "Reverse-engineer Polymarket GTM: paid social and influencers were real, the zero budget story is a myth. Three growth drivers: event hijacking, earned media, dopamine-driven retention.",
			SourceURL:   "https://defillama.com/protocol/polymarket",
			SourceTitle: "Polymarket, DefiLlama",
			FactChecked: true,
			FactNotes:   "TVL peak $450M (not $1B). $980K Meta ads confirmed. Influencer deals confirmed. $3.3B = election volume.",
		},
		{
			ID:          "seed-perplexity",
			Title:       "Perplexity AI: $500M to $20B in 20 months. Zero paid acquisition.",
			Niches:      []string{"AI + Marketing", "GTM Strategy"},
			ContentType: "expert",
			AgeHours:    48,
			Velocity:    "+800%",
			Hook:        "Perplexity went from $500M to $20B in 20 months. And their growth playbook has zero paid acquisition.",
			PostIdea:    "GTM breakdown: distribution partnerships instead of ads, answer engine optimization, and how search behavior is shifting.",
			SourceURL:   "https://sacra.com/c/perplexity/",
			SourceTitle: "Perplexity revenue & valuation, Sacra",
			FactChecked: true,
			FactNotes:   "Valuation $20B (Sep 2025). ARR ~$148M. 45M MAU. Founded 2022.",
		},
	}
}
