package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "TOPIC_SCANNER_CONFIG"
	databaseDriverEnv  = "DATABASE_DRIVER"
	databaseDSNEnv     = "DATABASE_DSN"
	llmProviderEnv     = "LLM_PROVIDER"
	llmModelEnv        = "LLM_MODEL"
	llmAPIKeyEnv       = "LLM_API_KEY"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv        = "LOG_LEVEL"
	httpAddrEnv        = "HTTP_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging        LoggingConfig      `yaml:"logging"`
	Database       DatabaseConfig     `yaml:"database"`
	Scheduler      SchedulerConfig    `yaml:"scheduler"`
	HTTP           HTTPConfig         `yaml:"http"`
	Fetch          FetchConfig        `yaml:"fetch"`
	Sources        SourcesConfig      `yaml:"sources"`
	Keywords       KeywordConfig      `yaml:"keywords"`
	StrongKeywords []string           `yaml:"strongKeywords"`
	LLM            LLMConfig          `yaml:"llm"`
	Notifications  NotificationConfig `yaml:"notifications"`
	Seeds          []SeedConfig       `yaml:"seeds"`
}

// LoggingConfig controls the slog handler. Format is "text" or "json".
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the SQL driver ("sqlite" or "postgres") and its DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines how often scans run.
type SchedulerConfig struct {
	Interval     time.Duration  `yaml:"interval"`
	InitialDelay time.Duration  `yaml:"initialDelay"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// HTTPConfig is the ops listener (health, metrics, manual scan trigger).
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// FetchConfig bounds every outbound request made by source adapters.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"maxRetries"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
	Concurrency int           `yaml:"concurrency"`
	UserAgent   string        `yaml:"userAgent"`
}

// SourcesConfig groups per-source settings; the field order is the scan order.
type SourcesConfig struct {
	HackerNews  HackerNewsConfig  `yaml:"hackerNews"`
	CoinGecko   CoinGeckoConfig   `yaml:"coinGecko"`
	ProductHunt ProductHuntConfig `yaml:"productHunt"`
}

// HackerNewsConfig configures the discussion-site adapter.
type HackerNewsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	TopN    int    `yaml:"topN"`
	APIBase string `yaml:"apiBase"`
}

// CoinGeckoConfig configures the market-data adapter.
type CoinGeckoConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	URL      string `yaml:"url"`
	MaxCoins int    `yaml:"maxCoins"`
}

// ProductHuntConfig configures the launch-feed adapter.
type ProductHuntConfig struct {
	Enabled *bool  `yaml:"enabled"`
	FeedURL string `yaml:"feedUrl"`
}

// KeywordConfig is the classifier vocabulary.
type KeywordConfig struct {
	AI     []string `yaml:"ai"`
	Crypto []string `yaml:"crypto"`
	Growth []string `yaml:"growth"`
}

// LLMConfig defines how drafts are requested. Provider is "anthropic" or "openai".
// WebSearch (on unless switched off) lets Anthropic models check figures with
// the web search tool.
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	MaxTokens    int           `yaml:"maxTokens"`
	Timeout      time.Duration `yaml:"timeout"`
	WebSearch    *bool         `yaml:"webSearch"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
	MinScore int    `yaml:"minScore"`
}

// SeedConfig is a hand-curated topic inserted at startup when absent.
type SeedConfig struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Niches      []string `yaml:"niches"`
	ContentType string   `yaml:"contentType"`
	AgeHours    float64  `yaml:"ageHours"`
	Velocity    string   `yaml:"velocity"`
	Hook        string   `yaml:"hook"`
	PostIdea    string   `yaml:"postIdea"`
	SourceURL   string   `yaml:"sourceUrl"`
	SourceTitle string   `yaml:"sourceTitle"`
	FactChecked bool     `yaml:"factChecked"`
	FactNotes   string   `yaml:"factNotes"`
}

// Enabled resolves an optional flag; sources are on unless switched off.
func Enabled(flag *bool) bool {
	return flag == nil || *flag
}

// Load reads the YAML file named by TOPIC_SCANNER_CONFIG (if set) and applies
// environment overrides.
func Load() Config {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit YAML path. An empty path falls back to
// TOPIC_SCANNER_CONFIG.
func LoadFrom(path string) Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if fileCfg, err := ReadFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// ReadFile parses a YAML file without applying defaults.
func ReadFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, err
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, err
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	for _, env := range []string{llmAPIKeyEnv, anthropicAPIKeyEnv, openAIAPIKeyEnv} {
		if v := os.Getenv(env); v != "" {
			c.LLM.APIKey = v
			break
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.InitialDelay > 0 {
		base.Scheduler.InitialDelay = override.Scheduler.InitialDelay
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	base.Fetch = mergeFetch(base.Fetch, override.Fetch)
	base.Sources = mergeSources(base.Sources, override.Sources)

	if len(override.Keywords.AI) > 0 {
		base.Keywords.AI = override.Keywords.AI
	}
	if len(override.Keywords.Crypto) > 0 {
		base.Keywords.Crypto = override.Keywords.Crypto
	}
	if len(override.Keywords.Growth) > 0 {
		base.Keywords.Growth = override.Keywords.Growth
	}
	if len(override.StrongKeywords) > 0 {
		base.StrongKeywords = override.StrongKeywords
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}
	if override.LLM.WebSearch != nil {
		base.LLM.WebSearch = override.LLM.WebSearch
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIBase != "" {
		base.Notifications.Telegram.APIBase = override.Notifications.Telegram.APIBase
	}
	if override.Notifications.Telegram.MinScore > 0 {
		base.Notifications.Telegram.MinScore = override.Notifications.Telegram.MinScore
	}

	if override.Seeds != nil {
		base.Seeds = override.Seeds
	}

	return base
}

func mergeFetch(base, override FetchConfig) FetchConfig {
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.MaxRetries > 0 {
		base.MaxRetries = override.MaxRetries
	}
	if override.BaseDelay > 0 {
		base.BaseDelay = override.BaseDelay
	}
	if override.MaxDelay > 0 {
		base.MaxDelay = override.MaxDelay
	}
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	return base
}

func mergeSources(base, override SourcesConfig) SourcesConfig {
	if override.HackerNews.Enabled != nil {
		base.HackerNews.Enabled = override.HackerNews.Enabled
	}
	if override.HackerNews.TopN > 0 {
		base.HackerNews.TopN = override.HackerNews.TopN
	}
	if override.HackerNews.APIBase != "" {
		base.HackerNews.APIBase = override.HackerNews.APIBase
	}

	if override.CoinGecko.Enabled != nil {
		base.CoinGecko.Enabled = override.CoinGecko.Enabled
	}
	if override.CoinGecko.URL != "" {
		base.CoinGecko.URL = override.CoinGecko.URL
	}
	if override.CoinGecko.MaxCoins > 0 {
		base.CoinGecko.MaxCoins = override.CoinGecko.MaxCoins
	}

	if override.ProductHunt.Enabled != nil {
		base.ProductHunt.Enabled = override.ProductHunt.Enabled
	}
	if override.ProductHunt.FeedURL != "" {
		base.ProductHunt.FeedURL = override.ProductHunt.FeedURL
	}
	return base
}
