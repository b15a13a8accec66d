package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Market struct {
		Timezone        string        `yaml:"timezone" default:"Asia/Kolkata"`
		OpenTime        string        `yaml:"open_time" default:"09:15"`
		CloseTime       string        `yaml:"close_time" default:"15:30"`
		RefreshInterval time.Duration `yaml:"refresh_interval" default:"30s"`
		SnapshotMaxAge  time.Duration `yaml:"snapshot_max_age" default:"60s"`
		Concurrency     int           `yaml:"concurrency" default:"8"`
		SymbolTimeout   time.Duration `yaml:"symbol_timeout" default:"10s"`
		FetchAttempts   int           `yaml:"fetch_attempts" default:"2"`
		BackoffBase     time.Duration `yaml:"backoff_base" default:"400ms"`
		BackoffCap      time.Duration `yaml:"backoff_cap" default:"4s"`
		RegistryURL     string        `yaml:"registry_url"`
		IntradayBaseURL string        `yaml:"intraday_base_url" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
		QuoteBaseURL    string        `yaml:"quote_base_url" default:"https://query1.finance.yahoo.com/v7/finance/quote"`
		Secondary       struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://www.alphavantage.co/query"`
		} `yaml:"secondary"`
	} `yaml:"market"`
	Filter struct {
		MinChangePct float64 `yaml:"min_change_pct" default:"1.0"`
		MaxChangePct float64 `yaml:"max_change_pct" default:"3.0"`
		MinOpen      float64 `yaml:"min_open" default:"50"`
		MinVolume    float64 `yaml:"min_volume" default:"100000"`
	} `yaml:"filter"`
	News struct {
		Timeout         time.Duration `yaml:"timeout" default:"9s"`
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"10m"`
		MaxPerSymbol    int           `yaml:"max_per_symbol" default:"8"`
		OffHoursRefresh bool          `yaml:"offhours_refresh"`
		Search          struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://newsapi.org/v2/everything"`
		} `yaml:"search"`
		GeneralFeedURL   string `yaml:"general_feed_url" default:"https://news.google.com/rss/search"`
		FinanceFeedURL   string `yaml:"finance_feed_url" default:"https://news.google.com/rss/headlines/section/topic/BUSINESS"`
		RegionalFeedURL  string `yaml:"regional_feed_url" default:"https://news.google.com/rss/search?gl=IN&ceid=IN:en"`
		SecondaryFeedURL string `yaml:"secondary_feed_url" default:"https://www.bing.com/news/search?format=rss"`
	} `yaml:"news"`
	Engine struct {
		BigMoveThreshold    float64 `yaml:"big_move_threshold" default:"3.0"`
		HighVolumeThreshold float64 `yaml:"high_volume_threshold" default:"1000000"`
		NeutralBand         float64 `yaml:"neutral_band" default:"0.20"`
		ConflictBand        float64 `yaml:"conflict_band" default:"1.0"`
		MaxEscalations      int     `yaml:"max_escalations" default:"100"`
		SentimentGain       float64 `yaml:"sentiment_gain" default:"2.0"`
		MomentumGain        float64 `yaml:"momentum_gain" default:"0.25"`
		PredictionLimit     float64 `yaml:"prediction_limit" default:"3.0"`
	} `yaml:"engine"`
	Agent struct {
		Enabled bool          `yaml:"enabled"`
		BaseURL string        `yaml:"base_url" default:"http://localhost:8001"`
		Timeout time.Duration `yaml:"timeout" default:"15s"`
		Retries int           `yaml:"retries" default:"2"`
	} `yaml:"agent"`
	Session struct {
		TopCandidates int           `yaml:"top_candidates" default:"50"`
		PickSetTTL    time.Duration `yaml:"pickset_ttl" default:"20h"`
		EODDelay      time.Duration `yaml:"eod_delay" default:"15m"`
	} `yaml:"session"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"trendpulse"`
		} `yaml:"redis"`
		ProbeInterval time.Duration `yaml:"probe_interval" default:"15s"`
	} `yaml:"cache"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"20s"`
	} `yaml:"stream"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"trendpulse.picks"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"trendpulse"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file, applying defaults first.
func Load(path string) (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing config file is not fatal: defaults plus environment are enough to run.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) && !strings.Contains(err.Error(), "no such file") {
			return nil, err
		}
		c = &Config{}
		if derr := defaults.Set(c); derr != nil {
			return nil, fmt.Errorf("config defaults: %w", derr)
		}
	}

	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("AGENT_URL"); v != "" {
		c.Agent.BaseURL = v
	}
	if v := os.Getenv("USE_AGENT"); v != "" {
		c.Agent.Enabled = parseBool(v)
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.Search.APIKey = v
	}
	if v := os.Getenv("SECONDARY_API_KEY"); v != "" {
		c.Market.Secondary.APIKey = v
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("OFFHOURS_NEWS"); v != "" {
		c.News.OffHoursRefresh = parseBool(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, perr := strconv.Atoi(v); perr == nil {
			c.Server.Port = p
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Market.Concurrency <= 0 {
		return fmt.Errorf("market.concurrency must be positive")
	}
	if c.Filter.MinChangePct > c.Filter.MaxChangePct {
		return fmt.Errorf("filter.min_change_pct must not exceed filter.max_change_pct")
	}
	if _, err := parseClock(c.Market.OpenTime); err != nil {
		return fmt.Errorf("market.open_time: %w", err)
	}
	if _, err := parseClock(c.Market.CloseTime); err != nil {
		return fmt.Errorf("market.close_time: %w", err)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required when clickhouse is enabled")
	}
	return nil
}

// MarketOpenMinutes returns the configured open time as minutes from midnight.
func (c *Config) MarketOpenMinutes() int {
	m, _ := parseClock(c.Market.OpenTime)
	return m
}

// MarketCloseMinutes returns the configured close time as minutes from midnight.
func (c *Config) MarketCloseMinutes() int {
	m, _ := parseClock(c.Market.CloseTime)
	return m
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
