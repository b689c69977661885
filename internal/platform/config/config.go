package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const appEnvLocal = "local"

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	BotToken string `env:"BOT_TOKEN,required"`

	// SourceAccountIDs are the authors whose messages are relayed.
	SourceAccountIDs []int64 `env:"SOURCE_ACCOUNT_IDS" envSeparator:","`
	LogChatID        int64   `env:"LOG_CHAT_ID"`
	TestMode         bool    `env:"TEST_MODE" envDefault:"false"`

	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" envSeparator:"," envDefault:".mp4,.gif,.gifv,.webm,.jpg,.jpeg,.png,.webp"`
	AllowedDomains    []string `env:"ALLOWED_DOMAINS" envSeparator:"," envDefault:"redgifs.com"`

	Port int `env:"PORT" envDefault:"3000"`

	// Outbound fetching
	FetchTimeout         time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	FetchUserAgent       string        `env:"FETCH_USER_AGENT" envDefault:"MediaRelayBot/1.0 (link resolver)"`
	FetchBaseDelay       time.Duration `env:"FETCH_BASE_DELAY" envDefault:"1200ms"`
	FetchJitter          time.Duration `env:"FETCH_JITTER" envDefault:"300ms"`
	RateLimitDefaultWait time.Duration `env:"RATE_LIMIT_DEFAULT_WAIT" envDefault:"5s"`
	RateLimitJitter      time.Duration `env:"RATE_LIMIT_JITTER" envDefault:"1s"`
	EnrichMaxRetries     int           `env:"ENRICH_MAX_RETRIES" envDefault:"3"`
	ResolveMaxRetries    int           `env:"RESOLVE_MAX_RETRIES" envDefault:"2"`

	// Enrichment cache
	EnrichCacheTTL     time.Duration `env:"ENRICH_CACHE_TTL" envDefault:"300s"`
	CachePruneInterval time.Duration `env:"CACHE_PRUNE_INTERVAL" envDefault:"1m"`

	// Message handling
	MaxItemsPerMessage int           `env:"MAX_ITEMS_PER_MESSAGE" envDefault:"5"`
	ExpandConcurrency  int           `env:"EXPAND_CONCURRENCY" envDefault:"4"`
	HandlerWorkers     int           `env:"HANDLER_WORKERS" envDefault:"4"`
	HandlerTimeout     time.Duration `env:"HANDLER_TIMEOUT" envDefault:"2m"`
	DeliveryTimeout    time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"30s"`

	// Bot API
	SendRPS       float64 `env:"SEND_RPS" envDefault:"1"`
	SendBurst     int     `env:"SEND_BURST" envDefault:"3"`
	UpdateTimeout int     `env:"UPDATE_TIMEOUT" envDefault:"60"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// IsLocal reports whether the process runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == appEnvLocal
}

// applyAliases accepts the legacy variable names when the current ones are unset.
func applyAliases(cfg *Config) {
	if !hasEnv("SOURCE_ACCOUNT_IDS") {
		setInt64sFromEnv("TARGET_BOT_IDS", &cfg.SourceAccountIDs)
	}

	if !hasEnv("LOG_CHAT_ID") {
		setInt64FromEnv("LOG_CHANNEL_ID", &cfg.LogChatID)
	}

	if !hasEnv("PORT") {
		setIntFromEnv("HEALTH_PORT", &cfg.Port)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setInt64FromEnv(key string, target *int64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return
	}

	*target = parsed
}

// setInt64sFromEnv parses a comma-separated id list. One bad entry discards the list.
func setInt64sFromEnv(key string, target *[]int64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	var ids []int64

	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return
		}

		ids = append(ids, id)
	}

	*target = ids
}
