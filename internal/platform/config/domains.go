package config

import (
	"github.com/lueurxax/media-relay-bot/internal/core/links"
	"github.com/lueurxax/media-relay-bot/internal/process/pipeline"
	"github.com/lueurxax/media-relay-bot/internal/telegrambot"
)

// FetchCfg returns the outbound fetcher settings.
func (c *Config) FetchCfg() links.FetchConfig {
	return links.FetchConfig{
		Timeout:           c.FetchTimeout,
		UserAgent:         c.FetchUserAgent,
		BaseDelay:         c.FetchBaseDelay,
		Jitter:            c.FetchJitter,
		DefaultRetryWait:  c.RateLimitDefaultWait,
		RetryJitter:       c.RateLimitJitter,
		ResolveMaxRetries: c.ResolveMaxRetries,
		EnrichMaxRetries:  c.EnrichMaxRetries,
	}
}

// PipelineCfg returns the message pipeline settings.
func (c *Config) PipelineCfg() pipeline.Config {
	return pipeline.Config{
		SourceAccountIDs:  c.SourceAccountIDs,
		TestMode:          c.TestMode,
		ExpandConcurrency: c.ExpandConcurrency,
		DeliveryTimeout:   c.DeliveryTimeout,
	}
}

// TelegramCfg returns the Bot API settings.
func (c *Config) TelegramCfg() telegrambot.Config {
	return telegrambot.Config{
		Token:         c.BotToken,
		LogChatID:     c.LogChatID,
		SendRPS:       c.SendRPS,
		SendBurst:     c.SendBurst,
		UpdateTimeout: c.UpdateTimeout,
	}
}
