// Package telegram provides Telegram Bot API options.
package telegram

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/camaral-bot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains Telegram Bot API configuration.
type Options struct {
	// Token is the bot token issued by BotFather.
	Token string `json:"-" mapstructure:"token"`
	// BaseURL is the Bot API endpoint.
	BaseURL string `json:"base-url" mapstructure:"base-url"`
	// WebhookURL is the public URL registered with setWebhook.
	WebhookURL string `json:"webhook-url" mapstructure:"webhook-url"`
	// SecretToken is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	SecretToken string `json:"-" mapstructure:"secret-token"`
	// Timeout bounds each Bot API request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	// MaxRetries caps retries of 429 and 5xx responses.
	MaxRetries uint64 `json:"max-retries" mapstructure:"max-retries"`
	// UpdateTimeout bounds the processing of one update.
	UpdateTimeout time.Duration `json:"update-timeout" mapstructure:"update-timeout"`
	// DedupSize is the number of recent update ids remembered to drop redeliveries.
	DedupSize int `json:"dedup-size" mapstructure:"dedup-size"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		BaseURL:       "https://api.telegram.org",
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		UpdateTimeout: 60 * time.Second,
		DedupSize:     1024,
	}
}

// AddFlags adds flags for Telegram options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "telegram."
	fs.StringVar(&o.Token, p+"token", o.Token, "Telegram bot token (prefer CAMARAL_BOT_TELEGRAM_TOKEN).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Telegram Bot API base URL.")
	fs.StringVar(&o.WebhookURL, p+"webhook-url", o.WebhookURL, "Public webhook URL, e.g. https://bot.camaral.ai/api/telegram.")
	fs.StringVar(&o.SecretToken, p+"secret-token", o.SecretToken, "Secret token Telegram sends with every webhook call.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Telegram request timeout.")
	fs.Uint64Var(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Retries on 429 and 5xx responses.")
	fs.DurationVar(&o.UpdateTimeout, p+"update-timeout", o.UpdateTimeout, "Maximum processing time of one update.")
	fs.IntVar(&o.DedupSize, p+"dedup-size", o.DedupSize, "Number of recent update ids kept for de-duplication.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Token == "" {
		errs = append(errs, fmt.Errorf("telegram.token is required"))
	}
	if _, err := url.ParseRequestURI(o.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("telegram.base-url: %w", err))
	}
	if o.Timeout <= 0 || o.UpdateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("telegram timeouts must be positive"))
	}
	if o.DedupSize <= 0 {
		errs = append(errs, fmt.Errorf("telegram.dedup-size must be positive"))
	}
	return errs
}
