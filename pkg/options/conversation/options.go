// Package conversation provides conversation store options.
package conversation

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/camaral-bot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Supported conversation store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

// Options configures per-user conversation history.
type Options struct {
	// Backend is one of memory, redis, sql.
	Backend string `json:"backend" mapstructure:"backend"`
	// MaxHistory is the number of messages kept per user.
	MaxHistory int `json:"max-history" mapstructure:"max-history"`
	// KeyPrefix prefixes Redis keys.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
	// TTL expires idle Redis histories; 0 keeps them forever.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Backend:    BackendMemory,
		MaxHistory: 10,
		KeyPrefix:  "camaral:conv:",
		TTL:        7 * 24 * time.Hour,
	}
}

// AddFlags adds flags for conversation options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "conversation."
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Conversation store backend (memory, redis, sql).")
	fs.IntVar(&o.MaxHistory, p+"max-history", o.MaxHistory, "Messages kept per user.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Redis key prefix.")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Idle history expiry for the redis backend (0 disables).")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Backend {
	case BackendMemory, BackendRedis, BackendSQL:
	default:
		errs = append(errs, fmt.Errorf("conversation.backend %q is not supported", o.Backend))
	}
	if o.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("conversation.max-history must be positive"))
	}
	if o.TTL < 0 {
		errs = append(errs, fmt.Errorf("conversation.ttl must not be negative"))
	}
	return errs
}
