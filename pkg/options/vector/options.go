// Package vector provides vector store selection and Upstash options.
package vector

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/camaral-bot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Supported vector store backends.
const (
	BackendUpstash = "upstash"
	BackendMilvus  = "milvus"
	BackendMemory  = "memory"
)

// Options selects the vector store and configures the Upstash backend.
type Options struct {
	// Backend is one of upstash, milvus, memory.
	Backend string `json:"backend" mapstructure:"backend"`
	// BatchSize is the maximum number of vectors per upsert request.
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`
	// Upstash configures the Upstash Vector REST backend.
	Upstash *UpstashOptions `json:"upstash" mapstructure:"upstash"`
}

// UpstashOptions configures the Upstash Vector REST API.
type UpstashOptions struct {
	URL        string        `json:"url" mapstructure:"url"`
	Token      string        `json:"-" mapstructure:"token"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Backend:   BackendUpstash,
		BatchSize: 100,
		Upstash: &UpstashOptions{
			Timeout:    30 * time.Second,
			MaxRetries: 0,
		},
	}
}

// AddFlags adds flags for vector store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "vector."
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Vector store backend (upstash, milvus, memory).")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Vectors per upsert request.")
	fs.StringVar(&o.Upstash.URL, p+"upstash.url", o.Upstash.URL, "Upstash Vector REST URL.")
	fs.StringVar(&o.Upstash.Token, p+"upstash.token", o.Upstash.Token, "Upstash Vector REST token (prefer CAMARAL_BOT_VECTOR_UPSTASH_TOKEN).")
	fs.DurationVar(&o.Upstash.Timeout, p+"upstash.timeout", o.Upstash.Timeout, "Upstash request timeout.")
	fs.IntVar(&o.Upstash.MaxRetries, p+"upstash.max-retries", o.Upstash.MaxRetries, "Upstash retries on 5xx responses.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("vector.batch-size must be positive"))
	}

	switch o.Backend {
	case BackendUpstash:
		if o.Upstash.URL == "" {
			errs = append(errs, fmt.Errorf("vector.upstash.url is required for the upstash backend"))
		}
		if o.Upstash.Token == "" {
			errs = append(errs, fmt.Errorf("vector.upstash.token is required for the upstash backend"))
		}
		if o.Upstash.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("vector.upstash.timeout must be positive"))
		}
	case BackendMilvus, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("vector.backend %q is not supported", o.Backend))
	}
	return errs
}
