// Package options contains flags and options for initializing the bot server.
package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	botsvc "github.com/kart-io/camaral-bot/internal/bot"
	"github.com/kart-io/camaral-bot/pkg/infra/app"
	convopts "github.com/kart-io/camaral-bot/pkg/options/conversation"
	llmopts "github.com/kart-io/camaral-bot/pkg/options/llm"
	logopts "github.com/kart-io/camaral-bot/pkg/options/logger"
	milvusopts "github.com/kart-io/camaral-bot/pkg/options/milvus"
	poolopts "github.com/kart-io/camaral-bot/pkg/options/pool"
	ragopts "github.com/kart-io/camaral-bot/pkg/options/rag"
	redisopts "github.com/kart-io/camaral-bot/pkg/options/redis"
	serveropts "github.com/kart-io/camaral-bot/pkg/options/server"
	sqlopts "github.com/kart-io/camaral-bot/pkg/options/sql"
	telegramopts "github.com/kart-io/camaral-bot/pkg/options/telegram"
	tracingopts "github.com/kart-io/camaral-bot/pkg/options/tracing"
	vectoropts "github.com/kart-io/camaral-bot/pkg/options/vector"
)

var _ app.CliOptions = (*ServerOptions)(nil)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *serveropts.Options `json:"server" mapstructure:"server"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// LLMOptions contains the OpenAI compatible provider configuration.
	LLMOptions *llmopts.Options `json:"llm" mapstructure:"llm"`

	// RAGOptions contains chunking, retrieval and relevance configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// TelegramOptions contains Telegram Bot API configuration.
	TelegramOptions *telegramopts.Options `json:"telegram" mapstructure:"telegram"`

	// VectorOptions selects the vector store backend.
	VectorOptions *vectoropts.Options `json:"vector" mapstructure:"vector"`

	// MilvusOptions contains Milvus configuration for the milvus backend.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// RedisOptions contains Redis configuration.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// ConversationOptions contains conversation history configuration.
	ConversationOptions *convopts.Options `json:"conversation" mapstructure:"conversation"`

	// SQLOptions contains database configuration for the sql conversation backend.
	SQLOptions *sqlopts.Options `json:"sql" mapstructure:"sql"`

	// PoolOptions contains webhook worker pool configuration.
	PoolOptions *poolopts.Options `json:"pool" mapstructure:"pool"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:         serveropts.NewOptions(),
		LogOptions:          logopts.NewOptions(),
		TracingOptions:      tracingopts.NewOptions(),
		LLMOptions:          llmopts.NewOptions(),
		RAGOptions:          ragopts.NewOptions(),
		TelegramOptions:     telegramopts.NewOptions(),
		VectorOptions:       vectoropts.NewOptions(),
		MilvusOptions:       milvusopts.NewOptions(),
		RedisOptions:        redisopts.NewOptions(),
		ConversationOptions: convopts.NewOptions(),
		SQLOptions:          sqlopts.NewOptions(),
		PoolOptions:         poolopts.NewOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss app.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("server"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.LLMOptions.AddFlags(fss.FlagSet("llm"))
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.TelegramOptions.AddFlags(fss.FlagSet("telegram"))
	o.VectorOptions.AddFlags(fss.FlagSet("vector"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.ConversationOptions.AddFlags(fss.FlagSet("conversation"))
	o.SQLOptions.AddFlags(fss.FlagSet("sql"))
	o.PoolOptions.AddFlags(fss.FlagSet("pool"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	return o.TracingOptions.Complete()
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.LLMOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.TelegramOptions.Validate()...)
	errs = append(errs, o.VectorOptions.Validate()...)
	errs = append(errs, o.ConversationOptions.Validate()...)
	errs = append(errs, o.PoolOptions.Validate()...)

	if o.VectorOptions.Backend == vectoropts.BackendMilvus {
		errs = append(errs, o.MilvusOptions.Validate()...)
	}
	if o.ConversationOptions.Backend == convopts.BackendRedis || o.LLMOptions.EmbeddingCache.Enabled {
		errs = append(errs, o.RedisOptions.Validate()...)
	}
	if o.ConversationOptions.Backend == convopts.BackendSQL {
		errs = append(errs, o.SQLOptions.Validate()...)
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a botsvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*botsvc.Config, error) {
	return &botsvc.Config{
		HTTPOptions:         o.HTTPOptions,
		LogOptions:          o.LogOptions,
		TracingOptions:      o.TracingOptions,
		LLMOptions:          o.LLMOptions,
		RAGOptions:          o.RAGOptions,
		TelegramOptions:     o.TelegramOptions,
		VectorOptions:       o.VectorOptions,
		MilvusOptions:       o.MilvusOptions,
		RedisOptions:        o.RedisOptions,
		ConversationOptions: o.ConversationOptions,
		SQLOptions:          o.SQLOptions,
		PoolOptions:         o.PoolOptions,
	}, nil
}
