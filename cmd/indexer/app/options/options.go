// Package options contains flags and options for the indexer command.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/camaral-bot/pkg/infra/app"
	llmopts "github.com/kart-io/camaral-bot/pkg/options/llm"
	logopts "github.com/kart-io/camaral-bot/pkg/options/logger"
	milvusopts "github.com/kart-io/camaral-bot/pkg/options/milvus"
	ragopts "github.com/kart-io/camaral-bot/pkg/options/rag"
	redisopts "github.com/kart-io/camaral-bot/pkg/options/redis"
	vectoropts "github.com/kart-io/camaral-bot/pkg/options/vector"
)

var _ app.CliOptions = (*IndexerOptions)(nil)

// IndexerOptions contains the configuration options for the indexer.
type IndexerOptions struct {
	LogOptions    *logopts.Options    `json:"log" mapstructure:"log"`
	LLMOptions    *llmopts.Options    `json:"llm" mapstructure:"llm"`
	RAGOptions    *ragopts.Options    `json:"rag" mapstructure:"rag"`
	VectorOptions *vectoropts.Options `json:"vector" mapstructure:"vector"`
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`
	RedisOptions  *redisopts.Options  `json:"redis" mapstructure:"redis"`

	// Wait is the pause between upserting and reading the vector count,
	// giving eventually consistent stores time to settle.
	Wait time.Duration `json:"wait" mapstructure:"wait"`
}

// NewIndexerOptions creates an IndexerOptions instance with default values.
func NewIndexerOptions() *IndexerOptions {
	return &IndexerOptions{
		LogOptions:    logopts.NewOptions(),
		LLMOptions:    llmopts.NewOptions(),
		RAGOptions:    ragopts.NewOptions(),
		VectorOptions: vectoropts.NewOptions(),
		MilvusOptions: milvusopts.NewOptions(),
		RedisOptions:  redisopts.NewOptions(),
		Wait:          2 * time.Second,
	}
}

// Flags returns flags for the indexer by section name.
func (o *IndexerOptions) Flags() (fss app.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.LLMOptions.AddFlags(fss.FlagSet("llm"))
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.VectorOptions.AddFlags(fss.FlagSet("vector"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))

	fs := fss.FlagSet("indexer")
	fs.DurationVar(&o.Wait, "wait", o.Wait, "Pause before reading the vector count after upserting.")
	fs.BoolVar(&o.RAGOptions.BySections, "by-sections", o.RAGOptions.BySections, "Chunk by document sections (alias of --rag.by-sections).")
	return fss
}

// Complete completes all the required options.
func (o *IndexerOptions) Complete() error {
	return nil
}

// Validate checks whether the options are valid.
func (o *IndexerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.LLMOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.VectorOptions.Validate()...)
	if o.VectorOptions.Backend == vectoropts.BackendMilvus {
		errs = append(errs, o.MilvusOptions.Validate()...)
	}
	if o.LLMOptions.EmbeddingCache.Enabled {
		errs = append(errs, o.RedisOptions.Validate()...)
	}
	if o.Wait < 0 {
		errs = append(errs, fmt.Errorf("wait must not be negative"))
	}
	if o.RAGOptions.DocumentPath == "" {
		errs = append(errs, fmt.Errorf("rag.document-path is required"))
	}

	return utilerrors.NewAggregate(errs)
}
