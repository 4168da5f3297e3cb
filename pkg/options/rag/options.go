// Package rag provides retrieval and indexing options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/camaral-bot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains retrieval-augmented generation configuration.
type Options struct {
	// DocumentPath is the knowledge document indexed by the indexer and the index endpoint.
	DocumentPath string `json:"document-path" mapstructure:"document-path"`
	// DocID prefixes every chunk id.
	DocID string `json:"doc-id" mapstructure:"doc-id"`
	// ChunkSize is the soft upper bound of a chunk, in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`
	// ChunkOverlap is the number of trailing characters carried into the next chunk.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`
	// BySections selects the section chunker.
	BySections bool `json:"by-sections" mapstructure:"by-sections"`
	// TopK is the number of chunks retrieved per question.
	TopK int `json:"top-k" mapstructure:"top-k"`
	// MinScore is the relevance threshold of the default policy.
	MinScore float64 `json:"min-score" mapstructure:"min-score"`
	// PolicyFile optionally overrides the relevance policy; it is watched for changes.
	PolicyFile string `json:"policy-file" mapstructure:"policy-file"`
	// IndexToken is accepted by the index endpoint in addition to the OpenAI key prefix.
	IndexToken string `json:"-" mapstructure:"index-token"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		DocumentPath: "investigacion.md",
		DocID:        "camaral",
		ChunkSize:    1500,
		ChunkOverlap: 200,
		TopK:         4,
		MinScore:     0.3,
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "rag."
	fs.StringVar(&o.DocumentPath, p+"document-path", o.DocumentPath, "Path of the knowledge document.")
	fs.StringVar(&o.DocID, p+"doc-id", o.DocID, "Document id used as chunk id prefix.")
	fs.IntVar(&o.ChunkSize, p+"chunk-size", o.ChunkSize, "Chunk size in characters.")
	fs.IntVar(&o.ChunkOverlap, p+"chunk-overlap", o.ChunkOverlap, "Overlap between consecutive chunks in characters.")
	fs.BoolVar(&o.BySections, p+"by-sections", o.BySections, "Chunk by document sections instead of paragraphs.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of chunks retrieved per question.")
	fs.Float64Var(&o.MinScore, p+"min-score", o.MinScore, "Mean similarity below which a question without keywords is off-topic.")
	fs.StringVar(&o.PolicyFile, p+"policy-file", o.PolicyFile, "YAML file overriding the relevance policy (hot reloaded).")
	fs.StringVar(&o.IndexToken, p+"index-token", o.IndexToken, "Extra credential accepted by POST /api/index.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.DocID == "" {
		errs = append(errs, fmt.Errorf("rag.doc-id is required"))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("rag.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("rag.chunk-overlap must be in [0, chunk-size)"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("rag.top-k must be positive"))
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		errs = append(errs, fmt.Errorf("rag.min-score must be between 0 and 1"))
	}
	return errs
}
