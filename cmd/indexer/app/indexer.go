// Package app provides the indexer command.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/camaral-bot/cmd/indexer/app/options"
	botsvc "github.com/kart-io/camaral-bot/internal/bot"
	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/component/redis"
	"github.com/kart-io/camaral-bot/pkg/infra/app"
)

const (
	// Name is the name of the command.
	Name = "camaral-indexer"

	commandDesc = `Camaral knowledge base indexer

Chunks the knowledge document, embeds every chunk and replaces the content
of the vector store. The bot's /api/index endpoint runs the same pipeline.`

	previewChunks = 3
)

// NewApp creates the indexer application.
func NewApp() *app.App {
	opts := options.NewIndexerOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithConfigName(botsvc.Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(signalContext(), opts, os.Stdout)
		}),
	)
}

// Run indexes the configured document and reports progress to out.
func Run(ctx context.Context, opts *options.IndexerOptions, out io.Writer) error {
	if err := opts.LogOptions.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var rdb goredis.UniversalClient
	if opts.LLMOptions.EmbeddingCache.Enabled {
		client, err := redis.New(ctx, opts.RedisOptions)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer client.Close()
		rdb = client.Client()
	}

	providers, err := botsvc.NewProviders(opts.LLMOptions, rdb)
	if err != nil {
		return err
	}
	vectorStore, err := botsvc.NewVectorStore(ctx, opts.VectorOptions, opts.MilvusOptions, opts.LLMOptions.Dimensions)
	if err != nil {
		return err
	}
	defer vectorStore.Close()

	indexer := botsvc.NewIndexer(opts.RAGOptions, opts.LLMOptions, providers.Embedding, vectorStore)
	return index(ctx, indexer, opts, out)
}

// chunkIndexer is the part of biz.Indexer used by the command.
type chunkIndexer interface {
	Chunk(text string) []store.Chunk
	IndexChunks(ctx context.Context, chunks []store.Chunk) error
	Stats(ctx context.Context) (store.Stats, error)
}

var _ chunkIndexer = (*biz.Indexer)(nil)

func index(ctx context.Context, indexer chunkIndexer, opts *options.IndexerOptions, out io.Writer) error {
	path := opts.RAGOptions.DocumentPath
	fmt.Fprintf(out, "Reading document from: %s\n", path)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	document := string(content)
	fmt.Fprintf(out, "   Document length: %d characters\n\n", utf8.RuneCountInString(document))

	mode := "paragraphs"
	if opts.RAGOptions.BySections {
		mode = "sections"
	}
	fmt.Fprintf(out, "Chunking document by %s...\n", mode)
	chunks := indexer.Chunk(document)
	fmt.Fprintf(out, "   Created %d chunks\n\n", len(chunks))

	fmt.Fprintln(out, "Chunk preview:")
	for i := 0; i < len(chunks) && i < previewChunks; i++ {
		fmt.Fprintf(out, "   [%d] %s... (%d chars)\n", i, headRunes(chunks[i].Metadata.Section, 40), utf8.RuneCountInString(chunks[i].Text))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Embedding chunks and replacing the vector store...")
	if err := indexer.IndexChunks(ctx, chunks); err != nil {
		return err
	}
	fmt.Fprintf(out, "   Generated %d embeddings (dim: %d)\n\n", len(chunks), opts.LLMOptions.Dimensions)

	fmt.Fprintln(out, "Verifying...")
	select {
	case <-time.After(opts.Wait):
	case <-ctx.Done():
		return ctx.Err()
	}
	stats, err := indexer.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read vector stats: %w", err)
	}
	fmt.Fprintf(out, "   Vector count: %d\n\n", stats.VectorCount)

	fmt.Fprintln(out, "Indexing complete!")
	fmt.Fprintf(out, "   Total chunks indexed: %d\n", len(chunks))
	fmt.Fprintf(out, "   Vectors in database: %d\n", stats.VectorCount)
	logger.Infow("Indexing complete", "chunks", len(chunks), "vectorCount", stats.VectorCount)
	return nil
}

func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()
	return ctx
}
