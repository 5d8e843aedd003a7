// Package app assembles the question-answering pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"ragqa/internal/chunker"
	"ragqa/internal/config"
	"ragqa/internal/domain"
	"ragqa/internal/embedding/tfidf"
	"ragqa/internal/llm"
	"ragqa/internal/llm/yandexgpt"
	"ragqa/internal/loader"
	"ragqa/internal/service"
	"ragqa/internal/summarizer"
	"ragqa/internal/vectorstore"
	"ragqa/internal/vectorstore/memory"
	"ragqa/internal/vectorstore/qdrant"
)

// Pipeline is an assembled service plus the resources it owns.
type Pipeline struct {
	Service *service.RAGService
	store   vectorstore.Storage
}

// Close releases the vector store connection.
func (p *Pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Option customises Assemble.
type Option func(*options)

type options struct {
	completer llm.Completer
}

// WithCompleter replaces the YandexGPT client built from the config.
func WithCompleter(c llm.Completer) Option {
	return func(o *options) { o.completer = c }
}

// Assemble builds every component named by cfg. The index is not built yet.
func Assemble(cfg *config.AppConfig, opts ...Option) (*Pipeline, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var stopwords []string
	switch cfg.Tokenizer.StopWords {
	case "":
	case "english":
		stopwords = tfidf.EnglishStopwords()
	default:
		return nil, fmt.Errorf("unknown stop word list: %s", cfg.Tokenizer.StopWords)
	}
	emb := tfidf.NewEmbedder(tfidf.WithStopwords(stopwords))

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "none", "":
		ch = chunker.NewDocumentChunker()
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}

	completer := o.completer
	if completer == nil {
		y := cfg.LLM.YandexGPT
		client, err := yandexgpt.NewClient(yandexgpt.Config{
			OAuthToken:    y.OAuthToken,
			FolderID:      y.FolderID,
			Model:         y.Model,
			Temperature:   y.Temperature,
			MaxTokens:     y.MaxTokens,
			CompletionURL: y.CompletionURL,
			IAMURL:        y.IAMURL,
			Timeout:       time.Duration(y.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("yandexgpt client: %w", err)
		}
		completer = client
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer(tfidf.EnglishStopwords())
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		q := cfg.VectorStore.Qdrant
		store, err := qdrant.NewStorage(qdrant.Config{
			Host:       q.Host,
			Port:       q.Port,
			APIKey:     q.APIKey,
			UseTLS:     q.UseTLS,
			Collection: q.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		st = store
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	svc := service.NewRAGService(ch, emb, st, completer)
	if sum != nil {
		svc.WithSummarizer(sum, cfg.Summarizer.MaxSentences)
	}
	return &Pipeline{Service: svc, store: st}, nil
}

// LoadAndBuild reads dir and builds the index. It returns service.ErrNoDocuments
// when the directory holds no documents.
func (p *Pipeline) LoadAndBuild(ctx context.Context, dir string) (int, error) {
	docs, err := loader.LoadDocs(dir)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, service.ErrNoDocuments
	}
	if err := p.Service.BuildIndex(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}
