package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ragqa/internal/domain"
	"ragqa/internal/llm"
	"ragqa/internal/vectorstore"
)

// RAGService owns the index for one process run and answers questions against it.
// After BuildIndex succeeds the service is read-only and safe for concurrent use.
type RAGService struct {
	chunker             domain.Chunker
	embedder            domain.Embedder
	store               vectorstore.Storage
	completer           llm.Completer
	summarizer          domain.Summarizer
	summaryMaxSentences int

	mu      sync.RWMutex
	chunks  []domain.Chunk
	summary string
	built   bool
}

func NewRAGService(chunker domain.Chunker, embedder domain.Embedder, store vectorstore.Storage, completer llm.Completer) *RAGService {
	return &RAGService{chunker: chunker, embedder: embedder, store: store, completer: completer}
}

// WithSummarizer enables a corpus summary computed during BuildIndex.
func (s *RAGService) WithSummarizer(summarizer domain.Summarizer, maxSentences int) *RAGService {
	s.summarizer = summarizer
	s.summaryMaxSentences = maxSentences
	return s
}

// BuildIndex chunks docs, fits the embedder and fills the vector store.
// Chunk ordinals follow document order, then chunk order within a document.
func (s *RAGService) BuildIndex(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return ErrNoDocuments
	}
	var allChunks []domain.Chunk
	var allTexts []string
	var allTextConcat strings.Builder
	for _, d := range docs {
		chunks, err := s.chunker.Chunk(d)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		for _, ch := range chunks {
			ch.Ordinal = len(allChunks)
			allChunks = append(allChunks, ch)
			allTexts = append(allTexts, ch.Text)
		}
		allTextConcat.WriteString("\n")
		allTextConcat.WriteString(d.Content)
	}
	if len(allChunks) == 0 {
		return ErrNoDocuments
	}
	if err := s.embedder.Prepare(allTexts); err != nil {
		return fmt.Errorf("prepare %s embedder: %w", s.embedder.Name(), err)
	}
	if err := s.store.Init(ctx, s.embedder.Dimension()); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	vectors := make([][]float64, len(allChunks))
	for i := range allChunks {
		vec, err := s.embedder.Embed(allChunks[i].Text)
		if err != nil {
			return err
		}
		vectors[i] = vec
	}
	if err := s.store.Upsert(ctx, allChunks, vectors); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	var summary string
	if s.summarizer != nil {
		var err error
		summary, err = s.summarizer.Summarize(allTextConcat.String(), s.summaryMaxSentences)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
	}

	s.mu.Lock()
	s.chunks = allChunks
	s.summary = summary
	s.built = true
	s.mu.Unlock()

	slog.Info("index built",
		"documents", len(docs),
		"passages", len(allChunks),
		"vocabulary", s.embedder.Dimension(),
		"embedder", s.embedder.Name())
	return nil
}

// Search returns up to topK passages ranked by similarity to query.
func (s *RAGService) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, ErrInvalidTopK
	}
	s.mu.RLock()
	built, chunks := s.built, s.chunks
	s.mu.RUnlock()
	if !built {
		return nil, ErrIndexNotBuilt
	}
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	if isZero(vec) {
		// nothing in the vocabulary: every score is zero, so rank by ordinal
		return ordinalResults(chunks, topK), nil
	}
	return s.store.Search(ctx, vec, topK)
}

// Ask retrieves context for question and synthesizes an answer from it.
func (s *RAGService) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	results, err := s.Search(ctx, question, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Chunk.Text
	}
	text, err := llm.GenerateAnswer(ctx, s.completer, question, llm.JoinContext(passages))
	if err != nil {
		return nil, err
	}
	return &domain.Answer{Text: text, Sources: results}, nil
}

// AnswerQuestion is Ask without the sources.
func (s *RAGService) AnswerQuestion(ctx context.Context, question string, topK int) (string, error) {
	ans, err := s.Ask(ctx, question, topK)
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}

// Summary returns the corpus summary computed at build time, if any.
func (s *RAGService) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Passages reports how many passages are indexed.
func (s *RAGService) Passages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func ordinalResults(chunks []domain.Chunk, topK int) []domain.SearchResult {
	if topK > len(chunks) {
		topK = len(chunks)
	}
	out := make([]domain.SearchResult, topK)
	for i := 0; i < topK; i++ {
		out[i] = domain.SearchResult{Chunk: chunks[i]}
	}
	return out
}
