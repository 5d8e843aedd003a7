package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/config"
	"ragqa/internal/llm"
	"ragqa/internal/llm/yandexgpt"
	"ragqa/internal/service"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, messages []llm.Message) (*llm.Completion, error) {
	return &llm.Completion{Alternatives: []llm.Alternative{{Text: messages[len(messages)-1].Text}}}, nil
}

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestAssembleAndAsk(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"a.txt": "The cat sat on the mat.",
		"b.txt": "Dogs chase cats.",
		"c.txt": "The sun is hot.",
	})
	p, err := Assemble(config.Default(), WithCompleter(echoCompleter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	n, err := p.LoadAndBuild(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NotEmpty(t, p.Service.Summary())

	got, err := p.Service.AnswerQuestion(context.Background(), "What did the cat do?", 1)
	require.NoError(t, err)
	assert.Equal(t, "Context: The cat sat on the mat.\nQuestion: What did the cat do?", got)
}

func TestLoadAndBuildEmptyDir(t *testing.T) {
	p, err := Assemble(config.Default(), WithCompleter(echoCompleter{}))
	require.NoError(t, err)

	_, err = p.LoadAndBuild(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, service.ErrNoDocuments)
}

func TestAssembleSentenceChunkerWithStopwords(t *testing.T) {
	cfg := config.Default()
	cfg.Chunker.Type = "sentence"
	cfg.Chunker.SentencesPerChunk = 1
	cfg.Tokenizer.StopWords = "english"
	cfg.Summarizer.Type = "none"
	dir := writeDocs(t, map[string]string{"a.txt": "Rockets burn fuel. The weather was mild."})

	p, err := Assemble(cfg, WithCompleter(echoCompleter{}))
	require.NoError(t, err)
	_, err = p.LoadAndBuild(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Service.Passages())
	assert.Empty(t, p.Service.Summary())

	res, err := p.Service.Search(context.Background(), "what was the weather", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "The weather was mild.", res[0].Chunk.Text)
}

func TestAssembleRequiresCredentialsWithoutCompleter(t *testing.T) {
	_, err := Assemble(config.Default())
	assert.ErrorIs(t, err, yandexgpt.ErrMissingCredentials)
}

func TestAssembleUnknownComponents(t *testing.T) {
	for name, mutate := range map[string]func(*config.AppConfig){
		"chunker":    func(c *config.AppConfig) { c.Chunker.Type = "paragraph" },
		"store":      func(c *config.AppConfig) { c.VectorStore.Type = "faiss" },
		"summarizer": func(c *config.AppConfig) { c.Summarizer.Type = "lsa" },
		"stopwords":  func(c *config.AppConfig) { c.Tokenizer.StopWords = "klingon" },
		"qdrant":     func(c *config.AppConfig) { c.VectorStore.Type = "qdrant" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			_, err := Assemble(cfg, WithCompleter(echoCompleter{}))
			assert.Error(t, err)
		})
	}
}

func TestSummaryFiltersStopwordsByDefault(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"a.txt": "Rockets burn liquid fuel. Rockets carry satellites to orbit. Rockets are loud.",
		"b.txt": "It is in the end of the day that the sun is in the west and the sky is red.",
	})
	cfg := config.Default()
	cfg.Summarizer.MaxSentences = 1
	require.Empty(t, cfg.Tokenizer.StopWords)

	p, err := Assemble(cfg, WithCompleter(echoCompleter{}))
	require.NoError(t, err)
	_, err = p.LoadAndBuild(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "Rockets burn liquid fuel.", p.Service.Summary())
}
