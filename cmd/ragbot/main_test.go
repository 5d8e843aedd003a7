package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/app"
	"ragqa/internal/config"
	"ragqa/internal/llm"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, messages []llm.Message) (*llm.Completion, error) {
	return &llm.Completion{Alternatives: []llm.Alternative{{Text: messages[len(messages)-1].Text}}}, nil
}

func botConfig(dir string) *config.AppConfig {
	cfg := config.Default()
	cfg.DocsDir = dir
	cfg.Telegram.Token = "123:abc"
	cfg.LLM.YandexGPT.OAuthToken = "oauth"
	cfg.LLM.YandexGPT.FolderID = "folder"
	return cfg
}

func TestPrepareBuildsIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("The cat sat on the mat."), 0o600))

	p, err := prepare(context.Background(), botConfig(dir), app.WithCompleter(echoCompleter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.Equal(t, 1, p.Service.Passages())
}

func TestPrepareRequiresTelegramToken(t *testing.T) {
	cfg := botConfig(t.TempDir())
	cfg.Telegram.Token = ""

	_, err := prepare(context.Background(), cfg, app.WithCompleter(echoCompleter{}))
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestPrepareEmptyDocs(t *testing.T) {
	_, err := prepare(context.Background(), botConfig(t.TempDir()), app.WithCompleter(echoCompleter{}))
	assert.ErrorIs(t, err, errNoDocuments)
}

func TestLoadConfigAppliesEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tg", cfg.Telegram.Token)
}
