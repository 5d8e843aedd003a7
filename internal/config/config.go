package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TokenizerConfig controls term extraction for the TF-IDF index.
type TokenizerConfig struct {
	// StopWords is "" (none) or "english".
	StopWords string `yaml:"stop_words"`
}

// ChunkerConfig configures how documents are split into passages.
// Type "none" indexes each document whole.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// YandexGPTConfig holds the completion backend settings.
type YandexGPTConfig struct {
	OAuthToken    string  `yaml:"oauth_token" validate:"required"`
	FolderID      string  `yaml:"folder_id" validate:"required"`
	Model         string  `yaml:"model"`
	Temperature   float64 `yaml:"temperature" validate:"gte=0,lte=1"`
	MaxTokens     int     `yaml:"max_tokens" validate:"gte=0"`
	TimeoutSecs   int     `yaml:"timeout_secs" validate:"gte=0"`
	CompletionURL string  `yaml:"completion_url,omitempty" validate:"omitempty,url"`
	IAMURL        string  `yaml:"iam_url,omitempty" validate:"omitempty,url"`
}

type LLMConfig struct {
	YandexGPT YandexGPTConfig `yaml:"yandexgpt"`
}

// TelegramConfig configures the bot front end.
type TelegramConfig struct {
	Token           string `yaml:"token" validate:"required"`
	ServerURL       string `yaml:"server_url,omitempty" validate:"omitempty,url"`
	PollTimeoutSecs int    `yaml:"poll_timeout_secs" validate:"gte=0"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DocsDir     string            `yaml:"docs_dir"`
	TopK        int               `yaml:"top_k"`
	LogLevel    string            `yaml:"log_level"`
	Tokenizer   TokenizerConfig   `yaml:"tokenizer"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	LLM         LLMConfig         `yaml:"llm"`
	Telegram    TelegramConfig    `yaml:"telegram"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// ${VAR} references in the file are expanded from the environment before parsing.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragqa/config.yaml and returns them.
// When the home directory is unusable the defaults are returned with an empty path.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		slog.Debug("no user config directory, using defaults", "error", err)
		return Default(), "", nil
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		slog.Debug("could not write default config", "path", userPath, "error", err)
		return cfg, "", nil
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv overrides credentials with TELEGRAM_BOT_TOKEN, YANDEX_TOKEN and
// YANDEX_FOLDER_ID when they are set.
func ApplyEnv(cfg *AppConfig) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("YANDEX_TOKEN"); v != "" {
		cfg.LLM.YandexGPT.OAuthToken = v
	}
	if v := os.Getenv("YANDEX_FOLDER_ID"); v != "" {
		cfg.LLM.YandexGPT.FolderID = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateLLM checks the settings needed to call the completion backend.
func (c *AppConfig) ValidateLLM() error {
	return check(&c.LLM.YandexGPT)
}

// ValidateBot checks everything the Telegram bot needs to start.
func (c *AppConfig) ValidateBot() error {
	if err := check(&c.Telegram); err != nil {
		return err
	}
	return c.ValidateLLM()
}

func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Namespace())
		} else {
			invalid = append(invalid, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(invalid, ", "))
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragqa", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		DocsDir:     "docs",
		TopK:        3,
		LogLevel:    "info",
		Chunker:     ChunkerConfig{Type: "none", SentencesPerChunk: 5, OverlapSentences: 1},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 3},
		LLM: LLMConfig{YandexGPT: YandexGPTConfig{
			Model:       "yandexgpt-lite/latest",
			Temperature: 0.3,
			MaxTokens:   2000,
			TimeoutSecs: 60,
		}},
		Telegram: TelegramConfig{PollTimeoutSecs: 30},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DocsDir == "" {
		cfg.DocsDir = "docs"
	}
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "none"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.Host == "" {
			cfg.VectorStore.Qdrant.Host = "localhost"
		}
		if cfg.VectorStore.Qdrant.Port == 0 {
			cfg.VectorStore.Qdrant.Port = 6334
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "ragqa"
		}
	}
	if cfg.LLM.YandexGPT.Model == "" {
		cfg.LLM.YandexGPT.Model = "yandexgpt-lite/latest"
	}
	if cfg.LLM.YandexGPT.MaxTokens == 0 {
		cfg.LLM.YandexGPT.MaxTokens = 2000
	}
	if cfg.LLM.YandexGPT.TimeoutSecs == 0 {
		cfg.LLM.YandexGPT.TimeoutSecs = 60
	}
}
