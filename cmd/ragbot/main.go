package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragqa/internal/app"
	"ragqa/internal/config"
	"ragqa/internal/logger"
	"ragqa/internal/service"
	"ragqa/internal/telegram"
)

var errNoDocuments = errors.New("no documents to serve")

func main() {
	var cfgPath, docs string
	var topK int
	cmd := &cobra.Command{
		Use:           "ragbot",
		Short:         "Telegram bot answering questions from a directory of text documents",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("docs") {
				cfg.DocsDir = docs
			}
			if cmd.Flags().Changed("top_k") {
				cfg.TopK = topK
			}
			logger.Configure(cfg.LogLevel)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/ragqa/config.yaml)")
	cmd.Flags().StringVar(&docs, "docs", "docs", "directory of .txt documents")
	cmd.Flags().IntVar(&topK, "top_k", 3, "number of passages used as context")

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("ragbot failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if path == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(cfg)
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	p, err := prepare(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	bot, err := telegram.NewBot(telegram.Config{
		Token:       cfg.Telegram.Token,
		ServerURL:   cfg.Telegram.ServerURL,
		PollTimeout: time.Duration(cfg.Telegram.PollTimeoutSecs) * time.Second,
		TopK:        cfg.TopK,
	}, p.Service)
	if err != nil {
		return err
	}
	bot.Start(ctx)
	slog.Info("bot has been shut down")
	return nil
}

// prepare validates credentials and builds the index the bot will serve.
func prepare(ctx context.Context, cfg *config.AppConfig, opts ...app.Option) (*app.Pipeline, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, fmt.Errorf("set TELEGRAM_BOT_TOKEN, YANDEX_TOKEN and YANDEX_FOLDER_ID: %w", err)
	}
	if cfg.TopK < 1 {
		return nil, service.ErrInvalidTopK
	}
	p, err := app.Assemble(cfg, opts...)
	if err != nil {
		return nil, err
	}
	n, err := p.LoadAndBuild(ctx, cfg.DocsDir)
	if err != nil {
		p.Close()
		if errors.Is(err, service.ErrNoDocuments) {
			return nil, fmt.Errorf("%w in %s", errNoDocuments, cfg.DocsDir)
		}
		return nil, err
	}
	slog.Info("documents indexed", "dir", cfg.DocsDir, "documents", n, "passages", p.Service.Passages())
	return p, nil
}
