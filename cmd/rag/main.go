package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragqa/internal/app"
	"ragqa/internal/config"
	"ragqa/internal/logger"
	"ragqa/internal/service"
	"ragqa/internal/tui"
)

// usageError marks failures caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// usageArgs reports argument validation failures as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

type flags struct {
	docs        string
	topK        int
	token       string
	folder      string
	cfgPath     string
	interactive bool
}

func newRootCmd(out io.Writer, opts ...app.Option) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "rag [question]",
		Short:         "Answer a question from a directory of text documents",
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			question := ""
			if len(args) == 1 {
				question = args[0]
			}
			return run(cmd.Context(), out, cfg, question, f.interactive, opts...)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.docs, "docs", "docs", "directory of .txt documents")
	fl.IntVar(&f.topK, "top_k", 3, "number of passages used as context")
	fl.StringVar(&f.token, "token", "", "Yandex OAuth token (default $YANDEX_TOKEN)")
	fl.StringVar(&f.folder, "folder", "", "Yandex Cloud folder id (default $YANDEX_FOLDER_ID)")
	fl.StringVar(&f.cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/ragqa/config.yaml)")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "open the interactive question prompt")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	return cmd
}

// resolveConfig layers flags over environment over the config file.
func resolveConfig(cmd *cobra.Command, f flags) (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if f.cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(f.cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(cfg)

	fl := cmd.Flags()
	if fl.Changed("docs") || cfg.DocsDir == "" {
		cfg.DocsDir = f.docs
	}
	if fl.Changed("top_k") || cfg.TopK == 0 {
		cfg.TopK = f.topK
	}
	if fl.Changed("token") {
		cfg.LLM.YandexGPT.OAuthToken = f.token
	}
	if fl.Changed("folder") {
		cfg.LLM.YandexGPT.FolderID = f.folder
	}
	logger.Configure(cfg.LogLevel)

	if cfg.TopK < 1 {
		return nil, usageError{service.ErrInvalidTopK}
	}
	if err := cfg.ValidateLLM(); err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			return nil, usageError{fmt.Errorf("%w (use --token/--folder or YANDEX_TOKEN/YANDEX_FOLDER_ID)", err)}
		}
		return nil, usageError{err}
	}
	return cfg, nil
}

func run(ctx context.Context, out io.Writer, cfg *config.AppConfig, question string, interactive bool, opts ...app.Option) error {
	if question == "" && !interactive {
		return usageError{errors.New("a question is required unless --interactive is set")}
	}

	p, err := app.Assemble(cfg, opts...)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.LoadAndBuild(ctx, cfg.DocsDir); err != nil {
		if errors.Is(err, service.ErrNoDocuments) {
			fmt.Fprintf(out, "No documents found in %s\n", cfg.DocsDir)
			return nil
		}
		return err
	}

	if interactive {
		m := tui.New(ctx, p.Service, cfg.TopK, p.Service.Summary())
		_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
		return err
	}

	answer, err := p.Service.AnswerQuestion(ctx, question, cfg.TopK)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Answer: %s\n", answer)
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, cmd.UsageString())
		} else {
			slog.Error("rag failed", "error", err)
		}
	}
	stop()
	os.Exit(exitCode(err))
}
