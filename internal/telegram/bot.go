package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// maxMessageRunes is Telegram's limit on the text of a single message.
const maxMessageRunes = 4096

const (
	greeting = "Hello! Ask me anything about the indexed documents and I will answer from them."
	apology  = "Sorry, I could not answer that right now. Please try again later."
)

// Answerer is the part of the pipeline the bot needs.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string, topK int) (string, error)
	Summary() string
}

type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Config configures the Telegram transport.
type Config struct {
	Token       string
	ServerURL   string
	PollTimeout time.Duration
	TopK        int
}

// Bot relays chat messages to the answer pipeline, one update at a time.
type Bot struct {
	answerer Answerer
	topK     int
	sender   sender
	api      *bot.Bot
}

// NewBot creates a long-polling bot. It contacts Telegram to verify the token.
func NewBot(cfg Config, answerer Answerer) (*Bot, error) {
	b := &Bot{answerer: answerer, topK: cfg.TopK}
	if b.topK < 1 {
		b.topK = 3
	}
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 30 * time.Second
	}
	opts := []bot.Option{
		bot.WithDefaultHandler(b.handleUpdate),
		bot.WithNotAsyncHandlers(),
		bot.WithErrorsHandler(func(err error) {
			slog.Error("telegram polling error", "error", err)
		}),
		bot.WithHTTPClient(poll, &http.Client{Timeout: poll + 10*time.Second}),
	}
	if cfg.ServerURL != "" {
		opts = append(opts, bot.WithServerURL(cfg.ServerURL))
	}
	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	b.api = api
	b.sender = api
	return b, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	slog.Info("telegram bot started", "top_k", b.topK)
	b.api.Start(ctx)
	slog.Info("telegram bot stopped")
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if cmd, ok := command(text); ok {
		switch cmd {
		case "start", "help":
			b.reply(ctx, chatID, b.greeting())
			return
		}
	}

	reqID := uuid.NewString()
	log := slog.With("request_id", reqID, "chat_id", chatID)
	log.Info("question received", "chars", len(text))

	started := time.Now()
	answer, err := b.answerer.AnswerQuestion(ctx, text, b.topK)
	if err != nil {
		log.Error("answer failed", "error", err)
		b.reply(ctx, chatID, apology)
		return
	}
	log.Info("answer sent", "duration", time.Since(started))
	b.reply(ctx, chatID, answer)
}

func (b *Bot) greeting() string {
	if s := b.answerer.Summary(); s != "" {
		return greeting + "\n\nThe documents are about: " + s
	}
	return greeting
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageRunes) {
		if _, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   part,
		}); err != nil {
			slog.Error("send message failed", "chat_id", chatID, "error", err)
			return
		}
	}
}

// splitMessage cuts text into parts of at most limit runes, preferring to
// break after the last newline or space inside each window.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' || runes[i-1] == ' ' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), " \n"))
		runes = runes[cut:]
	}
	return append(parts, string(runes))
}

// command extracts the name from "/name" or "/name@botname".
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd), true
}
