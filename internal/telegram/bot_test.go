package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	chatID any
	text   string
}

type fakeSender struct {
	msgs []sent
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.msgs = append(f.msgs, sent{chatID: p.ChatID, text: p.Text})
	return &models.Message{}, f.err
}

type fakeAnswerer struct {
	questions []string
	topK      int
	answer    string
	err       error
	summary   string
}

func (f *fakeAnswerer) AnswerQuestion(_ context.Context, q string, topK int) (string, error) {
	f.questions = append(f.questions, q)
	f.topK = topK
	return f.answer, f.err
}

func (f *fakeAnswerer) Summary() string { return f.summary }

func newTestBot(a Answerer) (*Bot, *fakeSender) {
	s := &fakeSender{}
	return &Bot{answerer: a, topK: 3, sender: s}, s
}

func textUpdate(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{Chat: models.Chat{ID: chatID}, Text: text}}
}

func TestHandleUpdateAnswersQuestion(t *testing.T) {
	a := &fakeAnswerer{answer: "The cat sat on the mat."}
	b, s := newTestBot(a)

	b.handleUpdate(context.Background(), nil, textUpdate(42, "What did the cat do?"))

	assert.Equal(t, []string{"What did the cat do?"}, a.questions)
	assert.Equal(t, 3, a.topK)
	require.Len(t, s.msgs, 1)
	assert.Equal(t, int64(42), s.msgs[0].chatID)
	assert.Equal(t, "The cat sat on the mat.", s.msgs[0].text)
}

func TestHandleUpdateApologisesOnFailure(t *testing.T) {
	a := &fakeAnswerer{err: errors.New("remote down")}
	b, s := newTestBot(a)

	b.handleUpdate(context.Background(), nil, textUpdate(7, "hello?"))
	b.handleUpdate(context.Background(), nil, textUpdate(7, "still there?"))

	require.Len(t, s.msgs, 2)
	assert.Equal(t, apology, s.msgs[0].text)
	assert.Len(t, a.questions, 2)
}

func TestHandleUpdateIgnoresNonText(t *testing.T) {
	a := &fakeAnswerer{answer: "x"}
	b, s := newTestBot(a)

	b.handleUpdate(context.Background(), nil, &models.Update{})
	b.handleUpdate(context.Background(), nil, textUpdate(1, ""))

	assert.Empty(t, s.msgs)
	assert.Empty(t, a.questions)
}

func TestHandleUpdateStartAndHelp(t *testing.T) {
	a := &fakeAnswerer{summary: "Cats sit on mats."}
	b, s := newTestBot(a)

	b.handleUpdate(context.Background(), nil, textUpdate(5, "/start"))
	b.handleUpdate(context.Background(), nil, textUpdate(5, "/help@ragqa_bot"))

	assert.Empty(t, a.questions)
	require.Len(t, s.msgs, 2)
	for _, m := range s.msgs {
		assert.Contains(t, m.text, greeting)
		assert.Contains(t, m.text, "Cats sit on mats.")
	}
}

func TestUnknownCommandIsAQuestion(t *testing.T) {
	a := &fakeAnswerer{answer: "ok"}
	b, _ := newTestBot(a)

	b.handleUpdate(context.Background(), nil, textUpdate(5, "/weather"))
	assert.Equal(t, []string{"/weather"}, a.questions)
}

func TestSendFailureDoesNotPanic(t *testing.T) {
	a := &fakeAnswerer{answer: "ok"}
	b, s := newTestBot(a)
	s.err = errors.New("blocked by user")

	assert.NotPanics(t, func() {
		b.handleUpdate(context.Background(), nil, textUpdate(9, "q"))
	})
}

func TestCommand(t *testing.T) {
	cmd, ok := command("/Start now")
	assert.True(t, ok)
	assert.Equal(t, "start", cmd)

	_, ok = command("plain text")
	assert.False(t, ok)

	_, ok = command("/")
	assert.False(t, ok)
}

func TestLongAnswerIsSplit(t *testing.T) {
	long := strings.Repeat("кот сидит на коврике. ", 400)
	a := &fakeAnswerer{answer: long}
	b, s := newTestBot(a)

	b.handleUpdate(context.Background(), nil, textUpdate(3, "tell me everything"))

	require.Greater(t, len(s.msgs), 1)
	var joined []string
	for _, m := range s.msgs {
		assert.LessOrEqual(t, utf8.RuneCountInString(m.text), maxMessageRunes)
		assert.Equal(t, int64(3), m.chatID)
		joined = append(joined, m.text)
	}
	assert.Equal(t, strings.Fields(long), strings.Fields(strings.Join(joined, " ")))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa", "bbbb"}, splitMessage("aaaa bbbb", 6))
	assert.Equal(t, []string{"abcdef", "ghij"}, splitMessage("abcdefghij", 6))
	assert.Equal(t, []string{""}, splitMessage("", 10))
}
