package yandexgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"ragqa/internal/llm"
)

const (
	DefaultCompletionURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"
	DefaultIAMURL        = "https://iam.api.cloud.yandex.net/iam/v1/tokens"
	DefaultModel         = "yandexgpt-lite/latest"

	// refresh the IAM token this long before the server-reported expiry
	iamRefreshMargin = 5 * time.Minute
	iamDefaultTTL    = time.Hour
)

// Client is a YandexGPT Foundation Models completion client implementing llm.Completer.
// It exchanges the OAuth token for an IAM token and caches it until shortly before expiry.
type Client struct {
	oauthToken    string
	folderID      string
	modelURI      string
	temperature   float64
	maxTokens     int
	completionURL string
	iamURL        string
	client        *http.Client
	now           func() time.Time

	mu        sync.Mutex
	iamToken  string
	iamExpiry time.Time
}

// Config configures the YandexGPT client.
type Config struct {
	OAuthToken    string
	FolderID      string
	Model         string
	Temperature   float64
	MaxTokens     int
	CompletionURL string
	IAMURL        string
	Timeout       time.Duration
}

// NewClient creates a new completion client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.OAuthToken == "" || cfg.FolderID == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.CompletionURL == "" {
		cfg.CompletionURL = DefaultCompletionURL
	}
	if cfg.IAMURL == "" {
		cfg.IAMURL = DefaultIAMURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		oauthToken:    cfg.OAuthToken,
		folderID:      cfg.FolderID,
		modelURI:      modelURI(cfg.FolderID, cfg.Model),
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		completionURL: cfg.CompletionURL,
		iamURL:        cfg.IAMURL,
		client:        &http.Client{Timeout: t},
		now:           time.Now,
	}, nil
}

func modelURI(folderID, model string) string {
	if strings.HasPrefix(model, "gpt://") {
		return model
	}
	return fmt.Sprintf("gpt://%s/%s", folderID, model)
}

type wireMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens,string"`
}

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []wireMessage     `json:"messages"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message wireMessage `json:"message"`
			Status  string      `json:"status"`
		} `json:"alternatives"`
		ModelVersion string `json:"modelVersion"`
	} `json:"result"`
}

type iamResponse struct {
	IAMToken  string    `json:"iamToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Complete sends one synchronous completion request.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error) {
	token, err := c.iam(ctx)
	if err != nil {
		return nil, err
	}
	body := completionRequest{
		ModelURI: c.modelURI,
		CompletionOptions: completionOptions{
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		},
		Messages: make([]wireMessage, len(messages)),
	}
	for i, m := range messages {
		body.Messages[i] = wireMessage{Role: m.Role, Text: m.Text}
	}
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"x-folder-id":   c.folderID,
	}
	var out completionResponse
	if err := c.postJSON(ctx, "completion", c.completionURL, body, headers, &out); err != nil {
		return nil, err
	}
	comp := &llm.Completion{ModelVersion: out.Result.ModelVersion}
	for _, a := range out.Result.Alternatives {
		comp.Alternatives = append(comp.Alternatives, llm.Alternative{
			Role:   a.Message.Role,
			Text:   a.Message.Text,
			Status: a.Status,
		})
	}
	return comp, nil
}

func (c *Client) iam(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.iamToken != "" && c.now().Before(c.iamExpiry) {
		return c.iamToken, nil
	}
	var out iamResponse
	req := map[string]string{"yandexPassportOauthToken": c.oauthToken}
	if err := c.postJSON(ctx, "iam token exchange", c.iamURL, req, nil, &out); err != nil {
		return "", err
	}
	if out.IAMToken == "" {
		return "", fmt.Errorf("yandexgpt: iam token exchange returned no token")
	}
	expiry := out.ExpiresAt.Add(-iamRefreshMargin)
	if out.ExpiresAt.IsZero() {
		expiry = c.now().Add(iamDefaultTTL)
	}
	c.iamToken = out.IAMToken
	c.iamExpiry = expiry
	return c.iamToken, nil
}

func (c *Client) postJSON(ctx context.Context, op, url string, body any, headers map[string]string, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("yandexgpt %s: %w", op, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yandexgpt %s: read body: %w", op, err)
	}
	if resp.StatusCode >= 300 {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("yandexgpt %s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage pulls a human-readable message out of either error shape the API uses.
func errorMessage(payload []byte) string {
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil {
		if wrapped.Error.Message != "" {
			return wrapped.Error.Message
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
