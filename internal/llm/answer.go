package llm

import (
	"context"
	"fmt"
)

// Alternative is one candidate reply from the model.
type Alternative struct {
	Role   string
	Text   string
	Status string
}

// Completion is a model response.
type Completion struct {
	Alternatives []Alternative
	ModelVersion string
}

// Completer sends a prompt to a remote model. One call is one network request.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// GenerateAnswer asks the completer once and returns the first alternative's text.
// Failures are returned as-is (wrapped); there is no retry and no fallback text.
func GenerateAnswer(ctx context.Context, c Completer, question, contextBlock string) (string, error) {
	resp, err := c.Complete(ctx, BuildMessages(question, contextBlock))
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return "", ErrNoAlternatives
	}
	return resp.Alternatives[0].Text, nil
}
