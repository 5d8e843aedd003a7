package yandexgpt

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("yandexgpt: oauth token and folder id are required")
	ErrRemote             = errors.New("yandexgpt: remote error")
)

// RemoteError describes a non-2xx response. It matches ErrRemote with errors.Is.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("yandexgpt %s failed: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("yandexgpt %s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }
