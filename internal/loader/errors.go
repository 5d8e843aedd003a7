package loader

import "errors"

var (
	ErrDirNotFound     = errors.New("documents directory not found")
	ErrInvalidEncoding = errors.New("document is not valid UTF-8")
)
