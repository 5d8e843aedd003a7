package service

import "errors"

var (
	ErrNoDocuments   = errors.New("no documents to index")
	ErrIndexNotBuilt = errors.New("index has not been built")
	ErrInvalidTopK   = errors.New("top_k must be at least 1")
)
