package tfidf

import "errors"

var (
	ErrEmptyCorpus     = errors.New("empty corpus for TF-IDF prepare")
	ErrEmptyVocabulary = errors.New("empty vocabulary; documents contain no indexable terms")
	ErrNotPrepared     = errors.New("tfidf embedder not prepared")
)
