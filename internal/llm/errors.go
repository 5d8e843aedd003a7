package llm

import "errors"

// ErrNoAlternatives is returned when the completion response holds no text alternatives.
var ErrNoAlternatives = errors.New("completion returned no alternatives")
