package domain

// Document represents a single text file loaded into the system.
// Its position in the loaded slice is its ordinal; there is no other ID.
type Document struct {
	Path    string
	Content string
}

// Chunk is a passage of a document used for indexing.
// Ordinal is the passage's row in the vector-space index.
type Chunk struct {
	DocumentPath string
	Index        int
	Ordinal      int
	Text         string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is a synthesized reply together with the passages it was built from.
type Answer struct {
	Text    string
	Sources []SearchResult
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
