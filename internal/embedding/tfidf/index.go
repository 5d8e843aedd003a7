package tfidf

import (
	"errors"
	"sort"
)

// Index is a fitted vocabulary plus one weight row per document.
// It is read-only once built and safe for concurrent searches.
type Index struct {
	embedder *Embedder
	rows     [][]float64
}

// BuildIndex fits a fresh embedder on docs and embeds every document.
func BuildIndex(docs []string, opts ...Option) (*Index, error) {
	e := NewEmbedder(opts...)
	if err := e.Prepare(docs); err != nil {
		return nil, err
	}
	rows := make([][]float64, len(docs))
	for i, d := range docs {
		v, err := e.Embed(d)
		if err != nil {
			return nil, err
		}
		rows[i] = v
	}
	return &Index{embedder: e, rows: rows}, nil
}

// Vocabulary returns the index terms in column order.
func (x *Index) Vocabulary() []string { return x.embedder.Vocabulary() }

// Rows returns the number of indexed documents.
func (x *Index) Rows() int { return len(x.rows) }

// Row returns a copy of the weight vector for document i.
func (x *Index) Row(i int) []float64 {
	out := make([]float64, len(x.rows[i]))
	copy(out, x.rows[i])
	return out
}

// Embedder exposes the fitted vectorizer, e.g. to embed queries.
func (x *Index) Embedder() *Embedder { return x.embedder }

// Scores returns the cosine similarity of query against every row, by ordinal.
func (x *Index) Scores(query string) ([]float64, error) {
	q, err := x.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(x.rows))
	for i, row := range x.rows {
		scores[i] = Dot(row, q)
	}
	return scores, nil
}

// Search returns up to topK of docs ranked by descending similarity to query.
// docs must be index-aligned with the documents the index was built from.
// Equal scores keep ascending document order.
func (x *Index) Search(query string, docs []string, topK int) ([]string, error) {
	if topK < 1 {
		return nil, errors.New("topK must be at least 1")
	}
	if len(docs) != len(x.rows) {
		return nil, errors.New("documents do not match index rows")
	}
	scores, err := x.Scores(query)
	if err != nil {
		return nil, err
	}
	idxs := ArgsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	out := make([]string, topK)
	for i := 0; i < topK; i++ {
		out[i] = docs[idxs[i]]
	}
	return out, nil
}

// Dot is the inner product over the shorter of a and b. For unit vectors it
// equals the cosine similarity.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// ArgsortDesc returns positions of vals ordered by descending value,
// with ties in ascending position.
func ArgsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return vals[idxs[i]] > vals[idxs[j]] })
	return idxs
}
