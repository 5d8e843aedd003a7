package qdrant

import (
	"context"
	"fmt"
	"sort"

	qc "github.com/qdrant/go-client/qdrant"

	"ragqa/internal/domain"
	"ragqa/internal/vectorstore"
)

const upsertBatchSize = 256

// Storage keeps chunk vectors in a Qdrant collection over gRPC.
// Init drops any existing collection with the same name, so every process
// start indexes from scratch.
type Storage struct {
	client     *qc.Client
	collection string
	dimension  int
}

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "ragqa"
	}
	client, err := qc.NewClient(&qc.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &Storage{client: client, collection: cfg.Collection}, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	if err := s.Clear(ctx); err != nil {
		return err
	}
	err := s.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     uint64(dimension),
			Distance: qc.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return vectorstore.ErrLengthMismatch
	}
	points := make([]*qc.PointStruct, len(chunks))
	for i := range chunks {
		if len(vectors[i]) != s.dimension {
			return vectorstore.ErrDimensionMismatch
		}
		points[i] = toPoint(chunks[i], vectors[i])
	}
	for start := 0; start < len(points); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		_, err := s.client.Upsert(ctx, &qc.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qc.PtrOf(true),
			Points:         points[start:end],
		})
		if err != nil {
			return fmt.Errorf("upsert into %s: %w", s.collection, err)
		}
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	points, err := s.client.Query(ctx, &qc.QueryPoints{
		CollectionName: s.collection,
		Query:          qc.NewQuery(toFloat32(vector)...),
		Limit:          qc.PtrOf(uint64(topK)),
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collection, err)
	}
	results := make([]domain.SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, domain.SearchResult{
			Chunk: chunkFromPayload(p.GetPayload()),
			Score: float64(p.GetScore()),
		})
	}
	sortResults(results)
	return results, nil
}

// Clear drops the collection if it exists.
func (s *Storage) Clear(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func toPoint(chunk domain.Chunk, vector []float64) *qc.PointStruct {
	return &qc.PointStruct{
		Id:      qc.NewIDNum(uint64(chunk.Ordinal)),
		Vectors: qc.NewVectors(toFloat32(vector)...),
		Payload: qc.NewValueMap(map[string]any{
			"document_path": chunk.DocumentPath,
			"chunk_index":   int64(chunk.Index),
			"ordinal":       int64(chunk.Ordinal),
			"text":          chunk.Text,
		}),
	}
}

func chunkFromPayload(payload map[string]*qc.Value) domain.Chunk {
	var c domain.Chunk
	if v, ok := payload["document_path"]; ok {
		c.DocumentPath = v.GetStringValue()
	}
	if v, ok := payload["chunk_index"]; ok {
		c.Index = int(v.GetIntegerValue())
	}
	if v, ok := payload["ordinal"]; ok {
		c.Ordinal = int(v.GetIntegerValue())
	}
	if v, ok := payload["text"]; ok {
		c.Text = v.GetStringValue()
	}
	return c
}

// sortResults orders by descending score, then ascending ordinal, since the
// server does not define an order among equal scores.
func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
