package chunker

import "ragqa/internal/domain"

// DocumentChunker keeps each document whole: one chunk per document whose text
// is the document content unchanged, including empty documents.
type DocumentChunker struct{}

func NewDocumentChunker() *DocumentChunker { return &DocumentChunker{} }

func (DocumentChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	return []domain.Chunk{{DocumentPath: document.Path, Text: document.Content}}, nil
}
