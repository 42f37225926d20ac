package vectorstore

import (
	"reviewsearch/internal/domain"
	"reviewsearch/internal/vectorstore/memory"
	"reviewsearch/internal/vectorstore/qdrant"
)

// Storage is a vector index that can also be written to.
type Storage interface {
	domain.VectorIndex
	domain.IndexWriter
}

var (
	_ Storage = (*qdrant.Storage)(nil)
	_ Storage = (*memory.Storage)(nil)
)
