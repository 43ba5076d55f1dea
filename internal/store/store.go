package store

import (
	"context"

	"github.com/emrgen/bookshelf/internal/model"
)

type Store interface {
	DocumentStore
	SearchStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// InsertDocument inserts a new record.
	InsertDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a record by ID.
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// UpdateDocument replaces all metadata fields of a record.
	UpdateDocument(ctx context.Context, id string, md model.Metadata) error
	// DeleteDocument deletes a record by ID.
	DeleteDocument(ctx context.Context, id string) error
	// ListDocuments returns every record in storage order.
	ListDocuments(ctx context.Context) ([]*model.Document, error)
	// CountDocuments returns the number of records.
	CountDocuments(ctx context.Context) (int64, error)
}

type SearchStore interface {
	// FilterSubstring returns records whose title, authors, keywords or description contain keyword.
	FilterSubstring(ctx context.Context, keyword string) ([]*model.Document, error)
	// SearchIndex runs a full-text query against the shadow index, best match first.
	SearchIndex(ctx context.Context, query string) ([]*model.SearchResult, error)
	// RebuildIndex clears and repopulates the shadow index from the records.
	RebuildIndex(ctx context.Context) error
	// CheckIndex verifies the shadow index against the records.
	CheckIndex(ctx context.Context) error
}
