package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emrgen/bookshelf/internal/blob"
	"github.com/emrgen/bookshelf/internal/config"
	"github.com/emrgen/bookshelf/internal/model"
	"github.com/emrgen/bookshelf/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SearchMode selects how Search matches a keyword.
type SearchMode int

const (
	// SearchExact matches the keyword as a case-insensitive substring.
	SearchExact SearchMode = iota
	// SearchFuzzy runs the keyword as a full-text query against the shadow index.
	SearchFuzzy
)

func (m SearchMode) String() string {
	switch m {
	case SearchExact:
		return "exact"
	case SearchFuzzy:
		return "fuzzy"
	default:
		return fmt.Sprintf("SearchMode(%d)", int(m))
	}
}

// Registry ties the content store and the record store together. It owns the
// database handle when created with Open.
type Registry struct {
	blobs  *blob.Store
	store  store.Store
	inbox  string
	closer func() error
}

// NewRegistry creates a registry over existing stores. inbox is the holding area.
func NewRegistry(blobs *blob.Store, store store.Store, inbox string) *Registry {
	return &Registry{
		blobs:  blobs,
		store:  store,
		inbox:  inbox,
		closer: func() error { return nil },
	}
}

// Open creates the directory layout under the configured root, opens the database and
// migrates it. The returned registry must be closed.
func Open(cfg *config.Config) (*Registry, error) {
	for _, dir := range []string{cfg.RootDirectory, cfg.InboxPath(), cfg.FilesPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryMissing, dir, err)
		}
	}

	blobs, err := blob.NewStore(cfg.FilesPath())
	if err != nil {
		return nil, err
	}

	db, err := config.GetDb(cfg)
	if err != nil {
		return nil, err
	}

	docStore := store.NewGormStore(db, cfg.TableName)
	if err := docStore.Migrate(); err != nil {
		_ = closeDb(db)
		return nil, err
	}

	r := NewRegistry(blobs, docStore, cfg.InboxPath())
	r.closer = func() error { return closeDb(db) }

	return r, nil
}

func closeDb(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.closer()
}

// Inbox returns the holding area directory.
func (r *Registry) Inbox() string {
	return r.inbox
}

// Add ingests the file at source and records it with md. If recording fails the
// ingested blob is removed again so no orphan is left behind.
func (r *Registry) Add(ctx context.Context, source string, md model.Metadata) (*model.Document, error) {
	id, ext, err := r.blobs.Ingest(source)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:       id,
		Filename: id + ext,
		Metadata: md,
	}

	if err := r.store.InsertDocument(ctx, doc); err != nil {
		if rmErr := r.blobs.Remove(doc.ID, doc.Filename); rmErr != nil {
			logrus.Errorf("failed to remove blob %s after insert error: %v", doc.Filename, rmErr)
		} else {
			logrus.Warnf("removed blob %s after insert error", doc.Filename)
		}
		return nil, err
	}

	logrus.Infof("added %s as %s", source, doc.Filename)
	return doc, nil
}

// Get returns the record with the given identifier.
func (r *Registry) Get(ctx context.Context, id string) (*model.Document, error) {
	return r.store.GetDocument(ctx, id)
}

// Locate returns the path of the file of a record.
func (r *Registry) Locate(ctx context.Context, id string) (string, error) {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}

	path, err := r.blobs.Locate(doc.ID, doc.Filename)
	if err != nil {
		return "", err
	}
	if !r.blobs.Exists(doc.ID, doc.Filename) {
		return "", fmt.Errorf("%w: %s", ErrBlobNotFound, doc.Filename)
	}

	return path, nil
}

// Search finds records by keyword. Exact results come in storage order with a zero
// rank, fuzzy results are ordered by rank, best first. Both modes return the summary
// columns of SearchResult; use Get for the full record.
func (r *Registry) Search(ctx context.Context, keyword string, mode SearchMode) ([]*model.SearchResult, error) {
	switch mode {
	case SearchExact:
		docs, err := r.store.FilterSubstring(ctx, keyword)
		if err != nil {
			return nil, err
		}

		results := make([]*model.SearchResult, 0, len(docs))
		for _, doc := range docs {
			results = append(results, &model.SearchResult{
				ID:       doc.ID,
				Filename: doc.Filename,
				Title:    doc.Title,
				Category: doc.Category,
			})
		}
		return results, nil

	case SearchFuzzy:
		return r.store.SearchIndex(ctx, keyword)

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownSearchMode, mode)
	}
}

// Edit applies update to the metadata of a record. The identifier and filename never change.
func (r *Registry) Edit(ctx context.Context, id string, update model.MetadataUpdate) (*model.Document, error) {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.Metadata = update.Apply(doc.Metadata)
	if err := r.store.UpdateDocument(ctx, id, doc.Metadata); err != nil {
		return nil, err
	}

	logrus.Infof("edited %s", id)
	return doc, nil
}

// Remove moves the file of a record to the holding area, then deletes the record.
// The file is moved first: a failure in between leaves a record pointing at a moved
// file rather than a file with no record.
func (r *Registry) Remove(ctx context.Context, id string) (string, error) {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}

	dst, err := r.blobs.RelocateToHolding(doc.ID, doc.Filename, r.inbox)
	if err != nil {
		return "", err
	}

	if err := r.store.DeleteDocument(ctx, id); err != nil {
		return "", err
	}

	logrus.Infof("removed %s, file moved to %s", id, dst)
	return dst, nil
}

// CopyToHoldingNamed copies the file of a record to the holding area, named after
// its title. The record is left untouched.
func (r *Registry) CopyToHoldingNamed(ctx context.Context, id string) (string, error) {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}

	name := blob.SafeFilename(doc.Title, doc.ID) + filepath.Ext(doc.Filename)

	dst, err := r.blobs.CopyToHolding(doc.ID, doc.Filename, name, r.inbox)
	if err != nil {
		return "", err
	}

	logrus.Infof("copied %s to %s", doc.Filename, dst)
	return dst, nil
}

// Reindex rebuilds the shadow index from the records.
func (r *Registry) Reindex(ctx context.Context) error {
	return r.store.RebuildIndex(ctx)
}
