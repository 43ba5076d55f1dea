package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/emrgen/bookshelf/internal/blob"
	"github.com/emrgen/bookshelf/internal/compress"
	"github.com/emrgen/bookshelf/internal/model"
	"github.com/emrgen/bookshelf/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImportStats counts the outcome of ImportCatalog.
type ImportStats struct {
	Imported int
	// Skipped counts records already present or whose file is not in the shard tree.
	Skipped int
	// Rejected counts records whose id or filename does not have the shape of an ingested blob.
	Rejected int
}

// validateCatalogRecord checks that a record names a blob the way Add would have:
// a UUID identifier and a filename of the identifier plus an extension.
func validateCatalogRecord(doc *model.Document) error {
	if _, err := uuid.Parse(doc.ID); err != nil {
		return fmt.Errorf("%w: id %q: %v", ErrInvalidRef, doc.ID, err)
	}
	if doc.Filename != doc.ID+filepath.Ext(doc.Filename) {
		return fmt.Errorf("%w: filename %q does not match id %q", ErrInvalidRef, doc.Filename, doc.ID)
	}

	return blob.ValidateRef(doc.ID, doc.Filename)
}

// ExportCatalog writes every record as one JSON object per line, compressed with codec.
func (r *Registry) ExportCatalog(ctx context.Context, w io.Writer, codec compress.Compress) (int, error) {
	docs, err := r.store.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return 0, err
		}
	}

	data, err := codec.Encode(buf.Bytes())
	if err != nil {
		return 0, err
	}

	if _, err := w.Write(data); err != nil {
		return 0, err
	}

	logrus.Infof("exported %d records (%s, %d bytes)", len(docs), codec.Name(), len(data))
	return len(docs), nil
}

// ImportCatalog reads a catalog written by ExportCatalog and inserts the records that
// are not present yet. Records whose file is missing from the shard tree are skipped,
// records that do not name a blob in the shard tree are rejected.
func (r *Registry) ImportCatalog(ctx context.Context, rd io.Reader, codec compress.Compress) (*ImportStats, error) {
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	data, err := codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var docs []*model.Document
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		doc := &model.Document{}
		if err := json.Unmarshal(line, doc); err != nil {
			return nil, fmt.Errorf("decode catalog line %d: %w", len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	stats := &ImportStats{}
	err = r.store.Transaction(ctx, func(tx store.Store) error {
		for _, doc := range docs {
			if err := validateCatalogRecord(doc); err != nil {
				logrus.Warnf("rejecting catalog record: %v", err)
				stats.Rejected++
				continue
			}

			_, err := tx.GetDocument(ctx, doc.ID)
			if err == nil {
				stats.Skipped++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			if !r.blobs.Exists(doc.ID, doc.Filename) {
				logrus.Warnf("skipping %s: %s is not in the file tree", doc.ID, doc.Filename)
				stats.Skipped++
				continue
			}

			if err := tx.InsertDocument(ctx, doc); err != nil {
				return err
			}
			stats.Imported++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("imported %d records, skipped %d, rejected %d", stats.Imported, stats.Skipped, stats.Rejected)
	return stats, nil
}
