package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/emrgen/bookshelf/internal/index"
	"github.com/emrgen/bookshelf/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB, table string) *GormStore {
	return &GormStore{
		db:    db,
		table: table,
		index: index.New(db, table),
	}
}

var _ Store = (*GormStore)(nil)

// GormStore keeps records in a single table. The shadow index is maintained by
// triggers installed by Migrate, so mutations here never touch it directly.
type GormStore struct {
	db    *gorm.DB
	table string
	index *index.Index
}

func (g *GormStore) records(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx).Table(g.table)
}

func (g *GormStore) InsertDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table(g.table).Where("id = ?", doc.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateID, doc.ID)
		}

		return tx.Table(g.table).Create(doc).Error
	})
}

func (g *GormStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := g.records(ctx).Where("id = ?", id).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// UpdateDocument writes every metadata field, including empty ones.
func (g *GormStore) UpdateDocument(ctx context.Context, id string, md model.Metadata) error {
	res := g.records(ctx).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       md.Title,
		"authors":     md.Authors,
		"category":    md.Category,
		"keywords":    md.Keywords,
		"description": md.Description,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

func (g *GormStore) DeleteDocument(ctx context.Context, id string) error {
	res := g.records(ctx).Where("id = ?", id).Delete(&model.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

func (g *GormStore) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.records(ctx).Find(&docs).Error
	return docs, err
}

func (g *GormStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := g.records(ctx).Count(&count).Error
	return count, err
}

// FilterSubstring matches keyword case-insensitively and literally; LIKE wildcards in it are escaped.
func (g *GormStore) FilterSubstring(ctx context.Context, keyword string) ([]*model.Document, error) {
	pattern := "%" + escapeLike(keyword) + "%"

	var docs []*model.Document
	err := g.records(ctx).
		Where(`title LIKE ? ESCAPE '\' OR authors LIKE ? ESCAPE '\' OR keywords LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	logrus.Debugf("substring filter %q matched %d records", keyword, len(docs))
	return docs, nil
}

func (g *GormStore) SearchIndex(ctx context.Context, query string) ([]*model.SearchResult, error) {
	return g.index.Search(ctx, query)
}

func (g *GormStore) RebuildIndex(ctx context.Context) error {
	return g.index.Rebuild(ctx)
}

func (g *GormStore) CheckIndex(ctx context.Context) error {
	return g.index.Check(ctx)
}

// Migrate creates the record table and its shadow index.
func (g *GormStore) Migrate() error {
	if err := model.Migrate(g.db, g.table); err != nil {
		return err
	}

	return g.index.Migrate(context.Background())
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx, table: g.table, index: index.New(tx, g.table)})
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
