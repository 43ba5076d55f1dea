// Package index maintains the full-text shadow index of the record table.
//
// The index is an SQLite FTS5 table that uses the record table as external content
// and is addressed by the record rowid. Three triggers installed by Migrate are part
// of the storage contract: every insert, delete and update on the record table is
// mirrored into the index in the same statement, an update being a full delete of
// the old entry followed by an insert of the new one. Callers never write to the
// index; the only explicit population is the backfill performed when the index is
// first created, and Rebuild.
package index

import (
	"context"
	"fmt"

	"github.com/emrgen/bookshelf/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Index is the shadow index over title, authors, keywords and description.
type Index struct {
	db    *gorm.DB
	table string
	fts   string
}

// New returns the index of the record table.
func New(db *gorm.DB, table string) *Index {
	return &Index{
		db:    db,
		table: table,
		fts:   table + "_fts",
	}
}

// Name returns the name of the FTS5 table.
func (i *Index) Name() string {
	return i.fts
}

// Migrate creates the index and its triggers. The backfill from existing records only
// runs when the index table did not exist yet, so running Migrate again never adds
// duplicate entries.
func (i *Index) Migrate(ctx context.Context) error {
	if !model.ValidTableName(i.table) {
		return fmt.Errorf("invalid table name %q", i.table)
	}

	db := i.db.WithContext(ctx)
	created := !db.Migrator().HasTable(i.fts)

	err := db.Exec(fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS %[1]s USING fts5(
			id,
			title,
			authors,
			keywords,
			description,
			content='%[2]s',
			content_rowid='rowid',
			tokenize='porter unicode61'
		)`, i.fts, i.table)).Error
	if err != nil {
		return fmt.Errorf("create %s: %w", i.fts, err)
	}

	for _, trigger := range i.triggers() {
		if err := db.Exec(trigger).Error; err != nil {
			return fmt.Errorf("create trigger on %s: %w", i.table, err)
		}
	}

	if created {
		logrus.Infof("backfilling %s from %s", i.fts, i.table)
		return i.Backfill(ctx)
	}

	return nil
}

func (i *Index) triggers() []string {
	columns := "rowid, id, title, authors, keywords, description"
	return []string{
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %[1]s_ai AFTER INSERT ON %[1]s BEGIN
			INSERT INTO %[2]s(%[3]s)
			VALUES (new.rowid, new.id, new.title, new.authors, new.keywords, new.description);
		END`, i.table, i.fts, columns),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %[1]s_ad AFTER DELETE ON %[1]s BEGIN
			INSERT INTO %[2]s(%[2]s, %[3]s)
			VALUES ('delete', old.rowid, old.id, old.title, old.authors, old.keywords, old.description);
		END`, i.table, i.fts, columns),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %[1]s_au AFTER UPDATE ON %[1]s BEGIN
			INSERT INTO %[2]s(%[2]s, %[3]s)
			VALUES ('delete', old.rowid, old.id, old.title, old.authors, old.keywords, old.description);
			INSERT INTO %[2]s(%[3]s)
			VALUES (new.rowid, new.id, new.title, new.authors, new.keywords, new.description);
		END`, i.table, i.fts, columns),
	}
}

// Backfill repopulates the index from the record table. It clears the index first,
// so it is idempotent.
func (i *Index) Backfill(ctx context.Context) error {
	return i.command(ctx, "rebuild")
}

// Rebuild discards the index content and rebuilds it from the records.
func (i *Index) Rebuild(ctx context.Context) error {
	return i.Backfill(ctx)
}

// Check runs the FTS5 integrity check, which fails when the index does not match the records.
func (i *Index) Check(ctx context.Context) error {
	return i.command(ctx, "integrity-check")
}

func (i *Index) command(ctx context.Context, cmd string) error {
	return i.db.WithContext(ctx).Exec(fmt.Sprintf("INSERT INTO %[1]s(%[1]s) VALUES ('%[2]s')", i.fts, cmd)).Error
}

// Search runs an FTS5 query and returns the matching records ordered by rank, best
// (lowest) first. The query syntax is FTS5's own: terms are ANDed, "quoted text"
// matches a phrase.
func (i *Index) Search(ctx context.Context, query string) ([]*model.SearchResult, error) {
	var results []*model.SearchResult
	err := i.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT b.id, b.filename, b.title, b.category, f.rank AS rank
		FROM %[1]s f
		JOIN %[2]s b ON b.rowid = f.rowid
		WHERE %[1]s MATCH ?
		ORDER BY f.rank`, i.fts, i.table), query).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	return results, nil
}
