package model

import "regexp"

// Metadata holds the user editable fields of a document record.
type Metadata struct {
	Title       string `gorm:"column:title" json:"title"`
	Authors     string `gorm:"column:authors" json:"authors"`
	Category    string `gorm:"column:category" json:"category"`
	Keywords    string `gorm:"column:keywords" json:"keywords"`
	Description string `gorm:"column:description" json:"description"`
}

// Document is the record stored for one ingested file.
// ID is the identifier generated at ingest time, Filename is ID plus the original extension.
type Document struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	Filename string `gorm:"column:filename" json:"filename"`
	Metadata `gorm:"embedded"`
}

// MetadataUpdate is a partial edit, nil fields are left unchanged.
type MetadataUpdate struct {
	Title       *string
	Authors     *string
	Category    *string
	Keywords    *string
	Description *string
}

// Apply returns md with the non-nil fields of u applied.
func (u MetadataUpdate) Apply(md Metadata) Metadata {
	if u.Title != nil {
		md.Title = *u.Title
	}
	if u.Authors != nil {
		md.Authors = *u.Authors
	}
	if u.Category != nil {
		md.Category = *u.Category
	}
	if u.Keywords != nil {
		md.Keywords = *u.Keywords
	}
	if u.Description != nil {
		md.Description = *u.Description
	}

	return md
}

// Empty reports whether the update changes nothing.
func (u MetadataUpdate) Empty() bool {
	return u.Title == nil && u.Authors == nil && u.Category == nil && u.Keywords == nil && u.Description == nil
}

// SearchResult is one row of a search, Rank is only set by fuzzy search (lower is better).
type SearchResult struct {
	ID       string  `gorm:"column:id"`
	Filename string  `gorm:"column:filename"`
	Title    string  `gorm:"column:title"`
	Category string  `gorm:"column:category"`
	Rank     float64 `gorm:"column:rank"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidTableName reports whether name can be used unquoted as an SQLite table name.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
