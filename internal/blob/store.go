// Package blob stores document files under a tree sharded by the first two
// characters of their identifier: <root>/<id[0:2]>/<id><ext>.
package blob

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	shardLen = 2
	// ingestAttempts bounds identifier regeneration on a collision.
	ingestAttempts = 3
)

// BlobRef is one blob found in the shard tree.
type BlobRef struct {
	ID       string
	Filename string
	Path     string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the random identifier generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// Store is the content store rooted at the files directory.
type Store struct {
	root  string
	newID func() string
}

// NewStore creates a content store rooted at root. The directory is created if absent.
func NewStore(root string, opts ...Option) (*Store, error) {
	if err := ensureDir(root); err != nil {
		return nil, err
	}

	s := &Store{
		root:  root,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Shard returns the shard directory name of an identifier.
func Shard(id string) string {
	if len(id) < shardLen {
		return id
	}

	return id[:shardLen]
}

// ValidateRef rejects identifiers and names that are empty, contain a path separator
// or "..", and so could resolve outside the shard directory.
func ValidateRef(id, name string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRef)
	}
	for _, part := range []string{id, name} {
		if strings.ContainsAny(part, `/\`) || strings.Contains(part, "..") {
			return fmt.Errorf("%w: %q", ErrInvalidRef, part)
		}
	}

	return nil
}

// Locate computes the blob path of id. name is either the stored filename or just its extension.
// It does not touch the disk.
func (s *Store) Locate(id, name string) (string, error) {
	if err := ValidateRef(id, name); err != nil {
		return "", err
	}

	filename := name
	if !strings.HasPrefix(name, id) {
		filename = id + name
	}

	return filepath.Join(s.root, Shard(id), filename), nil
}

// Exists reports whether the blob is present at its shard path.
func (s *Store) Exists(id, filename string) bool {
	path, err := s.Locate(id, filename)
	if err != nil {
		return false
	}

	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Ingest copies the source file into the shard tree under a fresh identifier and returns the
// identifier with the preserved extension. An existing blob is never overwritten.
func (s *Store) Ingest(source string) (id string, ext string, err error) {
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: %s", ErrSourceNotFound, source)
		}
		return "", "", err
	}
	if !info.Mode().IsRegular() {
		return "", "", fmt.Errorf("%w: %s is not a regular file", ErrSourceNotFound, source)
	}

	ext = filepath.Ext(source)
	for attempt := 1; attempt <= ingestAttempts; attempt++ {
		id = s.newID()
		var dst string
		if dst, err = s.Locate(id, ext); err != nil {
			return "", "", err
		}
		if err = ensureDir(filepath.Dir(dst)); err != nil {
			return "", "", err
		}

		err = copyExclusive(source, dst)
		if err == nil {
			logrus.Debugf("ingested %s as %s", source, dst)
			return id, ext, nil
		}
		if !errors.Is(err, ErrDuplicateBlob) {
			return "", "", err
		}
		logrus.Warnf("blob collision on %s (attempt %d/%d)", dst, attempt, ingestAttempts)
	}

	return "", "", err
}

// Remove deletes a blob from the shard tree.
func (s *Store) Remove(id, filename string) error {
	path, err := s.Locate(id, filename)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrBlobNotFound, filename)
	}

	return err
}

// RelocateToHolding moves a blob out of the shard tree into holdingDir, keeping its filename.
// A file already holding that name is kept and "name (n)" is used instead.
func (s *Store) RelocateToHolding(id, filename, holdingDir string) (string, error) {
	src, err := s.Locate(id, filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrBlobNotFound, src)
		}
		return "", err
	}
	if err := ensureDir(holdingDir); err != nil {
		return "", err
	}

	ext := filepath.Ext(filename)
	base, err := UniqueFilename(holdingDir, strings.TrimSuffix(filename, ext), ext)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(holdingDir, base+ext)
	if err := move(src, dst); err != nil {
		return "", err
	}

	return dst, nil
}

// CopyToHolding copies a blob into holdingDir as name. If name is already taken there,
// "name (n)" with the smallest free n is used instead.
func (s *Store) CopyToHolding(id, filename, name, holdingDir string) (string, error) {
	src, err := s.Locate(id, filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrBlobNotFound, src)
		}
		return "", err
	}
	if err := ensureDir(holdingDir); err != nil {
		return "", err
	}

	ext := filepath.Ext(name)
	base, err := UniqueFilename(holdingDir, strings.TrimSuffix(name, ext), ext)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(holdingDir, base+ext)
	if err := copyExclusive(src, dst); err != nil {
		return "", err
	}

	return dst, nil
}

// List walks the shard tree and returns every blob in it.
func (s *Store) List() ([]BlobRef, error) {
	var refs []BlobRef
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		filename := d.Name()
		id := strings.TrimSuffix(filename, filepath.Ext(filename))
		refs = append(refs, BlobRef{ID: id, Filename: filename, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refs, nil
}

// UniqueFilename returns name, or "name (n)" for the smallest n such that no file
// name+ext exists in dir.
func UniqueFilename(dir, name, ext string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDirectoryMissing, dir)
	}

	candidate := name
	for n := 1; ; n++ {
		_, err := os.Stat(filepath.Join(dir, candidate+ext))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectoryMissing, dir, err)
	}

	return nil
}

// copyExclusive copies src to a new file dst. A partially written dst is removed on failure.
func copyExclusive(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateBlob, dst)
		}
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// move renames src to dst, falling back to copy and delete across filesystems.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyExclusive(src, dst); err != nil {
		return err
	}

	return os.Remove(src)
}
