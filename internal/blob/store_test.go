package blob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emrgen/bookshelf/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func locate(t *testing.T, s *Store, id, name string) string {
	t.Helper()

	path, err := s.Locate(id, name)
	require.NoError(t, err)
	return path
}

func TestStore_Ingest(t *testing.T) {
	dir := t.TempDir()
	src := tester.WriteFile(t, filepath.Join(dir, "src"), "report.pdf", "pdf bytes")

	s, err := NewStore(filepath.Join(dir, "files"))
	require.NoError(t, err)

	id, ext, err := s.Ingest(src)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, ".pdf", ext)

	path := filepath.Join(dir, "files", id[:2], id+".pdf")
	assert.Equal(t, path, locate(t, s, id, ext))
	assert.Equal(t, path, locate(t, s, id, id+".pdf"))
	assert.Equal(t, "pdf bytes", tester.ReadFile(t, path))
	assert.True(t, s.Exists(id, id+".pdf"))

	// the source is copied, not moved
	assert.FileExists(t, src)
}

func TestStore_IngestWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	src := tester.WriteFile(t, dir, "README", "text")

	s, err := NewStore(filepath.Join(dir, "files"), WithIDGenerator(sequence("ab123")))
	require.NoError(t, err)

	id, ext, err := s.Ingest(src)
	require.NoError(t, err)
	assert.Equal(t, "ab123", id)
	assert.Equal(t, "", ext)
	assert.FileExists(t, filepath.Join(dir, "files", "ab", "ab123"))
}

func TestStore_IngestCollision(t *testing.T) {
	dir := t.TempDir()
	first := tester.WriteFile(t, dir, "a.txt", "first")
	second := tester.WriteFile(t, dir, "b.txt", "second")

	tests := []struct {
		name    string
		ids     []string
		wantID  string
		wantErr error
	}{
		{
			name:    "always colliding",
			ids:     []string{"cafe-1"},
			wantErr: ErrDuplicateBlob,
		},
		{
			name:   "retried with a fresh id",
			ids:    []string{"cafe-1", "beef-2"},
			wantID: "beef-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "files")
			seed, err := NewStore(root, WithIDGenerator(sequence("cafe-1")))
			require.NoError(t, err)
			_, _, err = seed.Ingest(first)
			require.NoError(t, err)

			s, err := NewStore(root, WithIDGenerator(sequence(tt.ids...)))
			require.NoError(t, err)

			id, _, err := s.Ingest(second)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
				assert.Equal(t, "second", tester.ReadFile(t, locate(t, s, id, ".txt")))
			}

			// the colliding blob is never overwritten
			assert.Equal(t, "first", tester.ReadFile(t, locate(t, s, "cafe-1", ".txt")))
		})
	}
}

func TestStore_IngestMissingSource(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)

	_, _, err = s.Ingest(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, _, err = s.Ingest(t.TempDir())
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestStore_RelocateToHolding(t *testing.T) {
	dir := t.TempDir()
	src := tester.WriteFile(t, dir, "report.pdf", "pdf bytes")
	inbox := filepath.Join(dir, "inbox")

	s, err := NewStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	id, ext, err := s.Ingest(src)
	require.NoError(t, err)

	dst, err := s.RelocateToHolding(id, id+ext, inbox)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(inbox, id+".pdf"), dst)
	assert.Equal(t, "pdf bytes", tester.ReadFile(t, dst))
	assert.NoFileExists(t, locate(t, s, id, ext))
	assert.False(t, s.Exists(id, id+ext))

	_, err = s.RelocateToHolding(id, id+ext, inbox)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestStore_RelocateToHoldingKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")

	s, err := NewStore(filepath.Join(dir, "files"), WithIDGenerator(sequence("ab-1")))
	require.NoError(t, err)
	_, _, err = s.Ingest(tester.WriteFile(t, dir, "report.pdf", "stored"))
	require.NoError(t, err)

	edited := tester.WriteFile(t, inbox, "ab-1.pdf", "edited copy")

	dst, err := s.RelocateToHolding("ab-1", "ab-1.pdf", inbox)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(inbox, "ab-1 (1).pdf"), dst)
	assert.Equal(t, "stored", tester.ReadFile(t, dst))
	assert.Equal(t, "edited copy", tester.ReadFile(t, edited))
}

func TestStore_RejectsEscapingRefs(t *testing.T) {
	dir := t.TempDir()
	outside := tester.WriteFile(t, dir, "secret.txt", "secret")
	inbox := filepath.Join(dir, "inbox")

	s, err := NewStore(filepath.Join(dir, "bookshelf", "files"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		filename string
	}{
		{name: "empty id", id: "", filename: ".txt"},
		{name: "parent id", id: "..", filename: "../secret.txt"},
		{name: "parent in filename", id: "ab-1", filename: "ab-1/../../secret.txt"},
		{name: "slash in id", id: "a/b", filename: "a/b.txt"},
		{name: "backslash in filename", id: "ab-1", filename: `ab-1\x.txt`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Locate(tt.id, tt.filename)
			assert.ErrorIs(t, err, ErrInvalidRef)
			assert.False(t, s.Exists(tt.id, tt.filename))

			_, err = s.RelocateToHolding(tt.id, tt.filename, inbox)
			assert.ErrorIs(t, err, ErrInvalidRef)
			_, err = s.CopyToHolding(tt.id, tt.filename, "x.txt", inbox)
			assert.ErrorIs(t, err, ErrInvalidRef)
			assert.ErrorIs(t, s.Remove(tt.id, tt.filename), ErrInvalidRef)
		})
	}

	assert.Equal(t, "secret", tester.ReadFile(t, outside))
}

func TestStore_IngestRejectsInvalidID(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "files"), WithIDGenerator(sequence("../x")))
	require.NoError(t, err)

	_, _, err = s.Ingest(tester.WriteFile(t, dir, "a.txt", "a"))
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestStore_CopyToHolding(t *testing.T) {
	dir := t.TempDir()
	src := tester.WriteFile(t, dir, "report.pdf", "pdf bytes")
	inbox := filepath.Join(dir, "inbox")

	s, err := NewStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	id, ext, err := s.Ingest(src)
	require.NoError(t, err)

	want := []string{"Annual Report.pdf", "Annual Report (1).pdf", "Annual Report (2).pdf"}
	for _, name := range want {
		dst, err := s.CopyToHolding(id, id+ext, "Annual Report.pdf", inbox)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(inbox, name), dst)
		assert.Equal(t, "pdf bytes", tester.ReadFile(t, dst))
	}

	// copying leaves the blob in place
	assert.True(t, s.Exists(id, id+ext))

	_, err = s.CopyToHolding("missing", "missing.pdf", "x.pdf", inbox)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	src := tester.WriteFile(t, dir, "a.txt", "a")

	s, err := NewStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	id, ext, err := s.Ingest(src)
	require.NoError(t, err)

	require.NoError(t, s.Remove(id, id+ext))
	assert.False(t, s.Exists(id, id+ext))
	assert.ErrorIs(t, s.Remove(id, id+ext), ErrBlobNotFound)
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "files"), WithIDGenerator(sequence("aa-1", "ab-2", "aa-3")))
	require.NoError(t, err)

	for _, name := range []string{"x.pdf", "y.txt", "z"} {
		_, _, err := s.Ingest(tester.WriteFile(t, dir, name, name))
		require.NoError(t, err)
	}

	refs, err := s.List()
	require.NoError(t, err)
	require.Len(t, refs, 3)

	got := map[string]string{}
	for _, ref := range refs {
		got[ref.ID] = ref.Filename
		assert.Equal(t, locate(t, s, ref.ID, ref.Filename), ref.Path)
	}
	assert.Equal(t, map[string]string{"aa-1": "aa-1.pdf", "ab-2": "ab-2.txt", "aa-3": "aa-3"}, got)
}

func TestUniqueFilename_MissingDirectory(t *testing.T) {
	_, err := UniqueFilename(filepath.Join(t.TempDir(), "absent"), "a", ".txt")
	assert.ErrorIs(t, err, ErrDirectoryMissing)
}

func TestNewStore_DirectoryMissing(t *testing.T) {
	dir := t.TempDir()
	blocker := tester.WriteFile(t, dir, "files", "not a directory")

	_, err := NewStore(filepath.Join(blocker, "sub"))
	assert.ErrorIs(t, err, ErrDirectoryMissing)
	_, statErr := os.Stat(blocker)
	assert.NoError(t, statErr)
}
