package service

import (
	"context"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
)

// Report describes how far the blob tree, the records and the shadow index agree.
type Report struct {
	Records int
	Blobs   int
	// MissingBlobs lists the ids of records whose file is not at its shard path,
	// including records whose id or filename cannot name one.
	MissingBlobs []string
	// OrphanBlobs lists files in the shard tree that no record points at.
	OrphanBlobs []string
	IndexOK     bool
	IndexError  string
}

// Consistent reports whether nothing is missing, orphaned or out of sync.
func (r *Report) Consistent() bool {
	return len(r.MissingBlobs) == 0 && len(r.OrphanBlobs) == 0 && r.IndexOK
}

// Check compares every record with the blob tree and verifies the shadow index.
// Inconsistencies are reported, not returned as errors.
func (r *Registry) Check(ctx context.Context) (*Report, error) {
	docs, err := r.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	refs, err := r.blobs.List()
	if err != nil {
		return nil, err
	}

	expected := mapset.NewThreadUnsafeSet[string]()
	owner := make(map[string]string, len(docs))
	var invalid []string
	for _, doc := range docs {
		path, err := r.blobs.Locate(doc.ID, doc.Filename)
		if err != nil {
			logrus.Warnf("record %q: %v", doc.ID, err)
			invalid = append(invalid, doc.ID)
			continue
		}
		expected.Add(path)
		owner[path] = doc.ID
	}

	found := mapset.NewThreadUnsafeSet[string]()
	for _, ref := range refs {
		found.Add(ref.Path)
	}

	report := &Report{
		Records: len(docs),
		Blobs:   len(refs),
		IndexOK: true,
	}

	for _, path := range expected.Difference(found).ToSlice() {
		report.MissingBlobs = append(report.MissingBlobs, owner[path])
	}
	report.MissingBlobs = append(report.MissingBlobs, invalid...)
	report.OrphanBlobs = found.Difference(expected).ToSlice()
	sort.Strings(report.MissingBlobs)
	sort.Strings(report.OrphanBlobs)

	if err := r.store.CheckIndex(ctx); err != nil {
		report.IndexOK = false
		report.IndexError = err.Error()
		logrus.Warnf("shadow index check failed: %v", err)
	}

	return report, nil
}
