package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
	"github.com/mamadbah2/milktrack/internal/service/farmers"
)

const snapshotVersion = 1

// snapshot is the on-disk envelope. Farmers are written for external readers
// but always rebuilt from collections on load.
type snapshot struct {
	Version     int                      `json:"version"`
	Collections []collectionDocument     `json:"collections"`
	Farmers     []models.FarmerAggregate `json:"farmers"`
}

// storedSnapshot is the envelope as read back. Collections are decoded one by
// one so a single malformed entry does not hide the others.
type storedSnapshot struct {
	Version     int               `json:"version"`
	Collections []json.RawMessage `json:"collections"`
}

// Repository is the single-device backend: one JSON snapshot file, read and
// written synchronously.
type Repository struct {
	path    string
	records []models.CollectionRecord
	farmers *farmers.Store
	lastID  int64
	now     func() time.Time
	logger  *zap.Logger

	// unresolved keeps the original timestamp fields of records whose time
	// could not be parsed, so rewriting the file does not erase them.
	unresolved map[string]collectionDocument
}

// NewRepository creates a repository persisting to path.
func NewRepository(path string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		path:    path,
		farmers: farmers.NewStore(),
		now:     time.Now,
		logger:  logger,
	}
}

// LoadAll reads the snapshot, newest first. A missing or unreadable file
// yields an empty set; the failure is logged, not returned. Whenever part of
// the file cannot be decoded, the original bytes are kept in CorruptPath
// before anything is written over them.
func (r *Repository) LoadAll() []models.CollectionRecord {
	r.records = nil
	r.farmers.Reset()
	r.unresolved = make(map[string]collectionDocument)

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("local snapshot unreadable, starting empty",
				zap.String("path", r.path), zap.Error(&models.StorageError{Op: "read", Err: err}))
		}
		return []models.CollectionRecord{}
	}

	var snap storedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.quarantine(data)
		r.logger.Warn("local snapshot corrupt, starting empty",
			zap.String("path", r.path),
			zap.String("backup", r.CorruptPath()),
			zap.Error(&models.StorageError{Op: "decode", Err: err}))
		return []models.CollectionRecord{}
	}

	records := make([]models.CollectionRecord, 0, len(snap.Collections))
	skipped := 0
	for i, raw := range snap.Collections {
		var doc collectionDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			skipped++
			r.logger.Debug("skipping undecodable collection", zap.Int("index", i), zap.Error(err))
			continue
		}
		rec, ok := doc.toRecord()
		if !ok {
			r.unresolved[rec.ID] = doc
			r.logger.Debug("collection without resolvable timestamp", zap.String("collection_id", rec.ID))
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		r.quarantine(data)
		r.logger.Warn("local snapshot partly corrupt",
			zap.String("path", r.path),
			zap.String("backup", r.CorruptPath()),
			zap.Int("skipped", skipped))
	}

	r.records = records
	r.farmers = farmers.Rebuild(r.records)
	for _, rec := range r.records {
		if id, err := strconv.ParseInt(rec.ID, 10, 64); err == nil && id > r.lastID {
			r.lastID = id
		}
	}

	r.logger.Debug("local snapshot loaded", zap.Int("collections", len(r.records)))
	return r.Records()
}

// CorruptPath is where the bytes of an undecodable snapshot are preserved.
func (r *Repository) CorruptPath() string {
	return r.path + ".corrupt"
}

func (r *Repository) quarantine(data []byte) {
	if err := os.WriteFile(r.CorruptPath(), data, 0o644); err != nil {
		r.logger.Error("failed to preserve corrupt snapshot",
			zap.String("backup", r.CorruptPath()),
			zap.Error(&models.StorageError{Op: "backup", Err: err}))
	}
}

// Records returns a copy of the working set.
func (r *Repository) Records() []models.CollectionRecord {
	out := make([]models.CollectionRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Farmers returns the aggregates maintained alongside the records.
func (r *Repository) Farmers() []models.FarmerAggregate {
	return r.farmers.List()
}

// Append stamps the input with the local clock, prepends it, updates the
// farmer totals and persists everything before returning.
func (r *Repository) Append(input models.CollectionInput) (models.CollectionRecord, error) {
	now := r.now()
	id := now.UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}

	rec := input.Record(strconv.FormatInt(id, 10), now)

	previous := r.records
	r.records = append([]models.CollectionRecord{rec}, r.records...)
	r.farmers.RecordDeposit(rec.FarmerID, rec.FarmerName, rec.Quantity, rec.Timestamp)

	if err := r.persist(); err != nil {
		r.records = previous
		r.farmers = farmers.Rebuild(previous)
		return models.CollectionRecord{}, err
	}

	r.lastID = id
	return rec, nil
}

// ClearAll deletes the snapshot and every aggregate. Callers are expected to
// have obtained confirmation already.
func (r *Repository) ClearAll() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &models.StorageError{Op: "clear", Err: err}
	}
	r.records = nil
	r.farmers.Reset()
	r.unresolved = make(map[string]collectionDocument)
	return nil
}

func (r *Repository) persist() error {
	docs := make([]collectionDocument, 0, len(r.records))
	for _, rec := range r.records {
		doc := documentFromRecord(rec)
		if original, ok := r.unresolved[rec.ID]; ok && !rec.HasTimestamp() {
			doc.Timestamp = original.Timestamp
			doc.CreatedAt = original.CreatedAt
		}
		docs = append(docs, doc)
	}

	data, err := json.Marshal(snapshot{
		Version:     snapshotVersion,
		Collections: docs,
		Farmers:     r.farmers.List(),
	})
	if err != nil {
		return &models.StorageError{Op: "encode", Err: err}
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &models.StorageError{Op: "write", Err: err}
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &models.StorageError{Op: "write", Err: err}
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return &models.StorageError{Op: "write", Err: fmt.Errorf("replace snapshot: %w", err)}
	}
	return nil
}
