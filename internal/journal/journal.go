// Package journal appends every applied change to a write-only event log.
// Entries are never read back into the session.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medflow-backend/internal/model"
	"medflow-backend/internal/shell"
)

const writeTimeout = 5 * time.Second

// Store defines the journal's database operations.
type Store interface {
	Append(ctx context.Context, entries ...model.JournalEntry) error
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed journal store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Append inserts entries in one transaction.
func (s *gormStore) Append(ctx context.Context, entries ...model.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			if err := tx.Create(&entries[i]).Error; err != nil {
				return fmt.Errorf("failed to append journal entry %s: %w", entries[i].Kind, err)
			}
		}
		return nil
	})
}

// Recorder is a shell observer that writes each event to a Store. Write
// failures are logged and dropped.
type Recorder struct {
	store  Store
	newID  func() string
	logger *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, newID: uuid.NewString, logger: logger.With("component", "journal")}
}

// Observe implements shell.Observer.
func (r *Recorder) Observe(ctx context.Context, ev shell.Event) {
	entry, err := r.Entry(ev)
	if err != nil {
		r.logger.Error("failed to encode journal entry", "kind", ev.Kind, "error", err)
		return
	}

	// A client hanging up must not lose the entry.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.Error("failed to write journal entry", "kind", ev.Kind, "error", err)
	}
}

// Entry converts an event to a row.
func (r *Recorder) Entry(ev shell.Event) (model.JournalEntry, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return model.JournalEntry{}, err
	}
	return model.JournalEntry{
		ID:        r.newID(),
		RecordID:  ev.RecordID,
		Kind:      ev.Kind,
		Payload:   string(payload),
		CreatedAt: ev.At,
	}, nil
}
