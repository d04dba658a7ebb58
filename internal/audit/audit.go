// Package audit implements the generic activity log. The core writes to it
// after every successful mutation and never reads it back; a failed append
// is logged and otherwise ignored.
package audit

import (
	"context"
	"log"

	"quartermaster/internal/models"
	"quartermaster/internal/storage"
)

// Logger is the activity sink consumed by the core packages.
type Logger interface {
	Record(ctx context.Context, userID, action, entityType, entityID, details string)
}

// StoreLogger appends activity entries to the backing store.
type StoreLogger struct {
	store storage.Store
}

// NewStoreLogger creates an activity logger backed by the given store.
func NewStoreLogger(store storage.Store) *StoreLogger {
	return &StoreLogger{store: store}
}

// Record appends one activity entry. Fire and forget: storage errors are
// logged, never propagated.
func (l *StoreLogger) Record(ctx context.Context, userID, action, entityType, entityID, details string) {
	entry := &models.ActivityEntry{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := l.store.AppendActivity(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s on %s/%s: %v", action, entityType, entityID, err)
	}
}

// Nop is a Logger that discards everything, for tests.
type Nop struct{}

func (Nop) Record(ctx context.Context, userID, action, entityType, entityID, details string) {}
