// Package history implements the lifecycle transaction log: an append-only
// record of retirement-type actions (decommission, loss, disposal) taken
// against items. Recording an event permanently debits the item's available
// and total counts through the ledger, since a decommissioned or lost unit
// can never be loaned again.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quartermaster/internal/audit"
	"quartermaster/internal/ledger"
	"quartermaster/internal/models"
	"quartermaster/internal/storage"
)

// Recorder appends lifecycle events and reads them back.
type Recorder struct {
	store  storage.Store
	ledger *ledger.Ledger
	audit  audit.Logger
}

// NewRecorder creates a lifecycle recorder over the given store and ledger.
func NewRecorder(store storage.Store, l *ledger.Ledger, auditLog audit.Logger) *Recorder {
	return &Recorder{store: store, ledger: l, audit: auditLog}
}

// EventInput is the caller-supplied part of a lifecycle event.
type EventInput struct {
	Tags     []models.LifecycleTag `json:"tags"`
	Date     time.Time             `json:"date"`
	Reason   string                `json:"reason"`
	Quantity int                   `json:"quantity"`
}

// RecordLifecycleEvent validates the input, retires the affected units from
// the ledger and appends one immutable event. The event itself is never
// edited or deleted afterwards.
func (r *Recorder) RecordLifecycleEvent(ctx context.Context, userID, itemCode string, input EventInput) (*models.LifecycleEvent, error) {
	if len(input.Tags) == 0 {
		return nil, &ledger.ValidationError{Reason: "at least one lifecycle status is required"}
	}
	for _, tag := range input.Tags {
		if !models.ValidLifecycleTags[tag] {
			return nil, &ledger.ValidationError{Reason: fmt.Sprintf("unknown lifecycle status %q", tag)}
		}
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, &ledger.ValidationError{Reason: "reason is required"}
	}
	if input.Date.IsZero() {
		return nil, &ledger.ValidationError{Reason: "date is required"}
	}
	if input.Quantity <= 0 {
		return nil, &ledger.ValidationError{Reason: "quantity must be positive"}
	}

	if _, err := r.ledger.Retire(ctx, userID, itemCode, input.Quantity); err != nil {
		return nil, err
	}

	event := &models.LifecycleEvent{
		ItemCode: itemCode,
		Tags:     models.JoinTags(input.Tags),
		Date:     input.Date,
		Reason:   input.Reason,
		Quantity: input.Quantity,
	}
	if err := r.store.AppendLifecycleEvent(ctx, event); err != nil {
		return nil, err
	}

	r.audit.Record(ctx, userID, "lifecycle", "item", itemCode,
		fmt.Sprintf("retired %d units (%s): %s", input.Quantity, event.Tags, input.Reason))
	return event, nil
}

// ListHistory returns an item's lifecycle events, newest first. History
// survives the item itself: events for fully retired (deleted) items stay
// readable.
func (r *Recorder) ListHistory(ctx context.Context, itemCode string) ([]models.LifecycleEvent, error) {
	return r.store.LifecycleHistory(ctx, itemCode)
}
