// Package ledger implements the inventory quantity ledger: per-item
// bookkeeping of total, available, loaned and damaged counts, with the
// status label derived from them. Every mutation is serialized per item and
// is all-or-nothing from the caller's point of view.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"quartermaster/internal/audit"
	"quartermaster/internal/events"
	"quartermaster/internal/models"
	"quartermaster/internal/monitoring"
	"quartermaster/internal/storage"
)

// Ledger owns the quantity columns of every item.
type Ledger struct {
	store storage.Store
	locks *lockTable
	bus   *events.Bus
	audit audit.Logger
}

// New creates a ledger over the given store. The bus receives an event
// after every successful mutation. Directly invoked operations write an
// activity entry; the loan and lifecycle quantity moves leave auditing to
// the services that drive them, so one user action yields one entry.
func New(store storage.Store, bus *events.Bus, auditLog audit.Logger) *Ledger {
	return &Ledger{
		store: store,
		locks: newLockTable(),
		bus:   bus,
		audit: auditLog,
	}
}

// ItemRequest names one item and a quantity, for batch operations.
type ItemRequest struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// collapseRequests merges requests naming the same item into one, so a batch
// listing an item twice is validated and applied against a single copy
// instead of two stale ones. First-seen order is preserved.
func collapseRequests(reqs []ItemRequest) []ItemRequest {
	merged := make([]ItemRequest, 0, len(reqs))
	index := make(map[string]int, len(reqs))
	for _, req := range reqs {
		if i, ok := index[req.Code]; ok {
			merged[i].Quantity += req.Quantity
			continue
		}
		index[req.Code] = len(merged)
		merged = append(merged, req)
	}
	return merged
}

// Register adds a new item to the ledger. The full quantity starts
// available: available = total, loaned = 0, damaged = 0.
func (l *Ledger) Register(ctx context.Context, userID string, item *models.Item) error {
	if strings.TrimSpace(item.Code) == "" {
		return &ValidationError{Reason: "item code is required"}
	}
	if strings.TrimSpace(item.Name) == "" {
		return &ValidationError{Reason: "item name is required"}
	}
	if item.Total < 1 {
		return &ValidationError{Reason: "total quantity must be at least 1"}
	}

	unlock := l.locks.lock(item.Code)
	defer unlock()

	existing, err := l.store.ItemByCode(ctx, item.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return &ValidationError{Reason: fmt.Sprintf("item %q is already registered", item.Code)}
	}

	item.Available = item.Total
	item.Loaned = 0
	item.Damaged = 0
	item.Status = DeriveStatus(item.Available, item.Loaned, item.Damaged)

	if err := l.store.CreateItem(ctx, item); err != nil {
		monitoring.ObserveOperation("register", err)
		return err
	}
	monitoring.ObserveOperation("register", nil)

	l.afterMutation(ctx, userID, "register", item.Code,
		fmt.Sprintf("registered %d units", item.Total),
		events.Event{Type: events.ItemRegistered, ItemCode: item.Code, Quantity: item.Total, UserID: userID})
	l.refreshItemGauge(ctx)
	return nil
}

// Item returns one item by code.
func (l *Ledger) Item(ctx context.Context, code string) (*models.Item, error) {
	item, err := l.store.ItemByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Kind: "item", ID: code}
	}
	return item, nil
}

// Items lists items, optionally filtered by derived status.
func (l *Ledger) Items(ctx context.Context, status models.ItemStatus) ([]models.Item, error) {
	return l.store.Items(ctx, status)
}

// MetadataUpdate carries the caller-settable item fields. Quantity columns
// are deliberately absent; they change only through ledger operations.
type MetadataUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Category *string  `json:"category,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Location *string  `json:"location,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// UpdateMetadata changes an item's descriptive fields.
func (l *Ledger) UpdateMetadata(ctx context.Context, userID, code string, update MetadataUpdate) (*models.Item, error) {
	item, err := l.mutate(ctx, code, func(item *models.Item) error {
		if update.Name != nil {
			if strings.TrimSpace(*update.Name) == "" {
				return &ValidationError{Reason: "item name is required"}
			}
			item.Name = *update.Name
		}
		if update.Category != nil {
			item.Category = *update.Category
		}
		if update.Price != nil {
			item.Price = *update.Price
		}
		if update.Location != nil {
			item.Location = *update.Location
		}
		if update.Notes != nil {
			item.Notes = *update.Notes
		}
		return nil
	})
	monitoring.ObserveOperation("update", err)
	if err != nil {
		return nil, err
	}
	l.afterMutation(ctx, userID, "update", code, "updated item metadata", events.Event{})
	return item, nil
}

// Loan moves qty units from available to loaned. Audit attribution is the
// caller's job; the loan service records the user action alongside the loan.
func (l *Ledger) Loan(ctx context.Context, userID, code string, qty int) (*models.Item, error) {
	if qty < 1 {
		err := &ValidationError{Reason: "quantity must be positive"}
		monitoring.ObserveOperation("loan", err)
		return nil, err
	}

	item, err := l.mutate(ctx, code, func(item *models.Item) error {
		if qty > item.Available {
			return insufficient(code, "available", qty, item.Available)
		}
		item.Available -= qty
		item.Loaned += qty
		return nil
	})
	monitoring.ObserveOperation("loan", err)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Return moves qty units from loaned back to available.
func (l *Ledger) Return(ctx context.Context, userID, code string, qty int) (*models.Item, error) {
	if qty < 1 {
		err := &ValidationError{Reason: "quantity must be positive"}
		monitoring.ObserveOperation("return", err)
		return nil, err
	}

	item, err := l.mutate(ctx, code, func(item *models.Item) error {
		if qty > item.Loaned {
			return &InvariantViolationError{
				ItemCode: code,
				Reason:   fmt.Sprintf("returning %d units but only %d are loaned", qty, item.Loaned),
			}
		}
		item.Loaned -= qty
		item.Available += qty
		return nil
	})
	monitoring.ObserveOperation("return", err)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// MarkDamaged moves qty units from available to damaged.
func (l *Ledger) MarkDamaged(ctx context.Context, userID, code string, qty int, reason string) (*models.Item, error) {
	if qty < 1 {
		err := &ValidationError{Reason: "quantity must be positive"}
		monitoring.ObserveOperation("damage", err)
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		err := &ValidationError{Reason: "damage reason is required"}
		monitoring.ObserveOperation("damage", err)
		return nil, err
	}

	item, err := l.mutate(ctx, code, func(item *models.Item) error {
		if qty > item.Available {
			return insufficient(code, "available", qty, item.Available)
		}
		item.Available -= qty
		item.Damaged += qty
		return nil
	})
	monitoring.ObserveOperation("damage", err)
	if err != nil {
		return nil, err
	}

	l.afterMutation(ctx, userID, "damage", code,
		fmt.Sprintf("marked %d units damaged: %s", qty, reason),
		events.Event{Type: events.ItemDamaged, ItemCode: code, Quantity: qty, UserID: userID})
	return item, nil
}

// MarkRepaired moves qty units from damaged back to available.
func (l *Ledger) MarkRepaired(ctx context.Context, userID, code string, qty int, reason string) (*models.Item, error) {
	if qty < 1 {
		err := &ValidationError{Reason: "quantity must be positive"}
		monitoring.ObserveOperation("repair", err)
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		err := &ValidationError{Reason: "repair reason is required"}
		monitoring.ObserveOperation("repair", err)
		return nil, err
	}

	item, err := l.mutate(ctx, code, func(item *models.Item) error {
		if qty > item.Damaged {
			return insufficient(code, "damaged", qty, item.Damaged)
		}
		item.Damaged -= qty
		item.Available += qty
		return nil
	})
	monitoring.ObserveOperation("repair", err)
	if err != nil {
		return nil, err
	}

	l.afterMutation(ctx, userID, "repair", code,
		fmt.Sprintf("repaired %d units: %s", qty, reason),
		events.Event{Type: events.ItemRepaired, ItemCode: code, Quantity: qty, UserID: userID})
	return item, nil
}

// PartialRemove permanently reduces an item's total. Removed units must come
// from the available pool; loaned or damaged units cannot be removed while
// outstanding. When total reaches 0 the item is deleted entirely.
func (l *Ledger) PartialRemove(ctx context.Context, userID, code string, qty int) (*models.Item, error) {
	item, err := l.removeUnits(ctx, code, qty)
	monitoring.ObserveOperation("remove", err)
	if err != nil {
		return nil, err
	}

	details := fmt.Sprintf("removed %d units", qty)
	if item == nil {
		details = fmt.Sprintf("removed final %d units, item deleted", qty)
	}
	l.audit.Record(ctx, userID, "remove", "item", code, details)
	l.bus.Publish(events.Event{Type: events.ItemRemoved, ItemCode: code, Quantity: qty, UserID: userID})
	return item, nil
}

// Retire permanently debits available and total for units leaving service
// through a lifecycle event. Same removal policy as PartialRemove. The
// lifecycle recorder writes the audit entry for the whole action.
func (l *Ledger) Retire(ctx context.Context, userID, code string, qty int) (*models.Item, error) {
	item, err := l.removeUnits(ctx, code, qty)
	monitoring.ObserveOperation("retire", err)
	if err != nil {
		return nil, err
	}
	l.bus.Publish(events.Event{Type: events.ItemRetired, ItemCode: code, Quantity: qty, UserID: userID})
	return item, nil
}

func (l *Ledger) removeUnits(ctx context.Context, code string, qty int) (*models.Item, error) {
	if qty < 1 {
		return nil, &ValidationError{Reason: "quantity must be positive"}
	}

	unlock := l.locks.lock(code)
	defer unlock()

	item, err := l.store.ItemByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Kind: "item", ID: code}
	}
	if qty > item.Total {
		return nil, &ValidationError{Reason: fmt.Sprintf("cannot remove %d of %d total units", qty, item.Total)}
	}
	if qty > item.Available {
		return nil, insufficient(code, "available", qty, item.Available)
	}

	item.Total -= qty
	item.Available -= qty

	if item.Total == 0 {
		// An item still referenced by an open loan record must never be
		// structurally deleted, even if the quantity columns would allow it.
		open, err := l.store.OpenLoanCount(ctx, code)
		if err != nil {
			return nil, err
		}
		if open > 0 {
			return nil, &InvariantViolationError{
				ItemCode: code,
				Reason:   fmt.Sprintf("%d open loans still reference the item", open),
			}
		}
		if err := l.store.DeleteItem(ctx, code); err != nil {
			return nil, err
		}
		l.refreshItemGauge(ctx)
		return nil, nil
	}

	if err := checkQuantities(item); err != nil {
		return nil, err
	}
	item.Status = DeriveStatus(item.Available, item.Loaned, item.Damaged)
	if err := l.store.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// LoanAll loans several items in one critical section. Requests naming the
// same item are merged first, so their quantities count against one pool.
// Every merged request is validated against its item's available pool before
// anything mutates; one short item fails the whole batch with every
// shortfall listed. Returns one updated item per distinct code.
func (l *Ledger) LoanAll(ctx context.Context, userID string, reqs []ItemRequest) ([]models.Item, error) {
	if len(reqs) == 0 {
		return nil, &ValidationError{Reason: "at least one item is required"}
	}
	for _, req := range reqs {
		if req.Quantity < 1 {
			return nil, &ValidationError{Reason: fmt.Sprintf("item %s: quantity must be positive", req.Code)}
		}
	}
	reqs = collapseRequests(reqs)

	codes := make([]string, len(reqs))
	for i, req := range reqs {
		codes[i] = req.Code
	}
	unlock := l.locks.lockAll(codes)
	defer unlock()

	items := make([]*models.Item, len(reqs))
	var shortfalls []Shortfall
	for i, req := range reqs {
		item, err := l.store.ItemByCode(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, &NotFoundError{Kind: "item", ID: req.Code}
		}
		if req.Quantity > item.Available {
			shortfalls = append(shortfalls, Shortfall{
				ItemCode:  req.Code,
				Pool:      "available",
				Requested: req.Quantity,
				Available: item.Available,
			})
		}
		items[i] = item
	}
	if len(shortfalls) > 0 {
		err := &InsufficientQuantityError{Shortfalls: shortfalls}
		monitoring.ObserveOperation("loan_batch", err)
		return nil, err
	}

	updated := make([]models.Item, len(reqs))
	for i, req := range reqs {
		item := items[i]
		item.Available -= req.Quantity
		item.Loaned += req.Quantity
		if err := checkQuantities(item); err != nil {
			return nil, err
		}
		item.Status = DeriveStatus(item.Available, item.Loaned, item.Damaged)
		if err := l.store.SaveItem(ctx, item); err != nil {
			return nil, err
		}
		updated[i] = *item
	}
	monitoring.ObserveOperation("loan_batch", nil)
	return updated, nil
}

// ReturnAll returns several items in one critical section. Duplicate codes
// are merged the same way LoanAll merges them.
func (l *Ledger) ReturnAll(ctx context.Context, userID string, reqs []ItemRequest) ([]models.Item, error) {
	if len(reqs) == 0 {
		return nil, &ValidationError{Reason: "at least one item is required"}
	}
	reqs = collapseRequests(reqs)

	codes := make([]string, len(reqs))
	for i, req := range reqs {
		codes[i] = req.Code
	}
	unlock := l.locks.lockAll(codes)
	defer unlock()

	updated := make([]models.Item, 0, len(reqs))
	for _, req := range reqs {
		item, err := l.store.ItemByCode(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, &NotFoundError{Kind: "item", ID: req.Code}
		}
		if req.Quantity > item.Loaned {
			return nil, &InvariantViolationError{
				ItemCode: req.Code,
				Reason:   fmt.Sprintf("returning %d units but only %d are loaned", req.Quantity, item.Loaned),
			}
		}
		item.Loaned -= req.Quantity
		item.Available += req.Quantity
		if err := checkQuantities(item); err != nil {
			return nil, err
		}
		item.Status = DeriveStatus(item.Available, item.Loaned, item.Damaged)
		if err := l.store.SaveItem(ctx, item); err != nil {
			return nil, err
		}
		updated = append(updated, *item)
	}
	monitoring.ObserveOperation("return_batch", nil)
	return updated, nil
}

// mutate runs fn against a locked copy of the item, verifies the quantity
// invariant, rederives the status and persists. Nothing is saved if fn
// returns an error, so failed operations leave the item untouched.
func (l *Ledger) mutate(ctx context.Context, code string, fn func(*models.Item) error) (*models.Item, error) {
	unlock := l.locks.lock(code)
	defer unlock()

	item, err := l.store.ItemByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Kind: "item", ID: code}
	}

	if err := fn(item); err != nil {
		return nil, err
	}
	if err := checkQuantities(item); err != nil {
		return nil, err
	}
	item.Status = DeriveStatus(item.Available, item.Loaned, item.Damaged)

	if err := l.store.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (l *Ledger) afterMutation(ctx context.Context, userID, action, code, details string, event events.Event) {
	l.audit.Record(ctx, userID, action, "item", code, details)
	if event.Type != "" {
		l.bus.Publish(event)
	}
}

func (l *Ledger) refreshItemGauge(ctx context.Context) {
	items, err := l.store.Items(ctx, "")
	if err != nil {
		return
	}
	monitoring.SetItemsTracked(len(items))
}
