package ledger

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NotFoundError reports an unknown item, loan or group id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Shortfall describes one item whose pool cannot cover a request.
type Shortfall struct {
	ItemCode  string `json:"item_code"`
	Pool      string `json:"pool"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientQuantityError reports requests that exceed an item's available
// (or damaged, for repairs) pool. Batch operations report every offending
// item at once.
type InsufficientQuantityError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientQuantityError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("item %s: requested %d, %d %s", s.ItemCode, s.Requested, s.Available, s.Pool)
	}
	return "insufficient quantity: " + strings.Join(parts, "; ")
}

func insufficient(code, pool string, requested, available int) *InsufficientQuantityError {
	return &InsufficientQuantityError{Shortfalls: []Shortfall{{
		ItemCode:  code,
		Pool:      pool,
		Requested: requested,
		Available: available,
	}}}
}

// InvariantViolationError reports an operation that would break the
// available+loaned+damaged == total invariant. Defensive: validated input
// should never reach this.
type InvariantViolationError struct {
	ItemCode string
	Reason   string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation on item %s: %s", e.ItemCode, e.Reason)
}

// AlreadyReturnedError reports a double-return attempt on a loan or group.
type AlreadyReturnedError struct {
	Kind string
	ID   uint
}

func (e *AlreadyReturnedError) Error() string {
	return fmt.Sprintf("%s %d is already returned", e.Kind, e.ID)
}
