// Package loans manages loan records and the loan group aggregator. The
// quantity side of every operation goes through the ledger; this package
// owns the Ongoing -> Returned state machine of loans and groups.
package loans

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quartermaster/internal/audit"
	"quartermaster/internal/events"
	"quartermaster/internal/ledger"
	"quartermaster/internal/models"
	"quartermaster/internal/storage"
)

// Service creates and returns loans and loan groups.
type Service struct {
	store  storage.Store
	ledger *ledger.Ledger
	bus    *events.Bus
	audit  audit.Logger

	// Serializes state transitions on loan and group records so a
	// double-return cannot slip through between the status check and the
	// save. Item quantities are protected separately by the ledger.
	mu sync.Mutex

	now func() time.Time
}

// NewService wires the loan service.
func NewService(store storage.Store, l *ledger.Ledger, bus *events.Bus, auditLog audit.Logger) *Service {
	return &Service{
		store:  store,
		ledger: l,
		bus:    bus,
		audit:  auditLog,
		now:    time.Now,
	}
}

// BorrowerInfo identifies the party items are loaned to.
type BorrowerInfo struct {
	Name    string              `json:"name"`
	Type    models.BorrowerType `json:"type"`
	Contact string              `json:"contact,omitempty"`
}

// DateRange carries the loan date and expected return date.
type DateRange struct {
	LoanDate time.Time `json:"loan_date"`
	DueDate  time.Time `json:"due_date"`
}

func validateBorrower(b BorrowerInfo) error {
	if strings.TrimSpace(b.Name) == "" {
		return &ledger.ValidationError{Reason: "borrower name is required"}
	}
	if !models.ValidBorrowerTypes[b.Type] {
		return &ledger.ValidationError{Reason: fmt.Sprintf("unknown borrower type %q", b.Type)}
	}
	return nil
}

func (s *Service) normalizeDates(d DateRange) (DateRange, error) {
	if d.LoanDate.IsZero() {
		d.LoanDate = s.now()
	}
	if d.DueDate.IsZero() {
		return d, &ledger.ValidationError{Reason: "expected return date is required"}
	}
	if d.DueDate.Before(d.LoanDate) {
		return d, &ledger.ValidationError{Reason: "expected return date precedes loan date"}
	}
	return d, nil
}

// CreateLoan issues a single-item loan.
func (s *Service) CreateLoan(ctx context.Context, userID, itemCode string, qty int, borrower BorrowerInfo, dates DateRange) (*models.Loan, error) {
	if err := validateBorrower(borrower); err != nil {
		return nil, err
	}
	dates, err := s.normalizeDates(dates)
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.Loan(ctx, userID, itemCode, qty); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		ItemCode:        itemCode,
		Quantity:        qty,
		BorrowerName:    borrower.Name,
		BorrowerType:    borrower.Type,
		BorrowerContact: borrower.Contact,
		LoanDate:        dates.LoanDate,
		DueDate:         dates.DueDate,
		Status:          models.LoanStatusOngoing,
	}
	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, "create_loan", "loan", fmt.Sprint(loan.ID),
		fmt.Sprintf("loaned %d x %s to %s", qty, itemCode, borrower.Name))
	s.bus.Publish(events.Event{
		Type:     events.LoanCreated,
		ItemCode: itemCode,
		Quantity: qty,
		LoanID:   loan.ID,
		UserID:   userID,
	})
	return loan, nil
}

// ReturnLoan returns a single loan. Returning twice fails with
// AlreadyReturnedError and leaves quantities untouched.
func (s *Service) ReturnLoan(ctx context.Context, userID string, id uint) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.store.LoanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, &ledger.NotFoundError{Kind: "loan", ID: fmt.Sprint(id)}
	}
	if loan.Status == models.LoanStatusReturned {
		return nil, &ledger.AlreadyReturnedError{Kind: "loan", ID: id}
	}

	if _, err := s.ledger.Return(ctx, userID, loan.ItemCode, loan.Quantity); err != nil {
		return nil, err
	}

	returnedAt := s.now()
	loan.ReturnedAt = &returnedAt
	loan.Status = models.LoanStatusReturned
	if err := s.store.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, "return_loan", "loan", fmt.Sprint(loan.ID),
		fmt.Sprintf("returned %d x %s", loan.Quantity, loan.ItemCode))
	s.bus.Publish(events.Event{
		Type:     events.LoanReturned,
		ItemCode: loan.ItemCode,
		Quantity: loan.Quantity,
		LoanID:   loan.ID,
		UserID:   userID,
	})
	return loan, nil
}

// Loans lists all loan records.
func (s *Service) Loans(ctx context.Context) ([]models.Loan, error) {
	return s.store.Loans(ctx)
}

// CreateGroup issues one loan per requested item under a single group
// envelope. Availability of every item is validated before anything
// mutates; if any item falls short the whole request fails with every
// shortfall listed and no quantities change.
func (s *Service) CreateGroup(ctx context.Context, userID string, borrower BorrowerInfo, dates DateRange, reqs []ledger.ItemRequest) (*models.LoanGroup, []models.Loan, error) {
	if err := validateBorrower(borrower); err != nil {
		return nil, nil, err
	}
	dates, err := s.normalizeDates(dates)
	if err != nil {
		return nil, nil, err
	}
	if len(reqs) == 0 {
		return nil, nil, &ledger.ValidationError{Reason: "at least one item is required"}
	}

	if _, err := s.ledger.LoanAll(ctx, userID, reqs); err != nil {
		return nil, nil, err
	}

	group := &models.LoanGroup{
		Reference:       uuid.New().String(),
		BorrowerName:    borrower.Name,
		BorrowerType:    borrower.Type,
		BorrowerContact: borrower.Contact,
		LoanDate:        dates.LoanDate,
		DueDate:         dates.DueDate,
		Status:          models.LoanStatusOngoing,
	}
	if err := s.store.CreateLoanGroup(ctx, group); err != nil {
		return nil, nil, err
	}

	created := make([]models.Loan, 0, len(reqs))
	for _, req := range reqs {
		loan := &models.Loan{
			ItemCode:        req.Code,
			Quantity:        req.Quantity,
			BorrowerName:    borrower.Name,
			BorrowerType:    borrower.Type,
			BorrowerContact: borrower.Contact,
			LoanDate:        dates.LoanDate,
			DueDate:         dates.DueDate,
			Status:          models.LoanStatusOngoing,
			GroupID:         &group.ID,
		}
		if err := s.store.CreateLoan(ctx, loan); err != nil {
			return nil, nil, err
		}
		created = append(created, *loan)
	}

	s.audit.Record(ctx, userID, "create_group", "loan_group", fmt.Sprint(group.ID),
		fmt.Sprintf("loaned %d items to %s", len(created), borrower.Name))
	s.bus.Publish(events.Event{
		Type:    events.GroupCreated,
		GroupID: group.ID,
		UserID:  userID,
	})
	return group, created, nil
}

// ReturnGroup returns every ongoing loan in the group and marks the group
// returned. Idempotent against re-invocation: a second call fails with
// AlreadyReturnedError and changes nothing.
func (s *Service) ReturnGroup(ctx context.Context, userID string, id uint) (*models.LoanGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, err := s.store.LoanGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, &ledger.NotFoundError{Kind: "loan group", ID: fmt.Sprint(id)}
	}
	if group.Status == models.LoanStatusReturned {
		return nil, &ledger.AlreadyReturnedError{Kind: "loan group", ID: id}
	}

	groupLoans, err := s.store.LoansByGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	var open []models.Loan
	var reqs []ledger.ItemRequest
	for _, loan := range groupLoans {
		if loan.Status != models.LoanStatusOngoing {
			continue
		}
		open = append(open, loan)
		reqs = append(reqs, ledger.ItemRequest{Code: loan.ItemCode, Quantity: loan.Quantity})
	}

	if len(reqs) > 0 {
		if _, err := s.ledger.ReturnAll(ctx, userID, reqs); err != nil {
			return nil, err
		}
	}

	returnedAt := s.now()
	for i := range open {
		open[i].ReturnedAt = &returnedAt
		open[i].Status = models.LoanStatusReturned
		if err := s.store.SaveLoan(ctx, &open[i]); err != nil {
			return nil, err
		}
	}

	group.ReturnedAt = &returnedAt
	group.Status = models.LoanStatusReturned
	if err := s.store.SaveLoanGroup(ctx, group); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, "return_group", "loan_group", fmt.Sprint(group.ID),
		fmt.Sprintf("returned %d loans", len(open)))
	s.bus.Publish(events.Event{
		Type:    events.GroupReturned,
		GroupID: group.ID,
		UserID:  userID,
	})
	return group, nil
}

// Group returns one group and its loans.
func (s *Service) Group(ctx context.Context, id uint) (*models.LoanGroup, []models.Loan, error) {
	group, err := s.store.LoanGroupByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, &ledger.NotFoundError{Kind: "loan group", ID: fmt.Sprint(id)}
	}
	groupLoans, err := s.store.LoansByGroup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return group, groupLoans, nil
}

// Groups lists all loan groups.
func (s *Service) Groups(ctx context.Context) ([]models.LoanGroup, error) {
	return s.store.LoanGroups(ctx)
}
