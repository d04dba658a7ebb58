package loans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quartermaster/internal/audit"
	"quartermaster/internal/events"
	"quartermaster/internal/ledger"
	"quartermaster/internal/models"
	"quartermaster/internal/storage"
)

func newTestService(t *testing.T) (*Service, *ledger.Ledger) {
	t.Helper()
	store := storage.NewMemoryStore()
	bus := events.NewBus()
	l := ledger.New(store, bus, audit.Nop{})
	return NewService(store, l, bus, audit.Nop{}), l
}

func register(t *testing.T, l *ledger.Ledger, code string, total int) {
	t.Helper()
	err := l.Register(context.Background(), "tester", &models.Item{
		Code:  code,
		Name:  "Test " + code,
		Total: total,
	})
	require.NoError(t, err)
}

func borrower() BorrowerInfo {
	return BorrowerInfo{Name: "Dana Reyes", Type: models.BorrowerEmployee, Contact: "dana@example.org"}
}

func dates() DateRange {
	return DateRange{DueDate: time.Now().Add(7 * 24 * time.Hour)}
}

func TestCreateLoanValidation(t *testing.T) {
	s, l := newTestService(t)
	ctx := context.Background()
	register(t, l, "CAM-1", 3)

	var validation *ledger.ValidationError

	_, err := s.CreateLoan(ctx, "tester", "CAM-1", 1, BorrowerInfo{}, dates())
	require.ErrorAs(t, err, &validation)

	_, err = s.CreateLoan(ctx, "tester", "CAM-1", 1,
		BorrowerInfo{Name: "Dana", Type: "alien"}, dates())
	require.ErrorAs(t, err, &validation)

	_, err = s.CreateLoan(ctx, "tester", "CAM-1", 1, borrower(), DateRange{})
	require.ErrorAs(t, err, &validation)
}

func TestCreateAndReturnLoan(t *testing.T) {
	s, l := newTestService(t)
	ctx := context.Background()
	register(t, l, "CAM-1", 3)

	loan, err := s.CreateLoan(ctx, "tester", "CAM-1", 2, borrower(), dates())
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusOngoing, loan.Status)
	assert.Nil(t, loan.ReturnedAt)

	item, err := l.Item(ctx, "CAM-1")
	require.NoError(t, err)
	assert.Equal(t, 1, item.Available)
	assert.Equal(t, 2, item.Loaned)

	returned, err := s.ReturnLoan(ctx, "tester", loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)

	item, err = l.Item(ctx, "CAM-1")
	require.NoError(t, err)
	assert.Equal(t, 3, item.Available)
	assert.Equal(t, 0, item.Loaned)

	// Second return is rejected and changes nothing.
	_, err = s.ReturnLoan(ctx, "tester", loan.ID)
	var alreadyReturned *ledger.AlreadyReturnedError
	require.ErrorAs(t, err, &alreadyReturned)

	item, err = l.Item(ctx, "CAM-1")
	require.NoError(t, err)
	assert.Equal(t, 3, item.Available)
}

func TestCreateGroupAllOrNothing(t *testing.T) {
	s, l := newTestService(t)
	ctx := context.Background()
	register(t, l, "A-1", 5)
	register(t, l, "B-1", 1)

	// Exhaust item B.
	_, err := l.Loan(ctx, "tester", "B-1", 1)
	require.NoError(t, err)

	_, _, err = s.CreateGroup(ctx, "tester", borrower(), dates(), []ledger.ItemRequest{
		{Code: "A-1", Quantity: 1},
		{Code: "B-1", Quantity: 1},
	})
	var insufficientErr *ledger.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientErr)
	require.Len(t, insufficientErr.Shortfalls, 1)
	assert.Equal(t, "B-1", insufficientErr.Shortfalls[0].ItemCode)

	itemA, err := l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 5, itemA.Available, "item A must be untouched after the failed group")

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups, "no group record may exist after a failed creation")
}

func TestGroupWithDuplicateItemLines(t *testing.T) {
	s, l := newTestService(t)
	ctx := context.Background()
	register(t, l, "A-1", 5)

	// 3+3 of a 5-unit item exceeds the pool even though each line fits.
	_, _, err := s.CreateGroup(ctx, "tester", borrower(), dates(), []ledger.ItemRequest{
		{Code: "A-1", Quantity: 3},
		{Code: "A-1", Quantity: 3},
	})
	var insufficientErr *ledger.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientErr)

	item, err := l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Available)
	assert.Equal(t, 0, item.Loaned)

	// Within the pool both lines go out as separate loans, and the group
	// returns cleanly without over-crediting.
	group, created, err := s.CreateGroup(ctx, "tester", borrower(), dates(), []ledger.ItemRequest{
		{Code: "A-1", Quantity: 2},
		{Code: "A-1", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	item, err = l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 1, item.Available)
	assert.Equal(t, 4, item.Loaned)

	_, err = s.ReturnGroup(ctx, "tester", group.ID)
	require.NoError(t, err)

	item, err = l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Available)
	assert.Equal(t, 0, item.Loaned)
}

func TestLoanCreationAuditedOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	bus := events.NewBus()
	auditLog := audit.NewStoreLogger(store)
	l := ledger.New(store, bus, auditLog)
	s := NewService(store, l, bus, auditLog)
	ctx := context.Background()

	register(t, l, "CAM-1", 3)

	_, err := s.CreateLoan(ctx, "tester", "CAM-1", 1, borrower(), dates())
	require.NoError(t, err)

	// One user action, one activity entry (newest first).
	entries, err := store.Activity(ctx, 0)
	require.NoError(t, err)
	var actions []string
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	assert.Equal(t, []string{"create_loan", "register"}, actions)
}

func TestReturnGroupIdempotent(t *testing.T) {
	s, l := newTestService(t)
	ctx := context.Background()
	register(t, l, "A-1", 5)
	register(t, l, "B-1", 4)

	group, created, err := s.CreateGroup(ctx, "tester", borrower(), dates(), []ledger.ItemRequest{
		{Code: "A-1", Quantity: 2},
		{Code: "B-1", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, loan := range created {
		assert.Equal(t, models.LoanStatusOngoing, loan.Status)
		require.NotNil(t, loan.GroupID)
		assert.Equal(t, group.ID, *loan.GroupID)
	}

	itemA, err := l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 3, itemA.Available)

	returned, err := s.ReturnGroup(ctx, "tester", group.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusReturned, returned.Status)

	itemA, err = l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 5, itemA.Available)
	itemB, err := l.Item(ctx, "B-1")
	require.NoError(t, err)
	assert.Equal(t, 4, itemB.Available)

	_, loansAfter, err := s.Group(ctx, group.ID)
	require.NoError(t, err)
	for _, loan := range loansAfter {
		assert.Equal(t, models.LoanStatusReturned, loan.Status)
	}

	// Re-invocation fails and must not double-credit the items.
	_, err = s.ReturnGroup(ctx, "tester", group.ID)
	var alreadyReturned *ledger.AlreadyReturnedError
	require.ErrorAs(t, err, &alreadyReturned)

	itemA, err = l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 5, itemA.Available)
	assert.Equal(t, 0, itemA.Loaned)
}

func TestReturnGroupSkipsAlreadyReturnedLoans(t *testing.T) {
	s, l := newTestService(t)
	ctx := context.Background()
	register(t, l, "A-1", 5)
	register(t, l, "B-1", 4)

	group, created, err := s.CreateGroup(ctx, "tester", borrower(), dates(), []ledger.ItemRequest{
		{Code: "A-1", Quantity: 2},
		{Code: "B-1", Quantity: 1},
	})
	require.NoError(t, err)

	// One loan comes back early on its own.
	_, err = s.ReturnLoan(ctx, "tester", created[0].ID)
	require.NoError(t, err)

	_, err = s.ReturnGroup(ctx, "tester", group.ID)
	require.NoError(t, err)

	itemA, err := l.Item(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 5, itemA.Available, "early single return must not be credited twice")
}

func TestOverdueIsReadTimeOnly(t *testing.T) {
	now := time.Now()
	loan := models.Loan{
		Status:  models.LoanStatusOngoing,
		DueDate: now.Add(-24 * time.Hour),
	}
	assert.Equal(t, models.DisplayOverdue, loan.DisplayStatus(now))
	assert.Equal(t, models.LoanStatusOngoing, loan.Status, "stored status must stay ongoing")

	loan.DueDate = now.Add(24 * time.Hour)
	assert.Equal(t, string(models.LoanStatusOngoing), loan.DisplayStatus(now))

	group := models.LoanGroup{
		Status:  models.LoanStatusOngoing,
		DueDate: now.Add(-time.Hour),
	}
	assert.Equal(t, models.DisplayOverdue, group.DisplayStatus(now))
}
