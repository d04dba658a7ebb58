// Package storage defines the persistence boundary of the inventory core.
//
// Lookup methods return (nil, nil) when the record does not exist; callers
// decide whether that is an error. All implementations must be safe for
// concurrent use, but serialization of conflicting item mutations is the
// ledger's job, not the store's.
package storage

import (
	"context"

	"quartermaster/internal/models"
)

// Store is the repository the core packages are wired against.
type Store interface {
	CreateItem(ctx context.Context, item *models.Item) error
	ItemByCode(ctx context.Context, code string) (*models.Item, error)
	Items(ctx context.Context, status models.ItemStatus) ([]models.Item, error)
	SaveItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, code string) error

	CreateLoan(ctx context.Context, loan *models.Loan) error
	SaveLoan(ctx context.Context, loan *models.Loan) error
	LoanByID(ctx context.Context, id uint) (*models.Loan, error)
	Loans(ctx context.Context) ([]models.Loan, error)
	LoansByGroup(ctx context.Context, groupID uint) ([]models.Loan, error)
	OpenLoanCount(ctx context.Context, itemCode string) (int, error)

	CreateLoanGroup(ctx context.Context, group *models.LoanGroup) error
	SaveLoanGroup(ctx context.Context, group *models.LoanGroup) error
	LoanGroupByID(ctx context.Context, id uint) (*models.LoanGroup, error)
	LoanGroups(ctx context.Context) ([]models.LoanGroup, error)

	AppendLifecycleEvent(ctx context.Context, event *models.LifecycleEvent) error
	LifecycleHistory(ctx context.Context, itemCode string) ([]models.LifecycleEvent, error)

	AppendActivity(ctx context.Context, entry *models.ActivityEntry) error
	Activity(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}
