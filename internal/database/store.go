package database

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"

	"quartermaster/internal/models"
)

// GormStore implements storage.Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.db.Create(item).Error; err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

func (s *GormStore) ItemByCode(ctx context.Context, code string) (*models.Item, error) {
	var item models.Item
	err := s.db.Where("code = ?", code).First(&item).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &item, nil
}

func (s *GormStore) Items(ctx context.Context, status models.ItemStatus) ([]models.Item, error) {
	var items []models.Item
	query := s.db.Order("code")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

func (s *GormStore) SaveItem(ctx context.Context, item *models.Item) error {
	if err := s.db.Save(item).Error; err != nil {
		return fmt.Errorf("saving item: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteItem(ctx context.Context, code string) error {
	// Hard delete. A soft-deleted row would keep holding the unique code and
	// block re-registration after a full removal.
	if err := s.db.Unscoped().Where("code = ?", code).Delete(&models.Item{}).Error; err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

func (s *GormStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if err := s.db.Create(loan).Error; err != nil {
		return fmt.Errorf("creating loan: %w", err)
	}
	return nil
}

func (s *GormStore) SaveLoan(ctx context.Context, loan *models.Loan) error {
	if err := s.db.Save(loan).Error; err != nil {
		return fmt.Errorf("saving loan: %w", err)
	}
	return nil
}

func (s *GormStore) LoanByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.First(&loan, id).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting loan: %w", err)
	}
	return &loan, nil
}

func (s *GormStore) Loans(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	if err := s.db.Order("id").Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}
	return loans, nil
}

func (s *GormStore) LoansByGroup(ctx context.Context, groupID uint) ([]models.Loan, error) {
	var loans []models.Loan
	if err := s.db.Where("group_id = ?", groupID).Order("id").Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("listing group loans: %w", err)
	}
	return loans, nil
}

func (s *GormStore) OpenLoanCount(ctx context.Context, itemCode string) (int, error) {
	var count int
	err := s.db.Model(&models.Loan{}).
		Where("item_code = ? AND status = ?", itemCode, models.LoanStatusOngoing).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting open loans: %w", err)
	}
	return count, nil
}

func (s *GormStore) CreateLoanGroup(ctx context.Context, group *models.LoanGroup) error {
	if err := s.db.Create(group).Error; err != nil {
		return fmt.Errorf("creating loan group: %w", err)
	}
	return nil
}

func (s *GormStore) SaveLoanGroup(ctx context.Context, group *models.LoanGroup) error {
	if err := s.db.Save(group).Error; err != nil {
		return fmt.Errorf("saving loan group: %w", err)
	}
	return nil
}

func (s *GormStore) LoanGroupByID(ctx context.Context, id uint) (*models.LoanGroup, error) {
	var group models.LoanGroup
	err := s.db.First(&group, id).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting loan group: %w", err)
	}
	return &group, nil
}

func (s *GormStore) LoanGroups(ctx context.Context) ([]models.LoanGroup, error) {
	var groups []models.LoanGroup
	if err := s.db.Order("id").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("listing loan groups: %w", err)
	}
	return groups, nil
}

func (s *GormStore) AppendLifecycleEvent(ctx context.Context, event *models.LifecycleEvent) error {
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("appending lifecycle event: %w", err)
	}
	return nil
}

func (s *GormStore) LifecycleHistory(ctx context.Context, itemCode string) ([]models.LifecycleEvent, error) {
	var events []models.LifecycleEvent
	err := s.db.Where("item_code = ?", itemCode).
		Order("date DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("listing lifecycle history: %w", err)
	}
	return events, nil
}

func (s *GormStore) AppendActivity(ctx context.Context, entry *models.ActivityEntry) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}

func (s *GormStore) Activity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	query := s.db.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
