package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"quartermaster/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by the server when no
// database is configured. Records are copied on the way in and out so
// callers never share memory with the store.
type MemoryStore struct {
	mu sync.RWMutex

	items      map[string]*models.Item
	loans      map[uint]*models.Loan
	groups     map[uint]*models.LoanGroup
	events     []*models.LifecycleEvent
	activities []*models.ActivityEntry

	nextItemID  uint
	nextLoanID  uint
	nextGroupID uint
	nextEventID uint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]*models.Item),
		loans:  make(map[uint]*models.Loan),
		groups: make(map[uint]*models.LoanGroup),
	}
}

func (s *MemoryStore) CreateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.Code]; exists {
		return fmt.Errorf("item %q already exists", item.Code)
	}
	s.nextItemID++
	item.ID = s.nextItemID
	cp := *item
	s.items[item.Code] = &cp
	return nil
}

func (s *MemoryStore) ItemByCode(ctx context.Context, code string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[code]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (s *MemoryStore) Items(ctx context.Context, status models.ItemStatus) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Item
	for _, item := range s.items {
		if status != "" && item.Status != status {
			continue
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items, nil
}

func (s *MemoryStore) SaveItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.Code]; !ok {
		return fmt.Errorf("item %q does not exist", item.Code)
	}
	cp := *item
	s.items[item.Code] = &cp
	return nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, code)
	return nil
}

func (s *MemoryStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLoanID++
	loan.ID = s.nextLoanID
	cp := *loan
	s.loans[loan.ID] = &cp
	return nil
}

func (s *MemoryStore) SaveLoan(ctx context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[loan.ID]; !ok {
		return fmt.Errorf("loan %d does not exist", loan.ID)
	}
	cp := *loan
	s.loans[loan.ID] = &cp
	return nil
}

func (s *MemoryStore) LoanByID(ctx context.Context, id uint) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[id]
	if !ok {
		return nil, nil
	}
	cp := *loan
	return &cp, nil
}

func (s *MemoryStore) Loans(ctx context.Context) ([]models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var loans []models.Loan
	for _, loan := range s.loans {
		loans = append(loans, *loan)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

func (s *MemoryStore) LoansByGroup(ctx context.Context, groupID uint) ([]models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var loans []models.Loan
	for _, loan := range s.loans {
		if loan.GroupID != nil && *loan.GroupID == groupID {
			loans = append(loans, *loan)
		}
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

func (s *MemoryStore) OpenLoanCount(ctx context.Context, itemCode string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, loan := range s.loans {
		if loan.ItemCode == itemCode && loan.Status == models.LoanStatusOngoing {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateLoanGroup(ctx context.Context, group *models.LoanGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGroupID++
	group.ID = s.nextGroupID
	cp := *group
	s.groups[group.ID] = &cp
	return nil
}

func (s *MemoryStore) SaveLoanGroup(ctx context.Context, group *models.LoanGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.ID]; !ok {
		return fmt.Errorf("loan group %d does not exist", group.ID)
	}
	cp := *group
	s.groups[group.ID] = &cp
	return nil
}

func (s *MemoryStore) LoanGroupByID(ctx context.Context, id uint) (*models.LoanGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	cp := *group
	return &cp, nil
}

func (s *MemoryStore) LoanGroups(ctx context.Context) ([]models.LoanGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []models.LoanGroup
	for _, group := range s.groups {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (s *MemoryStore) AppendLifecycleEvent(ctx context.Context, event *models.LifecycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	event.ID = s.nextEventID
	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

func (s *MemoryStore) LifecycleHistory(ctx context.Context, itemCode string) ([]models.LifecycleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.LifecycleEvent
	for _, event := range s.events {
		if event.ItemCode == itemCode {
			events = append(events, *event)
		}
	}
	// Newest first.
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.After(events[j].Date)
		}
		return events[i].ID > events[j].ID
	})
	return events, nil
}

func (s *MemoryStore) AppendActivity(ctx context.Context, entry *models.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	cp.ID = uint(len(s.activities) + 1)
	s.activities = append(s.activities, &cp)
	return nil
}

func (s *MemoryStore) Activity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.ActivityEntry
	for i := len(s.activities) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) >= limit {
			break
		}
		entries = append(entries, *s.activities[i])
	}
	return entries, nil
}
