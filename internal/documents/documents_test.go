package documents

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quartermaster/internal/events"
	"quartermaster/internal/models"
	"quartermaster/internal/storage"
)

func TestGeneratorRendersLoanForm(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateItem(ctx, &models.Item{Code: "CAM-1", Name: "Camera", Total: 3}))
	loan := &models.Loan{
		ItemCode:     "CAM-1",
		Quantity:     2,
		BorrowerName: "Dana Reyes",
		BorrowerType: models.BorrowerEmployee,
		LoanDate:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC),
		Status:       models.LoanStatusOngoing,
	}
	require.NoError(t, store.CreateLoan(ctx, loan))

	g := NewGenerator(store, 10)
	g.handle(ctx, events.Event{Type: events.LoanCreated, LoanID: loan.ID})

	docs := g.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "loan_form", docs[0].Kind)
	assert.NotEmpty(t, docs[0].Number)
	assert.True(t, strings.Contains(docs[0].Body, "Dana Reyes"))
	assert.True(t, strings.Contains(docs[0].Body, "CAM-1"))
	assert.True(t, strings.Contains(docs[0].Body, "2025-05-08"))
}

func TestGeneratorRendersGroupForm(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	group := &models.LoanGroup{
		Reference:    "ref-123",
		BorrowerName: "Facilities",
		BorrowerType: models.BorrowerDepartment,
		LoanDate:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
		Status:       models.LoanStatusOngoing,
	}
	require.NoError(t, store.CreateLoanGroup(ctx, group))
	for _, code := range []string{"A-1", "B-1"} {
		loan := &models.Loan{ItemCode: code, Quantity: 1, GroupID: &group.ID, Status: models.LoanStatusOngoing}
		require.NoError(t, store.CreateLoan(ctx, loan))
	}

	g := NewGenerator(store, 10)
	g.handle(ctx, events.Event{Type: events.GroupCreated, GroupID: group.ID})

	docs := g.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "group_loan_form", docs[0].Kind)
	assert.True(t, strings.Contains(docs[0].Body, "ref-123"))
	assert.True(t, strings.Contains(docs[0].Body, "A-1"))
	assert.True(t, strings.Contains(docs[0].Body, "B-1"))
}

func TestGeneratorRetention(t *testing.T) {
	store := storage.NewMemoryStore()
	g := NewGenerator(store, 2)

	g.append("loan_form", "one")
	g.append("loan_form", "two")
	g.append("loan_form", "three")

	docs := g.Documents()
	require.Len(t, docs, 2)
	// Newest first.
	assert.Equal(t, "three", docs[0].Body)
	assert.Equal(t, "two", docs[1].Body)
}
