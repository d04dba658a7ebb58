// Package documents generates human-readable loan forms. It subscribes to
// the event bus rather than being called from the loan path, so loan
// creation and document generation stay decoupled.
package documents

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quartermaster/internal/events"
	"quartermaster/internal/models"
	"quartermaster/internal/storage"
)

// Document is one generated loan form.
type Document struct {
	Number    string    `json:"number"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Generator renders loan forms off the event bus and keeps the most recent
// ones retrievable.
type Generator struct {
	store storage.Store

	mu   sync.RWMutex
	docs []Document
	max  int
}

// NewGenerator creates a generator retaining up to max documents.
func NewGenerator(store storage.Store, max int) *Generator {
	if max <= 0 {
		max = 100
	}
	return &Generator{store: store, max: max}
}

// Run consumes loan events until the context is cancelled.
func (g *Generator) Run(ctx context.Context, bus *events.Bus) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			g.handle(ctx, event)
		}
	}
}

func (g *Generator) handle(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.LoanCreated:
		loan, err := g.store.LoanByID(ctx, event.LoanID)
		if err != nil || loan == nil {
			log.Printf("documents: loan %d unavailable: %v", event.LoanID, err)
			return
		}
		item, err := g.store.ItemByCode(ctx, loan.ItemCode)
		if err != nil || item == nil {
			log.Printf("documents: item %s unavailable: %v", loan.ItemCode, err)
			return
		}
		g.append("loan_form", g.renderLoan(loan, item))
	case events.GroupCreated:
		group, err := g.store.LoanGroupByID(ctx, event.GroupID)
		if err != nil || group == nil {
			log.Printf("documents: group %d unavailable: %v", event.GroupID, err)
			return
		}
		groupLoans, err := g.store.LoansByGroup(ctx, event.GroupID)
		if err != nil {
			log.Printf("documents: group %d loans unavailable: %v", event.GroupID, err)
			return
		}
		g.append("group_loan_form", g.renderGroup(group, groupLoans))
	}
}

func (g *Generator) append(kind, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.docs = append(g.docs, Document{
		Number:    uuid.New().String(),
		Kind:      kind,
		Body:      body,
		CreatedAt: time.Now(),
	})
	if len(g.docs) > g.max {
		g.docs = g.docs[len(g.docs)-g.max:]
	}
}

// Documents returns the retained documents, newest first.
func (g *Generator) Documents() []Document {
	g.mu.RLock()
	defer g.mu.RUnlock()

	docs := make([]Document, len(g.docs))
	for i, doc := range g.docs {
		docs[len(g.docs)-1-i] = doc
	}
	return docs
}

func (g *Generator) renderLoan(loan *models.Loan, item *models.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "LOAN FORM\n")
	fmt.Fprintf(&b, "Borrower: %s (%s)\n", loan.BorrowerName, loan.BorrowerType)
	if loan.BorrowerContact != "" {
		fmt.Fprintf(&b, "Contact:  %s\n", loan.BorrowerContact)
	}
	fmt.Fprintf(&b, "Item:     %s - %s\n", item.Code, item.Name)
	fmt.Fprintf(&b, "Quantity: %d\n", loan.Quantity)
	fmt.Fprintf(&b, "Loaned:   %s\n", loan.LoanDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Due:      %s\n", loan.DueDate.Format("2006-01-02"))
	return b.String()
}

func (g *Generator) renderGroup(group *models.LoanGroup, groupLoans []models.Loan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GROUP LOAN FORM %s\n", group.Reference)
	fmt.Fprintf(&b, "Borrower: %s (%s)\n", group.BorrowerName, group.BorrowerType)
	if group.BorrowerContact != "" {
		fmt.Fprintf(&b, "Contact:  %s\n", group.BorrowerContact)
	}
	fmt.Fprintf(&b, "Loaned:   %s\n", group.LoanDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Due:      %s\n", group.DueDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Items:\n")
	for _, loan := range groupLoans {
		fmt.Fprintf(&b, "  %d x %s\n", loan.Quantity, loan.ItemCode)
	}
	return b.String()
}
