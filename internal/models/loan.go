package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Loan records some quantity of one item being lent to a borrower for a
// bounded period. A loan is mutated exactly once, on return.
type Loan struct {
	gorm.Model
	ItemCode        string       `gorm:"index;not null" json:"item_code"`
	Quantity        int          `gorm:"not null" json:"quantity"`
	BorrowerName    string       `gorm:"not null" json:"borrower_name"`
	BorrowerType    BorrowerType `json:"borrower_type"`
	BorrowerContact string       `json:"borrower_contact,omitempty"`
	LoanDate        time.Time    `json:"loan_date"`
	DueDate         time.Time    `json:"due_date"`
	ReturnedAt      *time.Time   `json:"returned_at,omitempty"`
	Status          LoanStatus   `json:"status"`
	GroupID         *uint        `gorm:"index" json:"group_id,omitempty"`
}

// LoanGroup is a borrower-scoped envelope for loans created together,
// sharing one loan date, due date and status. Returning a group returns
// every contained loan.
type LoanGroup struct {
	gorm.Model
	Reference       string       `gorm:"unique_index" json:"reference"`
	BorrowerName    string       `gorm:"not null" json:"borrower_name"`
	BorrowerType    BorrowerType `json:"borrower_type"`
	BorrowerContact string       `json:"borrower_contact,omitempty"`
	LoanDate        time.Time    `json:"loan_date"`
	DueDate         time.Time    `json:"due_date"`
	ReturnedAt      *time.Time   `json:"returned_at,omitempty"`
	Status          LoanStatus   `json:"status"`
}

// LoanStatus represents the stored state of a loan or loan group
type LoanStatus string

const (
	// Loan statuses; the only transition is Ongoing -> Returned
	LoanStatusOngoing  LoanStatus = "ongoing"
	LoanStatusReturned LoanStatus = "returned"
)

// DisplayOverdue is the read-time annotation for an ongoing loan past its
// due date. Never persisted.
const DisplayOverdue = "overdue"

// BorrowerType represents the kind of party an item is loaned to
type BorrowerType string

const (
	// Borrower types
	BorrowerEmployee   BorrowerType = "employee"
	BorrowerDepartment BorrowerType = "department"
	BorrowerContractor BorrowerType = "contractor"
	BorrowerExternal   BorrowerType = "external"
)

// ValidBorrowerTypes lists the accepted borrower type values.
var ValidBorrowerTypes = map[BorrowerType]bool{
	BorrowerEmployee:   true,
	BorrowerDepartment: true,
	BorrowerContractor: true,
	BorrowerExternal:   true,
}

// DisplayStatus returns the stored status, annotated as overdue when the
// loan is still ongoing past its due date.
func (l *Loan) DisplayStatus(now time.Time) string {
	if l.Status == LoanStatusOngoing && now.After(l.DueDate) {
		return DisplayOverdue
	}
	return string(l.Status)
}

// DisplayStatus returns the stored status, annotated as overdue when the
// group is still ongoing past its due date.
func (g *LoanGroup) DisplayStatus(now time.Time) string {
	if g.Status == LoanStatusOngoing && now.After(g.DueDate) {
		return DisplayOverdue
	}
	return string(g.Status)
}
