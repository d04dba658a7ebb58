package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"quartermaster/internal/ledger"
	"quartermaster/internal/loans"
	"quartermaster/internal/models"
)

// Loan and loan group handlers

type borrowerRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Contact string `json:"contact"`
}

func (r borrowerRequest) info() loans.BorrowerInfo {
	return loans.BorrowerInfo{
		Name:    r.Name,
		Type:    models.BorrowerType(r.Type),
		Contact: r.Contact,
	}
}

func (s *Server) CreateLoan(c *gin.Context) {
	var req struct {
		ItemCode string          `json:"item_code"`
		Quantity int             `json:"quantity"`
		Borrower borrowerRequest `json:"borrower"`
		LoanDate time.Time       `json:"loan_date"`
		DueDate  time.Time       `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := s.Loans.CreateLoan(c.Request.Context(), userID(c), req.ItemCode, req.Quantity,
		req.Borrower.info(), loans.DateRange{LoanDate: req.LoanDate, DueDate: req.DueDate})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loan)
}

func (s *Server) ListLoans(c *gin.Context) {
	allLoans, err := s.Loans.Loans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	out := make([]gin.H, len(allLoans))
	for i := range allLoans {
		out[i] = gin.H{
			"loan":           allLoans[i],
			"display_status": allLoans[i].DisplayStatus(now),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) ReturnLoan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}

	loan, err := s.Loans.ReturnLoan(c.Request.Context(), userID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loan)
}

func (s *Server) CreateGroup(c *gin.Context) {
	var req struct {
		Borrower borrowerRequest      `json:"borrower"`
		LoanDate time.Time            `json:"loan_date"`
		DueDate  time.Time            `json:"due_date"`
		Items    []ledger.ItemRequest `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, created, err := s.Loans.CreateGroup(c.Request.Context(), userID(c),
		req.Borrower.info(), loans.DateRange{LoanDate: req.LoanDate, DueDate: req.DueDate}, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group, "loans": created})
}

func (s *Server) ListGroups(c *gin.Context) {
	groups, err := s.Loans.Groups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	out := make([]gin.H, len(groups))
	for i := range groups {
		out[i] = gin.H{
			"group":          groups[i],
			"display_status": groups[i].DisplayStatus(now),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) GetGroup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	group, groupLoans, err := s.Loans.Group(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group":          group,
		"loans":          groupLoans,
		"display_status": group.DisplayStatus(time.Now()),
	})
}

func (s *Server) ReturnGroup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	group, err := s.Loans.ReturnGroup(c.Request.Context(), userID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (s *Server) ListDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, s.Docs.Documents())
}

func (s *Server) ListActivity(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := s.Store.Activity(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
