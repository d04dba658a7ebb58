package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quartermaster/internal/history"
	"quartermaster/internal/ledger"
	"quartermaster/internal/models"
)

// Item handlers

func (s *Server) RegisterItem(c *gin.Context) {
	var req struct {
		Code     string  `json:"code"`
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Total    int     `json:"total"`
		Price    float64 `json:"price"`
		Location string  `json:"location"`
		Notes    string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &models.Item{
		Code:     req.Code,
		Name:     req.Name,
		Category: req.Category,
		Total:    req.Total,
		Price:    req.Price,
		Location: req.Location,
		Notes:    req.Notes,
	}
	if err := s.Ledger.Register(c.Request.Context(), userID(c), item); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (s *Server) ListItems(c *gin.Context) {
	status := models.ItemStatus(c.Query("status"))
	items, err := s.Ledger.Items(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (s *Server) GetItem(c *gin.Context) {
	item, err := s.Ledger.Item(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) UpdateItem(c *gin.Context) {
	var update ledger.MetadataUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.Ledger.UpdateMetadata(c.Request.Context(), userID(c), c.Param("code"), update)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) MarkDamaged(c *gin.Context) {
	var req struct {
		Quantity int    `json:"quantity"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.Ledger.MarkDamaged(c.Request.Context(), userID(c), c.Param("code"), req.Quantity, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) MarkRepaired(c *gin.Context) {
	var req struct {
		Quantity int    `json:"quantity"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.Ledger.MarkRepaired(c.Request.Context(), userID(c), c.Param("code"), req.Quantity, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) PartialRemove(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.Ledger.PartialRemove(c.Request.Context(), userID(c), c.Param("code"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusOK, gin.H{"message": "item fully removed"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) RecordLifecycle(c *gin.Context) {
	var req struct {
		Statuses []models.LifecycleTag `json:"statuses"`
		Date     time.Time             `json:"date"`
		Reason   string                `json:"reason"`
		Quantity int                   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := s.History.RecordLifecycleEvent(c.Request.Context(), userID(c), c.Param("code"), history.EventInput{
		Tags:     req.Statuses,
		Date:     req.Date,
		Reason:   req.Reason,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (s *Server) ListHistory(c *gin.Context) {
	entries, err := s.History.ListHistory(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
