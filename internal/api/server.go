// Package api exposes the inventory core over REST, following a
// /api/v1-grouped gin router with JSON error payloads.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quartermaster/internal/documents"
	"quartermaster/internal/events"
	"quartermaster/internal/history"
	"quartermaster/internal/ledger"
	"quartermaster/internal/loans"
	"quartermaster/internal/storage"
)

// Server wires the core components into a gin router.
type Server struct {
	Router  *gin.Engine
	Ledger  *ledger.Ledger
	Loans   *loans.Service
	History *history.Recorder
	Docs    *documents.Generator
	Store   storage.Store
	Bus     *events.Bus
}

// NewServer creates the API server and registers all routes.
func NewServer(l *ledger.Ledger, loanSvc *loans.Service, recorder *history.Recorder, docs *documents.Generator, store storage.Store, bus *events.Bus, jwtSecret string) *Server {
	router := gin.Default()

	s := &Server{
		Router:  router,
		Ledger:  l,
		Loans:   loanSvc,
		History: recorder,
		Docs:    docs,
		Store:   store,
		Bus:     bus,
	}

	s.setupRoutes(jwtSecret)
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(jwtSecret string) {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Quartermaster API is running"})
	})

	v1 := s.Router.Group("/api/v1")
	v1.Use(AuthMiddleware(jwtSecret))
	{
		// Item registration and ledger operations
		v1.POST("/items", s.RegisterItem)
		v1.GET("/items", s.ListItems)
		v1.GET("/items/:code", s.GetItem)
		v1.PATCH("/items/:code", s.UpdateItem)
		v1.POST("/items/:code/damage", s.MarkDamaged)
		v1.POST("/items/:code/repair", s.MarkRepaired)
		v1.POST("/items/:code/remove", s.PartialRemove)
		v1.POST("/items/:code/lifecycle", s.RecordLifecycle)
		v1.GET("/items/:code/history", s.ListHistory)

		// Loans
		v1.POST("/loans", s.CreateLoan)
		v1.GET("/loans", s.ListLoans)
		v1.POST("/loans/:id/return", s.ReturnLoan)

		// Loan groups
		v1.POST("/loan-groups", s.CreateGroup)
		v1.GET("/loan-groups", s.ListGroups)
		v1.GET("/loan-groups/:id", s.GetGroup)
		v1.POST("/loan-groups/:id/return", s.ReturnGroup)

		// Generated documents and audit trail
		v1.GET("/documents", s.ListDocuments)
		v1.GET("/activity", s.ListActivity)

		// Live event stream
		v1.GET("/events", s.StreamEvents)
	}
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var validation *ledger.ValidationError
	var notFound *ledger.NotFoundError
	var insufficient *ledger.InsufficientQuantityError
	var alreadyReturned *ledger.AlreadyReturnedError
	var invariant *ledger.InvariantViolationError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "shortfalls": insufficient.Shortfalls})
	case errors.As(err, &alreadyReturned):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &invariant):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func userID(c *gin.Context) string {
	return c.GetString("user_id")
}
