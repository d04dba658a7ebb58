package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quartermaster/internal/audit"
	"quartermaster/internal/documents"
	"quartermaster/internal/events"
	"quartermaster/internal/history"
	"quartermaster/internal/ledger"
	"quartermaster/internal/loans"
	"quartermaster/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(secret string) *Server {
	store := storage.NewMemoryStore()
	bus := events.NewBus()
	auditLog := audit.NewStoreLogger(store)
	l := ledger.New(store, bus, auditLog)
	loanSvc := loans.NewService(store, l, bus, auditLog)
	recorder := history.NewRecorder(store, l, auditLog)
	docs := documents.NewGenerator(store, 10)
	return NewServer(l, loanSvc, recorder, docs, store, bus, secret)
}

func performRequest(s *Server, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func registerItem(t *testing.T, s *Server, code string, total int) {
	t.Helper()
	w := performRequest(s, http.MethodPost, "/api/v1/items", gin.H{
		"code":  code,
		"name":  "Test " + code,
		"total": total,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegisterAndGetItem(t *testing.T) {
	s := newTestServer("")

	w := performRequest(s, http.MethodPost, "/api/v1/items", gin.H{
		"code":     "CAM-1",
		"name":     "Camera",
		"category": "electronics",
		"total":    3,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(s, http.MethodGet, "/api/v1/items/CAM-1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var item struct {
		Code      string `json:"code"`
		Available int    `json:"available"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "CAM-1", item.Code)
	assert.Equal(t, 3, item.Available)
	assert.Equal(t, "available", item.Status)
}

func TestRegisterItemValidation(t *testing.T) {
	s := newTestServer("")

	w := performRequest(s, http.MethodPost, "/api/v1/items", gin.H{
		"code": "CAM-1", "name": "Camera", "total": 0,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownItemReturns404(t *testing.T) {
	s := newTestServer("")

	w := performRequest(s, http.MethodGet, "/api/v1/items/NOPE", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoanInsufficientReturns409(t *testing.T) {
	s := newTestServer("")
	registerItem(t, s, "CAM-1", 1)

	w := performRequest(s, http.MethodPost, "/api/v1/loans", gin.H{
		"item_code": "CAM-1",
		"quantity":  2,
		"borrower":  gin.H{"name": "Dana", "type": "employee"},
		"due_date":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, "")
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var payload struct {
		Shortfalls []ledger.Shortfall `json:"shortfalls"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload.Shortfalls, 1)
	assert.Equal(t, 2, payload.Shortfalls[0].Requested)
	assert.Equal(t, 1, payload.Shortfalls[0].Available)

	// The failed loan must not touch the item.
	w = performRequest(s, http.MethodGet, "/api/v1/items/CAM-1", nil, "")
	var item struct {
		Available int `json:"available"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, 1, item.Available)
}

func TestGroupReturnIsIdempotent(t *testing.T) {
	s := newTestServer("")
	registerItem(t, s, "A-1", 5)
	registerItem(t, s, "B-1", 4)

	w := performRequest(s, http.MethodPost, "/api/v1/loan-groups", gin.H{
		"borrower": gin.H{"name": "Facilities", "type": "department"},
		"due_date": time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
		"items": []gin.H{
			{"code": "A-1", "quantity": 2},
			{"code": "B-1", "quantity": 1},
		},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Group struct {
			ID uint `json:"ID"`
		} `json:"group"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.Group.ID)

	w = performRequest(s, http.MethodPost, "/api/v1/loan-groups/1/return", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(s, http.MethodPost, "/api/v1/loan-groups/1/return", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performRequest(s, http.MethodGet, "/api/v1/items/A-1", nil, "")
	var item struct {
		Available int `json:"available"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, 5, item.Available)
}

func TestLifecycleEndpointValidation(t *testing.T) {
	s := newTestServer("")
	registerItem(t, s, "PRN-1", 5)

	w := performRequest(s, http.MethodPost, "/api/v1/items/PRN-1/lifecycle", gin.H{
		"statuses": []string{"decommissioned"},
		"date":     time.Now().Format(time.RFC3339),
		"reason":   "",
		"quantity": 1,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(s, http.MethodPost, "/api/v1/items/PRN-1/lifecycle", gin.H{
		"statuses": []string{"decommissioned"},
		"date":     time.Now().Format(time.RFC3339),
		"reason":   "end of life",
		"quantity": 2,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(s, http.MethodGet, "/api/v1/items/PRN-1/history", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []struct {
		Quantity int `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Quantity)
}

func TestAuthMiddleware(t *testing.T) {
	secret := "test-secret"
	s := newTestServer(secret)

	w := performRequest(s, http.MethodGet, "/api/v1/items", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u7"})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	w = performRequest(s, http.MethodGet, "/api/v1/items", nil, signed)
	assert.Equal(t, http.StatusOK, w.Code)

	// Mutations are attributed to the token subject in the audit trail.
	w = performRequest(s, http.MethodPost, "/api/v1/items", gin.H{
		"code": "CAM-1", "name": "Camera", "total": 2,
	}, signed)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(s, http.MethodGet, "/api/v1/activity", nil, signed)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []struct {
		UserID string `json:"user_id"`
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, "u7", entries[0].UserID)
	assert.Equal(t, "register", entries[0].Action)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer("")

	w := performRequest(s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
