package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the Quartermaster API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("QUARTERMASTER_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("QUARTERMASTER_TOKEN"),
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}

	return true, nil
}

func (c *ApiClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// Item mirrors the API item payload.
type Item struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Total     int     `json:"total"`
	Available int     `json:"available"`
	Loaned    int     `json:"loaned"`
	Damaged   int     `json:"damaged"`
	Status    string  `json:"status"`
	Price     float64 `json:"price,omitempty"`
	Location  string  `json:"location,omitempty"`
}

// ListItems fetches all items, optionally filtered by status.
func (c *ApiClient) ListItems(status string) ([]Item, error) {
	path := "/items"
	if status != "" {
		path += "?status=" + status
	}
	var items []Item
	if err := c.do(http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RegisterItem registers a new item.
func (c *ApiClient) RegisterItem(item Item) (*Item, error) {
	var created Item
	if err := c.do(http.MethodPost, "/items", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkDamaged marks units of an item damaged.
func (c *ApiClient) MarkDamaged(code string, qty int, reason string) (*Item, error) {
	var item Item
	body := map[string]interface{}{"quantity": qty, "reason": reason}
	if err := c.do(http.MethodPost, "/items/"+code+"/damage", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// MarkRepaired marks units of an item repaired.
func (c *ApiClient) MarkRepaired(code string, qty int, reason string) (*Item, error) {
	var item Item
	body := map[string]interface{}{"quantity": qty, "reason": reason}
	if err := c.do(http.MethodPost, "/items/"+code+"/repair", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateLoan issues a single-item loan.
func (c *ApiClient) CreateLoan(itemCode string, qty int, borrower, borrowerType, due string) error {
	dueDate, err := time.Parse("2006-01-02", due)
	if err != nil {
		return fmt.Errorf("parsing due date: %w", err)
	}
	body := map[string]interface{}{
		"item_code": itemCode,
		"quantity":  qty,
		"borrower":  map[string]string{"name": borrower, "type": borrowerType},
		"due_date":  dueDate.Format(time.RFC3339),
	}
	return c.do(http.MethodPost, "/loans", body, nil)
}

// ReturnLoan returns a loan by id.
func (c *ApiClient) ReturnLoan(id string) error {
	return c.do(http.MethodPost, "/loans/"+id+"/return", nil, nil)
}

// ReturnGroup returns a loan group by id.
func (c *ApiClient) ReturnGroup(id string) error {
	return c.do(http.MethodPost, "/loan-groups/"+id+"/return", nil, nil)
}
