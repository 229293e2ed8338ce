// Package crm talks to the external lead API. The service only depends on
// the request/response shapes; transport details stay behind LeadAPI so
// tests can substitute a fake.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"diagnostic-service/internal/domain"
)

// LeadAPI is the boundary the diagnostic flow calls through. Both calls are
// at-most-once per transition; retries are deliberately absent.
type LeadAPI interface {
	CreateLead(ctx context.Context, profile domain.UserProfile, sourceLabel string) (int64, error)
	UpdateLead(ctx context.Context, leadID int64, description string) error
}

// Client is an HTTP implementation of LeadAPI.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type createLeadRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Employees string `json:"employees,omitempty"`
	Role      string `json:"role,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Source    string `json:"source"`
}

type createLeadResponse struct {
	ID    int64     `json:"id"`
	Error *apiError `json:"error,omitempty"`
}

type updateLeadRequest struct {
	Description string `json:"description"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CreateLead registers a new lead and returns its CRM id.
func (c *Client) CreateLead(ctx context.Context, profile domain.UserProfile, sourceLabel string) (int64, error) {
	body := createLeadRequest{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
		Company:   profile.Company,
		Employees: profile.Employees,
		Role:      profile.Role,
		Phone:     profile.Phone,
		Source:    sourceLabel,
	}

	var parsed createLeadResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/leads", body, &parsed); err != nil {
		return 0, err
	}
	if parsed.Error != nil {
		return 0, fmt.Errorf("crm create lead: %s", parsed.Error.Message)
	}
	if parsed.ID == 0 {
		return 0, fmt.Errorf("crm create lead: response missing id")
	}
	return parsed.ID, nil
}

// UpdateLead attaches the formatted diagnostic summary to an existing lead.
func (c *Client) UpdateLead(ctx context.Context, leadID int64, description string) error {
	url := fmt.Sprintf("%s/leads/%d", c.baseURL, leadID)
	return c.do(ctx, http.MethodPatch, url, updateLeadRequest{Description: description}, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read crm response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode crm response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
