// Package client provides an HTTP client for the SFA mobile API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/sfa-backend/internal/catalog"
	"github.com/evcraddock/sfa-backend/internal/visit"
)

// Client is an HTTP client for the SFA API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty until Login is called.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// LoginResponse is the response from POST /login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

// SubmitResponse is the response from POST /SUBMIT_VISIT.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login exchanges credentials for a token and uses it for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.post(ctx, "/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// Features returns the active features.
func (c *Client) Features(ctx context.Context) ([]catalog.Feature, error) {
	var features []catalog.Feature
	if err := c.get(ctx, "/FEATURE", &features); err != nil {
		return nil, err
	}
	return features, nil
}

// DetailsWithSubs returns a feature's details with nested sub-details.
func (c *Client) DetailsWithSubs(ctx context.Context, featureID string) ([]catalog.DetailWithSubs, error) {
	var details []catalog.DetailWithSubs
	if err := c.get(ctx, "/DETAIL_WITH_SUB/"+url.PathEscape(featureID), &details); err != nil {
		return nil, err
	}
	return details, nil
}

// SubmitVisit sends a visit submission. payload is any JSON-encodable value,
// typically a *visit.Payload or a json.RawMessage read from disk.
func (c *Client) SubmitVisit(ctx context.Context, payload interface{}) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.post(ctx, "/SUBMIT_VISIT", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetVisit returns a stored visit with its checklist entries.
func (c *Client) GetVisit(ctx context.Context, visitID string) (*visit.Visit, error) {
	var v visit.Visit
	if err := c.get(ctx, "/visits/"+url.PathEscape(visitID), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = "server error: " + http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
