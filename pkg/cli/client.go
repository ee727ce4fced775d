package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a thin HTTP client for the form query API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError carries the HTTP status and message of a failed API call.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, e.Message)
}

// QueryResult mirrors the /v1/query response body.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Errors  []string `json:"errors,omitempty"`
}

// FieldInfo mirrors one entry of the fields listing.
type FieldInfo struct {
	ID        string  `json:"id"`
	FormID    string  `json:"form_id"`
	Label     string  `json:"label"`
	Type      string  `json:"type"`
	Weightage float64 `json:"weightage"`
}

// FunctionInfo mirrors one entry of the functions listing.
type FunctionInfo struct {
	Name       string   `json:"name"`
	Params     []string `json:"params"`
	ReturnType string   `json:"return_type"`
}

// HistoryEntry mirrors one entry of the history listing.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	Statement     string    `json:"statement"`
	StatementType string    `json:"statement_type"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	RowsReturned  int64     `json:"rows_returned"`
	CreatedAt     time.Time `json:"created_at"`
}

// Query executes a statement batch. A failed execution (HTTP 400 with a
// populated errors list) is returned as a result, not an error, so the
// caller can render the error list the same way the API does.
func (c *Client) Query(ctx context.Context, statement string) (*QueryResult, error) {
	body, err := json.Marshal(map[string]string{"statement": statement})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && len(result.Errors) == 0 {
		return nil, &APIError{HTTPStatus: resp.StatusCode, Message: "query failed"}
	}
	return &result, nil
}

func (c *Client) Fields(ctx context.Context, formID string) ([]FieldInfo, error) {
	var out []FieldInfo
	err := c.getJSON(ctx, "/v1/forms/"+url.PathEscape(formID)+"/fields", &out)
	return out, err
}

func (c *Client) Functions(ctx context.Context) ([]FunctionInfo, error) {
	var out []FunctionInfo
	err := c.getJSON(ctx, "/v1/functions", &out)
	return out, err
}

func (c *Client) DropFunction(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/v1/functions/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return apiErrorFromResponse(resp)
	}
	return nil
}

func (c *Client) History(ctx context.Context, statementType, status string, limit int) ([]HistoryEntry, error) {
	params := url.Values{}
	if statementType != "" {
		params.Set("statement_type", statementType)
	}
	if status != "" {
		params.Set("status", status)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := "/v1/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out []HistoryEntry
	err := c.getJSON(ctx, path, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiErrorFromResponse(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiErrorFromResponse(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Message == "" {
		body.Message = resp.Status
	}
	return &APIError{HTTPStatus: resp.StatusCode, Message: body.Message}
}
