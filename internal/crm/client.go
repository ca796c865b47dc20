// Package crm is an authenticated client for the Zoho CRM v2 record API.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiBasePath = "/crm/v2/"

	// requestTimeout bounds every outbound CRM call so a hung provider
	// cannot hang a webhook request indefinitely.
	requestTimeout = 30 * time.Second
)

// TokenSource supplies a valid Zoho access token, refreshing as needed.
// *auth.Service satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// RequestError reports a non-2xx response from the CRM API.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("zoho api request failed: status %d: %s", e.Status, e.Body)
}

// Client talks to the Zoho CRM API with Zoho-oauthtoken bearer auth.
type Client struct {
	tokens     TokenSource
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. baseURL is the Zoho API host, e.g.
// https://www.zohoapis.com.
func New(tokens TokenSource, baseURL string) *Client {
	return &Client{
		tokens:     tokens,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Request performs an authenticated call against the CRM API and decodes the
// JSON response. path is relative to /crm/v2/. A nil payload sends no body.
func (c *Client) Request(ctx context.Context, method, path string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiBasePath+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zoho api request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Status: resp.StatusCode, Body: string(data)}
	}

	// Zoho returns 204 with an empty body for empty result sets.
	if len(data) == 0 {
		return nil, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return decoded, nil
}

// GetDeal fetches a deal record by id.
func (c *Client) GetDeal(ctx context.Context, dealID string) (map[string]any, error) {
	return c.Request(ctx, http.MethodGet, "Deals/"+dealID, nil)
}

// UpdateDeal patches the given fields on a deal. Last write wins; Zoho's
// update API has no optimistic-concurrency check.
func (c *Client) UpdateDeal(ctx context.Context, dealID string, fields map[string]any) (map[string]any, error) {
	record := map[string]any{"id": dealID}
	for k, v := range fields {
		record[k] = v
	}
	payload := map[string]any{"data": []map[string]any{record}}
	return c.Request(ctx, http.MethodPut, "Deals/"+dealID, payload)
}

// AppendNote appends noteText to the deal's Notes field, separated from the
// existing content by a blank line. The read-then-write is not atomic;
// concurrent appends to the same deal may lose one of the notes.
func (c *Client) AppendNote(ctx context.Context, dealID, noteText string) (map[string]any, error) {
	deal, err := c.GetDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("get deal for note append: %w", err)
	}

	existing := existingNotes(deal)
	updated := noteText
	if existing != "" {
		updated = existing + "\n\n" + noteText
	}

	return c.UpdateDeal(ctx, dealID, map[string]any{"Notes": updated})
}

// ListDeals fetches deal records with the given field selection, for the
// backfill poller.
func (c *Client) ListDeals(ctx context.Context, fields []string) ([]map[string]any, error) {
	path := "Deals?fields=" + url.QueryEscape(strings.Join(fields, ","))
	resp, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	raw, ok := resp["data"].([]any)
	if !ok {
		return nil, nil
	}
	deals := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if deal, ok := r.(map[string]any); ok {
			deals = append(deals, deal)
		}
	}
	return deals, nil
}

// TestConnection probes the org endpoint and returns the organization name.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	resp, err := c.Request(ctx, http.MethodGet, "org", nil)
	if err != nil {
		return "", err
	}
	if orgs, ok := resp["org"].([]any); ok && len(orgs) > 0 {
		if org, ok := orgs[0].(map[string]any); ok {
			if name, ok := org["name"].(string); ok {
				return name, nil
			}
		}
	}
	return "Unknown", nil
}

// existingNotes pulls data[0].Notes out of a get-deal response, tolerating
// any missing level.
func existingNotes(deal map[string]any) string {
	data, ok := deal["data"].([]any)
	if !ok || len(data) == 0 {
		return ""
	}
	record, ok := data[0].(map[string]any)
	if !ok {
		return ""
	}
	notes, _ := record["Notes"].(string)
	return notes
}
