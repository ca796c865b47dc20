package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) AccessToken(context.Context) (string, error) {
	return s.token, s.err
}

func TestRequest_AttachesAuthHeader(t *testing.T) {
	var gotAuth, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok-123"}, ts.URL)
	resp, err := c.Request(context.Background(), http.MethodGet, "org", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if gotAuth != "Zoho-oauthtoken tok-123" {
		t.Errorf("expected Zoho-oauthtoken header, got %q", gotAuth)
	}
	if gotPath != "/crm/v2/org" {
		t.Errorf("expected path /crm/v2/org, got %q", gotPath)
	}
	if resp["ok"] != "true" {
		t.Errorf("unexpected response %v", resp)
	}
}

func TestRequest_TokenError(t *testing.T) {
	wantErr := errors.New("refresh failed")
	c := New(&staticTokens{err: wantErr}, "http://unused.invalid")

	_, err := c.Request(context.Background(), http.MethodGet, "org", nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected token error to propagate, got %v", err)
	}
}

func TestRequest_NonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"INVALID_TOKEN"}`))
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok"}, ts.URL)
	_, err := c.Request(context.Background(), http.MethodGet, "Deals/1", nil)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T: %v", err, err)
	}
	if reqErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", reqErr.Status)
	}
	if reqErr.Body != `{"code":"INVALID_TOKEN"}` {
		t.Errorf("unexpected body %q", reqErr.Body)
	}
}

func TestUpdateDeal_Envelope(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok"}, ts.URL)
	_, err := c.UpdateDeal(context.Background(), "123", map[string]any{"Google_Drive_Link": "https://example"})
	if err != nil {
		t.Fatalf("UpdateDeal failed: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("expected PUT, got %s", gotMethod)
	}

	data, ok := gotBody["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected data envelope with one record, got %v", gotBody)
	}
	record := data[0].(map[string]any)
	if record["id"] != "123" {
		t.Errorf("expected record id 123, got %v", record["id"])
	}
	if record["Google_Drive_Link"] != "https://example" {
		t.Errorf("expected patched field, got %v", record)
	}
}

func TestAppendNote_ConcatenatesExisting(t *testing.T) {
	var updated map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"data": []any{map[string]any{"id": "123", "Notes": "A"}},
			})
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&updated)
			json.NewEncoder(w).Encode(map[string]string{"status": "success"})
		}
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok"}, ts.URL)
	if _, err := c.AppendNote(context.Background(), "123", "B"); err != nil {
		t.Fatalf("AppendNote failed: %v", err)
	}

	record := updated["data"].([]any)[0].(map[string]any)
	if record["Notes"] != "A\n\nB" {
		t.Errorf("expected notes 'A\\n\\nB', got %q", record["Notes"])
	}
}

func TestAppendNote_EmptyExisting(t *testing.T) {
	var updated map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"data": []any{map[string]any{"id": "123"}},
			})
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&updated)
			json.NewEncoder(w).Encode(map[string]string{"status": "success"})
		}
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok"}, ts.URL)
	if _, err := c.AppendNote(context.Background(), "123", "B"); err != nil {
		t.Fatalf("AppendNote failed: %v", err)
	}

	record := updated["data"].([]any)[0].(map[string]any)
	if record["Notes"] != "B" {
		t.Errorf("expected notes 'B', got %q", record["Notes"])
	}
}

func TestListDeals(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fields"); got != "Deal_Name,Created_Time" {
			t.Errorf("unexpected fields param %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []any{
				map[string]any{"Deal_Name": "A"},
				map[string]any{"Deal_Name": "B"},
			},
		})
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok"}, ts.URL)
	deals, err := c.ListDeals(context.Background(), []string{"Deal_Name", "Created_Time"})
	if err != nil {
		t.Fatalf("ListDeals failed: %v", err)
	}
	if len(deals) != 2 {
		t.Fatalf("expected 2 deals, got %d", len(deals))
	}
	if deals[0]["Deal_Name"] != "A" {
		t.Errorf("unexpected first deal %v", deals[0])
	}
}

func TestListDeals_EmptyResult(t *testing.T) {
	// Zoho returns 204 with no body when there are no records.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok"}, ts.URL)
	deals, err := c.ListDeals(context.Background(), []string{"Deal_Name"})
	if err != nil {
		t.Fatalf("ListDeals failed: %v", err)
	}
	if len(deals) != 0 {
		t.Errorf("expected no deals, got %d", len(deals))
	}
}

func TestTestConnection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"org": []any{map[string]any{"name": "Techlab"}},
		})
	}))
	defer ts.Close()

	c := New(&staticTokens{token: "tok"}, ts.URL)
	org, err := c.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	if org != "Techlab" {
		t.Errorf("expected org 'Techlab', got %q", org)
	}
}
