package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/techlab-live/zoho-drive-bridge/internal/adapter"
	"github.com/techlab-live/zoho-drive-bridge/internal/webhook"
)

type folderRecorder struct {
	calls    int
	failWith error
}

func (f *folderRecorder) CreateFolder(_ context.Context, name string, _ adapter.FolderMetadata) (*adapter.Folder, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &adapter.Folder{
		ID:   "folder-1",
		Name: adapter.SanitizeFolderName(name),
		Link: "https://drive.google.com/drive/folders/folder-1",
	}, nil
}

func (f *folderRecorder) GetFolder(context.Context, string) (*adapter.Folder, error) {
	return nil, adapter.ErrNotFound
}

func (f *folderRecorder) ListFolders(context.Context, int64) ([]adapter.Folder, error) {
	return nil, nil
}

type crmRecorder struct {
	updateErr error
}

func (c *crmRecorder) UpdateDeal(context.Context, string, map[string]any) (map[string]any, error) {
	return nil, c.updateErr
}

func (c *crmRecorder) AppendNote(context.Context, string, string) (map[string]any, error) {
	return nil, nil
}

func newTestHandler(folders *folderRecorder, crm *crmRecorder, secret string) *WebhookHandler {
	proc := webhook.NewProcessor(folders, crm, webhook.Options{
		DeploymentDate: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		LinkField:      "Google_Drive_Link",
		AppendNotes:    true,
	})
	return NewWebhookHandler(proc, secret)
}

func webhookRequest(body string, headers map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		Path:       "/zoho-webhook",
		HTTPMethod: http.MethodPost,
		Headers:    headers,
		Body:       body,
	}
}

func signBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

const validBody = `{"Deal_Name":"Acme Corp - Q1","Deal_ID":"123","Stage":"Qualification","Amount":"50000","Created_Time":"2025-09-01T00:00:00Z"}`

func TestHandle_Success(t *testing.T) {
	h := newTestHandler(&folderRecorder{}, &crmRecorder{}, "")

	resp, err := h.Handle(context.Background(), webhookRequest(validBody, nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	var body map[string]any
	json.Unmarshal([]byte(resp.Body), &body)
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body)
	}
	if body["folderId"] != "folder-1" {
		t.Errorf("expected folderId, got %v", body)
	}
	if body["dealUpdated"] != true {
		t.Errorf("expected dealUpdated=true, got %v", body)
	}
}

func TestHandle_MissingDealName(t *testing.T) {
	folders := &folderRecorder{}
	h := newTestHandler(folders, &crmRecorder{}, "")

	resp, err := h.Handle(context.Background(), webhookRequest(`{}`, nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if folders.calls != 0 {
		t.Error("expected no folder creation side effect")
	}
}

func TestHandle_InvalidJSON(t *testing.T) {
	h := newTestHandler(&folderRecorder{}, &crmRecorder{}, "")

	resp, _ := h.Handle(context.Background(), webhookRequest(`{not json`, nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandle_SkippedBeforeCutoff(t *testing.T) {
	folders := &folderRecorder{}
	h := newTestHandler(folders, &crmRecorder{}, "")

	body := `{"Deal_Name":"Old Deal","Deal_ID":"9","Created_Time":"2025-07-31T23:59:59Z"}`
	resp, _ := h.Handle(context.Background(), webhookRequest(body, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var decoded map[string]any
	json.Unmarshal([]byte(resp.Body), &decoded)
	if decoded["skipped"] != true {
		t.Errorf("expected skipped=true, got %v", decoded)
	}
	if folders.calls != 0 {
		t.Error("expected no folder creation for skipped event")
	}
}

func TestHandle_FolderCreationFailure(t *testing.T) {
	folders := &folderRecorder{failWith: &adapter.CreationError{Name: "x", Err: errors.New("quota")}}
	h := newTestHandler(folders, &crmRecorder{}, "")

	resp, _ := h.Handle(context.Background(), webhookRequest(validBody, nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

func TestHandle_PartialFailure(t *testing.T) {
	h := newTestHandler(&folderRecorder{}, &crmRecorder{updateErr: errors.New("crm down")}, "")

	resp, _ := h.Handle(context.Background(), webhookRequest(validBody, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for partial failure, got %d", resp.StatusCode)
	}

	var body map[string]any
	json.Unmarshal([]byte(resp.Body), &body)
	if body["dealUpdated"] != false {
		t.Errorf("expected dealUpdated=false, got %v", body)
	}
	if body["folderId"] != "folder-1" {
		t.Errorf("expected folder id in partial response, got %v", body)
	}
}

func TestHandle_SignatureValidation(t *testing.T) {
	secret := "shared-secret"

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing signature", nil, http.StatusUnauthorized},
		{"wrong signature", map[string]string{"X-Zoho-Signature": signBody(validBody, "other")}, http.StatusUnauthorized},
		{"valid signature", map[string]string{"X-Zoho-Signature": signBody(validBody, secret)}, http.StatusOK},
		{"valid signature, lowercase header", map[string]string{"x-zoho-signature": signBody(validBody, secret)}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&folderRecorder{}, &crmRecorder{}, secret)
			resp, _ := h.Handle(context.Background(), webhookRequest(validBody, tt.headers))
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestHandle_NoSecretAcceptsAll(t *testing.T) {
	h := newTestHandler(&folderRecorder{}, &crmRecorder{}, "")

	resp, _ := h.Handle(context.Background(), webhookRequest(validBody, map[string]string{
		"X-Zoho-Signature": "garbage",
	}))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with validation disabled, got %d", resp.StatusCode)
	}
}
