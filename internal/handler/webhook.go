package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/techlab-live/zoho-drive-bridge/internal/webhook"
)

// WebhookHandler receives deal-created webhooks from Zoho.
type WebhookHandler struct {
	processor *webhook.Processor

	// secret enables signature validation when non-empty. An empty secret
	// accepts all webhooks, which NewWebhookHandler warns about.
	secret string
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(processor *webhook.Processor, secret string) *WebhookHandler {
	if secret == "" {
		log.Printf("WARNING: no WEBHOOK_SECRET configured, accepting all webhooks without signature validation")
	}
	return &WebhookHandler{processor: processor, secret: secret}
}

// webhookResponse is the success body for /zoho-webhook.
type webhookResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Skipped     bool   `json:"skipped,omitempty"`
	FolderID    string `json:"folderId,omitempty"`
	DriveLink   string `json:"driveLink,omitempty"`
	DealName    string `json:"dealName,omitempty"`
	DealID      string `json:"dealId,omitempty"`
	DealUpdated bool   `json:"dealUpdated"`
	UpdateError string `json:"updateError,omitempty"`
}

// Handle validates and processes one webhook delivery.
func (h *WebhookHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)

	if h.secret != "" {
		sig := getHeader(req, webhook.SignatureHeader)
		if sig == "" || !webhook.ValidSignature(body, sig, h.secret) {
			return errorResponse(http.StatusUnauthorized, "Invalid webhook signature"), nil
		}
	}

	var ev webhook.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	res, err := h.processor.Process(ctx, ev)
	if err != nil {
		var vErr *webhook.ValidationError
		if errors.As(err, &vErr) {
			return errorResponse(http.StatusBadRequest, vErr.Error()), nil
		}
		log.Printf("webhook processing error: %v", err)
		return jsonResponse(http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"message": err.Error(),
		}), nil
	}

	if res.Skipped {
		return jsonResponse(http.StatusOK, webhookResponse{
			Success: true,
			Skipped: true,
			Message: fmt.Sprintf("Deal %q created before deployment date, skipped", ev.DealName),
			DealID:  ev.DealID,
		}), nil
	}

	return jsonResponse(http.StatusOK, webhookResponse{
		Success:     true,
		Message:     fmt.Sprintf("Folder created for deal: %s", ev.DealName),
		FolderID:    res.FolderID,
		DriveLink:   res.DriveLink,
		DealName:    ev.DealName,
		DealID:      ev.DealID,
		DealUpdated: res.DealUpdated,
		UpdateError: res.UpdateError,
	}), nil
}
