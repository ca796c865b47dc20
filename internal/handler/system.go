package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// ConnectionTester probes the CRM API; *crm.Client satisfies it.
type ConnectionTester interface {
	TestConnection(ctx context.Context) (string, error)
}

// SystemHandler serves the informational endpoints.
type SystemHandler struct {
	crm ConnectionTester
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(crm ConnectionTester) *SystemHandler {
	return &SystemHandler{crm: crm}
}

// Home describes the service and its endpoints.
func (h *SystemHandler) Home(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(http.StatusOK, map[string]any{
		"message": "Zoho CRM to Google Drive Integration",
		"status":  "running",
		"endpoints": map[string]string{
			"auth":     "/auth",
			"callback": "/oauth/callback",
			"status":   "/status",
			"test":     "/test",
			"webhook":  "/zoho-webhook",
			"health":   "/health",
		},
	}), nil
}

// Health is the liveness probe.
func (h *SystemHandler) Health(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}), nil
}

// Test verifies the stored tokens against the CRM org endpoint.
func (h *SystemHandler) Test(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	org, err := h.crm.TestConnection(ctx)
	if err != nil {
		return jsonResponse(http.StatusInternalServerError, map[string]string{
			"error":   "Token test failed",
			"details": err.Error(),
		}), nil
	}
	return jsonResponse(http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Access token is valid",
		"organization": org,
	}), nil
}
