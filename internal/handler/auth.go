package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/techlab-live/zoho-drive-bridge/internal/auth"
)

// AuthHandler serves the operator-facing OAuth endpoints.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(s *auth.Service) *AuthHandler {
	return &AuthHandler{authService: s}
}

// AuthURL returns the Zoho authorization URL the operator opens manually.
func (h *AuthHandler) AuthURL(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if h.authService.ClientID() == "" {
		return errorResponse(http.StatusBadRequest, "ZOHO_CLIENT_ID is not set"), nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"message": "OAuth2 Authorization URL",
		"authUrl": h.authService.AuthURL(),
		"instructions": []string{
			"1. Open the authUrl in your browser",
			"2. Authorize the application in Zoho",
			"3. You will be redirected to /oauth/callback",
			"4. Copy the refresh token into your configuration",
		},
	}), nil
}

// Callback handles the OAuth2 redirect from Zoho and exchanges the code.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	q := req.QueryStringParameters
	code := q["code"]
	accountsServer := q["accounts-server"]

	if errParam := q["error"]; errParam != "" {
		return jsonResponse(http.StatusBadRequest, map[string]string{
			"error":   "OAuth authorization failed",
			"details": errParam,
		}), nil
	}

	if code == "" || accountsServer == "" {
		return jsonResponse(http.StatusBadRequest, map[string]any{
			"error": "Missing authorization code or accounts-server",
			"received": map[string]bool{
				"code":           code != "",
				"accountsServer": accountsServer != "",
			},
		}), nil
	}

	token, err := h.authService.ExchangeCode(ctx, code, accountsServer)
	if err != nil {
		log.Printf("ExchangeCode error: %v", err)
		return jsonResponse(http.StatusInternalServerError, map[string]string{
			"error":   "Token exchange failed",
			"details": err.Error(),
		}), nil
	}

	// Never echo token values back; presence markers only.
	return jsonResponse(http.StatusOK, map[string]any{
		"success": true,
		"message": "OAuth2 authorization completed successfully",
		"tokens": map[string]string{
			"accessToken":  presence(token.AccessToken),
			"refreshToken": presence(token.RefreshToken),
		},
	}), nil
}

// Status reports token presence and expiry without exposing token values.
func (h *AuthHandler) Status(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(http.StatusOK, h.authService.TokenStatus()), nil
}

func presence(value string) string {
	if value == "" {
		return "***MISSING***"
	}
	return "***RECEIVED***"
}
