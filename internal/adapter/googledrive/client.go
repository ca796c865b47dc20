package googledrive

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"
)

// NewServiceAccountClient builds an authenticated http.Client from service
// account credentials. privateKey is the PEM block from the service account
// key file.
func NewServiceAccountClient(ctx context.Context, email, privateKey string) (*http.Client, error) {
	if email == "" || privateKey == "" {
		return nil, fmt.Errorf("service account email and private key are required")
	}
	cfg := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{drive.DriveScope},
		TokenURL:   google.JWTTokenURL,
	}
	return cfg.Client(ctx), nil
}
