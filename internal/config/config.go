// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the service needs to talk to Zoho and Google Drive.
type Config struct {
	Port string

	// Zoho OAuth2 / CRM
	ZohoClientID     string
	ZohoClientSecret string
	ZohoRedirectURI  string
	ZohoRefreshToken string // optional bootstrap; lets the service refresh without a fresh authorization
	ZohoAccountsURL  string
	ZohoAPIURL       string

	// Google Drive (service account)
	GoogleServiceAccountEmail string
	GooglePrivateKey          string
	DriveParentFolderID       string

	// Webhook pipeline
	WebhookSecret  string // empty disables signature validation
	DeploymentDate time.Time
	DriveLinkField string
	AppendNotes    bool

	DevMode bool
}

// Load reads configuration from the environment, applying defaults.
// Secrets resolved through SSM are filled in afterwards by the caller.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                      getenv("PORT", "3000"),
		ZohoClientID:              os.Getenv("ZOHO_CLIENT_ID"),
		ZohoClientSecret:          os.Getenv("ZOHO_CLIENT_SECRET"),
		ZohoRedirectURI:           getenv("ZOHO_REDIRECT_URI", "https://zoho.techlab.live/oauth/callback"),
		ZohoRefreshToken:          os.Getenv("ZOHO_REFRESH_TOKEN"),
		ZohoAccountsURL:           getenv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.com"),
		ZohoAPIURL:                getenv("ZOHO_API_URL", "https://www.zohoapis.com"),
		GoogleServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		GooglePrivateKey:          normalizePrivateKey(os.Getenv("GOOGLE_PRIVATE_KEY")),
		DriveParentFolderID:       os.Getenv("GOOGLE_DRIVE_PARENT_FOLDER_ID"),
		WebhookSecret:             os.Getenv("WEBHOOK_SECRET"),
		DriveLinkField:            getenv("GOOGLE_DRIVE_LINK_FIELD", "Google_Drive_Link"),
		DevMode:                   os.Getenv("DEV_MODE") == "true",
	}

	appendNotes := true
	if v := os.Getenv("APPEND_NOTES"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid APPEND_NOTES %q: %w", v, err)
		}
		appendNotes = parsed
	}
	cfg.AppendNotes = appendNotes

	// Deals created before this date are never processed. Defaults to the
	// epoch so a fresh install processes everything.
	deploymentDate := time.Unix(0, 0).UTC()
	if v := os.Getenv("DEPLOYMENT_DATE"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEPLOYMENT_DATE %q (want RFC3339): %w", v, err)
		}
		deploymentDate = parsed
	}
	cfg.DeploymentDate = deploymentDate

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// normalizePrivateKey converts the literal "\n" sequences that env files and
// SSM parameters tend to contain into real newlines, so the PEM block parses.
func normalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}
