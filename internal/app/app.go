// Package app wires the service together and routes API Gateway requests.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/techlab-live/zoho-drive-bridge/internal/adapter"
	"github.com/techlab-live/zoho-drive-bridge/internal/adapter/googledrive"
	"github.com/techlab-live/zoho-drive-bridge/internal/adapter/memory"
	"github.com/techlab-live/zoho-drive-bridge/internal/auth"
	"github.com/techlab-live/zoho-drive-bridge/internal/config"
	"github.com/techlab-live/zoho-drive-bridge/internal/crm"
	"github.com/techlab-live/zoho-drive-bridge/internal/handler"
	"github.com/techlab-live/zoho-drive-bridge/internal/secret"
	"github.com/techlab-live/zoho-drive-bridge/internal/webhook"
)

// SSM parameter names for secrets resolved at startup. In DEV_MODE the env
// resolver maps these to ZOHO_CLIENT_SECRET, WEBHOOK_SECRET, etc.
const (
	clientSecretParam  = "/zoho-drive-bridge/zoho-client-secret"
	refreshTokenParam  = "/zoho-drive-bridge/zoho-refresh-token"
	webhookSecretParam = "/zoho-drive-bridge/webhook-secret"
	privateKeyParam    = "/zoho-drive-bridge/google-private-key"
)

// Services holds the wired components, shared by the HTTP entry points and
// the poller CLI.
type Services struct {
	Config    *config.Config
	Auth      *auth.Service
	CRM       *crm.Client
	Folders   adapter.FolderService
	Processor *webhook.Processor
}

// NewServices builds the dependency graph from configuration.
func NewServices(ctx context.Context) (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var resolver secret.Resolver
	if cfg.DevMode {
		resolver = secret.NewEnvResolver()
		log.Printf("Using EnvResolver (DEV_MODE=true)")
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(awsCfg))
		log.Printf("Using SSMResolver (SSM Parameter Store)")
	}

	// Secrets resolved through the resolver override any plain-env values
	// from config.Load. All of them are optional at startup; operations
	// that need a missing one fail at call time.
	if v, err := resolver.GetSecret(ctx, clientSecretParam); err == nil {
		cfg.ZohoClientSecret = v
	} else if cfg.ZohoClientSecret == "" {
		log.Printf("WARNING: failed to resolve zoho client secret: %v", err)
	}
	if v, err := resolver.GetSecret(ctx, refreshTokenParam); err == nil {
		cfg.ZohoRefreshToken = v
	}
	if v, err := resolver.GetSecret(ctx, webhookSecretParam); err == nil {
		cfg.WebhookSecret = v
	}
	if v, err := resolver.GetSecret(ctx, privateKeyParam); err == nil {
		cfg.GooglePrivateKey = v
	}

	authService := auth.NewService(
		cfg.ZohoClientID,
		cfg.ZohoClientSecret,
		cfg.ZohoRedirectURI,
		cfg.ZohoAccountsURL,
		cfg.ZohoRefreshToken,
	)
	crmClient := crm.New(authService, cfg.ZohoAPIURL)

	var folders adapter.FolderService
	if cfg.DevMode {
		folders = memory.NewFolderService()
		log.Printf("Using in-memory folder service (DEV_MODE=true)")
	} else {
		client, err := googledrive.NewServiceAccountClient(ctx, cfg.GoogleServiceAccountEmail, cfg.GooglePrivateKey)
		if err != nil {
			return nil, fmt.Errorf("google drive credentials: %w", err)
		}
		folders, err = googledrive.NewFolderService(ctx, client, cfg.DriveParentFolderID)
		if err != nil {
			return nil, fmt.Errorf("google drive service: %w", err)
		}
	}

	processor := webhook.NewProcessor(folders, crmClient, webhook.Options{
		DeploymentDate: cfg.DeploymentDate,
		LinkField:      cfg.DriveLinkField,
		AppendNotes:    cfg.AppendNotes,
	})

	return &Services{
		Config:    cfg,
		Auth:      authService,
		CRM:       crmClient,
		Folders:   folders,
		Processor: processor,
	}, nil
}

// App routes API Gateway requests to the handlers.
type App struct {
	authHandler    *handler.AuthHandler
	webhookHandler *handler.WebhookHandler
	systemHandler  *handler.SystemHandler
}

// NewApp initializes the application. It panics on unrecoverable
// configuration errors, which fails the Lambda cold start loudly.
func NewApp(ctx context.Context) *App {
	svcs, err := NewServices(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to initialize application: %v", err))
	}
	return newApp(svcs)
}

func newApp(svcs *Services) *App {
	return &App{
		authHandler:    handler.NewAuthHandler(svcs.Auth),
		webhookHandler: handler.NewWebhookHandler(svcs.Processor, svcs.Config.WebhookSecret),
		systemHandler:  handler.NewSystemHandler(svcs.CRM),
	}
}

// HandleRequest routes an API Gateway request to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	log.Printf("Request: %s %s", method, path)

	switch {
	case path == "/" && method == http.MethodGet:
		return must(app.systemHandler.Home(ctx, req)), nil
	case path == "/health" && method == http.MethodGet:
		return must(app.systemHandler.Health(ctx, req)), nil
	case path == "/test" && method == http.MethodGet:
		return must(app.systemHandler.Test(ctx, req)), nil
	case path == "/auth" && method == http.MethodGet:
		return must(app.authHandler.AuthURL(ctx, req)), nil
	case path == "/oauth/callback" && method == http.MethodGet:
		return must(app.authHandler.Callback(ctx, req)), nil
	case (path == "/status" || path == "/auth/status") && method == http.MethodGet:
		return must(app.authHandler.Status(ctx, req)), nil
	case path == "/zoho-webhook" && method == http.MethodPost:
		return must(app.webhookHandler.Handle(ctx, req)), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error":"Endpoint not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}, nil
}

// must unwraps a handler response, converting an error into a 500.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		log.Printf("Handler error: %v", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}
