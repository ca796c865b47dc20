// Package auth manages the Zoho OAuth2 flow: the authorization URL, the
// code exchange, and keeping a fresh access token for CRM calls.
package auth

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	authPath  = "/oauth/v2/auth"
	tokenPath = "/oauth/v2/token"

	// crmScope grants access to all CRM modules, matching the webhook's needs.
	crmScope = "ZohoCRM.modules.ALL"

	// expiryMargin treats tokens as expired this long before the provider
	// does, so a token never dies mid-request.
	expiryMargin = 5 * time.Minute
)

// Service handles the OAuth2 flows against the Zoho accounts server and owns
// the process-lifetime TokenStore.
type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string

	store *TokenStore

	// mu guards accountsURL and serializes the refresh-check-and-update
	// sequence so concurrent requests trigger at most one provider call.
	mu          sync.Mutex
	accountsURL string

	now func() time.Time
}

// NewService creates a Service. accountsURL is the Zoho accounts server base
// (e.g. https://accounts.zoho.com); refreshToken optionally bootstraps the
// store so the service can mint access tokens without a fresh authorization.
func NewService(clientID, clientSecret, redirectURI, accountsURL, refreshToken string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		store:        NewTokenStore(refreshToken),
		accountsURL:  accountsURL,
		now:          time.Now,
	}
}

// ClientID exposes the configured client id for handler-level checks.
func (s *Service) ClientID() string { return s.clientID }

func (s *Service) config(accountsURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURI,
		Scopes:       []string{crmScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   accountsURL + authPath,
			TokenURL:  accountsURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthURL returns the provider authorization URL the operator opens in a
// browser. access_type=offline and prompt=consent make Zoho return a
// refresh token.
func (s *Service) AuthURL() string {
	s.mu.Lock()
	accountsURL := s.accountsURL
	s.mu.Unlock()

	return s.config(accountsURL).AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode exchanges an authorization code for a token pair and stores
// it. accountsServer is the dynamic accounts-server query parameter Zoho
// sends to the callback; when non-empty it overrides the configured base and
// is remembered for subsequent refreshes.
func (s *Service) ExchangeCode(ctx context.Context, code, accountsServer string) (Token, error) {
	s.mu.Lock()
	if accountsServer != "" {
		s.accountsURL = accountsServer
	}
	accountsURL := s.accountsURL
	s.mu.Unlock()

	tok, err := s.config(accountsURL).Exchange(ctx, code)
	if err != nil {
		return Token{}, &ExchangeError{Err: err}
	}

	stored := Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	s.store.Set(stored)
	log.Printf("oauth code exchange successful, token expires at %s", stored.ExpiresAt.Format(time.RFC3339))
	return s.store.Get(), nil
}

// AccessToken returns a bearer token for CRM calls, refreshing it first when
// missing or within the expiry margin. Fresh tokens are returned without a
// network call.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := s.store.Get()
	if tok.AccessToken != "" && s.now().Add(expiryMargin).Before(tok.ExpiresAt) {
		return tok.AccessToken, nil
	}

	if tok.RefreshToken == "" {
		return "", &RefreshError{Err: ErrNoRefreshToken}
	}

	refreshed, err := s.config(s.accountsURL).TokenSource(ctx, &oauth2.Token{
		RefreshToken: tok.RefreshToken,
	}).Token()
	if err != nil {
		return "", &RefreshError{Err: err}
	}

	s.store.Set(Token{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		ExpiresAt:    refreshed.Expiry,
	})
	log.Printf("zoho access token refreshed, expires at %s", refreshed.Expiry.Format(time.RFC3339))
	return refreshed.AccessToken, nil
}

// Status describes the stored token without exposing its value.
type Status struct {
	HasTokens bool    `json:"hasTokens"`
	IsExpired *bool   `json:"isExpired"`
	ExpiresAt *string `json:"expiresAt"`
}

// TokenStatus reports whether tokens are present and expired. IsExpired and
// ExpiresAt are null until a token has been issued.
func (s *Service) TokenStatus() Status {
	tok := s.store.Get()
	st := Status{
		HasTokens: tok.AccessToken != "" && tok.RefreshToken != "",
	}
	if !tok.ExpiresAt.IsZero() {
		expired := !s.now().Before(tok.ExpiresAt)
		expiresAt := tok.ExpiresAt.UTC().Format(time.RFC3339)
		st.IsExpired = &expired
		st.ExpiresAt = &expiresAt
	}
	return st
}
