// Package provider implements the upstream identity providers used for
// federated login.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/domain"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Config holds the per-provider OAuth client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Google implements the authorization-code flow against Google, reading
// the profile from the userinfo endpoint after the code exchange.
type Google struct {
	config Config
	client *http.Client

	authURL     string
	tokenURL    string
	userinfoURL string
}

func NewGoogle(config Config) *Google {
	return &Google{
		config:      config,
		client:      &http.Client{Timeout: 10 * time.Second},
		authURL:     googleAuthURL,
		tokenURL:    googleTokenURL,
		userinfoURL: googleUserinfoURL,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthorizeURL(state, codeChallenge string) string {
	q := url.Values{
		"client_id":             {g.config.ClientID},
		"redirect_uri":          {g.config.RedirectURL},
		"response_type":         {"code"},
		"scope":                 {"openid email profile"},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return g.authURL + "?" + q.Encode()
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func (g *Google) Exchange(ctx context.Context, code, codeVerifier string) (domain.Profile, error) {
	accessToken, err := g.exchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return domain.Profile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return domain.Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.Profile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("google userinfo: status %d", resp.StatusCode)
	}

	var user googleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return domain.Profile{}, err
	}

	return domain.Profile{
		Provider: g.Name(),
		Subject:  user.ID,
		Email:    user.Email,
		Verified: user.VerifiedEmail,
		Name:     strings.TrimSpace(user.GivenName + " " + user.FamilyName),
	}, nil
}

func (g *Google) exchangeCode(ctx context.Context, code, codeVerifier string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {g.config.ClientID},
		"client_secret": {g.config.ClientSecret},
		"redirect_uri":  {g.config.RedirectURL},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google token exchange: status %d", resp.StatusCode)
	}

	var token googleTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("google token exchange: empty access token")
	}
	return token.AccessToken, nil
}
