package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/domain"
)

const (
	appleAuthURL  = "https://appleid.apple.com/auth/authorize"
	appleTokenURL = "https://appleid.apple.com/auth/token"
)

// Apple implements the authorization-code flow against Apple. Apple has
// no userinfo endpoint; the profile comes from the id_token returned by
// the token exchange.
type Apple struct {
	config Config
	client *http.Client

	authURL  string
	tokenURL string
}

func NewApple(config Config) *Apple {
	return &Apple{
		config:   config,
		client:   &http.Client{Timeout: 10 * time.Second},
		authURL:  appleAuthURL,
		tokenURL: appleTokenURL,
	}
}

func (a *Apple) Name() string { return "apple" }

func (a *Apple) AuthorizeURL(state, codeChallenge string) string {
	q := url.Values{
		"client_id":             {a.config.ClientID},
		"redirect_uri":          {a.config.RedirectURL},
		"response_type":         {"code"},
		"scope":                 {"name email"},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return a.authURL + "?" + q.Encode()
}

type appleTokenResponse struct {
	IDToken string `json:"id_token"`
}

type appleIDClaims struct {
	Subject       string    `json:"sub"`
	Email         string    `json:"email"`
	EmailVerified appleBool `json:"email_verified"`
}

// appleBool accepts a JSON bool or the strings "true"/"false"; Apple
// serialises email_verified both ways.
type appleBool bool

func (b *appleBool) UnmarshalJSON(data []byte) error {
	*b = appleBool(strings.Trim(string(data), `"`) == "true")
	return nil
}

func (a *Apple) Exchange(ctx context.Context, code, codeVerifier string) (domain.Profile, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {a.config.ClientID},
		"client_secret": {a.config.ClientSecret},
		"redirect_uri":  {a.config.RedirectURL},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Profile{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.Profile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("apple token exchange: status %d", resp.StatusCode)
	}

	var token appleTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return domain.Profile{}, err
	}

	claims, err := decodeIDToken(token.IDToken)
	if err != nil {
		return domain.Profile{}, err
	}

	return domain.Profile{
		Provider: a.Name(),
		Subject:  claims.Subject,
		Email:    claims.Email,
		Verified: bool(claims.EmailVerified),
	}, nil
}

// decodeIDToken reads the payload of the id_token without verifying its
// signature. The token arrived over TLS directly from Apple's token
// endpoint in a client-secret-authenticated exchange.
func decodeIDToken(idToken string) (appleIDClaims, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return appleIDClaims{}, fmt.Errorf("apple id_token: malformed")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return appleIDClaims{}, fmt.Errorf("apple id_token: %w", err)
	}

	var claims appleIDClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return appleIDClaims{}, fmt.Errorf("apple id_token: %w", err)
	}
	if claims.Subject == "" {
		return appleIDClaims{}, fmt.Errorf("apple id_token: missing subject")
	}
	return claims, nil
}
