package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	googleTokenURL     = "https://oauth2.googleapis.com/token"
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

var (
	// ErrNotConfigured indicates Google sign-in has no client credentials.
	ErrNotConfigured = errors.New("google oauth is not configured")
	// ErrInvalidToken indicates the id_token failed verification.
	ErrInvalidToken = errors.New("invalid google id token")
)

// Identity is the verified subset of a Google id_token we care about.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// GoogleVerifier exchanges authorization codes and verifies id_tokens
// against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	clientID     string
	clientSecret string
	redirectURI  string

	// endpoint 仅测试时覆盖
	tokenURL     string
	tokenInfoURL string
	httpClient   *http.Client
}

func NewGoogleVerifier(clientID, clientSecret, redirectURI string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     googleTokenURL,
		tokenInfoURL: googleTokenInfoURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether client credentials are present.
func (v *GoogleVerifier) Configured() bool {
	return v != nil && v.clientID != "" && v.clientSecret != ""
}

// ExchangeCode trades an authorization code for an id_token.
func (v *GoogleVerifier) ExchangeCode(ctx context.Context, code string) (string, error) {
	if !v.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("authorization code is empty")
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", v.clientID)
	form.Set("client_secret", v.clientSecret)
	form.Set("redirect_uri", v.redirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("google token endpoint returned %d: %s", resp.StatusCode, string(detail))
	}

	var body struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.IDToken == "" {
		return "", fmt.Errorf("google token response has no id_token")
	}
	return body.IDToken, nil
}

// VerifyIDToken validates an id_token remotely and extracts the identity.
// Audience 必须是本应用的 client_id。
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	if !v.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidToken
	}

	endpoint := v.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var claims struct {
		Aud           string `json:"aud"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if claims.Aud != v.clientID {
		return nil, ErrInvalidToken
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		Subject:   claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.Picture,
	}, nil
}
