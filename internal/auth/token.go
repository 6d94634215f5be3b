package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token 类型标签，解码时强制校验
const (
	TokenTypeAccess       = "access"
	TokenTypeRefresh      = "refresh"
	TokenTypeSignupVerify = "signup_verify"
	TokenTypeInvite       = "invite"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrWrongTokenUse = errors.New("token type not allowed here")
)

// Claims represents the payload shared by all four token kinds. Access and
// refresh tokens carry the user id in Subject; verification and invite tokens
// carry the target email instead.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject of an access/refresh token. Returns 0 for
// verification tokens and malformed subjects.
func (c *Claims) UserID() uint {
	if c == nil {
		return 0
	}
	var id uint
	if _, err := fmt.Sscanf(c.Subject, "%d", &id); err != nil {
		return 0
	}
	return id
}

// Manager encapsulates signing and validation for all token kinds.
type Manager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	refresh   time.Duration
	verify    time.Duration
	invite    time.Duration
}

// NewManager creates a token manager. Zero durations fall back to defaults;
// negative durations are kept as-is (useful in tests to mint expired tokens).
func NewManager(secret, issuer string, accessTTL, refreshTTL, verifyTTL, inviteTTL time.Duration) (*Manager, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "freshapp"
	}
	if accessTTL == 0 {
		accessTTL = time.Hour
	}
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if verifyTTL == 0 {
		verifyTTL = time.Hour
	}
	if inviteTTL == 0 {
		inviteTTL = 24 * time.Hour
	}
	return &Manager{
		secret:    []byte(trimmed),
		issuer:    issuer,
		accessTTL: accessTTL,
		refresh:   refreshTTL,
		verify:    verifyTTL,
		invite:    inviteTTL,
	}, nil
}

// AccessTTL 返回访问令牌有效期
func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// MintAccess issues a short-lived access token for the given user.
func (m *Manager) MintAccess(userID uint, email, role string) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("token manager is nil")
	}
	if userID == 0 {
		return "", time.Time{}, errors.New("invalid user for token generation")
	}
	claims := Claims{
		Email:     email,
		Role:      role,
		TokenType: TokenTypeAccess,
	}
	return m.sign(fmt.Sprintf("%d", userID), m.accessTTL, claims)
}

// MintRefresh issues a long-lived refresh token for the given user.
func (m *Manager) MintRefresh(userID uint) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("token manager is nil")
	}
	if userID == 0 {
		return "", time.Time{}, errors.New("invalid user for token generation")
	}
	claims := Claims{TokenType: TokenTypeRefresh}
	return m.sign(fmt.Sprintf("%d", userID), m.refresh, claims)
}

// MintVerification issues a signup_verify or invite token bound to an email.
func (m *Manager) MintVerification(email, kind string) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("token manager is nil")
	}
	var ttl time.Duration
	switch kind {
	case TokenTypeSignupVerify:
		ttl = m.verify
	case TokenTypeInvite:
		ttl = m.invite
	default:
		return "", time.Time{}, fmt.Errorf("unsupported verification token kind: %s", kind)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", time.Time{}, errors.New("email is required")
	}
	claims := Claims{Email: email, TokenType: kind}
	return m.sign(email, ttl, claims)
}

func (m *Manager) sign(subject string, ttl time.Duration, claims Claims) (string, time.Time, error) {
	now := time.Now().UTC()
	expiry := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// Decode validates signature, structure and expiry and returns the claims.
// Any failure is reported as ErrInvalidToken; callers decide the HTTP status.
func (m *Manager) Decode(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("token manager is nil")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeAccess decodes a token and additionally rejects anything that is not
// an access token, so refresh/verification tokens cannot be replayed against
// authenticated endpoints.
func (m *Manager) DecodeAccess(tokenString string) (*Claims, error) {
	claims, err := m.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrWrongTokenUse
	}
	return claims, nil
}
