package service

import (
	"context"
	"errors"
	"strings"

	"freshapp/internal/auth"
	"freshapp/internal/config"
	"freshapp/internal/entity"
	"freshapp/internal/mailer"
	"freshapp/internal/model"
	"freshapp/internal/oauth"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// 不向客户端区分两种情况
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled indicates the account exists but is deactivated.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrEmailTaken indicates a signup/create against an existing email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidToken indicates a rejected verification or refresh token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AuthService implements the account lifecycle: signup, email verification,
// password and Google login, token refresh, and admin-invited accounts.
type AuthService struct {
	repo   model.Repository
	tokens *auth.Manager
	mail   mailer.Mailer
	cfg    config.Config
}

func NewAuthService(repo model.Repository, tokens *auth.Manager, mail mailer.Mailer, cfg config.Config) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, mail: mail, cfg: cfg}
}

// fallbackDisplayName defaults a missing display name to the email local
// part.
func fallbackDisplayName(name, email string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// TokensForUser mints a fresh access/refresh pair for the user.
func (s *AuthService) TokensForUser(user *entity.DbUser) (*entity.AuthTokenResponse, error) {
	accessToken, _, err := s.tokens.MintAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.tokens.MintRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &entity.AuthTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Login authenticates an email/password pair. When the credentials match the
// configured super admin exactly, the admin account is created or repaired on
// the spot, so a wiped database never locks operators out.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.DbUser, *entity.AuthTokenResponse, error) {
	email = strings.TrimSpace(email)

	if s.isSuperAdminLogin(email, password) {
		user, err := s.ensureSuperAdmin(ctx, password)
		if err != nil {
			return nil, nil, err
		}
		tokens, err := s.TokensForUser(user)
		if err != nil {
			return nil, nil, err
		}
		return user, tokens, nil
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	tokens, err := s.TokensForUser(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) isSuperAdminLogin(email, password string) bool {
	return s.cfg.SuperAdminEmail != "" &&
		s.cfg.SuperAdminPassword != "" &&
		email == s.cfg.SuperAdminEmail &&
		password == s.cfg.SuperAdminPassword
}

// ensureSuperAdmin get-or-creates the bootstrap admin and forces it into a
// usable state: admin role, verified, active, password hash matching config.
func (s *AuthService) ensureSuperAdmin(ctx context.Context, password string) (*entity.DbUser, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, s.cfg.SuperAdminEmail)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user = &entity.DbUser{
			Email:        s.cfg.SuperAdminEmail,
			PasswordHash: hash,
			FullName:     fallbackDisplayName(s.cfg.SuperAdminName, s.cfg.SuperAdminEmail),
			Role:         entity.UserRoleAdmin,
			IsVerified:   true,
			IsActive:     true,
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		s.ensureDefaultSettings(ctx, user.ID)
		return user, nil
	}

	role := entity.UserRoleAdmin
	verified := true
	active := true
	updates := entity.UserUpdates{
		PasswordHash: &hash,
		Role:         &role,
		IsVerified:   &verified,
		IsActive:     &active,
	}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, user.ID)
}

// Signup registers a password account and sends a verification email. Mail
// delivery is best-effort: a broken mailer never fails the signup itself.
func (s *AuthService) Signup(ctx context.Context, req *entity.AuthSignupRequest) (*entity.DbUser, error) {
	email := strings.TrimSpace(req.Email)

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.DbUser{
		Email:        email,
		PasswordHash: hash,
		FullName:     fallbackDisplayName(req.FullName, email),
		Role:         entity.UserRoleUser,
		IsVerified:   false,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.ensureDefaultSettings(ctx, user.ID)

	s.issueVerificationMail(ctx, user, auth.TokenTypeSignupVerify)
	return user, nil
}

// CreateInvitedUser provisions an account on behalf of an admin and mails an
// invite link. The account starts unverified with the supplied password.
func (s *AuthService) CreateInvitedUser(ctx context.Context, req *entity.UserCreateRequest) (*entity.DbUser, error) {
	email := strings.TrimSpace(req.Email)

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role != entity.UserRoleAdmin {
		role = entity.UserRoleUser
	}

	user := &entity.DbUser{
		Email:        email,
		PasswordHash: hash,
		FullName:     fallbackDisplayName(req.FullName, email),
		Role:         role,
		IsVerified:   false,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.ensureDefaultSettings(ctx, user.ID)

	s.issueVerificationMail(ctx, user, auth.TokenTypeInvite)
	return user, nil
}

// issueVerificationMail mints a token, records it, and mails the link. Every
// step after minting is best-effort.
func (s *AuthService) issueVerificationMail(ctx context.Context, user *entity.DbUser, kind string) {
	token, expiry, err := s.tokens.MintVerification(user.Email, kind)
	if err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("mint verification token failed")
		return
	}

	record := &entity.DbVerificationToken{
		Token:     token,
		Email:     user.Email,
		TokenType: kind,
		ExpiresAt: expiry,
	}
	if err := s.repo.CreateVerificationToken(ctx, record); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("record verification token failed")
	}

	if s.mail == nil || !s.mail.Configured() {
		logrus.WithField("email", user.Email).Info("mailer not configured, skipping verification mail")
		return
	}

	switch kind {
	case auth.TokenTypeInvite:
		err = s.mail.SendInviteEmail(ctx, user.Email, user.FullName, token)
	default:
		err = s.mail.SendVerificationEmail(ctx, user.Email, user.FullName, token)
	}
	if err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("send verification mail failed")
	}
}

// VerifyEmail marks the account behind a signup_verify or invite token as
// verified. Verifying an already-verified account is a no-op success.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenString string) (*entity.DbUser, error) {
	claims, err := s.tokens.Decode(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != auth.TokenTypeSignupVerify && claims.TokenType != auth.TokenTypeInvite {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !user.IsVerified {
		verified := true
		if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{IsVerified: &verified}); err != nil {
			return nil, err
		}
		user.IsVerified = true
	}
	return user, nil
}

// Refresh exchanges a valid refresh token for a new access token. The same
// refresh token is handed back: refresh tokens are not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.AuthTokenResponse, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	accessToken, _, err := s.tokens.MintAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &entity.AuthTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// GoogleSignIn signs a verified Google identity in, linking or creating the
// local account as needed. 匹配顺序：google_id → 邮箱 → 新建。
func (s *AuthService) GoogleSignIn(ctx context.Context, identity *oauth.Identity) (*entity.DbUser, *entity.AuthTokenResponse, error) {
	user, err := s.repo.GetUserByGoogleID(ctx, identity.Subject)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	if user == nil {
		user, err = s.linkOrCreateGoogleUser(ctx, identity)
	} else {
		// 命中已绑定账号，顺带刷新资料
		user, err = s.refreshGoogleProfile(ctx, user, identity)
	}
	if err != nil {
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	tokens, err := s.TokensForUser(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// refreshGoogleProfile re-applies the identity's profile fields on every
// login, non-empty values winning, and keeps the account marked verified.
func (s *AuthService) refreshGoogleProfile(ctx context.Context, user *entity.DbUser, identity *oauth.Identity) (*entity.DbUser, error) {
	verified := true
	updates := entity.UserUpdates{IsVerified: &verified}
	if identity.Name != "" {
		updates.FullName = &identity.Name
	}
	if identity.AvatarURL != "" {
		updates.AvatarURL = &identity.AvatarURL
	}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, user.ID)
}

func (s *AuthService) linkOrCreateGoogleUser(ctx context.Context, identity *oauth.Identity) (*entity.DbUser, error) {
	existing, err := s.repo.GetUserByEmail(ctx, identity.Email)
	if err == nil {
		// 已有密码账号，绑定 Google 身份并顺带视为邮箱已验证
		googleID := identity.Subject
		verified := true
		updates := entity.UserUpdates{GoogleID: &googleID, IsVerified: &verified}
		if existing.FullName == "" && identity.Name != "" {
			updates.FullName = &identity.Name
		}
		if existing.AvatarURL == "" && identity.AvatarURL != "" {
			updates.AvatarURL = &identity.AvatarURL
		}
		if err := s.repo.UpdateUser(ctx, existing.ID, updates); err != nil {
			return nil, err
		}
		return s.repo.GetUserByID(ctx, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	googleID := identity.Subject
	user := &entity.DbUser{
		Email:      identity.Email,
		FullName:   fallbackDisplayName(identity.Name, identity.Email),
		AvatarURL:  identity.AvatarURL,
		Role:       entity.UserRoleUser,
		IsVerified: true,
		IsActive:   true,
		GoogleID:   &googleID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.ensureDefaultSettings(ctx, user.ID)
	return user, nil
}

// ensureDefaultSettings creates the per-user settings row. Failure is logged
// only: the settings endpoint falls back to get-or-create anyway.
func (s *AuthService) ensureDefaultSettings(ctx context.Context, userID uint) {
	setting := &entity.DbUserSetting{
		UserID:             userID,
		Theme:              entity.ThemeLight,
		EmailNotifications: true,
		PushNotifications:  true,
	}
	if err := s.repo.CreateSetting(ctx, setting); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("create default settings failed")
	}
}
