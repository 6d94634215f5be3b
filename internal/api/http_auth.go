package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"freshapp/internal/entity"
	"freshapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Signup 注册密码账号并发送验证邮件
func (h *HTTPHandler) Signup(c *gin.Context) {
	var req entity.AuthSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.authService.Signup(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			BadRequest(c, ErrCodeEmailExists, "邮箱已注册")
			return
		}
		logrus.WithError(err).Error("signup failed")
		InternalError(c, "注册失败")
		return
	}

	// 注册即登录
	tokens, err := h.authService.TokensForUser(user)
	if err != nil {
		logrus.WithError(err).Error("failed to mint tokens after signup")
		InternalError(c, "注册失败")
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Login 邮箱密码登录
func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	_, tokens, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			Unauthorized(c, ErrCodeInvalidCredentials, "邮箱或密码错误")
		case errors.Is(err, service.ErrAccountDisabled):
			Unauthorized(c, ErrCodeUserDisabled, "账户已被禁用")
		default:
			logrus.WithError(err).Error("login failed")
			InternalError(c, "登录失败")
		}
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// VerifyEmail 消费注册验证或邀请令牌
func (h *HTTPHandler) VerifyEmail(c *gin.Context) {
	var req entity.AuthVerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.authService.VerifyEmail(ctx, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			BadRequest(c, ErrCodeInvalidToken, "令牌无效或已过期")
			return
		}
		logrus.WithError(err).Error("verify email failed")
		InternalError(c, "验证失败")
		return
	}

	// 验证通过直接建立会话
	tokens, err := h.authService.TokensForUser(user)
	if err != nil {
		logrus.WithError(err).Error("failed to mint tokens after verification")
		InternalError(c, "验证失败")
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Refresh 用 refresh token 换新的 access token
func (h *HTTPHandler) Refresh(c *gin.Context) {
	var req entity.AuthRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	tokens, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			Unauthorized(c, ErrCodeSessionExpired, "令牌无效或已过期")
		case errors.Is(err, service.ErrAccountDisabled):
			Unauthorized(c, ErrCodeUserDisabled, "账户已被禁用")
		default:
			logrus.WithError(err).Error("refresh failed")
			InternalError(c, "刷新失败")
		}
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// GoogleLogin 用 Google id_token 或授权码登录
func (h *HTTPHandler) GoogleLogin(c *gin.Context) {
	if !h.google.Configured() {
		ServiceUnavailable(c, "Google 登录未配置")
		return
	}

	var req entity.AuthGoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	if strings.TrimSpace(req.IDToken) == "" && strings.TrimSpace(req.Code) == "" {
		BadRequest(c, ErrCodeInvalidRequest, "需要 id_token 或 code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	idToken := req.IDToken
	if strings.TrimSpace(idToken) == "" {
		exchanged, err := h.google.ExchangeCode(ctx, req.Code)
		if err != nil {
			logrus.WithError(err).Warn("google code exchange failed")
			BadRequest(c, ErrCodeInvalidToken, "Google 授权码无效")
			return
		}
		idToken = exchanged
	}

	identity, err := h.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		logrus.WithError(err).Warn("google id token verification failed")
		BadRequest(c, ErrCodeInvalidToken, "Google 身份验证失败")
		return
	}

	_, tokens, err := h.authService.GoogleSignIn(ctx, identity)
	if err != nil {
		if errors.Is(err, service.ErrAccountDisabled) {
			Unauthorized(c, ErrCodeUserDisabled, "账户已被禁用")
			return
		}
		logrus.WithError(err).Error("google sign-in failed")
		InternalError(c, "登录失败")
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Me 返回当前登录用户资料
func (h *HTTPHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, ErrCodeUnauthorized, "需要登录")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbUser, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to load user profile")
		InternalError(c, "获取资料失败")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(dbUser))
}

func makeUserSummary(user *entity.DbUser) entity.UserSummary {
	if user == nil {
		return entity.UserSummary{}
	}
	return entity.UserSummary{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		AvatarURL:  user.AvatarURL,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt,
	}
}
