package api

import (
	"strings"
	"time"

	"freshapp/internal/auth"
	"freshapp/internal/config"
	"freshapp/internal/mailer"
	"freshapp/internal/model"
	"freshapp/internal/oauth"
	"freshapp/internal/service"
	"freshapp/internal/storage"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	tokenManager      *auth.Manager
	google            *oauth.GoogleVerifier

	// 服务层
	authService *service.AuthService
	blogService *service.BlogService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage, mail mailer.Mailer) (*HTTPHandler, error) {
	tokenManager, err := auth.NewManager(
		cfg.JWTSecret,
		cfg.JWTIssuer,
		time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenExpireDays)*24*time.Hour,
		time.Duration(cfg.VerificationTokenExpireMinutes)*time.Minute,
		time.Duration(cfg.InviteTokenExpireMinutes)*time.Minute,
	)
	if err != nil {
		return nil, err
	}

	handler := &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		tokenManager:      tokenManager,
		google:            oauth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI),
		authService:       service.NewAuthService(repo, tokenManager, mail, cfg),
		blogService:       service.NewBlogService(repo),
	}
	return handler, nil
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}
