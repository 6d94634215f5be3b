package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"freshapp/internal/api"
	"freshapp/internal/config"
	"freshapp/internal/mailer"
	"freshapp/internal/model"
	"freshapp/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	mail := mailer.NewSendgridMailer(mailer.SendgridOptions{
		APIKey:      cfg.SendgridAPIKey,
		FromEmail:   cfg.SendgridFromEmail,
		FromName:    cfg.SendgridFromName,
		AppName:     cfg.AppName,
		FrontendURL: cfg.FrontendURL,
	})

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store, mail)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api/v1")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/signup", httpHandler.Signup)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.POST("/verify-email", httpHandler.VerifyEmail)
	authGroup.POST("/refresh", httpHandler.Refresh)
	authGroup.POST("/google", httpHandler.GoogleLogin)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)

	// 公开读取接口
	apiGroup.GET("/blog", httpHandler.ListPublishedPosts)
	apiGroup.GET("/blog/slug/:slug", httpHandler.GetPublishedPostBySlug)
	apiGroup.GET("/blog/:id", httpHandler.GetPublishedPostByID)
	apiGroup.GET("/settings/app", httpHandler.GetPublicAppSettings)

	protected := apiGroup.Group("")
	protected.Use(httpHandler.AuthMiddleware())
	protected.GET("/settings", httpHandler.GetSettings)
	protected.PATCH("/settings", httpHandler.UpdateSettings)
	protected.GET("/notifications", httpHandler.ListNotifications)
	protected.PATCH("/notifications/:id", httpHandler.MarkNotificationRead)
	protected.POST("/notifications/mark-all-read", httpHandler.MarkAllNotificationsRead)
	protected.POST("/notifications/admin", httpHandler.RequireAdmin(), httpHandler.CreateNotification)
	protected.POST("/uploads", httpHandler.Upload)

	userAdmin := protected.Group("/users")
	userAdmin.Use(httpHandler.RequireAdmin())
	userAdmin.GET("", httpHandler.ListUsers)
	userAdmin.POST("", httpHandler.CreateUser)
	userAdmin.GET("/:id", httpHandler.GetUser)
	userAdmin.PATCH("/:id", httpHandler.UpdateUser)

	blogAdmin := protected.Group("/blog")
	blogAdmin.Use(httpHandler.RequireAdmin())
	blogAdmin.GET("/admin/list", httpHandler.AdminListPosts)
	blogAdmin.GET("/admin/:id", httpHandler.AdminGetPost)
	blogAdmin.POST("", httpHandler.CreatePost)
	blogAdmin.PATCH("/:id", httpHandler.UpdatePost)
	blogAdmin.DELETE("/:id", httpHandler.DeletePost)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
