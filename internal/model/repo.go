package model

import (
	"context"

	"freshapp/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)

	// 用户设置
	GetSettingByUserID(ctx context.Context, userID uint) (*entity.DbUserSetting, error)
	CreateSetting(ctx context.Context, setting *entity.DbUserSetting) error
	UpdateSetting(ctx context.Context, userID uint, updates entity.SettingUpdates) error
	GetPublicAppSetting(ctx context.Context) (*entity.DbUserSetting, error)

	// 通知
	CreateNotification(ctx context.Context, notification *entity.DbNotification) error
	ListNotifications(ctx context.Context, params *entity.NotificationQuery) ([]entity.DbNotification, *entity.Meta, error)
	GetNotification(ctx context.Context, id, userID uint) (*entity.DbNotification, error)
	MarkNotificationRead(ctx context.Context, id uint) error
	MarkAllNotificationsRead(ctx context.Context, userID uint) (int64, error)

	// 博客
	CreateBlogPost(ctx context.Context, post *entity.DbBlogPost) error
	UpdateBlogPost(ctx context.Context, id uint, updates entity.BlogPostUpdates) error
	GetBlogPostByID(ctx context.Context, id uint, publicOnly bool) (*entity.DbBlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string, publicOnly bool) (*entity.DbBlogPost, error)
	ListBlogPosts(ctx context.Context, params *entity.BlogPostQuery) ([]entity.DbBlogPost, *entity.Meta, error)
	DeleteBlogPost(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	IncrementBlogPostViews(ctx context.Context, id uint) error

	// 验证令牌流水
	CreateVerificationToken(ctx context.Context, record *entity.DbVerificationToken) error
}
