package service

import (
	"context"
	"testing"
	"time"

	"freshapp/internal/auth"
	"freshapp/internal/config"
	"freshapp/internal/entity"
	"freshapp/internal/model/sql"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestRepo 基于内存 SQLite 构建仓库
func newTestRepo(t *testing.T) *sql.GormRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&entity.DbUser{},
		&entity.DbUserSetting{},
		&entity.DbNotification{},
		&entity.DbBlogPost{},
		&entity.DbVerificationToken{},
	); err != nil {
		t.Fatalf("迁移表结构失败: %v", err)
	}
	return sql.NewGormRepository(db)
}

func newTestTokenManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager("test-secret", "freshapp-test", time.Hour, 7*24*time.Hour, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("创建 token manager 失败: %v", err)
	}
	return m
}

// stubMailer 记录发送调用，便于断言
type stubMailer struct {
	configured   bool
	verifyCalls  []string
	inviteCalls  []string
	verifyTokens []string
}

func (m *stubMailer) Configured() bool { return m.configured }

func (m *stubMailer) SendVerificationEmail(_ context.Context, toEmail, _, token string) error {
	m.verifyCalls = append(m.verifyCalls, toEmail)
	m.verifyTokens = append(m.verifyTokens, token)
	return nil
}

func (m *stubMailer) SendInviteEmail(_ context.Context, toEmail, _, token string) error {
	m.inviteCalls = append(m.inviteCalls, toEmail)
	m.verifyTokens = append(m.verifyTokens, token)
	return nil
}

func newTestAuthService(t *testing.T, cfg config.Config) (*AuthService, *stubMailer) {
	t.Helper()
	repo := newTestRepo(t)
	mail := &stubMailer{configured: true}
	return NewAuthService(repo, newTestTokenManager(t), mail, cfg), mail
}
