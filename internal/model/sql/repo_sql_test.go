package sql

import (
	"context"
	"errors"
	"testing"

	"freshapp/internal/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestRepository 基于内存 SQLite 构建仓库，每个测试独立一份
func newTestRepository(t *testing.T) *GormRepository {
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
	// :memory: 每个连接各自一份数据，必须限制为单连接
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

	return NewGormRepository(db)
}

func mustCreateUser(t *testing.T, repo *GormRepository, email string) *entity.DbUser {
	t.Helper()
	user := &entity.DbUser{Email: email, Role: entity.UserRoleUser, IsActive: true}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return user
}

func TestUserEmailUniqueness(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	mustCreateUser(t, repo, "a@example.com")

	dup := &entity.DbUser{Email: "a@example.com", Role: entity.UserRoleUser}
	err := repo.CreateUser(ctx, dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("期望唯一索引冲突, 实际: %v", err)
	}

	// 大小写不同视为不同邮箱
	upper := &entity.DbUser{Email: "A@example.com", Role: entity.UserRoleUser}
	if err := repo.CreateUser(ctx, upper); err != nil {
		t.Fatalf("大小写不同的邮箱应允许创建: %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "a@example.com"); err != nil {
		t.Fatalf("精确匹配查询失败: %v", err)
	}
}

func TestListUsersSearchAndPagination(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, email := range []string{"alice@example.com", "bob@example.com", "carol@test.org"} {
		mustCreateUser(t, repo, email)
	}

	users, meta, err := repo.ListUsers(ctx, &entity.UserQuery{Search: "EXAMPLE"})
	if err != nil {
		t.Fatalf("列表查询失败: %v", err)
	}
	if meta.Total != 2 || len(users) != 2 {
		t.Fatalf("搜索应匹配 2 条, 实际 total=%d len=%d", meta.Total, len(users))
	}

	page, meta, err := repo.ListUsers(ctx, &entity.UserQuery{BaseParams: entity.BaseParams{Page: 2, PageSize: 2}})
	if err != nil {
		t.Fatalf("分页查询失败: %v", err)
	}
	if meta.Total != 3 || len(page) != 1 {
		t.Fatalf("第二页应剩 1 条, 实际 total=%d len=%d", meta.Total, len(page))
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "reader@example.com")

	for i := 0; i < 3; i++ {
		err := repo.CreateNotification(ctx, &entity.DbNotification{UserID: user.ID, Title: "t", Message: "m"})
		if err != nil {
			t.Fatalf("创建通知失败: %v", err)
		}
	}

	affected, err := repo.MarkAllNotificationsRead(ctx, user.ID)
	if err != nil {
		t.Fatalf("全部标记已读失败: %v", err)
	}
	if affected != 3 {
		t.Fatalf("期望影响 3 行, 实际 %d", affected)
	}

	// 再次调用应为 0 行，幂等
	affected, err = repo.MarkAllNotificationsRead(ctx, user.ID)
	if err != nil {
		t.Fatalf("二次标记失败: %v", err)
	}
	if affected != 0 {
		t.Fatalf("二次调用期望 0 行, 实际 %d", affected)
	}

	// 两次调用之间新产生的通知保持未读
	if err := repo.CreateNotification(ctx, &entity.DbNotification{UserID: user.ID, Title: "new", Message: "m"}); err != nil {
		t.Fatalf("创建通知失败: %v", err)
	}
	list, meta, err := repo.ListNotifications(ctx, &entity.NotificationQuery{UserID: user.ID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("未读列表失败: %v", err)
	}
	if meta.Total != 1 || len(list) != 1 || list[0].Title != "new" {
		t.Fatalf("新通知应保持未读, total=%d", meta.Total)
	}
}

func TestNotificationOwnership(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner := mustCreateUser(t, repo, "owner@example.com")
	other := mustCreateUser(t, repo, "other@example.com")

	n := &entity.DbNotification{UserID: owner.ID, Title: "hi", Message: "m"}
	if err := repo.CreateNotification(ctx, n); err != nil {
		t.Fatalf("创建通知失败: %v", err)
	}

	if _, err := repo.GetNotification(ctx, n.ID, other.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("他人通知应查不到, 实际: %v", err)
	}
	if _, err := repo.GetNotification(ctx, n.ID, owner.ID); err != nil {
		t.Fatalf("本人通知查询失败: %v", err)
	}
}

func TestSettingLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "settings@example.com")

	if _, err := repo.GetSettingByUserID(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("未创建前应查不到, 实际: %v", err)
	}

	setting := &entity.DbUserSetting{UserID: user.ID, Theme: entity.ThemeLight, EmailNotifications: true, PushNotifications: true}
	if err := repo.CreateSetting(ctx, setting); err != nil {
		t.Fatalf("创建设置失败: %v", err)
	}

	theme := entity.ThemeDark
	appName := "Freshapp"
	err := repo.UpdateSetting(ctx, user.ID, entity.SettingUpdates{Theme: &theme, AppName: &appName})
	if err != nil {
		t.Fatalf("更新设置失败: %v", err)
	}

	got, err := repo.GetSettingByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("查询设置失败: %v", err)
	}
	if got.Theme != entity.ThemeDark || got.AppName != "Freshapp" {
		t.Fatalf("更新未生效: %+v", got)
	}
	if !got.EmailNotifications {
		t.Fatalf("未更新的字段不应被覆盖")
	}

	pub, err := repo.GetPublicAppSetting(ctx)
	if err != nil {
		t.Fatalf("公开设置查询失败: %v", err)
	}
	if pub.AppName != "Freshapp" {
		t.Fatalf("公开设置应返回已配置站点名, 实际 %q", pub.AppName)
	}
}

func TestBlogPostSlugAndViews(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	post := &entity.DbBlogPost{Title: "Hello", Slug: "hello", Content: "body", IsPublished: false}
	if err := repo.CreateBlogPost(ctx, post); err != nil {
		t.Fatalf("创建文章失败: %v", err)
	}

	exists, err := repo.SlugExists(ctx, "hello")
	if err != nil || !exists {
		t.Fatalf("slug 应已存在, exists=%v err=%v", exists, err)
	}

	// 草稿对公开查询不可见
	if _, err := repo.GetBlogPostBySlug(ctx, "hello", true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("未发布文章不应对公开可见, 实际: %v", err)
	}

	published := true
	if err := repo.UpdateBlogPost(ctx, post.ID, entity.BlogPostUpdates{IsPublished: &published}); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.IncrementBlogPostViews(ctx, post.ID); err != nil {
			t.Fatalf("计数失败: %v", err)
		}
	}
	got, err := repo.GetBlogPostBySlug(ctx, "hello", true)
	if err != nil {
		t.Fatalf("公开查询失败: %v", err)
	}
	if got.ViewCount != 2 {
		t.Fatalf("期望浏览数 2, 实际 %d", got.ViewCount)
	}

	// slug 唯一索引冲突
	dup := &entity.DbBlogPost{Title: "Hello again", Slug: "hello", Content: "x"}
	if err := repo.CreateBlogPost(ctx, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("期望 slug 冲突, 实际: %v", err)
	}
}

func TestListBlogPostsSearch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	posts := []entity.DbBlogPost{
		{Title: "Go Patterns", Slug: "go-patterns", Content: "channels and goroutines", IsPublished: true},
		{Title: "Cooking", Slug: "cooking", Content: "pasta with Go-style speed", IsPublished: true},
		{Title: "Draft", Slug: "draft", Content: "go go go", IsPublished: false},
	}
	for i := range posts {
		if err := repo.CreateBlogPost(ctx, &posts[i]); err != nil {
			t.Fatalf("创建文章失败: %v", err)
		}
	}

	// 标题或正文模糊匹配，仅公开
	list, meta, err := repo.ListBlogPosts(ctx, &entity.BlogPostQuery{Search: "go", PublicOnly: true})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if meta.Total != 2 || len(list) != 2 {
		t.Fatalf("公开搜索应匹配 2 条, 实际 %d", meta.Total)
	}

	// 管理端可见全部
	all, meta, err := repo.ListBlogPosts(ctx, &entity.BlogPostQuery{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if meta.Total != 3 || len(all) != 3 {
		t.Fatalf("管理端应看到 3 条, 实际 %d", meta.Total)
	}

	if err := repo.DeleteBlogPost(ctx, posts[2].ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if err := repo.DeleteBlogPost(ctx, posts[2].ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("重复删除应返回未找到, 实际: %v", err)
	}
}
