package service

import (
	"context"
	"errors"
	"testing"

	"freshapp/internal/entity"

	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"常规标题", "Hello, World!", "hello-world"},
		{"多余空白", "  Spaces   Between  ", "spaces-between"},
		{"下划线保留", "foo_bar baz", "foo_bar-baz"},
		{"连字符折叠", "foo_bar --- baz", "foo_bar-baz"},
		{"纯标点", "!!!???", "post"},
		{"纯空白", "   ", "post"},
		{"数字保留", "Top 10 Tips", "top-10-tips"},
		{"已是 slug", "already-a-slug", "already-a-slug"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.title); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestCreatePostSlugCollision(t *testing.T) {
	svc := NewBlogService(newTestRepo(t))
	ctx := context.Background()

	first, err := svc.CreatePost(ctx, 1, &entity.BlogPostCreateRequest{Title: "Go Tips", Content: "a"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if first.Slug != "go-tips" {
		t.Fatalf("slug 错误: %q", first.Slug)
	}

	// 同名标题依次追加序号
	second, err := svc.CreatePost(ctx, 1, &entity.BlogPostCreateRequest{Title: "Go Tips", Content: "b"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if second.Slug != "go-tips-1" {
		t.Fatalf("slug 错误: %q", second.Slug)
	}
	third, err := svc.CreatePost(ctx, 1, &entity.BlogPostCreateRequest{Title: "Go Tips!", Content: "c"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if third.Slug != "go-tips-2" {
		t.Fatalf("slug 错误: %q", third.Slug)
	}

	if first.AuthorID == nil || *first.AuthorID != 1 {
		t.Fatalf("作者应记录: %+v", first.AuthorID)
	}
}

func TestUpdatePostTitleReslugs(t *testing.T) {
	svc := NewBlogService(newTestRepo(t))
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 0, &entity.BlogPostCreateRequest{Title: "Old Title", Content: "body"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	title := "New Title"
	updated, err := svc.UpdatePost(ctx, post.ID, &entity.BlogPostUpdateRequest{Title: &title})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Slug != "new-title" {
		t.Fatalf("改标题应重算 slug: %q", updated.Slug)
	}
	if updated.Content != "body" {
		t.Fatalf("未更新字段不应变: %q", updated.Content)
	}

	// 不改标题则 slug 不动
	published := true
	updated, err = svc.UpdatePost(ctx, post.ID, &entity.BlogPostUpdateRequest{IsPublished: &published})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Slug != "new-title" || !updated.IsPublished {
		t.Fatalf("发布不应影响 slug: %+v", updated)
	}
}

func TestUpdatePostSlugConflict(t *testing.T) {
	svc := NewBlogService(newTestRepo(t))
	ctx := context.Background()

	if _, err := svc.CreatePost(ctx, 0, &entity.BlogPostCreateRequest{Title: "Taken", Content: "a"}); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	other, err := svc.CreatePost(ctx, 0, &entity.BlogPostCreateRequest{Title: "Free", Content: "b"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	// 改名撞上已有 slug，更新不做探测直接冲突
	title := "Taken"
	if _, err := svc.UpdatePost(ctx, other.ID, &entity.BlogPostUpdateRequest{Title: &title}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("期望 slug 冲突, 实际: %v", err)
	}

	if _, err := svc.UpdatePost(ctx, 9999, &entity.BlogPostUpdateRequest{Title: &title}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("不存在的文章应返回未找到, 实际: %v", err)
	}
}

func TestPublicReadCountsViews(t *testing.T) {
	svc := NewBlogService(newTestRepo(t))
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 0, &entity.BlogPostCreateRequest{Title: "Read Me", Content: "x", IsPublished: true})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	draft, err := svc.CreatePost(ctx, 0, &entity.BlogPostCreateRequest{Title: "Draft", Content: "y"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	got, err := svc.GetPublishedBySlug(ctx, "read-me")
	if err != nil {
		t.Fatalf("公开读取失败: %v", err)
	}
	if got.ViewCount != 1 {
		t.Fatalf("浏览数应为 1, 实际 %d", got.ViewCount)
	}
	got, err = svc.GetPublishedByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("公开读取失败: %v", err)
	}
	if got.ViewCount != 2 {
		t.Fatalf("浏览数应为 2, 实际 %d", got.ViewCount)
	}

	// 草稿对公开读取不可见，也不计数
	if _, err := svc.GetPublishedBySlug(ctx, "draft"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("草稿不应公开可见, 实际: %v", err)
	}
	adminView, err := svc.GetByID(ctx, draft.ID)
	if err != nil {
		t.Fatalf("管理端读取失败: %v", err)
	}
	if adminView.ViewCount != 0 {
		t.Fatalf("管理端读取不应计数: %d", adminView.ViewCount)
	}

	// 公开与管理列表口径不同
	_, meta, err := svc.ListPublished(ctx, &entity.BlogPostQuery{})
	if err != nil || meta.Total != 1 {
		t.Fatalf("公开列表应 1 条, meta=%+v err=%v", meta, err)
	}
	_, meta, err = svc.ListAll(ctx, &entity.BlogPostQuery{})
	if err != nil || meta.Total != 2 {
		t.Fatalf("管理列表应 2 条, meta=%+v err=%v", meta, err)
	}
}
