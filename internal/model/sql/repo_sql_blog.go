package sql

import (
	"context"
	"fmt"
	"strings"

	"freshapp/internal/entity"

	"gorm.io/gorm"
)

// CreateBlogPost persists a new blog post.
func (r *GormRepository) CreateBlogPost(ctx context.Context, post *entity.DbBlogPost) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if post == nil {
		return fmt.Errorf("post is nil")
	}
	return r.db.WithContext(ctx).Create(post).Error
}

// UpdateBlogPost applies a sparse update to an existing post.
func (r *GormRepository) UpdateBlogPost(ctx context.Context, id uint, updates entity.BlogPostUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid post id")
	}
	if updates.IsEmpty() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbBlogPost{}).Where("id = ?", id).Updates(updates.ToMap()).Error
}

// GetBlogPostByID loads a post, optionally restricted to published ones.
func (r *GormRepository) GetBlogPostByID(ctx context.Context, id uint, publicOnly bool) (*entity.DbBlogPost, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid post id")
	}
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if publicOnly {
		query = query.Where("is_published = ?", true)
	}
	var post entity.DbBlogPost
	if err := query.First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetBlogPostBySlug loads a post by slug, optionally restricted to published ones.
func (r *GormRepository) GetBlogPostBySlug(ctx context.Context, slug string, publicOnly bool) (*entity.DbBlogPost, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, fmt.Errorf("slug is empty")
	}
	query := r.db.WithContext(ctx).Where("slug = ?", trimmed)
	if publicOnly {
		query = query.Where("is_published = ?", true)
	}
	var post entity.DbBlogPost
	if err := query.First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListBlogPosts returns paginated posts with case-insensitive substring search
// over title and content. The total is counted with the same predicate.
func (r *GormRepository) ListBlogPosts(ctx context.Context, params *entity.BlogPostQuery) ([]entity.DbBlogPost, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbBlogPost{})
	if params != nil {
		if params.PublicOnly {
			query = query.Where("is_published = ?", true)
		}
		if keyword := strings.TrimSpace(params.Search); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			// 子查询分组，避免 OR 与 is_published 条件的优先级问题
			query = query.Where(r.db.Where("LOWER(title) LIKE ?", kw).Or("LOWER(content) LIKE ?", kw))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize := 1, 20
	if params != nil {
		page, pageSize = normalisePage(params.BaseParams)
	}
	offset := (page - 1) * pageSize

	var posts []entity.DbBlogPost
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return posts, meta, nil
}

// DeleteBlogPost removes a post by ID.
func (r *GormRepository) DeleteBlogPost(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid post id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbBlogPost{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SlugExists reports whether any post already uses the given slug.
func (r *GormRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbBlogPost{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IncrementBlogPostViews bumps the view counter by one.
func (r *GormRepository) IncrementBlogPostViews(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid post id")
	}
	return r.db.WithContext(ctx).Model(&entity.DbBlogPost{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}
