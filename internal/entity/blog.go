package entity

import "time"

// DbBlogPost 表示持久化的博客文章。Slug 全局唯一，由标题派生。
type DbBlogPost struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Title         string     `gorm:"column:title;type:varchar(500);not null" json:"title"`
	Slug          string     `gorm:"column:slug;type:varchar(500);uniqueIndex;not null" json:"slug"`
	Content       string     `gorm:"column:content;type:text;not null" json:"content"`
	Excerpt       string     `gorm:"column:excerpt;type:varchar(1000)" json:"excerpt"`
	CoverImageURL string     `gorm:"column:cover_image_url;type:varchar(512)" json:"cover_image_url"`
	IsPublished   bool       `gorm:"column:is_published;not null;default:false" json:"is_published"`
	AuthorID      *uint      `gorm:"column:author_id;index" json:"author_id"`
	ViewCount     int64      `gorm:"column:view_count;not null;default:0" json:"view_count"`
	PublishedAt   *time.Time `gorm:"column:published_at" json:"published_at"`
}

// TableName 指定表名。
func (DbBlogPost) TableName() string {
	return "blog_posts"
}

// BlogPostQuery supports listing posts with pagination and substring search
// over title and content.
type BlogPostQuery struct {
	BaseParams
	Search     string `json:"search" form:"search" query:"search"`
	PublicOnly bool   `json:"-" form:"-"`
}

type BlogPostCreateRequest struct {
	Title         string `json:"title" binding:"required,max=500"`
	Content       string `json:"content" binding:"required"`
	Excerpt       string `json:"excerpt"`
	CoverImageURL string `json:"cover_image_url"`
	IsPublished   bool   `json:"is_published"`
}

type BlogPostUpdateRequest struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Excerpt       *string `json:"excerpt,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	IsPublished   *bool   `json:"is_published,omitempty"`
}

type BlogPostListResponse struct {
	Posts []DbBlogPost `json:"posts"`
	Meta  *Meta        `json:"meta"`
}
