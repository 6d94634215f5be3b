package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"freshapp/internal/entity"
	"freshapp/internal/model"

	"gorm.io/gorm"
)

// ErrSlugTaken indicates the derived slug collides with another post.
var ErrSlugTaken = errors.New("slug is already in use")

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s-]+`)
)

// Slugify derives a URL slug from a title: lowercase, punctuation stripped,
// runs of whitespace/hyphens collapsed to single hyphens. Underscores count
// as word characters and stay. Titles with nothing usable fall back to
// "post".
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "post"
	}
	return slug
}

// BlogService implements post authoring and public reading.
type BlogService struct {
	repo model.Repository
}

func NewBlogService(repo model.Repository) *BlogService {
	return &BlogService{repo: repo}
}

// CreatePost creates a post with a slug derived from the title. On collision
// the slug gets a numeric suffix: hello, hello-1, hello-2, ...
func (s *BlogService) CreatePost(ctx context.Context, authorID uint, req *entity.BlogPostCreateRequest) (*entity.DbBlogPost, error) {
	slug, err := s.availableSlug(ctx, Slugify(req.Title))
	if err != nil {
		return nil, err
	}

	post := &entity.DbBlogPost{
		Title:         req.Title,
		Slug:          slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		CoverImageURL: req.CoverImageURL,
		IsPublished:   req.IsPublished,
	}
	if authorID != 0 {
		post.AuthorID = &authorID
	}
	if err := s.repo.CreateBlogPost(ctx, post); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 探测与写入之间有并发创建
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return post, nil
}

// availableSlug probes base, base-1, base-2, ... until a free slug is found.
func (s *BlogService) availableSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}

// UpdatePost applies a sparse patch. A title change re-derives the slug
// without collision probing; a clash with an existing post is an error the
// caller surfaces as a conflict.
func (s *BlogService) UpdatePost(ctx context.Context, id uint, req *entity.BlogPostUpdateRequest) (*entity.DbBlogPost, error) {
	if _, err := s.repo.GetBlogPostByID(ctx, id, false); err != nil {
		return nil, err
	}

	updates := entity.BlogPostUpdates{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		CoverImageURL: req.CoverImageURL,
		IsPublished:   req.IsPublished,
	}
	if req.Title != nil {
		slug := Slugify(*req.Title)
		updates.Slug = &slug
	}

	if err := s.repo.UpdateBlogPost(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return s.repo.GetBlogPostByID(ctx, id, false)
}

// GetPublishedBySlug loads a published post and counts the view.
func (s *BlogService) GetPublishedBySlug(ctx context.Context, slug string) (*entity.DbBlogPost, error) {
	post, err := s.repo.GetBlogPostBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementBlogPostViews(ctx, post.ID); err != nil {
		return nil, err
	}
	post.ViewCount++
	return post, nil
}

// GetPublishedByID loads a published post and counts the view.
func (s *BlogService) GetPublishedByID(ctx context.Context, id uint) (*entity.DbBlogPost, error) {
	post, err := s.repo.GetBlogPostByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementBlogPostViews(ctx, post.ID); err != nil {
		return nil, err
	}
	post.ViewCount++
	return post, nil
}

// ListPublished returns published posts for the public site.
func (s *BlogService) ListPublished(ctx context.Context, params *entity.BlogPostQuery) ([]entity.DbBlogPost, *entity.Meta, error) {
	params.PublicOnly = true
	return s.repo.ListBlogPosts(ctx, params)
}

// ListAll returns every post, drafts included, for the admin panel.
func (s *BlogService) ListAll(ctx context.Context, params *entity.BlogPostQuery) ([]entity.DbBlogPost, *entity.Meta, error) {
	params.PublicOnly = false
	return s.repo.ListBlogPosts(ctx, params)
}

// GetByID loads a post regardless of publication state.
func (s *BlogService) GetByID(ctx context.Context, id uint) (*entity.DbBlogPost, error) {
	return s.repo.GetBlogPostByID(ctx, id, false)
}

// DeletePost removes a post.
func (s *BlogService) DeletePost(ctx context.Context, id uint) error {
	return s.repo.DeleteBlogPost(ctx, id)
}
