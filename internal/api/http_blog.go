package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"freshapp/internal/entity"
	"freshapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListPublishedPosts 公开的文章列表，仅含已发布
func (h *HTTPHandler) ListPublishedPosts(c *gin.Context) {
	var params entity.BlogPostQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	posts, meta, err := h.blogService.ListPublished(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list published posts")
		InternalError(c, "获取文章列表失败")
		return
	}

	c.JSON(http.StatusOK, entity.BlogPostListResponse{Posts: posts, Meta: meta})
}

// GetPublishedPostBySlug 公开按 slug 读文章，计一次浏览
func (h *HTTPHandler) GetPublishedPostBySlug(c *gin.Context) {
	slug := c.Param("slug")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.blogService.GetPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodePostNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("slug", slug).Error("failed to load post")
		InternalError(c, "获取文章失败")
		return
	}

	c.JSON(http.StatusOK, post)
}

// GetPublishedPostByID 公开按 ID 读文章，计一次浏览
func (h *HTTPHandler) GetPublishedPostByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.blogService.GetPublishedByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodePostNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("post_id", id).Error("failed to load post")
		InternalError(c, "获取文章失败")
		return
	}

	c.JSON(http.StatusOK, post)
}

// AdminListPosts 管理端文章列表，含草稿
func (h *HTTPHandler) AdminListPosts(c *gin.Context) {
	var params entity.BlogPostQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	posts, meta, err := h.blogService.ListAll(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list posts")
		InternalError(c, "获取文章列表失败")
		return
	}

	c.JSON(http.StatusOK, entity.BlogPostListResponse{Posts: posts, Meta: meta})
}

// AdminGetPost 管理端读文章，不计浏览
func (h *HTTPHandler) AdminGetPost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.blogService.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodePostNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("post_id", id).Error("failed to load post")
		InternalError(c, "获取文章失败")
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost 管理端创建文章
func (h *HTTPHandler) CreatePost(c *gin.Context) {
	var req entity.BlogPostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	user := CurrentUser(c)
	var authorID uint
	if user != nil {
		authorID = user.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.blogService.CreatePost(ctx, authorID, &req)
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			Conflict(c, ErrCodeSlugTaken, "slug 已被占用")
			return
		}
		logrus.WithError(err).Error("failed to create post")
		InternalError(c, "创建文章失败")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost 管理端更新文章，改标题会重算 slug
func (h *HTTPHandler) UpdatePost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.BlogPostUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.blogService.UpdatePost(ctx, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, ErrCodePostNotFound, "文章不存在")
		case errors.Is(err, service.ErrSlugTaken):
			Conflict(c, ErrCodeSlugTaken, "slug 已被占用")
		default:
			logrus.WithError(err).WithField("post_id", id).Error("failed to update post")
			InternalError(c, "更新文章失败")
		}
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost 管理端删除文章
func (h *HTTPHandler) DeletePost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.blogService.DeletePost(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodePostNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("post_id", id).Error("failed to delete post")
		InternalError(c, "删除文章失败")
		return
	}

	c.Status(http.StatusNoContent)
}
