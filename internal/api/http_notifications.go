package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"freshapp/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListNotifications 当前用户的通知列表，支持 unread_only 过滤
func (h *HTTPHandler) ListNotifications(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, ErrCodeUnauthorized, "需要登录")
		return
	}

	var params entity.NotificationQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}
	params.UserID = user.ID

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	notifications, meta, err := h.repo.ListNotifications(ctx, &params)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to list notifications")
		InternalError(c, "获取通知失败")
		return
	}

	c.JSON(http.StatusOK, entity.NotificationListResponse{Notifications: notifications, Meta: meta})
}

// MarkNotificationRead 标记单条已读，只能操作自己的通知
func (h *HTTPHandler) MarkNotificationRead(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, ErrCodeUnauthorized, "需要登录")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	// 归属校验，别人的通知等同不存在
	if _, err := h.repo.GetNotification(ctx, id, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeNotificationNotFound, "通知不存在")
			return
		}
		logrus.WithError(err).WithField("notification_id", id).Error("failed to load notification")
		InternalError(c, "标记已读失败")
		return
	}

	if err := h.repo.MarkNotificationRead(ctx, id); err != nil {
		logrus.WithError(err).WithField("notification_id", id).Error("failed to mark notification read")
		InternalError(c, "标记已读失败")
		return
	}

	notification, err := h.repo.GetNotification(ctx, id, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("notification_id", id).Error("failed to reload notification")
		InternalError(c, "标记已读失败")
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkAllNotificationsRead 全部标记已读，返回影响条数
func (h *HTTPHandler) MarkAllNotificationsRead(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, ErrCodeUnauthorized, "需要登录")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	affected, err := h.repo.MarkAllNotificationsRead(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to mark all notifications read")
		InternalError(c, "标记已读失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": affected})
}

// CreateNotification 管理员给指定用户发通知
func (h *HTTPHandler) CreateNotification(c *gin.Context) {
	var req entity.NotificationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.repo.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "用户不存在")
			return
		}
		logrus.WithError(err).WithField("user_id", req.UserID).Error("failed to load notification target")
		InternalError(c, "创建通知失败")
		return
	}

	notification := &entity.DbNotification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Link:    req.Link,
	}
	if err := h.repo.CreateNotification(ctx, notification); err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Error("failed to create notification")
		InternalError(c, "创建通知失败")
		return
	}

	c.JSON(http.StatusCreated, notification)
}
