package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"freshapp/internal/entity"
	"freshapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListUsers 管理员分页查看用户
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var params entity.UserQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "获取用户列表失败")
		return
	}

	summaries := make([]entity.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, makeUserSummary(&users[i]))
	}

	c.JSON(http.StatusOK, entity.UserListResponse{Users: summaries, Meta: meta})
}

// GetUser 管理员查看单个用户
func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "用户不存在")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to load user")
		InternalError(c, "获取用户失败")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(user))
}

// CreateUser 管理员创建账号并发送邀请邮件
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.authService.CreateInvitedUser(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			BadRequest(c, ErrCodeEmailExists, "邮箱已注册")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "创建用户失败")
		return
	}

	c.JSON(http.StatusCreated, makeUserSummary(user))
}

// UpdateUser 管理员更新用户资料和状态
func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.repo.GetUserByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "用户不存在")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to load user")
		InternalError(c, "更新用户失败")
		return
	}

	updates := entity.UserUpdates{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		IsActive:  req.IsActive,
	}
	if err := h.repo.UpdateUser(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("failed to update user")
		InternalError(c, "更新用户失败")
		return
	}

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("failed to reload user")
		InternalError(c, "更新用户失败")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(user))
}

// parseIDParam 解析路径中的数字 ID，非法时直接响应 400
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "无效的 ID")
		return 0, false
	}
	return uint(value), true
}
