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

// GetSettings 返回当前用户设置，首次访问时补建默认行
func (h *HTTPHandler) GetSettings(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, ErrCodeUnauthorized, "需要登录")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	setting, err := h.getOrCreateSettings(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to load settings")
		InternalError(c, "获取设置失败")
		return
	}

	c.JSON(http.StatusOK, setting)
}

// UpdateSettings 稀疏更新用户设置；full_name/avatar_url 落在用户表
func (h *HTTPHandler) UpdateSettings(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, ErrCodeUnauthorized, "需要登录")
		return
	}

	var req entity.SettingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	if req.Theme != nil && !entity.ValidTheme(*req.Theme) {
		BadRequest(c, ErrCodeInvalidTheme, "无效的主题")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.getOrCreateSettings(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to load settings")
		InternalError(c, "更新设置失败")
		return
	}

	settingUpdates := entity.SettingUpdates{
		Theme:              req.Theme,
		EmailNotifications: req.EmailNotifications,
		PushNotifications:  req.PushNotifications,
		AppName:            req.AppName,
		AppLogoURL:         req.AppLogoURL,
		MetaDescription:    req.MetaDescription,
	}
	if err := h.repo.UpdateSetting(ctx, user.ID, settingUpdates); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update settings")
		InternalError(c, "更新设置失败")
		return
	}

	if req.FullName != nil || req.AvatarURL != nil {
		userUpdates := entity.UserUpdates{FullName: req.FullName, AvatarURL: req.AvatarURL}
		if err := h.repo.UpdateUser(ctx, user.ID, userUpdates); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update user profile")
			InternalError(c, "更新设置失败")
			return
		}
	}

	setting, err := h.repo.GetSettingByUserID(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to reload settings")
		InternalError(c, "更新设置失败")
		return
	}

	c.JSON(http.StatusOK, setting)
}

// GetPublicAppSettings 未登录可访问的站点品牌信息
func (h *HTTPHandler) GetPublicAppSettings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	setting, err := h.repo.GetPublicAppSetting(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 未配置时回退到环境里的应用名
			c.JSON(http.StatusOK, gin.H{
				"app_name":         h.cfg.AppName,
				"app_logo_url":     "",
				"meta_description": "",
			})
			return
		}
		logrus.WithError(err).Error("failed to load public app settings")
		InternalError(c, "获取应用设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"app_name":         setting.AppName,
		"app_logo_url":     setting.AppLogoURL,
		"meta_description": setting.MetaDescription,
	})
}

func (h *HTTPHandler) getOrCreateSettings(ctx context.Context, userID uint) (*entity.DbUserSetting, error) {
	setting, err := h.repo.GetSettingByUserID(ctx, userID)
	if err == nil {
		return setting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &entity.DbUserSetting{
		UserID:             userID,
		Theme:              entity.ThemeLight,
		EmailNotifications: true,
		PushNotifications:  true,
	}
	if err := h.repo.CreateSetting(ctx, fresh); err != nil {
		// 并发补建时另一请求可能已写入
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return h.repo.GetSettingByUserID(ctx, userID)
		}
		return nil, err
	}
	return fresh, nil
}
