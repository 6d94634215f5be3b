package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"freshapp/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 单个上传文件的大小上限
const maxUploadBytes = 5 << 20

// 上传用途 → 是否需要管理员权限
var uploadCategories = map[string]bool{
	"avatar": false,
	"cover":  true,
	"logo":   true,
}

var allowedUploadExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
	"svg":  {},
}

// Upload 接收图片上传并写入配置的存储后端
func (h *HTTPHandler) Upload(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, ErrCodeUnauthorized, "需要登录")
		return
	}

	category := strings.ToLower(strings.TrimSpace(c.PostForm("category")))
	adminOnly, ok := uploadCategories[category]
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "无效的上传用途")
		return
	}
	if adminOnly && !user.IsAdmin() {
		Forbidden(c, "需要管理员权限")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "缺少上传文件")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		BadRequest(c, ErrCodeFileTooLarge, "文件超过 5MB 限制")
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	if _, ok := allowedUploadExtensions[ext]; !ok {
		BadRequest(c, ErrCodeBadFileType, "不支持的文件类型")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded file")
		InternalError(c, "上传失败")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded file")
		InternalError(c, "上传失败")
		return
	}
	if len(data) > maxUploadBytes {
		BadRequest(c, ErrCodeFileTooLarge, "文件超过 5MB 限制")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	key, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  category,
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).WithField("category", category).Error("failed to store upload")
		InternalError(c, "上传失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key": key,
		"url": h.publicURL(key),
	})
}
