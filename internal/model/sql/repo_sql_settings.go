package sql

import (
	"context"
	"fmt"

	"freshapp/internal/entity"
)

// GetSettingByUserID loads the settings row owned by the user.
func (r *GormRepository) GetSettingByUserID(ctx context.Context, userID uint) (*entity.DbUserSetting, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	var setting entity.DbUserSetting
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// CreateSetting persists a fresh settings row.
func (r *GormRepository) CreateSetting(ctx context.Context, setting *entity.DbUserSetting) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if setting == nil {
		return fmt.Errorf("setting is nil")
	}
	return r.db.WithContext(ctx).Create(setting).Error
}

// UpdateSetting applies a sparse update to a user's settings row.
func (r *GormRepository) UpdateSetting(ctx context.Context, userID uint, updates entity.SettingUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return fmt.Errorf("invalid user id")
	}
	if updates.IsEmpty() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbUserSetting{}).Where("user_id = ?", userID).Updates(updates.ToMap()).Error
}

// GetPublicAppSetting returns the first settings row that carries an app name.
// 用于未登录访客的站点品牌信息。
func (r *GormRepository) GetPublicAppSetting(ctx context.Context) (*entity.DbUserSetting, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var setting entity.DbUserSetting
	err := r.db.WithContext(ctx).
		Where("app_name IS NOT NULL AND app_name != ''").
		Order("id ASC").
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}
