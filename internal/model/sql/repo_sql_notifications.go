package sql

import (
	"context"
	"fmt"

	"freshapp/internal/entity"
)

// CreateNotification persists a new notification.
func (r *GormRepository) CreateNotification(ctx context.Context, notification *entity.DbNotification) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if notification == nil {
		return fmt.Errorf("notification is nil")
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListNotifications returns a user's notifications, newest first.
func (r *GormRepository) ListNotifications(ctx context.Context, params *entity.NotificationQuery) ([]entity.DbNotification, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if params == nil || params.UserID == 0 {
		return nil, nil, fmt.Errorf("invalid user id")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbNotification{}).Where("user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize := normalisePage(params.BaseParams)
	offset := (page - 1) * pageSize

	var notifications []entity.DbNotification
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return notifications, meta, nil
}

// GetNotification loads a notification owned by the given user.
func (r *GormRepository) GetNotification(ctx context.Context, id, userID uint) (*entity.DbNotification, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 || userID == 0 {
		return nil, fmt.Errorf("invalid notification id")
	}
	var notification entity.DbNotification
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkNotificationRead flips a notification to read. 重复调用无副作用。
func (r *GormRepository) MarkNotificationRead(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid notification id")
	}
	return r.db.WithContext(ctx).Model(&entity.DbNotification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// MarkAllNotificationsRead marks every unread notification of the user as read
// and returns the number of rows affected. Rows created after the snapshot are
// untouched.
func (r *GormRepository) MarkAllNotificationsRead(ctx context.Context, userID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	result := r.db.WithContext(ctx).Model(&entity.DbNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
