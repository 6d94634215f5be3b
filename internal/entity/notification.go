package entity

import "time"

// DbNotification 表示发给单个用户的通知。只读转换：未读 → 已读。
type DbNotification struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:user_id;index;not null" json:"user_id"`
	Title     string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	Link      string    `gorm:"column:link;type:varchar(512)" json:"link"`
	IsRead    bool      `gorm:"column:is_read;not null;default:false" json:"is_read"`
}

// TableName 指定表名。
func (DbNotification) TableName() string {
	return "notifications"
}

// NotificationQuery filters a user's notifications. UserID is always set from
// the authenticated request, never from client input.
type NotificationQuery struct {
	BaseParams
	UnreadOnly bool `json:"unread_only" form:"unread_only" query:"unread_only"`
	UserID     uint `json:"-" form:"-"`
}

type NotificationCreateRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Link    string `json:"link"`
}

type NotificationListResponse struct {
	Notifications []DbNotification `json:"notifications"`
	Meta          *Meta            `json:"meta"`
}
