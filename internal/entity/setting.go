package entity

import "time"

// 主题取值
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// DbUserSetting 表示每个用户一行的设置。应用级字段（AppName 等）也存在
// 这张表里：公开的应用设置取第一条 app_name 非空的记录。
type DbUserSetting struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	UserID             uint      `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Theme              string    `gorm:"column:theme;type:varchar(20);not null;default:light" json:"theme"`
	EmailNotifications bool      `gorm:"column:email_notifications;not null;default:true" json:"email_notifications"`
	PushNotifications  bool      `gorm:"column:push_notifications;not null;default:true" json:"push_notifications"`
	AppName            string    `gorm:"column:app_name;type:varchar(255)" json:"app_name"`
	AppLogoURL         string    `gorm:"column:app_logo_url;type:varchar(512)" json:"app_logo_url"`
	MetaDescription    string    `gorm:"column:meta_description;type:text" json:"meta_description"`
}

// TableName 指定表名。
func (DbUserSetting) TableName() string {
	return "user_settings"
}

// ValidTheme reports whether the value is an accepted theme name.
func ValidTheme(value string) bool {
	switch value {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// SettingUpdateRequest is a sparse patch: absent fields stay untouched.
// FullName and AvatarURL patch the owning user row, not the settings row.
type SettingUpdateRequest struct {
	Theme              *string `json:"theme,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	PushNotifications  *bool   `json:"push_notifications,omitempty"`
	FullName           *string `json:"full_name,omitempty"`
	AvatarURL          *string `json:"avatar_url,omitempty"`
	AppName            *string `json:"app_name,omitempty"`
	AppLogoURL         *string `json:"app_logo_url,omitempty"`
	MetaDescription    *string `json:"meta_description,omitempty"`
}
