package entity

// UserUpdates 用户更新字段
type UserUpdates struct {
	FullName     *string
	AvatarURL    *string
	PasswordHash *string
	Role         *string
	IsVerified   *bool
	IsActive     *bool
	GoogleID     *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.FullName != nil {
		updates["full_name"] = *u.FullName
	}
	if u.AvatarURL != nil {
		updates["avatar_url"] = *u.AvatarURL
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.IsVerified != nil {
		updates["is_verified"] = *u.IsVerified
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.GoogleID != nil {
		updates["google_id"] = *u.GoogleID
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// BlogPostUpdates 博客文章更新字段
type BlogPostUpdates struct {
	Title         *string
	Slug          *string
	Content       *string
	Excerpt       *string
	CoverImageURL *string
	IsPublished   *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u BlogPostUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Slug != nil {
		updates["slug"] = *u.Slug
	}
	if u.Content != nil {
		updates["content"] = *u.Content
	}
	if u.Excerpt != nil {
		updates["excerpt"] = *u.Excerpt
	}
	if u.CoverImageURL != nil {
		updates["cover_image_url"] = *u.CoverImageURL
	}
	if u.IsPublished != nil {
		updates["is_published"] = *u.IsPublished
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u BlogPostUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// SettingUpdates 用户设置更新字段
type SettingUpdates struct {
	Theme              *string
	EmailNotifications *bool
	PushNotifications  *bool
	AppName            *string
	AppLogoURL         *string
	MetaDescription    *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u SettingUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Theme != nil {
		updates["theme"] = *u.Theme
	}
	if u.EmailNotifications != nil {
		updates["email_notifications"] = *u.EmailNotifications
	}
	if u.PushNotifications != nil {
		updates["push_notifications"] = *u.PushNotifications
	}
	if u.AppName != nil {
		updates["app_name"] = *u.AppName
	}
	if u.AppLogoURL != nil {
		updates["app_logo_url"] = *u.AppLogoURL
	}
	if u.MetaDescription != nil {
		updates["meta_description"] = *u.MetaDescription
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u SettingUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
