package entity

import "time"

const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
)

// DbUser represents a persisted user account. PasswordHash is empty for
// Google-only accounts; GoogleID is nil for password-only accounts. An
// account never holds neither.
type DbUser struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	FullName     string    `gorm:"column:full_name;type:varchar(255);not null;default:''" json:"full_name"`
	AvatarURL    string    `gorm:"column:avatar_url;type:varchar(512)" json:"avatar_url"`
	Role         string    `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	IsVerified   bool      `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	GoogleID     *string   `gorm:"column:google_id;type:varchar(255);uniqueIndex" json:"-"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	AvatarURL  string    `json:"avatar_url"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserQuery supports listing users with pagination and substring search.
type UserQuery struct {
	BaseParams
	Search string `json:"search" form:"search" query:"search"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthSignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

type AuthVerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type AuthRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthGoogleRequest carries either a ready id_token or an authorization code
// to exchange for one.
type AuthGoogleRequest struct {
	IDToken string `json:"id_token"`
	Code    string `json:"code"`
}

// AuthTokenResponse is the token pair returned by the auth endpoints.
type AuthTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserCreateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type UserUpdateRequest struct {
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *Meta         `json:"meta"`
}
