package entity

import "time"

// DbVerificationToken 是验证/邀请令牌的流水记录。令牌本身自包含
// （签名 + 过期时间 + 类型），校验时不回查这张表，仅做留痕。
type DbVerificationToken struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Token     string     `gorm:"column:token;type:varchar(512);uniqueIndex;not null" json:"-"`
	Email     string     `gorm:"column:email;type:varchar(255);not null" json:"email"`
	TokenType string     `gorm:"column:token_type;type:varchar(50);not null" json:"token_type"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at"`
}

// TableName 指定表名。
func (DbVerificationToken) TableName() string {
	return "verification_tokens"
}
