package sql

import (
	"context"
	"fmt"

	"freshapp/internal/entity"
)

// CreateVerificationToken records an issued verification token for auditing.
// 校验只依赖 JWT 签名，这里仅做留痕。
func (r *GormRepository) CreateVerificationToken(ctx context.Context, token *entity.DbVerificationToken) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if token == nil {
		return fmt.Errorf("token is nil")
	}
	return r.db.WithContext(ctx).Create(token).Error
}
