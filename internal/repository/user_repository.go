package repository

import (
	"context"
	"errors"
	"fmt"

	"actionlink-platform/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户查询
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{BaseRepository{DB: db}}
}

// GetByEmail 按邮箱查询启用的用户，不存在时返回 nil, nil
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.getDB(ctx).Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// EnsureUser 不存在时创建用户，存在时原样返回
func (r *UserRepository) EnsureUser(ctx context.Context, username, email, role string) (*model.User, error) {
	user := model.User{Username: username, Email: email, Role: role, IsActive: true}
	if err := r.getDB(ctx).Where(model.User{Email: email}).FirstOrCreate(&user).Error; err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return &user, nil
}
