package model

import (
	"gorm.io/gorm"
)

// User 用户模型，凭证由外部身份服务管理，这里只保存归属所需的字段
type User struct {
	gorm.Model
	Username string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email    string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Role     string `gorm:"type:varchar(20);default:'user'"`
	IsActive bool   `gorm:"default:true"`
}

// AllModels 返回需要迁移的全部模型
func AllModels() []any {
	return []any{&User{}, &ShortLink{}, &ActionLink{}, &UsageLog{}}
}
