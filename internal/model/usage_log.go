package model

import (
	"time"
)

// UsageLog 链接使用记录，(link_id, user_id) 唯一
type UsageLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	LinkID    string    `gorm:"type:char(36);not null;uniqueIndex:uk_usage_logs_link_user,priority:1" json:"link_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_usage_logs_link_user,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (UsageLog) TableName() string {
	return "usage_logs"
}
