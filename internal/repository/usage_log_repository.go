package repository

import (
	"context"
	"errors"
	"fmt"

	"actionlink-platform/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageLogRepository 使用记录存储，只追加
type UsageLogRepository struct {
	BaseRepository
}

func NewUsageLogRepository(db *gorm.DB) *UsageLogRepository {
	return &UsageLogRepository{BaseRepository{DB: db}}
}

// Exists 判断用户是否已使用过该链接
func (r *UsageLogRepository) Exists(ctx context.Context, linkID string, userID uint) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&model.UsageLog{}).
		Where("link_id = ? AND user_id = ?", linkID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询使用记录失败: %w", err)
	}
	return count > 0, nil
}

// Create 插入使用记录。(link_id, user_id) 已存在时返回 false 而不是错误
func (r *UsageLogRepository) Create(ctx context.Context, row *model.UsageLog) (bool, error) {
	res := r.getDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("保存使用记录失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListByLink 按时间顺序列出链接的使用记录
func (r *UsageLogRepository) ListByLink(ctx context.Context, linkID string) ([]*model.UsageLog, error) {
	var rows []*model.UsageLog
	if err := r.getDB(ctx).Where("link_id = ?", linkID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询使用记录失败: %w", err)
	}
	return rows, nil
}
