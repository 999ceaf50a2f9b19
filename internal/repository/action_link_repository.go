package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"actionlink-platform/internal/model"
	"actionlink-platform/internal/status"

	"gorm.io/gorm"
)

// ActionLinkRepository 行动链接存储，不提供删除
type ActionLinkRepository struct {
	BaseRepository
}

func NewActionLinkRepository(db *gorm.DB) *ActionLinkRepository {
	return &ActionLinkRepository{BaseRepository{DB: db}}
}

// ByID 按 ID 查询，不存在时返回 nil, nil
func (r *ActionLinkRepository) ByID(ctx context.Context, id string) (*model.ActionLink, error) {
	var row model.ActionLink
	if err := r.getDB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询行动链接失败: %w", err)
	}
	return &row, nil
}

func (r *ActionLinkRepository) applyFilter(db *gorm.DB, f model.ActionLinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.EntityType != nil {
		db = db.Where("entity_type = ?", *f.EntityType)
	}
	if f.Action != nil {
		db = db.Where("action = ?", *f.Action)
	}
	if f.EntityID != nil {
		db = db.Where("entity_id = ?", *f.EntityID)
	}
	if len(f.Statuses) > 0 {
		ids := make([]int, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			ids = append(ids, s.ID())
		}
		db = db.Where("status_id IN ?", ids)
	}
	if f.DateEndBefore != nil {
		// sqlite 以带时区偏移的字符串比较时间，统一按 UTC 存取
		db = db.Where("date_end IS NOT NULL AND date_end < ?", f.DateEndBefore.UTC())
	}
	return db
}

// ByFilter 按条件查询
func (r *ActionLinkRepository) ByFilter(ctx context.Context, filter model.ActionLinkFilter, orderBy string, limit int) ([]*model.ActionLink, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&model.ActionLink{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []*model.ActionLink
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询行动链接失败: %w", err)
	}
	return rows, nil
}

// Create 新建链接。分享链接唯一键冲突时返回 gorm.ErrDuplicatedKey
func (r *ActionLinkRepository) Create(ctx context.Context, link *model.ActionLink) error {
	if link.DateEnd != nil {
		end := link.DateEnd.UTC()
		link.DateEnd = &end
	}
	if err := r.getDB(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return gorm.ErrDuplicatedKey
		}
		return fmt.Errorf("保存行动链接失败: %w", err)
	}
	return nil
}

// UpdateBatch 在一个事务中写回一批链接的状态和修改人。
// from 非空时只更新当前状态仍在 from 中的行，已被其他路径改走的链接保持原状。
// 返回实际更新的行数。
func (r *ActionLinkRepository) UpdateBatch(ctx context.Context, links []*model.ActionLink, from []status.Status) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}
	fromIDs := make([]int, 0, len(from))
	for _, s := range from {
		fromIDs = append(fromIDs, s.ID())
	}

	var updated int64
	write := func(db *gorm.DB) error {
		for _, link := range links {
			query := db.Model(link).Select("Status", "ModifiedByUserID", "UpdatedAt")
			if len(fromIDs) > 0 {
				query = query.Where("status_id IN ?", fromIDs)
			}
			res := query.Updates(link)
			if res.Error != nil {
				return fmt.Errorf("更新行动链接 %s 失败: %w", link.ID, res.Error)
			}
			updated += res.RowsAffected
		}
		return nil
	}

	var err error
	if tx, ok := ctx.Value(txContextKey).(*gorm.DB); ok && tx != nil {
		err = write(tx)
	} else {
		err = r.DB.WithContext(ctx).Transaction(write)
	}
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// IncrementUsage 原子地将使用次数加一，并在达到上限时切换为 LimitReached。
// 链接已不可用或已达上限时返回 false，不做任何修改。
func (r *ActionLinkRepository) IncrementUsage(ctx context.Context, id string, actorID uint, now time.Time) (bool, error) {
	db := r.getDB(ctx)

	res := db.Model(&model.ActionLink{}).
		Where("id = ? AND status_id = ?", id, status.Active.ID()).
		Where("(usages_limit IS NULL OR usages_total < usages_limit)").
		Updates(map[string]any{
			"usages_total":        gorm.Expr("usages_total + 1"),
			"modified_by_user_id": actorID,
			"updated_at":          now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("更新使用次数失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := db.Model(&model.ActionLink{}).
		Where("id = ? AND status_id = ?", id, status.Active.ID()).
		Where("usages_limit IS NOT NULL AND usages_total >= usages_limit").
		Update("status_id", status.LimitReached.ID()).Error
	if err != nil {
		return false, fmt.Errorf("更新链接状态失败: %w", err)
	}
	return true, nil
}
