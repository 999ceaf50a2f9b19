package model

import (
	"fmt"
	"time"

	"actionlink-platform/internal/status"
)

// EntityType 链接绑定的目标实体类型
type EntityType string

// Action 链接动作
type Action string

const (
	EntityTypeOpportunity EntityType = "Opportunity"

	ActionShare  Action = "Share"
	ActionVerify Action = "Verify"
)

// ActionLink 行动链接模型
type ActionLink struct {
	ID               string        `gorm:"type:char(36);primaryKey" json:"id"`
	Name             string        `gorm:"size:255;not null" json:"name"`
	Description      *string       `gorm:"type:text" json:"description,omitempty"`
	EntityType       EntityType    `gorm:"size:32;not null;index:idx_action_links_entity,priority:1" json:"entity_type"`
	Action           Action        `gorm:"size:16;not null;index:idx_action_links_entity,priority:2" json:"action"`
	EntityID         string        `gorm:"size:64;not null;index:idx_action_links_entity,priority:3" json:"entity_id"`
	OrganizationID   *string       `gorm:"size:64;index" json:"organization_id,omitempty"` // 仅用于外部鉴权
	Status           status.Status `gorm:"column:status_id;not null;index:idx_action_links_status_date_end,priority:1" json:"status_id"`
	URL              string        `gorm:"type:text;not null" json:"url"`
	ShortURL         string        `gorm:"type:text;not null" json:"short_url"`
	UsagesLimit      *int          `json:"usages_limit,omitempty"`
	UsagesTotal      int           `gorm:"not null;default:0" json:"usages_total"`
	DateEnd          *time.Time    `gorm:"index:idx_action_links_status_date_end,priority:2" json:"date_end,omitempty"`
	ShareKey         *string       `gorm:"size:200;uniqueIndex:uk_action_links_share_key" json:"-"`
	CreatedByUserID  uint          `gorm:"not null" json:"created_by_user_id"`
	ModifiedByUserID uint          `gorm:"not null" json:"modified_by_user_id"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TableName 指定表名
func (ActionLink) TableName() string {
	return "action_links"
}

// ShareKeyFor 分享链接在同一目标实体上的唯一键
func ShareKeyFor(entityType EntityType, action Action, entityID string) string {
	return fmt.Sprintf("%s:%s:%s", entityType, action, entityID)
}

// ActionLinkFilter 仓储查询条件，nil 字段不参与过滤
type ActionLinkFilter struct {
	ID            *string
	EntityType    *EntityType
	Action        *Action
	EntityID      *string
	Statuses      []status.Status
	DateEndBefore *time.Time
}
