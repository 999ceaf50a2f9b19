package shortcode

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"actionlink-platform/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// CacheKeyPrefix 重定向缓存键前缀
	CacheKeyPrefix = "shortlink:"
	// CacheTTL 重定向缓存时长
	CacheTTL = 24 * time.Hour

	maxCreateAttempts = 3
)

// CodeSource 提供候选短码
type CodeSource interface {
	GetCode() (string, error)
}

// Provider 为行动链接铸造短链接，并写入重定向缓存
type Provider struct {
	db      *gorm.DB
	codes   CodeSource
	cache   redis.Cmdable
	baseURL string
	logger  *zap.SugaredLogger
}

// NewProvider 创建短链接提供者，cache 为 nil 时不写缓存
func NewProvider(db *gorm.DB, codes CodeSource, cache redis.Cmdable, baseURL string, logger *zap.SugaredLogger) *Provider {
	return &Provider{
		db:      db,
		codes:   codes,
		cache:   cache,
		baseURL: baseURL,
		logger:  logger.Named("shortlink_provider"),
	}
}

// CreateShortLink 保存短码到长链接的映射，返回完整短链接
func (p *Provider) CreateShortLink(ctx context.Context, targetType, action, title, longURL string) (string, error) {
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		code, err := p.codes.GetCode()
		if err != nil {
			return "", fmt.Errorf("获取短码失败: %w", err)
		}

		link := model.ShortLink{
			ShortCode:   code,
			OriginalURL: longURL,
			TargetType:  targetType,
			Action:      action,
			Title:       title,
			IsActive:    true,
		}
		err = p.db.WithContext(ctx).Create(&link).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			p.logger.Warnf("短码 %s 冲突，第 %d 次重试", code, attempt)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("保存短链接失败: %w", err)
		}

		if p.cache != nil {
			cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := p.cache.Set(cctx, CacheKeyPrefix+code, longURL, CacheTTL).Err(); err != nil {
				p.logger.Warnf("写入短链接缓存失败: %v", err)
			}
			cancel()
		}

		shortURL, err := url.JoinPath(p.baseURL, code)
		if err != nil {
			return "", fmt.Errorf("拼接短链接失败: %w", err)
		}
		return shortURL, nil
	}
	return "", ErrExhausted
}
