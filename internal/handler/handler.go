package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"actionlink-platform/internal/model"
	"actionlink-platform/internal/shortcode"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShortLinkHandler 短链接重定向和统计
type ShortLinkHandler struct {
	db     *gorm.DB
	redis  redis.Cmdable
	logger *zap.SugaredLogger
}

// NewShortLinkHandler 创建处理器实例，redisClient 为 nil 时不使用缓存
func NewShortLinkHandler(db *gorm.DB, redisClient redis.Cmdable, logger *zap.SugaredLogger) *ShortLinkHandler {
	return &ShortLinkHandler{
		db:     db,
		redis:  redisClient,
		logger: logger.Named("short_link_handler"),
	}
}

// HealthCheck 健康检查
func (h *ShortLinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// RedirectToOriginal 短码重定向到行动链接的长地址
func (h *ShortLinkHandler) RedirectToOriginal(c *gin.Context) {
	code := c.Param("code")
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		cachedURL, err := h.redis.Get(ctx, shortcode.CacheKeyPrefix+code).Result()
		cancel()
		if err == nil {
			go h.incrementClickCount(code)
			c.Redirect(http.StatusFound, cachedURL)
			return
		}
		if !errors.Is(err, redis.Nil) {
			h.logger.Warnf("读取短链接缓存失败: %v", err)
		}
	}

	var link model.ShortLink
	if err := h.db.WithContext(c.Request.Context()).Where("short_code = ? AND is_active = ?", code, true).First(&link).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "链接不存在或已禁用"})
		return
	}

	go h.incrementClickCount(code)
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()
		h.redis.Set(ctx, shortcode.CacheKeyPrefix+code, link.OriginalURL, shortcode.CacheTTL)
	}
	c.Redirect(http.StatusFound, link.OriginalURL)
}

// GetStats 短链接总体统计
func (h *ShortLinkHandler) GetStats(c *gin.Context) {
	var stats struct {
		TotalLinks  int64 `json:"total_links"`
		TotalClicks int64 `json:"total_clicks"`
		ActiveLinks int64 `json:"active_links"`
	}
	db := h.db.WithContext(c.Request.Context())
	err := errors.Join(
		db.Model(&model.ShortLink{}).Count(&stats.TotalLinks).Error,
		db.Model(&model.ShortLink{}).Select("COALESCE(SUM(click_count), 0)").Scan(&stats.TotalClicks).Error,
		db.Model(&model.ShortLink{}).Where("is_active = ?", true).Count(&stats.ActiveLinks).Error,
	)
	if err != nil {
		h.logger.Errorf("查询短链接统计失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取统计失败"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ShortLinkHandler) incrementClickCount(code string) {
	err := h.db.Model(&model.ShortLink{}).Where("short_code = ?", code).
		Update("click_count", gorm.Expr("click_count + 1")).Error
	if err != nil {
		h.logger.Warnf("更新点击次数失败: %v", err)
	}
}
