// Package sweeper 定时将过期的行动链接置为 Expired
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"actionlink-platform/internal/identity"
	"actionlink-platform/internal/lock"
	"actionlink-platform/internal/metrics"
	"actionlink-platform/internal/model"
	"actionlink-platform/internal/status"

	"go.uber.org/zap"
)

// LinkStore 清理任务需要的链接存储操作
type LinkStore interface {
	ByFilter(ctx context.Context, filter model.ActionLinkFilter, orderBy string, limit int) ([]*model.ActionLink, error)
	UpdateBatch(ctx context.Context, links []*model.ActionLink, from []status.Status) (int64, error)
}

// UserResolver 用于解析系统用户
type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Config 清理任务参数
type Config struct {
	LockKey           string
	BatchSize         int
	MaxRunInterval    time.Duration
	LockBuffer        time.Duration
	ExpirableStatuses []string
}

// ExpirationSweeper 分批将 date_end 已过的链接置为 Expired。
// 多实例之间只通过分布式锁协调。
type ExpirationSweeper struct {
	links  LinkStore
	users  UserResolver
	locker lock.Locker
	cfg    Config
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewExpirationSweeper(links LinkStore, users UserResolver, locker lock.Locker, cfg Config, logger *zap.SugaredLogger) *ExpirationSweeper {
	if cfg.LockKey == "" {
		cfg.LockKey = "jobs:expire-action-links"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRunInterval <= 0 {
		cfg.MaxRunInterval = 30 * time.Second
	}
	if cfg.LockBuffer <= 0 {
		cfg.LockBuffer = 10 * time.Second
	}
	if len(cfg.ExpirableStatuses) == 0 {
		cfg.ExpirableStatuses = []string{status.Active.String()}
	}
	return &ExpirationSweeper{
		links:  links,
		users:  users,
		locker: locker,
		cfg:    cfg,
		logger: logger.Named("expiration_sweeper"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run 执行一次清理。任何错误都只记录日志，不向外传播。
// 返回本次置为 Expired 的链接数量。
func (s *ExpirationSweeper) Run(ctx context.Context) (expired int) {
	start := s.now()
	deadline := start.Add(s.cfg.MaxRunInterval)
	lockTTL := s.cfg.MaxRunInterval + s.cfg.LockBuffer
	outcome := "failed"
	// 本次尝试写入的锁令牌，只用它释放
	var token string

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("过期清理任务异常: %v", r)
			outcome = "failed"
		}
		if token != "" {
			if err := s.locker.Release(context.WithoutCancel(ctx), s.cfg.LockKey, token); err != nil {
				s.logger.Warnf("释放锁失败: %v", err)
			}
		}
		metrics.SweepRuns.WithLabelValues(outcome).Inc()
	}()

	token, acquired, err := s.locker.TryAcquire(ctx, s.cfg.LockKey, lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			// 超时的写入可能已在存储端生效，由 defer 用本次令牌释放
			outcome = "lock_timeout"
			s.logger.Infof("获取锁超时，可能有其他实例正在执行: %v", err)
			return 0
		}
		s.logger.Errorf("获取锁失败: %v", err)
		return 0
	}
	if !acquired {
		outcome = "skipped"
		s.logger.Infof("锁 %s 已被持有，跳过本次清理", s.cfg.LockKey)
		return 0
	}
	defer func() {
		metrics.SweepDuration.Observe(s.now().Sub(start).Seconds())
	}()

	expired, hitDeadline, err := s.sweep(ctx, deadline)
	if err != nil {
		s.logger.Errorf("过期清理失败，已处理 %d 条: %v", expired, err)
		return expired
	}
	outcome = "completed"
	if hitDeadline {
		outcome = "deadline"
	}
	s.logger.Infof("过期清理完成，共处理 %d 条，耗时 %s", expired, s.now().Sub(start))
	return expired
}

func (s *ExpirationSweeper) sweep(ctx context.Context, deadline time.Time) (int, bool, error) {
	expirable, err := status.ResolveNames(s.cfg.ExpirableStatuses)
	if err != nil {
		return 0, false, err
	}
	expiredStatus, err := status.GetByName(status.Expired.String())
	if err != nil {
		return 0, false, err
	}
	actor, err := s.users.GetByEmail(ctx, identity.SystemEmail)
	if err != nil {
		return 0, false, err
	}
	if actor == nil {
		return 0, false, fmt.Errorf("system user %s not found", identity.SystemEmail)
	}

	total := 0
	for {
		now := s.now()
		batch, err := s.links.ByFilter(ctx, model.ActionLinkFilter{
			Statuses:      expirable,
			DateEndBefore: &now,
		}, "date_end ASC", s.cfg.BatchSize)
		if err != nil {
			return total, false, err
		}
		if len(batch) == 0 {
			return total, false, nil
		}

		for _, link := range batch {
			link.Status = expiredStatus
			link.ModifiedByUserID = actor.ID
			link.UpdatedAt = now
		}
		// 只覆盖仍处于可过期状态的链接，并发先记录的阻塞原因（如 LimitReached）保持不变
		updated, err := s.links.UpdateBatch(ctx, batch, expirable)
		if err != nil {
			return total, false, err
		}
		total += int(updated)
		metrics.LinksExpired.Add(float64(updated))
		s.logger.Debugf("已将 %d/%d 条链接置为过期", updated, len(batch))

		if s.now().After(deadline) {
			s.logger.Warnf("已到达本次运行截止时间，剩余链接留给下次处理")
			return total, true, nil
		}
	}
}
