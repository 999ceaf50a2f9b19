// Package lock 提供带 TTL 的互斥锁，用于多实例间的定时任务单飞
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout 获取锁的请求超时（通常意味着存储不可达或繁忙）
var ErrTimeout = errors.New("lock acquisition timed out")

// Locker 原子的 “不存在才设置并带过期时间” 锁。
// 每次获取尝试写入自己的令牌，释放时只删除令牌匹配的锁。
type Locker interface {
	// TryAcquire 尝试获取锁，被他人持有时返回 false。
	// 返回 ErrTimeout 时写入可能已生效，token 仍非空，调用方应用它释放。
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	// Release 仅当锁仍由 token 持有时删除，否则什么也不做
	Release(ctx context.Context, key, token string) error
}
