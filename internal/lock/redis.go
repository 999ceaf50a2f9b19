package lock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 只有令牌匹配时才删除，防止误删他人在本锁过期后获得的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式锁
type RedisLocker struct {
	client         redis.Cmdable
	prefix         string
	acquireTimeout time.Duration
	logger         *zap.SugaredLogger
}

// NewRedisLocker 创建 Redis 锁，acquireTimeout <= 0 时不额外限制单次获取耗时
func NewRedisLocker(client redis.Cmdable, acquireTimeout time.Duration, logger *zap.SugaredLogger) *RedisLocker {
	return &RedisLocker{
		client:         client,
		prefix:         "lock:",
		acquireTimeout: acquireTimeout,
		logger:         logger.Named("redis_locker"),
	}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.acquireTimeout)
		defer cancel()
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		if isTimeout(err) {
			// 请求可能已在服务端生效，返回本次令牌以便调用方清理
			return token, false, fmt.Errorf("%w: %s", ErrTimeout, key)
		}
		return "", false, fmt.Errorf("获取锁 %s 失败: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}

	l.logger.Debugf("已获取锁 %s, ttl=%s", key, ttl)
	return token, true, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}

	deleted, err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Int()
	if err != nil {
		return fmt.Errorf("释放锁 %s 失败: %w", key, err)
	}
	if deleted == 0 {
		l.logger.Debugf("锁 %s 未由本令牌持有，跳过释放", key)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
