package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.now = func() time.Time { return now }

	first, ok, err := l.TryAcquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, _ = l.TryAcquire(ctx, "job", time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	second, ok, _ := l.TryAcquire(ctx, "job", time.Minute)
	assert.True(t, ok, "过期后可重新获取")

	// 过期持有者迟到的释放不能影响新的持有者
	require.NoError(t, l.Release(ctx, "job", first))
	_, ok, _ = l.TryAcquire(ctx, "job", time.Minute)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "job", second))
	_, ok, _ = l.TryAcquire(ctx, "job", time.Minute)
	assert.True(t, ok)
}

func TestLocalLocker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := NewLocalLocker().TryAcquire(ctx, "job", time.Minute)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

var _ Locker = (*LocalLocker)(nil)
var _ Locker = (*RedisLocker)(nil)
