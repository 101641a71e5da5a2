package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockNotObtained 锁已被其他请求持有
var ErrLockNotObtained = errors.New("lock not obtained")

// DefaultCommitLockTTL 交付锁默认有效期
const DefaultCommitLockTTL = 15 * time.Second

// DeliveryLocker 基于 redislock 的订单交付锁，Redis 未启用时直接放行
type DeliveryLocker struct {
	ttl time.Duration
}

// NewDeliveryLocker 创建交付锁
func NewDeliveryLocker(ttl time.Duration) *DeliveryLocker {
	if ttl <= 0 {
		ttl = DefaultCommitLockTTL
	}
	return &DeliveryLocker{ttl: ttl}
}

// Lock 获取订单交付锁，返回释放函数
func (l *DeliveryLocker) Lock(ctx context.Context, orderID uint) (func(), error) {
	noop := func() {}
	if l == nil || !Enabled() || redisLocker == nil {
		return noop, nil
	}
	lock, err := redisLocker.Obtain(ctx, buildKey(fmt.Sprintf("lock:delivery:%d", orderID)), l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 5),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return noop, ErrLockNotObtained
		}
		return noop, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
