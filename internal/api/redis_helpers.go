package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"jobverse/internal/errcode"
)

var (
	errLoginRateLimited = errcode.TooManyRequests("Too many login attempts. Please try again later.")
	errLoginLocked      = errcode.TooManyRequests("Account temporarily locked. Please try again later.")
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// loginStore 是登录限流用到的 Redis 命令子集，*redis.Client 直接满足。
type loginStore interface {
	redisRateCounter
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// loginLimiter 按 IP+邮箱 做小时级限流，并在连续失败达到阈值后锁定邮箱。
// Redis 出错时放行；nil 接收者表示未启用。
type loginLimiter struct {
	store         loginStore
	ratePerHour   int
	lockThreshold int
	lockTTL       time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func newLoginLimiter(store loginStore, ratePerHour, lockThreshold int, lockTTL time.Duration, logger *slog.Logger) *loginLimiter {
	if store == nil {
		return nil
	}
	return &loginLimiter{
		store:         store,
		ratePerHour:   ratePerHour,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
		logger:        logger,
		now:           time.Now,
	}
}

func lockKey(email string) string      { return "lock:login:" + email }
func failureKey(email string) string   { return "lock:login:fail:" + email }
func normalizeKeyPart(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Allow 在请求进入认证前调用。
func (l *loginLimiter) Allow(ctx context.Context, ip, email string) error {
	if l == nil {
		return nil
	}
	email = normalizeKeyPart(email)

	if l.ratePerHour > 0 {
		rateKey := "rate:login:" + ip + ":" + email + ":" + l.now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, l.store, rateKey, time.Hour)
		if err != nil {
			l.logger.Warn("login rate counter unavailable", slog.Any("error", err))
		} else if count > int64(l.ratePerHour) {
			return errLoginRateLimited
		}
	}

	if ttl, err := l.store.TTL(ctx, lockKey(email)).Result(); err == nil && ttl > 0 {
		return errLoginLocked
	}
	return nil
}

// RecordFailure 累计失败次数，达到阈值后写入锁定标记。
func (l *loginLimiter) RecordFailure(ctx context.Context, email string) {
	if l == nil || l.lockThreshold <= 0 {
		return
	}
	email = normalizeKeyPart(email)

	count, err := incrWithTTL(ctx, l.store, failureKey(email), l.lockTTL)
	if err != nil {
		l.logger.Warn("login failure counter unavailable", slog.Any("error", err))
		return
	}
	if count >= int64(l.lockThreshold) {
		if err := l.store.Set(ctx, lockKey(email), "1", l.lockTTL).Err(); err != nil {
			l.logger.Warn("set login lock failed", slog.Any("error", err))
			return
		}
		_ = l.store.Del(ctx, failureKey(email)).Err()
		l.logger.Info("login locked after repeated failures", slog.String("email", email))
	}
}

// Reset 登录成功后清理失败计数。
func (l *loginLimiter) Reset(ctx context.Context, email string) {
	if l == nil {
		return
	}
	_ = l.store.Del(ctx, failureKey(normalizeKeyPart(email))).Err()
}
