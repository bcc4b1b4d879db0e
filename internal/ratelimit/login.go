package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/koverhq/kover/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyLogin = "auth:login:%s:%s"

// Five attempts, refilling one every twelve seconds.
const (
	loginRate  = 1.0 / 12.0
	loginBurst = 5
)

// LoginLimiter throttles password attempts per (email, client IP). A nil
// limiter allows everything; it stays nil when no redis address is
// configured.
type LoginLimiter struct {
	bucket *TokenBucket
}

func NewLoginLimiter(cfg config.Config) *LoginLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	return &LoginLimiter{bucket: NewTokenBucket(client)}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *LoginLimiter) Allow(ctx context.Context, email, clientIP string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyLogin, strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(clientIP))
	return l.bucket.Allow(ctx, key, loginRate, loginBurst)
}
