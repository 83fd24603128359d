package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/futig/docqa-backend/internal/pkg/ratelimit"
	"github.com/futig/docqa-backend/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const warningInterval = 30 * time.Second

type warningState struct {
	count  int
	lastAt time.Time
}

// RateLimiterMiddleware limits questions per user and warns users who exceed it
type RateLimiterMiddleware struct {
	limiter  *ratelimit.KeyedLimiter
	warnings *cache.Cache
	sender   Sender
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(requestsPerMinute, burstSize int, sender Sender) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiter:  ratelimit.New(requestsPerMinute, burstSize),
		warnings: cache.New(10*time.Minute, 10*time.Minute),
		sender:   sender,
	}
}

// Handle drops updates over the limit
func (rl *RateLimiterMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	userID, chatID := updateOrigin(update)
	if userID == 0 || !rl.limiter.Enabled() {
		next(ctx, update)
		return
	}

	key := strconv.FormatInt(userID, 10)
	if rl.limiter.Allow(key) {
		rl.warnings.Delete(key)
		next(ctx, update)
		return
	}

	ctxzap.Warn(ctx, "rate limit exceeded")
	rl.warn(ctx, key, chatID)
}

// warn notifies the user at most once per warningInterval
func (rl *RateLimiterMiddleware) warn(ctx context.Context, key string, chatID int64) {
	state := warningState{}
	if v, ok := rl.warnings.Get(key); ok {
		state = v.(warningState)
	}

	now := time.Now()
	if !state.lastAt.IsZero() && now.Sub(state.lastAt) <= warningInterval {
		return
	}

	state.count++
	state.lastAt = now
	rl.warnings.SetDefault(key, state)

	msg := tgbotapi.NewMessage(chatID, render.RateLimitWarning(state.count))
	if _, err := rl.sender.Send(msg); err != nil {
		ctxzap.Error(ctx, "failed to send rate limit warning", zap.Error(err))
	}
}
