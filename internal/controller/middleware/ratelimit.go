// Package middleware обёртки над обработчиками бота
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	limitedText            = "⏳ Слишком много запросов. Подождите немного и попробуйте снова."
)

// userLimiter лимитер пользователя и время последнего обращения
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter ограничивает число команд от одного пользователя в минуту
type RateLimiter struct {
	perMinute       int
	cleanupInterval time.Duration
	logger          *zap.Logger

	mu       sync.Mutex
	limiters map[int64]*userLimiter

	// notify отвечает пользователю, превысившему лимит
	notify func(ctx context.Context, b *bot.Bot, chatID int64)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter создаёт лимитер. perMinute <= 0 отключает ограничение.
// Фоновая очистка старых записей запускается сразу.
func NewRateLimiter(perMinute int, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		perMinute:       perMinute,
		cleanupInterval: defaultCleanupInterval,
		logger:          logger,
		limiters:        make(map[int64]*userLimiter),
		stopCh:          make(chan struct{}),
	}
	rl.notify = rl.sendLimited

	if perMinute > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

// Stop останавливает фоновую очистку
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow true если пользователь ещё не исчерпал лимит
func (rl *RateLimiter) Allow(userID int64) bool {
	if rl.perMinute <= 0 {
		return true
	}
	return rl.getOrCreate(userID).Allow()
}

// Middleware пропускает апдейт дальше, только если лимит не превышен.
// Апдейты без автора не ограничиваются.
func (rl *RateLimiter) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			next(ctx, b, update)
			return
		}

		userID := update.Message.From.ID
		if !rl.Allow(userID) {
			rl.logger.Warn("Rate limit exceeded", zap.Int64("user_id", userID))
			rl.notify(ctx, b, update.Message.Chat.ID)
			return
		}

		next(ctx, b, update)
	}
}

// Size число пользователей, для которых хранится лимитер
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) getOrCreate(userID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ul, ok := rl.limiters[userID]; ok {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.perMinute)
	rl.limiters[userID] = &userLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (rl *RateLimiter) sendLimited(ctx context.Context, b *bot.Bot, chatID int64) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   limitedText,
	})
	if err != nil {
		rl.logger.Error("Failed to send rate limit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup удаляет лимитеры, к которым не обращались дольше двух интервалов очистки
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.cleanupInterval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for userID, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.limiters, userID)
		}
	}
}
