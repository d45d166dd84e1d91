package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func messageFrom(userID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{ID: userID},
			Chat: models.Chat{ID: userID},
			Text: "/help",
		},
	}
}

func TestRateLimiter_AllowBurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(3, zap.NewNop())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(1), "request %d", i)
	}
	assert.False(t, rl.Allow(1))

	// другой пользователь не затронут
	assert.True(t, rl.Allow(2))
	assert.Equal(t, 2, rl.Size())
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, zap.NewNop())
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(1))
	}
	assert.Equal(t, 0, rl.Size())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, zap.NewNop())
	defer rl.Stop()

	var notified []int64
	rl.notify = func(_ context.Context, _ *bot.Bot, chatID int64) {
		notified = append(notified, chatID)
	}

	calls := 0
	handler := rl.Middleware(func(context.Context, *bot.Bot, *models.Update) { calls++ })

	handler(context.Background(), nil, messageFrom(7))
	handler(context.Background(), nil, messageFrom(7))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{7}, notified)

	// апдейты без сообщения проходят без ограничений
	handler(context.Background(), nil, &models.Update{})
	handler(context.Background(), nil, &models.Update{})
	assert.Equal(t, 3, calls)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(5, zap.NewNop())
	defer rl.Stop()

	rl.Allow(1)
	rl.Allow(2)

	rl.cleanup(time.Now())
	assert.Equal(t, 2, rl.Size())

	rl.cleanup(time.Now().Add(3 * rl.cleanupInterval))
	assert.Equal(t, 0, rl.Size())
}
