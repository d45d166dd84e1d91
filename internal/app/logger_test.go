package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	dev := NewLogger("development", "")
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod := NewLogger("production", "")
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))

	quiet := NewLogger("development", "warn")
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))

	// неизвестный уровень игнорируется
	odd := NewLogger("production", "loud")
	assert.True(t, odd.Core().Enabled(zapcore.InfoLevel))
}
