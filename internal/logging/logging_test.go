package logging

import (
	"log/slog"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("dev"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(""))
	assert.Equal(t, slog.LevelError, parseLevel("bogus"))
}

func TestPionLevel(t *testing.T) {
	assert.Equal(t, logging.LogLevelDebug, pionLevel(slog.LevelDebug))
	assert.Equal(t, logging.LogLevelWarn, pionLevel(slog.LevelWarn))
	assert.Equal(t, logging.LogLevelError, pionLevel(slog.LevelError))
}
