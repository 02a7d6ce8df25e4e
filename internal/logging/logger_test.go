package logging_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/gamebook/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestNew_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatText)
	logger.Error("boom", "error", errors.New("bad"))

	assert.Contains(t, buf.String(), "err=bad")
	assert.NotContains(t, buf.String(), "error=")
}

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelWarn, logging.FormatJSON)
	logger.Info("hidden")
	logger.Warn("shown", "session_id", "s1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"session_id":"s1"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("chatty"))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatText)

	ctx := logging.WithContext(context.Background(), logger)
	logging.FromContext(ctx).Info("scoped")
	assert.Contains(t, buf.String(), "scoped")

	assert.Equal(t, slog.Default(), logging.FromContext(context.Background()))
}
