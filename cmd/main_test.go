package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		env     string
		enabled slog.Level
		muted   slog.Level
	}{
		{envLocal, slog.LevelDebug, slog.LevelDebug - 1},
		{envDev, slog.LevelInfo, slog.LevelDebug},
		{envProd, slog.LevelWarn, slog.LevelInfo},
		{"unknown", slog.LevelError, slog.LevelWarn},
	}
	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			logger := setupLogger(tc.env)

			assert.True(t, logger.Enabled(ctx, tc.enabled))
			assert.False(t, logger.Enabled(ctx, tc.muted))
		})
	}
}

func TestDropTime(t *testing.T) {
	assert.Equal(t, slog.Attr{}, dropTime(nil, slog.String(slog.TimeKey, "now")))
	assert.Equal(t, slog.String("k", "v"), dropTime(nil, slog.String("k", "v")))
}
