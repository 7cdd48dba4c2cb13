package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorErrAddsErrorField(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.ErrorErr("save failed", errors.New("boom"), "request_id", "r-1")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "save failed", entries[0].Message)
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "r-1", ctx["request_id"])
}

func TestCredentialsAreRedacted(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login", "username", "ann", "password", "hunter2", "refresh_token", "abc")

	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "ann", ctx["username"])
	assert.Equal(t, "[REDACTED]", ctx["password"])
	assert.Equal(t, "[REDACTED]", ctx["refresh_token"])
}

func TestLevelsPerEnv(t *testing.T) {
	assert.True(t, New("local").logger.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, New("dev").logger.Desugar().Core().Enabled(zap.DebugLevel))
	assert.False(t, New("prod").logger.Desugar().Core().Enabled(zap.DebugLevel))
}
