package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel(" TRACE "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("loud"))
}

func TestLogger_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewLoggerWith(zap.New(core), LogLevelWarn)

	l.Info("skipped %d", 1)
	l.Warn("kept %s", "warn")
	l.With("document_id", "d1").Error("kept %s", "error")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "kept warn", entries[0].Message)
		assert.Equal(t, "d1", entries[1].ContextMap()["document_id"])
	}
}
