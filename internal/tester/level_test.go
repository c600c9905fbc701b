package tester

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLevel_TotalOrder(t *testing.T) {
	levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}
	for i, configured := range levels {
		for j, msg := range levels {
			assert.Equal(t, i <= j, configured.Admits(msg), "%s admits %s", configured, msg)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"FATAL":   LevelFatal,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLevel_StringAndLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "FATAL", LevelFatal.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())

	assert.Equal(t, log.DebugLevel, LevelDebug.LogLevel())
	assert.Equal(t, log.InfoLevel, LevelInfo.LogLevel())
	assert.Equal(t, log.WarnLevel, LevelWarn.LogLevel())
	assert.Equal(t, log.ErrorLevel, LevelError.LogLevel())
	assert.Equal(t, log.FatalLevel, LevelFatal.LogLevel())

	text, err := LevelWarn.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "WARN", string(text))
}
