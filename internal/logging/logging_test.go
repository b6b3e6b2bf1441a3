package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return New(buf, Options{Level: level, Plain: true, NoTime: true})
}

func TestHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	log := plain(&buf, slog.LevelInfo)

	log.Info("published module", "entry", "main_cs", "path", "/tmp/a b.spv")

	assert.Equal(t, `INFO  published module entry=main_cs path="/tmp/a b.spv"`+"\n", buf.String())
}

func TestHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := plain(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")

	assert.Equal(t, "WARN  shown\n", buf.String())
	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func TestHandlerAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := plain(&buf, slog.LevelDebug).With("component", "watch").WithGroup("build")

	log.Debug("compiled", "modules", 2, slog.Group("timing", "ms", 15))

	assert.Equal(t, "DEBUG compiled component=watch build.modules=2 build.timing.ms=15\n", buf.String())
}

func TestHandlerMultiline(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf, slog.LevelInfo).Error("SPIR-V validation failed", "diagnostic", "line one\nline two")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "ERROR SPIR-V validation failed diagnostic="))
	assert.Equal(t, 1, strings.Count(out, "\n"), "values must stay on one line")
}

func TestHandlerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Plain: true}).Info("tick")

	fields := strings.Fields(buf.String())
	require.Len(t, fields, 3)
	assert.Len(t, fields[0], len("15:04:05"))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}
