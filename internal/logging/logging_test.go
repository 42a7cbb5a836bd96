package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   Level
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{"DEBUG", LevelDebug, true},
		{" info ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf, Prefix: "test"})

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown %d", 1)
	l.Error("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] test: shown 1")
	assert.Contains(t, out, "[ERROR] test: shown 2")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestFieldsAreSortedAndShared(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: LevelInfo, Output: &buf})
	l := root.WithComponent("tracker").WithField("action", "Undo")

	l.Info("done")
	assert.Contains(t, buf.String(), "done {action=Undo, component=tracker}")

	// Derived loggers follow level changes of their parent.
	buf.Reset()
	root.SetLevel(LevelError)
	l.Info("dropped")
	assert.Empty(t, buf.String())
	assert.False(t, l.Enabled(LevelWarn))
	assert.True(t, l.Enabled(LevelError))
}

func TestNullDiscards(t *testing.T) {
	l := Null()
	assert.False(t, l.Enabled(LevelError))
	l.Error("nothing")
}
