package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommonLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	c := NewConfig("tests")
	c.Writer = buf
	c.Level = slog.LevelDebug

	l, err := CommonLogger(c)
	require.NoError(t, err, "Failed to create logger")

	l.Debug("hello", slog.String(KeyUserID, "42"))

	got := make(map[string]any)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "tests", got[KeyApp])
	require.Equal(t, "42", got[KeyUserID])
	require.Equal(t, "hello", got["msg"])
}

func TestCommonLogger_Invalid(t *testing.T) {
	_, err := CommonLogger(nil)
	require.Error(t, err)

	_, err = CommonLogger(NewConfig(""))
	require.Error(t, err)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}
