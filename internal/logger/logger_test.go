package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitParsesLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			Init(tt.level, "text")
			ctx := context.Background()
			assert.True(t, Get().Enabled(ctx, tt.want))
			assert.False(t, Get().Enabled(ctx, tt.want-1))
		})
	}
}

func TestWithContextAddsRequestFields(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	Init("info", "json")
	os.Stdout = stdout
	t.Cleanup(func() { Init("info", "json") })

	ctx := ContextWithPrincipal(ContextWithRequestID(context.Background(), "req-1"), "agent-7")
	WithContext(ctx).Info("booked", "pnr", "ABC")
	WithContext(context.Background()).Info("bare")
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, "agent-7", first["principal"])
	assert.Equal(t, "ABC", first["pnr"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.NotContains(t, second, "request_id")
}
