package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_WithAndNamed(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log := NewLoggerWithSlog(base).Named("dunning").With("subscription_id", "sub-1")
	log.Infow("recovery attempted", "attempt", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "recovery attempted", line["msg"])
	assert.Equal(t, "dunning", line["logger"])
	assert.Equal(t, "sub-1", line["subscription_id"])
	assert.EqualValues(t, 2, line["attempt"])
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.With("k", "v").Named("x").Errorw("ignored", "error", "boom")
	})
}
