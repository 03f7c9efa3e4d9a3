package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"schedule_bot/internal/models"
)

func TestContextHandler_AddsScopeAndCommand(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "text")

	ctx := WithScope(context.Background(), models.GroupScope("g1", "u1"))
	ctx = WithCommand(ctx, "!seminar_view")
	log.InfoContext(ctx, "handled", "k", "v")

	out := buf.String()
	for _, want := range []string{"level=INFO", "msg=handled", "scope=group", "user_id=u1", "group_id=g1", "command=!seminar_view", "k=v"} {
		assert.Contains(t, out, want)
	}
}

func TestContextHandler_WithoutValues(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json").With("component", "test")

	log.InfoContext(context.Background(), "plain")
	out := buf.String()
	assert.Contains(t, out, `"msg":"plain"`)
	assert.Contains(t, out, `"component":"test"`)
	assert.NotContains(t, out, "scope")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
