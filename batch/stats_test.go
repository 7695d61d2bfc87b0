package batch

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_LogValue(t *testing.T) {
	stats := &Stats{Total: 5, Resumed: 1, Succeeded: 2, Failed: 1, Skipped: 1, Elapsed: time.Second}
	assert.Equal(t, 4, stats.Processed())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("done", "stats", stats)

	out := buf.String()
	assert.Contains(t, out, "stats.total=5")
	assert.Contains(t, out, "stats.failed=1")
	assert.Contains(t, out, "stats.elapsed=1s")
}
