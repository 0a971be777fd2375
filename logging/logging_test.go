package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestStructuredLogger_JSONKeyValues(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf}).
		WithComponent("server").
		WithRun("run-1").
		WithContext("env", "test")

	logger.Debug("hidden")
	logger.Info("plan.start", "messages", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "plan.start", entry["msg"])
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "test", entry["env"])
	assert.EqualValues(t, 2, entry["messages"])
}

func TestStructuredLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer

	base := NewLogger(&LoggerConfig{Format: "text", Output: &buf})
	_ = base.WithContext("k", "v")

	base.Info("hello")
	assert.NotContains(t, buf.String(), "k=v")
}

func TestJournal_Format(t *testing.T) {
	var buf bytes.Buffer

	j := NewJournal(&buf)
	j.now = func() time.Time { return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC) }

	j.Info("start plan")
	j.Info("subtask researcher find\nmuseums")
	j.Error("boom", "run_id", "r1")

	assert.Equal(t,
		"2025-01-02T15:04:05Z INFO start plan\n"+
			"2025-01-02T15:04:05Z INFO subtask researcher find museums\n"+
			"2025-01-02T15:04:05Z ERROR boom run_id=r1\n",
		buf.String())
	assert.NoError(t, j.Close())
}

func TestOpenJournal_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.logs")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	j.Info("first")
	require.NoError(t, j.Close())

	j, err = OpenJournal(path)
	require.NoError(t, err)
	j.Info("second")
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "INFO first"))
	assert.True(t, strings.HasSuffix(lines[1], "INFO second"))
}

func TestForRun(t *testing.T) {
	var buf bytes.Buffer

	ForRun(NewLogger(&LoggerConfig{Format: "json", Output: &buf}), "run-7").Info("plan.done")
	assert.Contains(t, buf.String(), `"run_id":"run-7"`)

	var journal bytes.Buffer

	j := NewJournal(&journal)
	assert.Same(t, j, ForRun(j, "run-7"))
}
