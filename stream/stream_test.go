package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Log("🔍 **Researching**: Kyoto"), `{"type":"log","message":"🔍 **Researching**: Kyoto"}`},
		{Answer("plan"), `{"type":"answer","content":"plan"}`},
		{Error("boom"), `{"type":"error","message":"boom"}`},
		{Error(""), `{"type":"error","message":""}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.ev)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(data))
	}

	_, err := json.Marshal(Event{Type: "progress"})
	assert.Error(t, err)
}

func TestEvent_UnmarshalJSON_Rejects(t *testing.T) {
	var ev Event

	assert.Error(t, json.Unmarshal([]byte(`{"type":"answer"}`), &ev))
	assert.Error(t, json.Unmarshal([]byte(`{"type":"log"}`), &ev))
	assert.Error(t, json.Unmarshal([]byte(`{"type":"other","message":"x"}`), &ev))
}

func TestEncoder_FlushesEachLine(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	require.NoError(t, enc.Encode(Log("a")))
	assert.True(t, rec.Flushed)
	require.NoError(t, enc.Encode(Answer("b")))

	assert.Equal(t, "{\"type\":\"log\",\"message\":\"a\"}\n{\"type\":\"answer\",\"content\":\"b\"}\n", rec.Body.String())
}

func TestDecoder_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"log","message":"one"}`,
		``,
		`not json`,
		`{"type":"unknown","message":"x"}`,
		`{"type":"answer","content":"done"}`,
	}, "\n")

	dec := NewDecoder(strings.NewReader(input))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Log("one"), ev)
	assert.False(t, ev.Terminal())

	ev, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Answer("done"), ev)
	assert.True(t, ev.Terminal())
	assert.Equal(t, "done", ev.Text())

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, dec.Skipped())
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	events := []Event{Log("🚀 **SubTask**: `researcher`\n> _find hotels_"), Error("model unavailable")}
	for _, ev := range events {
		require.NoError(t, enc.Encode(ev))
	}

	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	dec := NewDecoder(&buf)
	for _, want := range events {
		got, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEncoder_WritesMarkdownUnescaped(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewEncoder(&buf).Encode(Log("> _quote_ & more")))
	assert.Equal(t, "{\"type\":\"log\",\"message\":\"> _quote_ & more\"}\n", buf.String())
}

func TestEvent_MarshalJSON_KeepsMarkdown(t *testing.T) {
	data, err := Log("🚀 **SubTask**: `planner`\n> _Draft <days> & costs_").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"log","message":"🚀 **SubTask**: `+"`planner`"+`\n> _Draft <days> & costs_"}`, string(data))
}
