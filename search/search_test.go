package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, req Request) (map[string]any, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(map[string]any)
	return res, args.Error(1)
}

func newToolContext(t *testing.T) *core.ToolContext {
	t.Helper()

	rc := core.NewRunContext(t.Context(), "run-1", core.AgentInfo{Name: "researcher"}, nil, make(chan core.Event, 8), 0, nil)

	return core.NewToolContext(rc, "fc-1", "turn-1")
}

func newTestClient(url string) *Client {
	return NewClient("tvly-test", func(o *Options) {
		o.BaseURL = url
		o.InitialBackoff = time.Millisecond
		o.MaxBackoff = 4 * time.Millisecond
	})
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hotels in Porto", req.Query)
		assert.Equal(t, 3, req.MaxResults)
		assert.Equal(t, TopicNews, req.Topic)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"query":   req.Query,
			"results": []map[string]any{{"title": "Hotel A", "url": "https://a.example"}},
		})
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Search(t.Context(), Request{Query: "hotels in Porto", MaxResults: 3, Topic: TopicNews})
	require.NoError(t, err)
	assert.Equal(t, "hotels in Porto", out["query"])
	assert.Len(t, out["results"], 1)
}

func TestClient_Search_RetriesOn429(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Search(t.Context(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, out, "results")
}

func TestClient_Search_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("k", func(o *Options) {
		o.BaseURL = srv.URL
		o.InitialBackoff = time.Millisecond
		o.MaxRetries = 2
	})

	_, err := c.Search(t.Context(), Request{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tavily http 429")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Search_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(t.Context(), Request{Query: "q"})
	require.Error(t, err)
	assert.Equal(t, "tavily http 401: invalid api key", err.Error())
}

func TestClient_Search_MissingKey(t *testing.T) {
	_, err := NewClient(" ").Search(t.Context(), Request{Query: "q"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestInternetSearchTool_Defaults(t *testing.T) {
	s := new(MockSearcher)
	s.On("Search", mock.Anything, Request{Query: "Lisbon museums", MaxResults: 5, Topic: TopicGeneral}).
		Return(map[string]any{"results": []any{}}, nil).Once()

	tl := NewInternetSearchTool(s)
	assert.Equal(t, ToolName, tl.Name())

	out, err := tl.Call(newToolContext(t), map[string]any{"query": "Lisbon museums"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"results": []any{}}, out)
	s.AssertExpectations(t)
}

func TestInternetSearchTool_Schema(t *testing.T) {
	params := NewInternetSearchTool(nil).Parameters()
	assert.Equal(t, []string{"query"}, params["required"])

	props := params["properties"].(map[string]any)
	require.Len(t, props, 4)

	maxResults := props["max_results"].(map[string]any)
	assert.Equal(t, "integer", maxResults["type"])
	assert.EqualValues(t, defaultMaxResults, maxResults["default"])

	topic := props["topic"].(map[string]any)
	assert.Equal(t, []string{TopicGeneral, TopicNews, TopicFinance}, topic["enum"])
	assert.Equal(t, TopicGeneral, topic["default"])

	raw := props["include_raw_content"].(map[string]any)
	assert.Equal(t, "boolean", raw["type"])
	assert.Equal(t, false, raw["default"])

	_, err := NewInternetSearchTool(nil).Call(newToolContext(t), map[string]any{"query": "Hue", "topic": "sports"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")
}

func TestInternetSearchTool_ExplicitArgs(t *testing.T) {
	s := new(MockSearcher)
	s.On("Search", mock.Anything, Request{Query: "EUR to JPY", MaxResults: 2, Topic: TopicFinance, IncludeRawContent: true}).
		Return(map[string]any{"ok": true}, nil).Once()

	_, err := NewInternetSearchTool(s).Call(newToolContext(t), map[string]any{
		"query":               "EUR to JPY",
		"max_results":         float64(2),
		"topic":               "finance",
		"include_raw_content": true,
	})
	require.NoError(t, err)
	s.AssertExpectations(t)
}

func TestInternetSearchTool_FailureIsPayload(t *testing.T) {
	s := new(MockSearcher)
	s.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("tavily http 500")).Once()

	out, err := NewInternetSearchTool(s).Call(newToolContext(t), map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "Search failed: tavily http 500"}, out)
}

func TestInternetSearchTool_NoSearcher(t *testing.T) {
	out, err := NewInternetSearchTool(nil).Call(newToolContext(t), map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "TAVILY_API_KEY not found in environment variables."}, out)
}
