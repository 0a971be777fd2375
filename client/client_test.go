package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Log(message string)    { m.Called(message) }
func (m *MockRenderer) Answer(content string) { m.Called(content) }
func (m *MockRenderer) Error(message string)  { m.Called(message) }

// planServer answers /plan with lines and records submitted histories.
func planServer(t *testing.T, lines ...string) (*httptest.Server, *[][]core.Message) {
	t.Helper()

	var seen [][]core.Message

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/plan":
			var body struct {
				Messages []core.Message `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			seen = append(seen, body.Messages)

			w.Header().Set("Content-Type", stream.ContentType)
			for _, l := range lines {
				fmt.Fprintln(w, l)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &seen
}

func TestClient_Health(t *testing.T) {
	srv, _ := planServer(t)
	assert.Equal(t, Health{State: Online, StatusCode: 200}, New(srv.URL).Health(t.Context()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	h := New(down.URL).Health(t.Context())
	assert.Equal(t, Degraded, h.State)
	assert.Equal(t, "503", h.String())

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	assert.Equal(t, "Offline", New(url).Health(t.Context()).String())
}

func TestClient_Health_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()

	c := New(slow.URL, func(o *Options) { o.HealthTimeout = 20 * time.Millisecond })
	assert.Equal(t, Offline, c.Health(t.Context()).State)
}

func TestClient_Plan_DecodesStream(t *testing.T) {
	srv, seen := planServer(t,
		`{"type":"log","message":"🔍 **Researching**: Kyoto"}`,
		`garbage`,
		`{"type":"answer","content":"Three options"}`,
	)

	var got []stream.Event
	err := New(srv.URL).Plan(t.Context(), []core.Message{core.UserMessage("Plan Kyoto")}, func(ev stream.Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []stream.Event{stream.Log("🔍 **Researching**: Kyoto"), stream.Answer("Three options")}, got)
	require.Len(t, *seen, 1)
	assert.Equal(t, []core.Message{core.UserMessage("Plan Kyoto")}, (*seen)[0])
}

func TestClient_Plan_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"messages must not be empty"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Plan(t.Context(), nil, func(stream.Event) error { return nil })

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "API Error: 400 - Bad Request")
}

func TestClient_Plan_Unavailable(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	err := New(url).Plan(t.Context(), nil, func(stream.Event) error { return nil })
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestSession_CopyOnRead(t *testing.T) {
	s := NewSession()
	assert.NotEmpty(t, s.ID())

	s.Append(core.UserMessage("a"))
	msgs := s.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "a", s.Messages()[0].Content)
	assert.Equal(t, 1, s.Len())
	assert.NotEqual(t, s.ID(), NewSession().ID())
}

func TestTripRequest(t *testing.T) {
	assert.ErrorIs(t, TripRequest{Country: "Japan"}.Validate(), ErrIncompleteTrip)
	assert.ErrorIs(t, TripRequest{City: "Kyoto"}.Validate(), ErrIncompleteTrip)
	assert.Equal(t, "trip needs a country and a city or tour point", ErrIncompleteTrip.Error())

	trip := TripRequest{Country: "Japan", City: "Kyoto", Budget: BudgetLuxury, Notes: "Vegetarian food"}
	require.NoError(t, trip.Validate())
	assert.Equal(t,
		"Please plan a trip to Kyoto, Japan.\nBudget Level: Luxury (Premium).\nAdditional Notes: Vegetarian food.",
		trip.Prompt())

	assert.Contains(t, TripRequest{Country: "Japan", City: "Kyoto"}.Prompt(), "Budget Level: Standard (Comfort).")
}

func TestResolveBudget(t *testing.T) {
	for in, want := range map[string]string{
		"":           BudgetStandard,
		"backpacker": BudgetBackpacker,
		"Luxury":     BudgetLuxury,
		"medium":     BudgetStandard,
		"premium":    BudgetLuxury,
	} {
		got, err := ResolveBudget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ResolveBudget("platinum")
	assert.Error(t, err)
}

func TestChat_TurnAppendsAnswer(t *testing.T) {
	srv, seen := planServer(t,
		`{"type":"log","message":"🚀 **SubTask**: `+"`researcher`"+`\n> _hotels_"}`,
		`{"type":"answer","content":"Option 1, 2, 3"}`,
	)

	r := new(MockRenderer)
	r.On("Log", "🚀 **SubTask**: `researcher`\n> _hotels_").Once()
	r.On("Answer", "Option 1, 2, 3").Twice()

	chat := NewChat(New(srv.URL), NewSession())

	answer, err := chat.Start(t.Context(), TripRequest{Country: "Japan", City: "Kyoto"}, r)
	require.NoError(t, err)
	assert.Equal(t, "Option 1, 2, 3", answer)

	r.On("Log", mock.Anything)
	_, err = chat.Ask(t.Context(), "Option 2", r)
	require.NoError(t, err)

	require.Len(t, *seen, 2)
	assert.Len(t, (*seen)[0], 1)
	assert.Equal(t, []core.Message{
		core.UserMessage(TripRequest{Country: "Japan", City: "Kyoto"}.Prompt()),
		core.AssistantMessage("Option 1, 2, 3"),
		core.UserMessage("Option 2"),
	}, (*seen)[1])
	assert.Equal(t, 4, chat.Session().Len())
	r.AssertExpectations(t)
}

func TestChat_ErrorEventLeavesHistory(t *testing.T) {
	srv, _ := planServer(t, `{"type":"error","message":"model unavailable"}`)

	r := new(MockRenderer)
	r.On("Error", "Backend Error: model unavailable").Once()

	chat := NewChat(New(srv.URL), NewSession())

	_, err := chat.Ask(t.Context(), "Plan Hanoi", r)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, 1, chat.Session().Len())
	r.AssertExpectations(t)
}

func TestChat_InvalidTripAndBlankInput(t *testing.T) {
	r := new(MockRenderer)
	r.On("Error", "Please provide at least a Country and City/Tour Point.").Once()

	chat := NewChat(New("http://127.0.0.1:1"), NewSession())

	_, err := chat.Start(t.Context(), TripRequest{Country: "Japan"}, r)
	require.ErrorIs(t, err, ErrIncompleteTrip)

	answer, err := chat.Ask(t.Context(), "   ", r)
	require.NoError(t, err)
	assert.Empty(t, answer)
	assert.Equal(t, 0, chat.Session().Len())
	r.AssertExpectations(t)
}
