package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/engine"
	"github.com/hupe1980/tourmesh/logging"
	"github.com/hupe1980/tourmesh/stream"
	"github.com/labstack/echo/v4"
)

// planRequest is the body of POST /plan. Messages wins over the legacy
// single query field.
type planRequest struct {
	Messages []core.Message `json:"messages"`
	Query    *string        `json:"query"`
}

// history returns the conversational messages of the request.
func (r planRequest) history() []core.Message {
	msgs := r.Messages
	if len(msgs) == 0 && r.Query != nil {
		msgs = []core.Message{core.UserMessage(*r.Query)}
	}

	out := make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsConversational() {
			out = append(out, m)
		}
	}

	return out
}

func (s *Server) plan(c echo.Context) error {
	// Any content type is accepted as long as the body is JSON.
	var body planRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		s.metrics.planRequests.WithLabelValues(outcomeRejected).Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	history := body.history()
	if len(history) == 0 {
		s.metrics.planRequests.WithLabelValues(outcomeRejected).Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "messages must not be empty")
	}

	start := time.Now()
	defer func() { s.metrics.planDuration.Observe(time.Since(start).Seconds()) }()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, stream.ContentType)
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.WriteHeader(http.StatusOK)

	w := &planWriter{enc: stream.NewEncoder(resp), metrics: s.metrics}

	answer, err := s.runPlan(c, history, w)
	if err != nil {
		s.journal.Error(err.Error())
		s.logger.Warn("plan.failed", "error", err.Error(), "request_id", resp.Header().Get(echo.HeaderXRequestID))
		s.metrics.planRequests.WithLabelValues(outcomeError).Inc()
		w.write(stream.Error(err.Error()))

		return nil
	}

	s.journal.Info("final_answer")
	s.metrics.planRequests.WithLabelValues(outcomeAnswer).Inc()
	w.write(stream.Answer(answer))

	return nil
}

// runPlan builds the agent, relays the run's progress and returns the lead
// agent's final answer.
func (s *Server) runPlan(c echo.Context, history []core.Message, w *planWriter) (string, error) {
	lead, err := s.factory.NewAgent(history)
	if err != nil {
		return "", err
	}

	s.journal.Info("start plan")
	s.logger.Info("plan.start", "messages", len(history), "phase", lead.Phase.String())

	runID, events, errs, err := s.engine.Invoke(c.Request().Context(), lead, history)
	if err != nil {
		return "", err
	}

	logger := logging.ForRun(s.logger, runID)

	var root []core.Event

	for ev := range events {
		if ev.IsRoot() && !ev.Partial {
			root = append(root, ev)
		}

		for _, line := range relay(ev) {
			logger.Debug("plan.relay", "line", line.journal)
			s.journal.Info(line.journal)
			w.write(stream.Log(line.message))
		}
	}

	if err := <-errs; err != nil {
		return "", err
	}

	answer, err := engine.FinalResponse(root, lead.Name())
	if err != nil {
		return "", errors.New("agent finished without a final answer")
	}

	logger.Info("plan.done", "answer_chars", len(answer))

	return answer, nil
}

// planWriter writes stream events and stops writing after the first failure,
// which means the client is gone.
type planWriter struct {
	enc     *stream.Encoder
	metrics *Metrics
	failed  bool
}

func (w *planWriter) write(ev stream.Event) {
	if w.failed {
		return
	}

	if err := w.enc.Encode(ev); err != nil {
		w.failed = true
		return
	}

	w.metrics.streamEvents.WithLabelValues(string(ev.Type)).Inc()
}
