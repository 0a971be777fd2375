package client

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/stream"
)

// Renderer displays the progress of a turn.
type Renderer interface {
	Log(message string)
	Answer(content string)
	Error(message string)
}

// Chat drives a conversation against the planning service. Every turn
// resubmits the whole session history.
type Chat struct {
	client  *Client
	session *Session
}

// NewChat binds a client to a session.
func NewChat(c *Client, s *Session) *Chat {
	return &Chat{client: c, session: s}
}

// Session returns the chat's session.
func (c *Chat) Session() *Session { return c.session }

// Start validates the trip form, appends its prompt and runs a turn.
func (c *Chat) Start(ctx context.Context, trip TripRequest, r Renderer) (string, error) {
	if err := trip.Validate(); err != nil {
		r.Error(IncompleteTripMessage)
		return "", err
	}

	return c.Ask(ctx, trip.Prompt(), r)
}

// Ask appends a user message and runs a turn. Blank input is ignored.
func (c *Chat) Ask(ctx context.Context, text string, r Renderer) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	c.session.Append(core.UserMessage(text))

	return c.Turn(ctx, r)
}

// Turn submits the history and renders the stream. A non-empty answer is
// appended to the session and returned. Failures are rendered and returned;
// nothing is retried.
func (c *Chat) Turn(ctx context.Context, r Renderer) (string, error) {
	var (
		answer    string
		streamErr string
	)

	err := c.client.Plan(ctx, c.session.Messages(), func(ev stream.Event) error {
		switch ev.Type {
		case stream.TypeLog:
			r.Log(ev.Message)
		case stream.TypeAnswer:
			answer = ev.Content
			r.Answer(answer)
		case stream.TypeError:
			streamErr = ev.Message
			r.Error("Backend Error: " + ev.Message)
		}
		return nil
	})

	var statusErr *StatusError

	switch {
	case errors.As(err, &statusErr):
		r.Error(statusErr.Error())
		return "", err
	case errors.Is(err, ErrUnavailable):
		r.Error("Could not connect to backend server. Is the planning service running?")
		return "", err
	case err != nil:
		r.Error(err.Error())
		return "", err
	}

	if answer != "" {
		c.session.Append(core.AssistantMessage(answer))
		return answer, nil
	}

	if streamErr != "" {
		return "", &BackendError{Message: streamErr}
	}

	return "", nil
}

// BackendError carries the message of an error stream event.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string { return "Backend Error: " + e.Message }
