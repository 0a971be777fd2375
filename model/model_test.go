package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/tourmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, m Model, req Request) Response {
	t.Helper()

	respCh, errCh := m.Generate(context.Background(), req)

	var last Response
	for r := range respCh {
		last = r
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	return last
}

func TestScriptedModel_ReplaysScript(t *testing.T) {
	m := NewScriptedModel("mock").
		Call("internet_search", `{"query":"Kyoto"}`).
		Say("done")

	first := collect(t, m, Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "hi")}})
	calls := first.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "internet_search", calls[0].Name)
	assert.Equal(t, "tool_calls", first.FinishReason)

	second := collect(t, m, Request{})
	assert.Equal(t, "done", second.Content.Text())
	assert.Equal(t, "stop", second.FinishReason)

	assert.Len(t, m.Requests(), 2)
}

func TestScriptedModel_EchoWhenExhausted(t *testing.T) {
	m := NewScriptedModel("mock")

	resp := collect(t, m, Request{Contents: []core.Content{
		core.NewTextContent(core.RoleUser, "plan Kyoto"),
		core.NewTextContent(core.RoleAssistant, "ok"),
	}})

	assert.Equal(t, "Mock response to: plan Kyoto", resp.Content.Text())
}

func TestScriptedModel_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	respCh, errCh := NewScriptedModel("mock").Say("x").Generate(ctx, Request{})
	for range respCh {
		t.Fatal("no response expected")
	}

	err := <-errCh
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFunctionResponseText(t *testing.T) {
	assert.Equal(t, "plain", FunctionResponseText(core.FunctionResponse{Response: "plain"}))
	assert.Equal(t, `{"results":[1,2]}`, FunctionResponseText(core.FunctionResponse{Response: map[string]any{"results": []int{1, 2}}}))
	assert.Equal(t, `{"error":"boom"}`, FunctionResponseText(core.FunctionResponse{Error: "boom"}))
}
