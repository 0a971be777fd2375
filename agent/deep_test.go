package agent

import (
	"errors"
	"testing"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/model"
	"github.com/hupe1980/tourmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainEvents(_ *core.RunContext, ch chan core.Event) []core.Event {
	var out []core.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func newDeepTestAgent(t *testing.T, llm model.Model, policy TaskPolicy) *DeepAgent {
	t.Helper()

	a, err := NewDeepAgent("lead", llm, func(o *DeepAgentOptions) {
		o.Instruction = NewInstructionFromText("You coordinate.")
		o.Policy = policy
		o.SubAgents = []SubAgentSpec{
			{Name: "researcher", Description: "Finds facts", Instruction: NewInstructionFromText("Research.")},
			{Name: "planner", Description: "Writes itineraries"},
		}
	})
	require.NoError(t, err)

	return a
}

func TestDeepAgent_DelegatesToSubagent(t *testing.T) {
	llm := model.NewScriptedModel("mock").
		Call(TaskToolName, `{"description":"Find three Kyoto highlights","subagent_type":"researcher"}`).
		Say("research notes").
		Say("Which option would you like to proceed with?")

	a := newDeepTestAgent(t, llm, nil)
	assert.Equal(t, []string{TaskToolName}, a.ListTools())
	require.NotNil(t, a.FindAgent("researcher"))

	emit := make(chan core.Event, 64)
	rc := core.NewRunContext(t.Context(), "run-1", core.AgentInfo{Name: "lead"}, []core.Content{core.NewTextContent(core.RoleUser, "Plan Kyoto")}, emit, 0, nil)

	answer, err := a.Execute(rc)
	require.NoError(t, err)
	assert.Equal(t, "Which option would you like to proceed with?", answer)

	events := drainEvents(rc, emit)
	require.Len(t, events, 5)

	assert.Equal(t, TaskToolName, events[0].GetFunctionCalls()[0].Name)
	assert.True(t, events[0].IsRoot())

	require.NotNil(t, events[1].Task)
	assert.Equal(t, core.TaskStart{Subagent: "researcher", Description: "Find three Kyoto highlights"}, *events[1].Task)
	assert.Equal(t, "task/researcher", events[1].Branch)
	assert.False(t, events[1].IsFinalResponse())

	assert.Equal(t, "researcher", events[2].Author)
	assert.Equal(t, "task/researcher", events[2].Branch)
	assert.Equal(t, "research notes", events[2].Text())

	resp := events[3].GetFunctionResponses()[0]
	assert.Equal(t, "research notes", resp.Response)
	assert.True(t, events[3].IsRoot())

	assert.True(t, events[4].IsFinalResponse())

	// the subagent only sees its task description
	reqs := llm.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "Research.", reqs[1].Instructions)
	require.Len(t, reqs[1].Contents, 1)
	assert.Equal(t, "Find three Kyoto highlights", reqs[1].Contents[0].Text())
	assert.Empty(t, reqs[1].Tools)
}

func TestDeepAgent_UnknownSubagent(t *testing.T) {
	llm := model.NewScriptedModel("mock").
		Call(TaskToolName, `{"description":"x","subagent_type":"chef"}`).
		Say("sorry")

	a := newDeepTestAgent(t, llm, nil)

	emit := make(chan core.Event, 64)
	rc := core.NewRunContext(t.Context(), "run-1", core.AgentInfo{Name: "lead"}, nil, emit, 0, nil)

	_, err := a.Execute(rc)
	require.NoError(t, err)

	events := drainEvents(rc, emit)
	require.Len(t, events, 3)
	resp := events[1].GetFunctionResponses()[0]
	assert.Contains(t, resp.Error, tool.CodeInvalidSubagent)
	assert.Contains(t, resp.Error, "planner, researcher")
}

type denyPolicy struct {
	completed []string
}

func (p *denyPolicy) Allow(_, subagent string) error {
	if subagent == "planner" {
		return errors.New("planner is not allowed yet")
	}
	return nil
}

func (p *denyPolicy) Complete(subagent string, _ error) { p.completed = append(p.completed, subagent) }

func TestDeepAgent_PolicyVeto(t *testing.T) {
	llm := model.NewScriptedModel("mock").
		Call(TaskToolName, `{"description":"plan","subagent_type":"planner"}`).
		Call(TaskToolName, `{"description":"research","subagent_type":"researcher"}`).
		Say("notes").
		Say("done")

	policy := &denyPolicy{}
	a := newDeepTestAgent(t, llm, policy)

	emit := make(chan core.Event, 64)
	rc := core.NewRunContext(t.Context(), "run-1", core.AgentInfo{Name: "lead"}, nil, emit, 0, nil)

	answer, err := a.Execute(rc)
	require.NoError(t, err)
	assert.Equal(t, "done", answer)

	events := drainEvents(rc, emit)
	veto := events[1].GetFunctionResponses()[0]
	assert.Contains(t, veto.Error, tool.CodePolicyViolation)
	assert.Contains(t, veto.Error, "planner is not allowed yet")
	assert.Equal(t, []string{"researcher"}, policy.completed)

	var started []string
	for _, ev := range events {
		if ev.Task != nil {
			started = append(started, ev.Task.Subagent)
		}
	}
	assert.Equal(t, []string{"researcher"}, started)
}

func TestNewDeepAgent_Validation(t *testing.T) {
	_, err := NewDeepAgent("lead", nil)
	assert.Error(t, err)

	_, err = NewDeepAgent("lead", model.NewScriptedModel("mock"), func(o *DeepAgentOptions) {
		o.SubAgents = []SubAgentSpec{{Name: "a"}, {Name: "a"}}
	})
	assert.ErrorContains(t, err, "duplicate sub-agent name")

	_, err = NewDeepAgent("lead", model.NewScriptedModel("mock"), func(o *DeepAgentOptions) {
		o.SubAgents = []SubAgentSpec{{Name: ""}}
	})
	assert.Error(t, err)
}

func TestBuildBranchPath(t *testing.T) {
	assert.Equal(t, "task/planner", buildBranchPath("", "planner"))
	assert.Equal(t, "task/a/task/b", buildBranchPath("task/a", "b"))
}
