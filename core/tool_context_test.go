package core

import "testing"

func TestToolContext_Accessors(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.Branch = "task/researcher"

	tc := NewToolContext(rc, "call-1", "turn-1")

	if tc.FunctionCallID() != "call-1" {
		t.Errorf("unexpected call id %q", tc.FunctionCallID())
	}
	if tc.TurnID() != "turn-1" {
		t.Errorf("unexpected turn id %q", tc.TurnID())
	}
	if tc.RunID() != "run-1" {
		t.Errorf("unexpected run id %q", tc.RunID())
	}
	if tc.AgentName() != "lead" {
		t.Errorf("unexpected agent %q", tc.AgentName())
	}
	if tc.Branch() != "task/researcher" {
		t.Errorf("unexpected branch %q", tc.Branch())
	}
	if tc.RunContext() != rc {
		t.Error("RunContext should return the parent context")
	}
	if tc.Context() == nil || tc.Logger() == nil {
		t.Error("context and logger must be non-nil")
	}
}
