package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/tourmesh/core"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(*core.RunContext) (string, error) { return m.text, m.err }

func newTestRunContext() *core.RunContext {
	return core.NewRunContext(
		context.Background(),
		"run-id",
		core.AgentInfo{Name: "TestAgent", Type: "test"},
		[]core.Content{core.NewTextContent(core.RoleUser, "hello")},
		make(chan core.Event, 64),
		0,
		nil,
	)
}

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(newTestRunContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_NewInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(rc *core.RunContext) (string, error) { return "for " + rc.Agent.Name, nil })
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(newTestRunContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "for TestAgent" {
		t.Fatalf("expected 'for TestAgent', got %q", got)
	}
}

func TestInstruction_ErrorPropagation(t *testing.T) {
	expectedErr := errors.New("boom")
	inst := NewInstructionFromProvider(mockProvider{err: expectedErr})
	_, err := inst.Resolve(newTestRunContext())
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}

	_, err = Concat(NewInstructionFromText("a"), inst).Resolve(newTestRunContext())
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected Concat to propagate %v, got %v", expectedErr, err)
	}
}

func TestInstruction_Concat(t *testing.T) {
	inst := Concat(
		NewInstructionFromText("first"),
		NewInstructionFromText("  "),
		NewInstructionFromProvider(mockProvider{text: "second"}),
	)
	got, err := inst.Resolve(newTestRunContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first\n\nsecond" {
		t.Fatalf("unexpected concat result %q", got)
	}
	if (Instruction{}).IsZero() != true || inst.IsZero() {
		t.Fatal("IsZero mismatch")
	}
}
