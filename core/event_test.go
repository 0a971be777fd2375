package core

import (
	"errors"
	"testing"
)

func TestEvent_FinalResponse(t *testing.T) {
	msg := NewMessageEvent("run", "lead", "Here is your plan.")
	if !msg.IsFinalResponse() {
		t.Fatal("plain assistant text should be final")
	}
	if msg.Text() != "Here is your plan." {
		t.Fatalf("unexpected text %q", msg.Text())
	}

	call := NewFunctionCallEvent("run", "lead", FunctionCall{ID: "1", Name: "task", Arguments: `{}`})
	if call.IsFinalResponse() {
		t.Fatal("function call event must not be final")
	}
	if got := call.GetFunctionCalls(); len(got) != 1 || got[0].Name != "task" {
		t.Fatalf("unexpected calls %+v", got)
	}

	resp := NewFunctionResponseEvent("run", "lead", "1", "task", nil, errors.New("boom"))
	if resp.IsFinalResponse() {
		t.Fatal("function response event must not be final")
	}
	if got := resp.GetFunctionResponses(); len(got) != 1 || got[0].Error != "boom" {
		t.Fatalf("unexpected responses %+v", got)
	}

	partial := NewMessageEvent("run", "lead", "Here")
	partial.Partial = true
	if partial.IsFinalResponse() {
		t.Fatal("partial chunk must not be final")
	}

	failed := NewErrorEvent("run", "lead", errors.New("model down"))
	if failed.IsFinalResponse() || failed.ErrorMessage != "model down" {
		t.Fatalf("unexpected error event %+v", failed)
	}
}

func TestEvent_IsRoot(t *testing.T) {
	ev := NewEvent("run", "lead")
	if !ev.IsRoot() {
		t.Fatal("event without branch is root")
	}
	ev.Branch = "task/planner"
	if ev.IsRoot() {
		t.Fatal("branched event is not root")
	}
}

func TestMessage_ValidateAndConvert(t *testing.T) {
	if err := UserMessage("hi").Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := (Message{Role: "system", Content: "x"}).Validate(); err == nil {
		t.Fatal("system role should be rejected")
	}
	if err := AssistantMessage("  ").Validate(); err == nil {
		t.Fatal("blank content should be rejected")
	}

	contents := ToContents([]Message{
		UserMessage("plan a trip"),
		{Role: RoleSystem, Content: "ignored"},
		AssistantMessage("Which option would you like to proceed with?"),
	})
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[1].Role != RoleAssistant {
		t.Fatalf("unexpected role %q", contents[1].Role)
	}

	last, ok := LastMessage([]Message{UserMessage("a"), UserMessage("b")})
	if !ok || last.Content != "b" {
		t.Fatalf("unexpected last message %+v", last)
	}
	if _, ok := LastMessage(nil); ok {
		t.Fatal("empty history has no last message")
	}
}

func TestNewTaskStartEvent(t *testing.T) {
	ev := NewTaskStartEvent("run", "planner", "planner", "Draft day 1")
	if ev.Task == nil || ev.Task.Subagent != "planner" || ev.Task.Description != "Draft day 1" {
		t.Fatalf("unexpected task start %+v", ev.Task)
	}
	if ev.IsFinalResponse() {
		t.Fatal("task start must not be final")
	}
	if ev.Text() != "" {
		t.Fatalf("task start carries no text, got %q", ev.Text())
	}
}
