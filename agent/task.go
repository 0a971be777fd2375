package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/tool"
)

// TaskToolName is the name of the tool a lead agent uses to spawn subagents.
const TaskToolName = "task"

// TaskPolicy decides whether a subagent may be spawned. Allow is consulted
// before the subagent starts; Complete reports its outcome. A non-nil error
// from Allow is returned to the model as a POLICY_VIOLATION tool error.
type TaskPolicy interface {
	Allow(turnID, subagent string) error
	Complete(subagent string, err error)
}

// AllowAllPolicy permits every task.
type AllowAllPolicy struct{}

// Allow implements TaskPolicy.
func (AllowAllPolicy) Allow(string, string) error { return nil }

// Complete implements TaskPolicy.
func (AllowAllPolicy) Complete(string, error) {}

// NewTaskTool builds the task tool over the given subagents. Each accepted
// call emits a task start event on branch task/<name>, runs the chosen
// subagent to completion there and returns its final text.
func NewTaskTool(subagents []Executor, policy TaskPolicy) tool.Tool {
	if policy == nil {
		policy = AllowAllPolicy{}
	}

	registry := make(map[string]Executor, len(subagents))
	for _, s := range subagents {
		registry[s.Name()] = s
	}

	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "Detailed, self-contained description of the task for the subagent",
			},
			"subagent_type": map[string]any{
				"type":        "string",
				"description": "Name of the subagent to use, one of: " + strings.Join(subagentNames(subagents), ", "),
			},
		},
		"required": []string{"description", "subagent_type"},
	}

	return tool.NewFunctionTool(TaskToolName, taskDescription(subagents), params, func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		description, _ := args["description"].(string)
		name, _ := args["subagent_type"].(string)

		sub, ok := registry[name]
		if !ok {
			return nil, tool.NewToolError(
				TaskToolName,
				fmt.Sprintf("unknown subagent_type %q, allowed types: %s", name, strings.Join(subagentNames(subagents), ", ")),
				tool.CodeInvalidSubagent,
			)
		}

		if err := policy.Allow(toolCtx.TurnID(), name); err != nil {
			return nil, tool.NewToolError(TaskToolName, err.Error(), tool.CodePolicyViolation)
		}

		parent := toolCtx.RunContext()
		child := parent.NewChildContext(
			core.AgentInfo{Name: name, Type: "subagent"},
			[]core.Content{core.NewTextContent(core.RoleUser, description)},
			buildBranchPath(parent.Branch, name),
		)

		if err := child.EmitEvent(core.NewTaskStartEvent(child.RunID, name, name, description)); err != nil {
			return nil, err
		}

		toolCtx.LogInfo("agent.task.start", "subagent", name, "branch", child.Branch)

		answer, err := sub.Execute(child)
		policy.Complete(name, err)

		if err != nil {
			return nil, err
		}

		return answer, nil
	})
}

func subagentNames(subagents []Executor) []string {
	names := make([]string, 0, len(subagents))
	for _, s := range subagents {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}

func taskDescription(subagents []Executor) string {
	var sb strings.Builder

	sb.WriteString("Launch a subagent to handle an isolated task. The subagent only sees the description you give it and returns a single final report.\n\nAvailable subagent types:\n")

	sorted := append([]Executor(nil), subagents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	for _, s := range sorted {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Name(), s.Description())
	}

	return strings.TrimRight(sb.String(), "\n")
}
