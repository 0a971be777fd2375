package server

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/search"
)

// relayLine is one progress line with its journal counterpart.
type relayLine struct {
	message string
	journal string
}

// relay maps an engine event to the progress lines shown to the traveller:
// subagents accepted by the task tool and web searches, from any branch.
// A task call the tool rejects never produces a start event and is not
// relayed.
func relay(ev core.Event) []relayLine {
	if ev.Partial {
		return nil
	}

	var lines []relayLine

	if ev.Task != nil {
		lines = append(lines, relayLine{
			message: fmt.Sprintf("🚀 **SubTask**: `%s`\n> _%s_", ev.Task.Subagent, ev.Task.Description),
			journal: fmt.Sprintf("subtask %s %s", ev.Task.Subagent, ev.Task.Description),
		})
	}

	for _, fc := range ev.GetFunctionCalls() {
		if fc.Name != search.ToolName {
			continue
		}

		q := queryOf(fc.Arguments)
		lines = append(lines, relayLine{
			message: "🔍 **Researching**: " + q,
			journal: "internet_search " + q,
		})
	}

	return lines
}

func queryOf(arguments string) string {
	var args struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal([]byte(arguments), &args)
	return args.Query
}
