package agent

// buildBranchPath composes the branch of a subagent spawned by the task tool:
// "task/<child>" for a root parent, "<parent>/task/<child>" otherwise.
func buildBranchPath(parent, child string) string {
	if parent == "" {
		return "task/" + child
	}
	return parent + "/task/" + child
}
