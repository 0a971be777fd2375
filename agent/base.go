package agent

import (
	"fmt"
	"sync"

	"github.com/hupe1980/tourmesh/core"
)

// BaseAgent bundles identity and hierarchy helpers. Embed it in concrete
// agent implementations and supply a Run method to satisfy core.Agent. All
// exported methods are goroutine-safe.
type BaseAgent struct {
	name        string
	description string
	mu          sync.Mutex
	subAgents   []core.Agent
}

// NewBaseAgent constructs a BaseAgent with a generated description.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the agent name.
func (b *BaseAgent) Name() string { return b.name }

// Description returns the agent description.
func (b *BaseAgent) Description() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.description
}

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.description = desc
}

// SetSubAgents replaces the child set. Child names must be unique.
func (b *BaseAgent) SetSubAgents(children ...core.Agent) error {
	seen := make(map[string]struct{}, len(children))
	for _, child := range children {
		if _, dup := seen[child.Name()]; dup {
			return fmt.Errorf("duplicate sub-agent name %q", child.Name())
		}
		seen[child.Name()] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subAgents = append([]core.Agent(nil), children...)

	return nil
}

// SubAgents returns a shallow copy of current child agents.
func (b *BaseAgent) SubAgents() []core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]core.Agent, len(b.subAgents))
	copy(result, b.subAgents)

	return result
}

// FindAgent performs a depth-first search over the children returning the
// first agent whose Name matches, or nil.
func (b *BaseAgent) FindAgent(name string) core.Agent {
	for _, child := range b.SubAgents() {
		if child.Name() == name {
			return child
		}

		if finder, ok := child.(interface{ FindAgent(string) core.Agent }); ok {
			if found := finder.FindAgent(name); found != nil {
				return found
			}
		}
	}

	return nil
}
