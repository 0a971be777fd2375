package tour

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/tourmesh/agent"
	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/logging"
	"github.com/hupe1980/tourmesh/model"
	"github.com/hupe1980/tourmesh/model/anthropic"
	"github.com/hupe1980/tourmesh/model/openai"
	"github.com/hupe1980/tourmesh/search"
	"github.com/hupe1980/tourmesh/tool"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
)

// LeadName is the author name of the lead agent's events.
const LeadName = "tour_planner"

// DefaultModel is used when no model name is configured.
const DefaultModel = openai.DefaultModel

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// ErrMissingCredentials is returned when the selected provider has no API key.
var ErrMissingCredentials = errors.New("model credentials missing")

// Options configures a Factory.
type Options struct {
	Provider    string
	ModelName   string
	Temperature float64

	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string

	// TavilyAPIKey enables web search. Without it the search tool answers
	// with an error payload.
	TavilyAPIKey string

	// Searcher overrides the Tavily client.
	Searcher search.Searcher

	// Model overrides the provider model.
	Model model.Model

	Logger logging.Logger
}

// Factory builds a fresh tour planning agent per conversation turn. The
// model client and search tool are shared between agents.
type Factory struct {
	opts       Options
	llm        model.Model
	llmErr     error
	searchTool tool.Tool
}

// NewFactory creates a Factory. Missing credentials are reported by NewAgent.
func NewFactory(optFns ...func(o *Options)) *Factory {
	opts := Options{
		Provider:    ProviderOpenAI,
		Temperature: 0.7,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	f := &Factory{opts: opts}

	f.llm, f.llmErr = f.buildModel()
	f.searchTool = search.NewInternetSearchTool(f.buildSearcher())

	return f
}

// ModelName returns the effective model identifier.
func (f *Factory) ModelName() string {
	if f.opts.Model != nil {
		return f.opts.Model.Info().Name
	}
	return f.modelName()
}

// NewAgent builds the lead agent and its subagents for a conversation. The
// lead's instruction and delegation policy depend on the phase derived from
// history.
func (f *Factory) NewAgent(history []core.Message) (*Agent, error) {
	if f.llmErr != nil {
		return nil, f.llmErr
	}

	phase := DetectPhase(history)
	policy := NewSequencePolicy(phase)

	subagents := make([]agent.SubAgentSpec, 0, len(subagentSpecs))
	for _, s := range subagentSpecs {
		spec := agent.SubAgentSpec{
			Name:        s.name,
			Description: s.description,
			Instruction: agent.NewInstructionFromText(s.prompt),
		}
		if s.search {
			spec.Tools = []tool.Tool{f.searchTool}
		}
		subagents = append(subagents, spec)
	}

	lead, err := agent.NewDeepAgent(LeadName, f.llm, func(o *agent.DeepAgentOptions) {
		o.Description = "Plans tours by delegating research, itinerary and budget work."
		o.Instruction = agent.Concat(
			agent.NewInstructionFromText(leadPrompt),
			agent.NewInstructionFromText(phaseNote(phase)),
		)
		o.Tools = []tool.Tool{f.searchTool}
		o.SubAgents = subagents
		o.Policy = policy
	})
	if err != nil {
		return nil, err
	}

	f.opts.Logger.Debug("tour.agent.built", "phase", phase.String(), "model", f.ModelName(), "messages", len(history))

	return &Agent{DeepAgent: lead, Phase: phase, Policy: policy}, nil
}

// Agent is a lead agent bound to one conversation turn.
type Agent struct {
	*agent.DeepAgent

	Phase  Phase
	Policy *SequencePolicy
}

func (f *Factory) modelName() string {
	if name := strings.TrimSpace(f.opts.ModelName); name != "" {
		return name
	}

	if f.opts.Provider == ProviderAnthropic {
		return string(anthropic.DefaultModel)
	}

	return DefaultModel
}

func (f *Factory) buildModel() (model.Model, error) {
	if f.opts.Model != nil {
		return f.opts.Model, nil
	}

	name := f.modelName()

	switch f.opts.Provider {
	case ProviderOpenAI, "":
		if f.opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not found in environment", ErrMissingCredentials)
		}

		return openai.NewModel(func(o *openai.Options) {
			o.Model = name
			o.Temperature = f.opts.Temperature
			o.APIKey = f.opts.OpenAIAPIKey
			o.BaseURL = f.opts.OpenAIBaseURL
		}), nil
	case ProviderAnthropic:
		if f.opts.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY not found in environment", ErrMissingCredentials)
		}

		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
			o.Temperature = f.opts.Temperature
			o.APIKey = f.opts.AnthropicAPIKey
		}), nil
	case ProviderMock:
		return model.NewScriptedModel(name), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", f.opts.Provider)
	}
}

func (f *Factory) buildSearcher() search.Searcher {
	if f.opts.Searcher != nil {
		return f.opts.Searcher
	}

	if strings.TrimSpace(f.opts.TavilyAPIKey) == "" {
		return nil
	}

	return search.NewClient(f.opts.TavilyAPIKey)
}
