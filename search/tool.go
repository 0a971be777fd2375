package search

import (
	"context"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/tool"
)

// ToolName is the name the search tool is exposed under.
const ToolName = "internet_search"

const (
	defaultMaxResults = 5
	missingKeyMessage = "TAVILY_API_KEY not found in environment variables."
)

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, req Request) (map[string]any, error)
}

// internetSearchArgs describes the arguments of the search tool.
type internetSearchArgs struct {
	Query             string `json:"query" description:"The search query"`
	MaxResults        int    `json:"max_results,omitempty" description:"Maximum number of results to return" default:"5"`
	Topic             string `json:"topic,omitempty" description:"Search category" enum:"general,news,finance" default:"general"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty" description:"Include the raw page content of each result" default:"false"`
}

// NewInternetSearchTool exposes s as the internet_search tool. A nil
// searcher yields a tool that always answers with the missing key payload.
func NewInternetSearchTool(s Searcher) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolName,
		"Run a web search using Tavily. Use this for finding hotels, flights, tour spots, and updated prices. Returns a dictionary with search results.",
		internetSearchArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			if s == nil {
				return map[string]any{"error": missingKeyMessage}, nil
			}

			req := requestFromArgs(args)

			toolCtx.LogInfo("search.query", "query", req.Query, "topic", req.Topic, "max_results", req.MaxResults)

			result, err := s.Search(toolCtx.Context(), req)
			if err != nil {
				toolCtx.LogWarn("search.failed", "query", req.Query, "error", err.Error())
				return map[string]any{"error": "Search failed: " + err.Error()}, nil
			}

			return result, nil
		},
	)
}

func requestFromArgs(args map[string]any) Request {
	req := Request{
		MaxResults: defaultMaxResults,
		Topic:      TopicGeneral,
	}

	req.Query, _ = args["query"].(string)

	switch v := args["max_results"].(type) {
	case float64:
		req.MaxResults = int(v)
	case int:
		req.MaxResults = v
	}

	if topic, ok := args["topic"].(string); ok && topic != "" {
		req.Topic = topic
	}

	if raw, ok := args["include_raw_content"].(bool); ok {
		req.IncludeRawContent = raw
	}

	return req
}
